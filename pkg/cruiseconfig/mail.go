package cruiseconfig

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

// MailHost is the SMTP server used for notifications.
type MailHost struct {
	errorCollector    `yaml:"-" json:"-"`
	Hostname          string `yaml:"hostname" json:"hostname"`
	Port              int    `yaml:"port" json:"port"`
	Username          string `yaml:"username,omitempty" json:"username,omitempty"`
	Password          string `yaml:"password,omitempty" json:"password,omitempty" param:"skip"`
	EncryptedPassword string `yaml:"encrypted_password,omitempty" json:"encrypted_password,omitempty" param:"skip"`
	TLS               bool   `yaml:"tls,omitempty" json:"tls,omitempty"`
	From              string `yaml:"from" json:"from"`
	AdminMail         string `yaml:"admin_mail" json:"admin_mail"`
}

func (m *MailHost) Validate(_ *ValidationContext) {
	if strings.TrimSpace(m.Hostname) == "" {
		m.AddError("hostname", "Hostname must not be blank.")
	}
	if m.Port <= 0 {
		m.AddError("port", "Port must be a positive number.")
	}
	validateAddress(m, "from", "From", m.From)
	validateAddress(m, "admin_mail", "Admin", m.AdminMail)
	if m.Password != "" && m.EncryptedPassword != "" {
		m.AddError("password", "You may only specify `password` or `encrypted_password`, not both!")
		m.AddError("encrypted_password", "You may only specify `password` or `encrypted_password`, not both!")
	}
	if m.EncryptedPassword != "" && !encryption.IsEncrypted(m.EncryptedPassword) {
		m.AddError("encrypted_password", "Encrypted password value for mail host is invalid. This usually happens when the cipher text is modified to have an invalid value.")
	}
}

func validateAddress(v Validatable, field, label, address string) {
	if strings.TrimSpace(address) == "" {
		v.AddError(field, fmt.Sprintf("%s address must not be blank.", label))
		return
	}
	if _, err := mail.ParseAddress(address); err != nil {
		v.AddError(field, fmt.Sprintf("%s address is not a valid email address.", label))
	}
}

// CurrentPassword returns the plain text password.
func (m *MailHost) CurrentPassword(c encryption.Cipher) (string, error) {
	if m.EncryptedPassword == "" {
		return m.Password, nil
	}
	if c == nil {
		return "", encryption.ErrNoCipherDefined
	}
	return c.Decrypt(m.EncryptedPassword)
}

// EncryptSecureProperties moves a plain text password into
// EncryptedPassword.
func (m *MailHost) EncryptSecureProperties(c encryption.Cipher) error {
	if m.Password == "" || m.EncryptedPassword != "" {
		return nil
	}
	if c == nil {
		return encryption.ErrNoCipherDefined
	}
	encrypted, err := c.Encrypt(m.Password)
	if err != nil {
		return fmt.Errorf("failed to encrypt mail host password: %w", err)
	}
	m.EncryptedPassword = encrypted
	m.Password = ""
	return nil
}
