package cruiseconfig

import (
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

// EnvironmentVariableConfig is a variable exported to jobs. Secure variables
// are stored encrypted.
type EnvironmentVariableConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Name           string `yaml:"name" json:"name" param:"skip"`
	Value          string `yaml:"value,omitempty" json:"value,omitempty"`
	Secure         bool   `yaml:"secure,omitempty" json:"secure,omitempty"`
	EncryptedValue string `yaml:"encrypted_value,omitempty" json:"encrypted_value,omitempty" param:"skip"`
}

func NewEnvironmentVariable(name, value string) *EnvironmentVariableConfig {
	return &EnvironmentVariableConfig{Name: name, Value: value}
}

func NewSecureEnvironmentVariable(name, value string) *EnvironmentVariableConfig {
	return &EnvironmentVariableConfig{Name: name, Value: value, Secure: true}
}

func (v *EnvironmentVariableConfig) Validate(ctx *ValidationContext) {
	if v.Value != "" && v.EncryptedValue != "" {
		v.AddError("value", "You may only specify `value` or `encrypted_value`, not both!")
		v.AddError("encrypted_value", "You may only specify `value` or `encrypted_value`, not both!")
	}
	if v.EncryptedValue != "" && !v.Secure {
		v.AddError("encrypted_value", "You may specify encrypted value only when option 'secure' is true.")
	}
	if v.EncryptedValue != "" && !encryption.IsEncrypted(v.EncryptedValue) {
		v.AddError("encrypted_value", "Encrypted value for variable named '"+v.Name+"' is invalid. This usually happens when the cipher text is modified to have an invalid value.")
	}
	validateSecretParamsIn(v, "value", v.Value, ctx)
}

func (v *EnvironmentVariableConfig) IsPlain() bool {
	return !v.Secure
}

// DisplayValue masks secure values.
func (v *EnvironmentVariableConfig) DisplayValue() string {
	if v.Secure {
		return "****"
	}
	return v.Value
}

// ResolvedValue returns the plain text value, decrypting secure values.
func (v *EnvironmentVariableConfig) ResolvedValue(c encryption.Cipher) (string, error) {
	if v.EncryptedValue == "" {
		return v.Value, nil
	}
	if c == nil {
		return "", encryption.ErrNoCipherDefined
	}
	return c.Decrypt(v.EncryptedValue)
}

// EncryptSecureProperties moves a secure plain text value into
// EncryptedValue.
func (v *EnvironmentVariableConfig) EncryptSecureProperties(c encryption.Cipher) error {
	if !v.Secure || v.Value == "" || v.EncryptedValue != "" {
		return nil
	}
	if c == nil {
		return encryption.ErrNoCipherDefined
	}
	encrypted, err := c.Encrypt(v.Value)
	if err != nil {
		return fmt.Errorf("failed to encrypt variable %q: %w", v.Name, err)
	}
	v.EncryptedValue = encrypted
	v.Value = ""
	return nil
}

type EnvironmentVariablesConfig []*EnvironmentVariableConfig

func (vs EnvironmentVariablesConfig) Get(name string) *EnvironmentVariableConfig {
	for _, v := range vs {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (vs EnvironmentVariablesConfig) HasVariable(name string) bool {
	return vs.Get(name) != nil
}

func (vs EnvironmentVariablesConfig) Names() []string {
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Name)
	}
	return names
}

// validateScope checks names are present and unique within one scope, e.g.
// ("pipeline", "build").
func (vs EnvironmentVariablesConfig) validateScope(scope, scopeName string) {
	seen := map[string]*EnvironmentVariableConfig{}
	for _, v := range vs {
		if strings.TrimSpace(v.Name) == "" {
			v.AddError("name", fmt.Sprintf("Environment Variable cannot have an empty name for %s '%s'.", scope, scopeName))
			continue
		}
		key := strings.ToLower(v.Name)
		if other, ok := seen[key]; ok {
			msg := fmt.Sprintf("Environment Variable name '%s' is not unique for %s '%s'.", v.Name, scope, scopeName)
			other.AddError("name", msg)
			v.AddError("name", msg)
			continue
		}
		seen[key] = v
	}
}

// SetConfigAttributes replaces the variables from form attributes, a list
// of maps with name, value and secure keys. Entries with a blank name are
// dropped.
func (vs *EnvironmentVariablesConfig) SetConfigAttributes(attributes any) {
	items, ok := attributes.([]map[string]any)
	if !ok {
		return
	}
	var out EnvironmentVariablesConfig
	for _, item := range items {
		name, _ := item["name"].(string)
		if strings.TrimSpace(name) == "" {
			continue
		}
		value, _ := item["value"].(string)
		v := &EnvironmentVariableConfig{Name: name, Value: value}
		switch secure := item["secure"].(type) {
		case bool:
			v.Secure = secure
		case string:
			v.Secure = secure == "true"
		}
		out = append(out, v)
	}
	*vs = out
}

// ParamConfig is a named value substituted into #{name} references.
type ParamConfig struct {
	errorCollector `yaml:"-" json:"-"`
	Name           string `yaml:"name" json:"name"`
	Value          string `yaml:"value,omitempty" json:"value,omitempty"`
}

func NewParam(name, value string) *ParamConfig {
	return &ParamConfig{Name: name, Value: value}
}

func (p *ParamConfig) Validate(ctx *ValidationContext) {
	kind, owner := ctx.ownerDescription()
	if strings.TrimSpace(p.Name) == "" {
		p.AddError("name", fmt.Sprintf("Parameter cannot have an empty name for %s '%s'.", kind, owner))
		return
	}
	if !IsNameValid(p.Name) {
		p.AddError("name", fmt.Sprintf("Invalid parameter name '%s'. This must be alphanumeric and can contain underscores, hyphens and periods (however, it cannot start with a period). The maximum allowed length is %d characters.", p.Name, MaxNameLength))
	}
}

type ParamsConfig []*ParamConfig

func (ps ParamsConfig) Get(name string) *ParamConfig {
	for _, p := range ps {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (ps ParamsConfig) HasParam(name string) bool {
	return ps.Get(name) != nil
}

// Lookup returns the value of name and whether it is defined.
func (ps ParamsConfig) Lookup(name string) (string, bool) {
	if p := ps.Get(name); p != nil {
		return p.Value, true
	}
	return "", false
}

// Merge returns ps overlaid on outer: names defined in ps win.
func (ps ParamsConfig) Merge(outer ParamsConfig) ParamsConfig {
	merged := append(ParamsConfig(nil), ps...)
	for _, p := range outer {
		if !ps.HasParam(p.Name) {
			merged = append(merged, p)
		}
	}
	return merged
}

func (ps ParamsConfig) validateUnique(pipeline string) {
	seen := map[string]*ParamConfig{}
	for _, p := range ps {
		if p.Name == "" {
			continue
		}
		if other, ok := seen[p.Name]; ok {
			msg := fmt.Sprintf("Param name '%s' is not unique for pipeline '%s'.", p.Name, pipeline)
			other.AddError("name", msg)
			p.AddError("name", msg)
			continue
		}
		seen[p.Name] = p
	}
}
