package cruiseconfig

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ServerConfig holds server wide settings.
type ServerConfig struct {
	errorCollector `yaml:"-" json:"-"`
	ArtifactsDir   string          `yaml:"artifacts_dir" json:"artifacts_dir"`
	SiteURL        string          `yaml:"site_url,omitempty" json:"site_url,omitempty"`
	SecureSiteURL  string          `yaml:"secure_site_url,omitempty" json:"secure_site_url,omitempty"`
	JobTimeout     string          `yaml:"job_timeout,omitempty" json:"job_timeout,omitempty"`
	PurgeStart     *float64        `yaml:"purge_start,omitempty" json:"purge_start,omitempty"`
	PurgeUpto      *float64        `yaml:"purge_upto,omitempty" json:"purge_upto,omitempty"`
	MailHost       *MailHost       `yaml:"mail_host,omitempty" json:"mail_host,omitempty"`
	Security       *SecurityConfig `yaml:"security,omitempty" json:"security,omitempty"`
}

func NewServerConfig(artifactsDir string) *ServerConfig {
	return &ServerConfig{ArtifactsDir: artifactsDir}
}

func (s *ServerConfig) Validate(_ *ValidationContext) {
	if strings.TrimSpace(s.ArtifactsDir) == "" {
		s.AddError("artifacts_dir", "Artifacts directory cannot be blank.")
	}
	if s.SiteURL != "" && !hasScheme(s.SiteURL, "http", "https") {
		s.AddError("site_url", fmt.Sprintf("Invalid format for site url. '%s' must start with http/s", s.SiteURL))
	}
	if s.SecureSiteURL != "" && !hasScheme(s.SecureSiteURL, "https") {
		s.AddError("secure_site_url", fmt.Sprintf("Invalid format for secure site url. '%s' must start with https", s.SecureSiteURL))
	}
	if s.JobTimeout != "" {
		if v, err := strconv.ParseFloat(s.JobTimeout, 64); err != nil || v < 0 {
			s.AddError("job_timeout", "Timeout should be a valid number as it represents number of minutes")
		}
	}
	s.validatePurge()
}

func (s *ServerConfig) validatePurge() {
	if s.PurgeUpto != nil && (s.PurgeStart == nil || *s.PurgeStart == 0) {
		s.AddError("purge_start", "Error in artifact cleanup values. The trigger value is has to be specified when a goal is set")
		return
	}
	if s.PurgeStart != nil && s.PurgeUpto != nil && *s.PurgeStart >= *s.PurgeUpto {
		s.AddError("purge_start", fmt.Sprintf("Error in artifact cleanup values. The trigger value (%gGB) should be less than the goal (%gGB)", *s.PurgeStart, *s.PurgeUpto))
	}
}

func hasScheme(raw string, schemes ...string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return true
		}
	}
	return false
}

// SiteURLFor rebases given onto the configured site url, keeping its path,
// query and fragment. Paths are resolved against the site url. The secure
// site url is preferred when secure is set. Without a site url given is
// returned unchanged.
func (s *ServerConfig) SiteURLFor(given string, secure bool) (string, error) {
	base := s.SiteURL
	if secure && s.SecureSiteURL != "" {
		base = s.SecureSiteURL
	}
	if base == "" {
		return given, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid site url %q: %w", base, err)
	}
	givenURL, err := url.Parse(given)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", given, err)
	}

	if !givenURL.IsAbs() {
		return baseURL.ResolveReference(givenURL).String(), nil
	}

	out := *givenURL
	out.Scheme = baseURL.Scheme
	out.User = baseURL.User
	out.Host = baseURL.Host
	return out.String(), nil
}

// IsSecurityEnabled reports whether an authorization plugin is configured.
func (s *ServerConfig) IsSecurityEnabled() bool {
	return s != nil && s.Security.IsSecurityEnabled()
}

func (s *ServerConfig) IsMailHostConfigured() bool {
	return s != nil && s.MailHost != nil && s.MailHost.Hostname != ""
}
