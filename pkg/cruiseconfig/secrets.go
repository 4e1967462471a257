package cruiseconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/doodlesbykumbi/cruise-in-go/pkg/encryption"
)

var secretParamPattern = regexp.MustCompile(`\{\{SECRET:\[(.*?)\]\[(.*?)\]\}\}`)

// SecretParam is a {{SECRET:[config_id][key]}} reference inside a value.
type SecretParam struct {
	SecretConfigID string
	Key            string
}

func (p SecretParam) Token() string {
	return fmt.Sprintf("{{SECRET:[%s][%s]}}", p.SecretConfigID, p.Key)
}

type SecretParams []SecretParam

// ParseSecretParams returns every secret reference in value, in order.
func ParseSecretParams(value string) SecretParams {
	var params SecretParams
	for _, m := range secretParamPattern.FindAllStringSubmatch(value, -1) {
		params = append(params, SecretParam{SecretConfigID: m[1], Key: m[2]})
	}
	return params
}

func (ps SecretParams) HasSecretParams() bool {
	return len(ps) > 0
}

// ConfigIDs returns the distinct secret config ids in order of appearance.
func (ps SecretParams) ConfigIDs() []string {
	var ids []string
	seen := map[string]bool{}
	for _, p := range ps {
		if !seen[p.SecretConfigID] {
			seen[p.SecretConfigID] = true
			ids = append(ids, p.SecretConfigID)
		}
	}
	return ids
}

// Substitute replaces each reference in value with the result of lookup.
func (ps SecretParams) Substitute(value string, lookup func(SecretParam) (string, error)) (string, error) {
	for _, p := range ps {
		resolved, err := lookup(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve secret %s: %w", p.Token(), err)
		}
		value = strings.ReplaceAll(value, p.Token(), resolved)
	}
	return value, nil
}

// Mask replaces every reference in value with "******".
func MaskSecretParams(value string) string {
	return secretParamPattern.ReplaceAllString(value, "******")
}

const (
	RuleAllow = "allow"
	RuleDeny  = "deny"

	RuleActionRefer = "refer"

	RuleTypePipelineGroup = "pipeline_group"
	RuleTypeEnvironment   = "environment"
	RuleTypeAny           = "*"
)

// Rule grants or denies an entity access to a secret config.
type Rule struct {
	errorCollector `yaml:"-" json:"-"`
	Directive      string `yaml:"directive" json:"directive" param:"skip"`
	Action         string `yaml:"action" json:"action" param:"skip"`
	Type           string `yaml:"type" json:"type" param:"skip"`
	Resource       string `yaml:"resource" json:"resource" param:"skip"`
}

func (r *Rule) Validate(_ *ValidationContext) {
	if r.Directive != RuleAllow && r.Directive != RuleDeny {
		r.AddError("directive", fmt.Sprintf("Invalid directive '%s', must be either '%s' or '%s'.", r.Directive, RuleAllow, RuleDeny))
	}
	if r.Action != RuleActionRefer && r.Action != "*" {
		r.AddError("action", fmt.Sprintf("Invalid action '%s', must be one of [%s].", r.Action, RuleActionRefer))
	}
	switch r.Type {
	case RuleTypePipelineGroup, RuleTypeEnvironment, RuleTypeAny:
	default:
		r.AddError("type", fmt.Sprintf("Invalid type '%s', must be one of [%s, %s, %s].", r.Type, RuleTypePipelineGroup, RuleTypeEnvironment, RuleTypeAny))
	}
	if strings.TrimSpace(r.Resource) == "" {
		r.AddError("resource", "Resource cannot be blank.")
	} else if !doublestar.ValidatePattern(r.Resource) {
		r.AddError("resource", fmt.Sprintf("Invalid resource pattern '%s'.", r.Resource))
	}
}

func (r *Rule) matches(action, entityType, name string) bool {
	if r.Action != action && r.Action != "*" {
		return false
	}
	if r.Type != entityType && r.Type != RuleTypeAny {
		return false
	}
	ok, err := doublestar.Match(strings.ToLower(r.Resource), strings.ToLower(name))
	return err == nil && ok
}

type Rules []*Rule

// CanRefer evaluates the rules for entityType/name. A matching deny wins over
// any allow; no match denies.
func (rs Rules) CanRefer(entityType, name string) bool {
	allowed := false
	for _, r := range rs {
		if !r.matches(RuleActionRefer, entityType, name) {
			continue
		}
		if r.Directive == RuleDeny {
			return false
		}
		if r.Directive == RuleAllow {
			allowed = true
		}
	}
	return allowed
}

// SecretConfig configures a secrets plugin and who may use it.
type SecretConfig struct {
	errorCollector `yaml:"-" json:"-"`
	ID             string        `yaml:"id" json:"id" param:"skip"`
	PluginID       string        `yaml:"plugin_id" json:"plugin_id" param:"skip"`
	Description    string        `yaml:"description,omitempty" json:"description,omitempty"`
	Properties     Configuration `yaml:"properties,omitempty" json:"properties,omitempty"`
	Rules          Rules         `yaml:"rules,omitempty" json:"rules,omitempty"`
}

func (s *SecretConfig) Validate(_ *ValidationContext) {
	validatePluginProfile(s, "secret config", s.ID, s.PluginID)
	s.Properties.validateUniqueKeys(fmt.Sprintf("Secret config '%s'", s.ID))
}

func (s *SecretConfig) CanRefer(entityType, name string) bool {
	return s.Rules.CanRefer(entityType, name)
}

type SecretConfigs []*SecretConfig

func (s SecretConfigs) Find(id string) *SecretConfig {
	for _, cfg := range s {
		if cfg.ID == id {
			return cfg
		}
	}
	return nil
}

// Resolver returns a lookup usable with SecretParams.Substitute that reads
// plain values from the secret config properties. It stands in for a
// secrets plugin when none is running.
func (s SecretConfigs) Resolver(c encryption.Cipher) func(SecretParam) (string, error) {
	return func(p SecretParam) (string, error) {
		cfg := s.Find(p.SecretConfigID)
		if cfg == nil {
			return "", fmt.Errorf("secret config %q does not exist", p.SecretConfigID)
		}
		prop := cfg.Properties.Get(p.Key)
		if prop == nil {
			return "", fmt.Errorf("secret config %q has no key %q", p.SecretConfigID, p.Key)
		}
		return prop.ResolvedValue(c)
	}
}

// validateSecretParamsIn checks that secret references in value name known
// secret configs the enclosing group or environment may use.
func validateSecretParamsIn(v Validatable, field, value string, ctx *ValidationContext) {
	params := ParseSecretParams(value)
	if !params.HasSecretParams() || ctx.IsWithinTemplates() {
		return
	}

	entityType, entityName, label := secretScope(ctx)
	configs := ctx.SecretConfigs()
	for _, id := range params.ConfigIDs() {
		cfg := configs.Find(id)
		if cfg == nil {
			v.AddError(field, fmt.Sprintf("%s is referring to none-existent secret config '%s'.", label, id))
			continue
		}
		if entityName != "" && !cfg.CanRefer(entityType, entityName) {
			v.AddError(field, fmt.Sprintf("%s does not have permission to refer to secrets using secret config '%s'", label, id))
		}
	}
}

func secretScope(ctx *ValidationContext) (entityType, entityName, label string) {
	if env := ctx.Environment(); env != nil {
		return RuleTypeEnvironment, env.Name.String(), fmt.Sprintf("Environment '%s'", env.Name)
	}
	label = "Pipeline"
	if p := ctx.Pipeline(); p != nil {
		label = fmt.Sprintf("Pipeline '%s'", p.Name)
	}
	if g := ctx.PipelineGroup(); g != nil {
		return RuleTypePipelineGroup, g.Name, label
	}
	return RuleTypePipelineGroup, "", label
}
