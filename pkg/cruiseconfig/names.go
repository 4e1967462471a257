package cruiseconfig

import (
	"fmt"
	"regexp"
	"strings"
)

// CaseInsensitiveString is a name that compares without regard to case.
type CaseInsensitiveString string

func (s CaseInsensitiveString) Equal(other CaseInsensitiveString) bool {
	return strings.EqualFold(string(s), string(other))
}

func (s CaseInsensitiveString) Lower() string {
	return strings.ToLower(string(s))
}

func (s CaseInsensitiveString) String() string {
	return string(s)
}

func (s CaseInsensitiveString) IsBlank() bool {
	return strings.TrimSpace(string(s)) == ""
}

const MaxNameLength = 255

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]{1}[a-zA-Z0-9_\-.]*$`)

// IsNameValid reports whether name can be used as a pipeline, stage, group,
// template, environment or role name.
func IsNameValid(name string) bool {
	return name != "" && len(name) <= MaxNameLength && namePattern.MatchString(name)
}

func NameErrorMessage(kind, name string) string {
	return fmt.Sprintf("Invalid %s name '%s'. This must be alphanumeric and can contain underscores, hyphens and periods (however, it cannot start with a period). The maximum allowed length is %d characters.", kind, name, MaxNameLength)
}

// validateName adds a name error on field when name is invalid.
func validateName(v Validatable, field, kind, name string) bool {
	if IsNameValid(name) {
		return true
	}
	v.AddError(field, NameErrorMessage(kind, name))
	return false
}
