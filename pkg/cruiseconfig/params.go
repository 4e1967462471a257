package cruiseconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrParamSyntax     = errors.New("# must be followed by a parameter pattern or escaped by another #")
	ErrIncompleteParam = errors.New("incomplete param usage")
)

// ParamToken is a piece of a value: literal text, or a #{name} reference.
type ParamToken struct {
	Literal string
	Param   string
}

func (t ParamToken) IsParam() bool {
	return t.Param != ""
}

// ParseParamString splits value into literals and #{name} references.
// "##" is an escaped "#".
func ParseParamString(value string) ([]ParamToken, error) {
	var tokens []ParamToken
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, ParamToken{Literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '#' {
			literal.WriteByte(c)
			continue
		}
		if i+1 >= len(value) {
			return nil, ErrParamSyntax
		}
		switch value[i+1] {
		case '#':
			literal.WriteByte('#')
			i++
		case '{':
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				return nil, ErrIncompleteParam
			}
			name := value[i+2 : i+2+end]
			if name == "" {
				return nil, ErrIncompleteParam
			}
			flush()
			tokens = append(tokens, ParamToken{Param: name})
			i += end + 2
		default:
			return nil, ErrParamSyntax
		}
	}
	flush()
	return tokens, nil
}

// ReferredParamNames returns the parameter names referenced by value.
// Malformed values refer to nothing.
func ReferredParamNames(value string) []string {
	tokens, err := ParseParamString(value)
	if err != nil {
		return nil
	}
	var names []string
	for _, t := range tokens {
		if t.IsParam() {
			names = append(names, t.Param)
		}
	}
	return names
}

// ParamError formats a parse failure of value in field.
func ParamError(err error, value, field string) string {
	if errors.Is(err, ErrIncompleteParam) {
		return fmt.Sprintf("Incomplete param usage in '%s'", value)
	}
	return fmt.Sprintf("Error when processing params for '%s' used in field '%s', %s", value, field, ErrParamSyntax)
}

func UndefinedParamError(name string) string {
	return fmt.Sprintf("Parameter '%s' is not defined. All pipelines using this parameter directly or via a template must define it.", name)
}

// ParamScope returns the params visible at ctx.
type ParamScope func(ctx *ValidationContext) ParamsConfig

// ResolveParams substitutes #{name} references in the resolvable string
// fields below root. A failure is recorded on the owning node under the
// field's error key and leaves the value untouched. It returns the number of
// failures.
func ResolveParams(root any, ctx *ValidationContext, scope ParamScope) int {
	failures := 0
	NewGraphWalker(DefaultConfigCache).WalkStrings(root, ctx, func(fieldCtx *ValidationContext, owner Validatable, field FieldInfo, value reflect.Value) {
		current := value.String()
		if !strings.Contains(current, "#") {
			return
		}
		resolved, msg := SubstituteParams(current, field.ErrorKey, scope(fieldCtx))
		if msg != "" {
			if owner != nil {
				owner.AddError(field.ErrorKey, msg)
			}
			failures++
			return
		}
		if value.CanSet() {
			value.SetString(resolved)
		}
	})
	return failures
}

// SubstituteParams resolves value against params. On failure it returns
// value unchanged with the error message.
func SubstituteParams(value, field string, params ParamsConfig) (string, string) {
	tokens, err := ParseParamString(value)
	if err != nil {
		return value, ParamError(err, value, field)
	}
	var b strings.Builder
	for _, t := range tokens {
		if !t.IsParam() {
			b.WriteString(t.Literal)
			continue
		}
		v, ok := params.Lookup(t.Param)
		if !ok {
			return value, UndefinedParamError(t.Param)
		}
		b.WriteString(v)
	}
	return b.String(), ""
}
