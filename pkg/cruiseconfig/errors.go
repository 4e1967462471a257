package cruiseconfig

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ConfigErrors holds validation messages keyed by field. Fields and messages
// keep their insertion order.
type ConfigErrors struct {
	fields   []string
	messages map[string][]string
}

func NewConfigErrors() *ConfigErrors {
	return &ConfigErrors{messages: map[string][]string{}}
}

// Add records msg against field. A message already present on the field is
// ignored.
func (e *ConfigErrors) Add(field, msg string) {
	if e.messages == nil {
		e.messages = map[string][]string{}
	}
	existing, ok := e.messages[field]
	if !ok {
		e.fields = append(e.fields, field)
	}
	for _, m := range existing {
		if m == msg {
			return
		}
	}
	e.messages[field] = append(existing, msg)
}

// On returns the first message recorded for field, or "".
func (e *ConfigErrors) On(field string) string {
	if e == nil {
		return ""
	}
	if msgs := e.messages[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *ConfigErrors) GetAllOn(field string) []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.messages[field]...)
}

func (e *ConfigErrors) IsEmpty() bool {
	return e == nil || len(e.fields) == 0
}

// Fields returns the fields carrying at least one message.
func (e *ConfigErrors) Fields() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.fields...)
}

// All flattens every message in insertion order.
func (e *ConfigErrors) All() []string {
	if e == nil {
		return nil
	}
	var all []string
	for _, f := range e.fields {
		all = append(all, e.messages[f]...)
	}
	return all
}

func (e *ConfigErrors) AddAll(other *ConfigErrors) {
	if other == nil {
		return
	}
	for _, f := range other.fields {
		for _, m := range other.messages[f] {
			e.Add(f, m)
		}
	}
}

func (e *ConfigErrors) Clear() {
	if e == nil {
		return
	}
	e.fields = nil
	e.messages = map[string][]string{}
}

// Err combines every message into a single error, or returns nil when empty.
func (e *ConfigErrors) Err() error {
	var err error
	for _, msg := range e.All() {
		err = multierr.Append(err, errors.New(msg))
	}
	return err
}

// AsMap exposes the messages for JSON responses.
func (e *ConfigErrors) AsMap() map[string][]string {
	out := make(map[string][]string, len(e.Fields()))
	for _, f := range e.Fields() {
		out[f] = e.GetAllOn(f)
	}
	return out
}

// Validatable is implemented by every node of the configuration graph.
type Validatable interface {
	Validate(ctx *ValidationContext)
	Errors() *ConfigErrors
	AddError(field, msg string)
}

type errorCollector struct {
	errs *ConfigErrors
}

func (c *errorCollector) Errors() *ConfigErrors {
	if c.errs == nil {
		c.errs = NewConfigErrors()
	}
	return c.errs
}

func (c *errorCollector) AddError(field, msg string) {
	c.Errors().Add(field, msg)
}

// ValidationError is returned when a configuration fails validation.
type ValidationError struct {
	Errors []*ConfigErrors
}

func (e *ValidationError) Error() string {
	var messages []string
	for _, errs := range e.Errors {
		messages = append(messages, errs.All()...)
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(messages, "; "))
}

// Unwrap exposes each message as an individual error.
func (e *ValidationError) Unwrap() []error {
	var combined error
	for _, errs := range e.Errors {
		combined = multierr.Append(combined, errs.Err())
	}
	return multierr.Errors(combined)
}

// Messages flattens every message of every node.
func (e *ValidationError) Messages() []string {
	var messages []string
	for _, errs := range e.Errors {
		messages = append(messages, errs.All()...)
	}
	return messages
}
