package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// EmailAddress validates that a non-empty value parses as an email address.
// Empty values pass; pair with a required check to reject them.
type EmailAddress struct {
	message string
}

// NewEmailAddress builds the validator; message overrides the default error
// text when non-empty.
func NewEmailAddress(message string) *EmailAddress {
	return &EmailAddress{message: message}
}

func (e *EmailAddress) Validate(value any, _ Values) string {
	if value == nil {
		return ""
	}
	s := stringify(value)
	if s == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(s); err == nil && addr.Address == s {
		return ""
	}
	if e.message != "" {
		return e.message
	}
	return "Invalid email address"
}

// StringLength validates the rune length of a value against optional min and
// max bounds. Nil values pass.
type StringLength struct {
	min     *int
	max     *int
	message string
}

// NewStringLength requires at least one bound and min <= max when both are
// given.
func NewStringLength(min, max *int, message string) (*StringLength, error) {
	if min == nil && max == nil {
		return nil, errors.New("either min or max must be provided")
	}
	if min != nil && max != nil && *min > *max {
		return nil, errors.New("min cannot be greater than max")
	}
	return &StringLength{min: min, max: max, message: message}, nil
}

func (s *StringLength) Validate(value any, _ Values) string {
	if value == nil {
		return ""
	}
	length := utf8.RuneCountInString(stringify(value))

	if s.min != nil && length < *s.min {
		if s.message != "" {
			return s.message
		}
		return fmt.Sprintf("Must be at least %d characters", *s.min)
	}
	if s.max != nil && length > *s.max {
		if s.message != "" {
			return s.message
		}
		return fmt.Sprintf("Must be at most %d characters", *s.max)
	}
	return ""
}

// NumberRange validates that a numeric value falls within optional min and
// max bounds. Nil and empty values pass.
type NumberRange struct {
	min     *float64
	max     *float64
	message string
}

// NewNumberRange requires at least one bound and min <= max when both are
// given.
func NewNumberRange(min, max *float64, message string) (*NumberRange, error) {
	if min == nil && max == nil {
		return nil, errors.New("either min or max must be provided")
	}
	if min != nil && max != nil && *min > *max {
		return nil, errors.New("min cannot be greater than max")
	}
	return &NumberRange{min: min, max: max, message: message}, nil
}

func (n *NumberRange) Validate(value any, _ Values) string {
	if value == nil {
		return ""
	}

	var number float64
	switch v := value.(type) {
	case int:
		number = float64(v)
	case int64:
		number = float64(v)
	case float32:
		number = float64(v)
	case float64:
		number = v
	case string:
		if v == "" {
			return ""
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return n.failure("Invalid number")
		}
		number = parsed
	default:
		return n.failure("Invalid number")
	}

	if n.min != nil && number < *n.min {
		return n.failure(fmt.Sprintf("Must be at least %v", *n.min))
	}
	if n.max != nil && number > *n.max {
		return n.failure(fmt.Sprintf("Must be at most %v", *n.max))
	}
	return ""
}

func (n *NumberRange) failure(fallback string) string {
	if n.message != "" {
		return n.message
	}
	return fallback
}

// MatchField validates that the value equals another field's submitted value,
// compared after filtering.
type MatchField struct {
	otherKey string
	message  string
}

// NewMatchField builds the validator referencing the other field by name.
func NewMatchField(otherKey, message string) *MatchField {
	return &MatchField{otherKey: otherKey, message: message}
}

func (m *MatchField) Validate(value any, all Values) string {
	// DeepEqual: submitted values can be slice-shaped (duplicated keys),
	// which == cannot compare.
	if reflect.DeepEqual(value, all[m.otherKey]) {
		return ""
	}
	if m.message != "" {
		return m.message
	}
	return "Values do not match."
}
