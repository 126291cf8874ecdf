package validation

import (
	"fmt"
)

// Identifiers for the built-in filterers and validators, used as keys in
// declarative field definitions.
const (
	FilterTrim = "trim"

	ValidatorEmail        = "email"
	ValidatorStringLength = "string_length"
	ValidatorNumberRange  = "number_range"
	ValidatorMatchField   = "match_field"
)

// Factory builds a filterer or validator from positional arguments. A factory
// must return a value implementing Filterer or Validator; anything else is a
// configuration error surfaced by the Registry.
type Factory func(args []any) (any, error)

// Registry resolves declarative filter/validator identifiers to instances.
// Misconfiguration (unknown identifier, malformed argument spec, a factory
// result that is neither Filterer nor Validator) is reported as an error:
// these indicate programming mistakes, never user input problems.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// DefaultRegistry returns a registry preloaded with the built-in filterers
// and validators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FilterTrim, trimFactory)
	r.Register(ValidatorEmail, emailFactory)
	r.Register(ValidatorStringLength, stringLengthFactory)
	r.Register(ValidatorNumberRange, numberRangeFactory)
	r.Register(ValidatorMatchField, matchFieldFactory)
	return r
}

// Register adds or replaces the factory for an identifier.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Filterer instantiates the filterer registered under name using the
// positional argument convention described on NormalizeArgs.
func (r *Registry) Filterer(name string, spec any) (Filterer, error) {
	instance, err := r.resolve(name, spec)
	if err != nil {
		return nil, err
	}
	f, ok := instance.(Filterer)
	if !ok {
		return nil, fmt.Errorf("validation: %q does not produce a filterer", name)
	}
	return f, nil
}

// Validator instantiates the validator registered under name.
func (r *Registry) Validator(name string, spec any) (Validator, error) {
	instance, err := r.resolve(name, spec)
	if err != nil {
		return nil, err
	}
	v, ok := instance.(Validator)
	if !ok {
		return nil, fmt.Errorf("validation: %q does not produce a validator", name)
	}
	return v, nil
}

func (r *Registry) resolve(name string, spec any) (any, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("validation: unknown filter/validator %q", name)
	}
	args, err := NormalizeArgs(spec)
	if err != nil {
		return nil, fmt.Errorf("validation: %s: %w", name, err)
	}
	instance, err := factory(args)
	if err != nil {
		return nil, fmt.Errorf("validation: %s: %w", name, err)
	}
	return instance, nil
}

// NormalizeArgs applies the declarative argument convention: nil means no
// constructor arguments, a list is used as positional arguments in order, and
// any other single value is wrapped as one positional argument. Maps are
// rejected — keyword-style arguments are not supported.
func NormalizeArgs(spec any) ([]any, error) {
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		return nil, fmt.Errorf("arguments must be a positional list, got a map")
	default:
		return []any{v}, nil
	}
}

// Argument coercion helpers shared by the built-in factories. YAML and
// literal definitions may carry ints, floats, or nil interchangeably.

func intArg(v any) (*int, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		return &n, nil
	case int64:
		i := int(n)
		return &i, nil
	case float64:
		i := int(n)
		return &i, nil
	default:
		return nil, fmt.Errorf("expected integer argument, got %T", v)
	}
}

func floatArg(v any) (*float64, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		f := float64(n)
		return &f, nil
	case int64:
		f := float64(n)
		return &f, nil
	case float64:
		return &n, nil
	default:
		return nil, fmt.Errorf("expected numeric argument, got %T", v)
	}
}

func stringArg(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("expected string argument, got %T", v)
	}
}

func trimFactory(args []any) (any, error) {
	switch len(args) {
	case 0:
		return NewTrimString(), nil
	case 1:
		cutset, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		return NewTrimStringCutset(cutset), nil
	default:
		return nil, fmt.Errorf("expected at most 1 argument, got %d", len(args))
	}
}

func emailFactory(args []any) (any, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most 1 argument, got %d", len(args))
	}
	message := ""
	if len(args) == 1 {
		m, err := stringArg(args[0])
		if err != nil {
			return nil, err
		}
		message = m
	}
	return NewEmailAddress(message), nil
}

func stringLengthFactory(args []any) (any, error) {
	if len(args) == 0 || len(args) > 3 {
		return nil, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}
	min, err := intArg(args[0])
	if err != nil {
		return nil, err
	}
	var max *int
	if len(args) > 1 {
		if max, err = intArg(args[1]); err != nil {
			return nil, err
		}
	}
	message := ""
	if len(args) > 2 {
		if message, err = stringArg(args[2]); err != nil {
			return nil, err
		}
	}
	return NewStringLength(min, max, message)
}

func numberRangeFactory(args []any) (any, error) {
	if len(args) == 0 || len(args) > 3 {
		return nil, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}
	min, err := floatArg(args[0])
	if err != nil {
		return nil, err
	}
	var max *float64
	if len(args) > 1 {
		if max, err = floatArg(args[1]); err != nil {
			return nil, err
		}
	}
	message := ""
	if len(args) > 2 {
		if message, err = stringArg(args[2]); err != nil {
			return nil, err
		}
	}
	return NewNumberRange(min, max, message)
}

func matchFieldFactory(args []any) (any, error) {
	if len(args) == 0 || len(args) > 2 {
		return nil, fmt.Errorf("expected 1 or 2 arguments, got %d", len(args))
	}
	other, err := stringArg(args[0])
	if err != nil {
		return nil, err
	}
	if other == "" {
		return nil, fmt.Errorf("match_field requires the other field's name")
	}
	message := ""
	if len(args) > 1 {
		if message, err = stringArg(args[1]); err != nil {
			return nil, err
		}
	}
	return NewMatchField(other, message), nil
}
