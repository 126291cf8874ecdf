package form

import (
	"fmt"

	"github.com/composehq/composeweb/internal/validation"
)

// Builder turns declarative field definitions into a constructed Form with a
// wired Processor. Filter and validator identifiers resolve through a
// validation.Registry; a definition naming an unknown identifier or carrying
// a malformed argument spec fails the build — that is a programming mistake,
// not user input.
type Builder struct {
	registry *validation.Registry
	csrf     CSRFTokenProvider
}

// NewBuilder creates a Builder. A nil registry falls back to the built-in
// filterers and validators; csrf may be nil for forms without CSRF
// protection.
func NewBuilder(registry *validation.Registry, csrf CSRFTokenProvider) *Builder {
	if registry == nil {
		registry = validation.DefaultRegistry()
	}
	return &Builder{registry: registry, csrf: csrf}
}

// Build constructs a Form for action from the ordered definitions. Initial
// values override each definition's value by resolved field name. The render
// shape (fields) and the behavioral wiring (processor) are derived
// separately from the same definitions.
func (b *Builder) Build(action string, defs Definitions, method string, initial validation.Values) (*Form, error) {
	f := New(action, method)

	fields := make([]Field, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("form: field definition for %q is missing a name", def.Label)
		}
		if value, ok := initial[def.Name]; ok {
			def.Value = value
		}
		fields = append(fields, NewField(def))
	}
	f.SetFields(fields)

	if b.csrf != nil {
		f.SetCSRFProvider(b.csrf)
	}

	processor, err := b.buildProcessor(defs)
	if err != nil {
		return nil, err
	}
	f.SetProcessor(processor)

	return f, nil
}

func (b *Builder) buildProcessor(defs Definitions) (*validation.Processor, error) {
	p := validation.NewProcessor()

	for _, def := range defs {
		for _, rule := range def.Filters {
			filterer, err := b.registry.Filterer(rule.Name, rule.Args)
			if err != nil {
				return nil, fmt.Errorf("form: field %q: %w", def.Name, err)
			}
			p.AddFilterer(filterer, def.Name)
		}
		for _, rule := range def.Validators {
			validator, err := b.registry.Validator(rule.Name, rule.Args)
			if err != nil {
				return nil, fmt.Errorf("form: field %q: %w", def.Name, err)
			}
			p.AddValidator(validator, def.Name)
		}
	}

	return p, nil
}
