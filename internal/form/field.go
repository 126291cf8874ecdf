// Package form turns declarative field definitions into renderable forms,
// classifies incoming requests as submissions, and runs them through a
// validation pipeline into an immutable Submission snapshot.
package form

// Option is one choice of a select-style field. A nested Options list makes
// the entry an option group; grouping is one level deep.
type Option struct {
	Value   string   `yaml:"value"`
	Label   string   `yaml:"label"`
	Options []Option `yaml:"options,omitempty"`
}

// Field is the immutable descriptor of one form control. A changed Field is
// produced with With, never mutated in place; Name stays stable for the
// Field's lifetime.
type Field struct {
	Name              string
	Label             string
	Type              string
	Value             any
	Required          bool
	Errors            []string
	Help              string
	Options           []Option
	Attributes        map[string]string
	WrapperAttributes map[string]string
}

// NewField constructs a Field from a definition, defaulting Type to "text".
func NewField(def Definition) Field {
	typ := def.Type
	if typ == "" {
		typ = "text"
	}
	return Field{
		Name:              def.Name,
		Label:             def.Label,
		Type:              typ,
		Value:             def.Value,
		Required:          def.Required,
		Help:              def.Help,
		Options:           def.Options,
		Attributes:        def.Attributes,
		WrapperAttributes: def.WrapperAttributes,
	}
}

// HasErrors reports whether validation attached any messages to the field.
func (f Field) HasErrors() bool {
	return len(f.Errors) > 0
}

// Definition serializes the field back to a definition that round-trips
// through NewField.
func (f Field) Definition() Definition {
	return Definition{
		Name:              f.Name,
		Label:             f.Label,
		Type:              f.Type,
		Value:             f.Value,
		Required:          f.Required,
		Help:              f.Help,
		Options:           f.Options,
		Attributes:        f.Attributes,
		WrapperAttributes: f.WrapperAttributes,
	}
}

// FieldChanges selects the parts of a Field to override in With. A nil member
// keeps the original; a non-nil member replaces it, so setting Value to a
// pointer at nil clears the value — presence decides, not truthiness.
type FieldChanges struct {
	Name              *string
	Label             *string
	Type              *string
	Value             *any
	Required          *bool
	Errors            *[]string
	Help              *string
	Options           *[]Option
	Attributes        *map[string]string
	WrapperAttributes *map[string]string
}

// NullValue marks a Value change that clears the field's value.
func NullValue() *any {
	return new(any)
}

// ValueOf wraps v for use as a FieldChanges.Value.
func ValueOf(v any) *any {
	return &v
}

// With returns a copy of the field with only the provided changes applied.
func (f Field) With(changes FieldChanges) Field {
	out := f
	if changes.Name != nil {
		out.Name = *changes.Name
	}
	if changes.Label != nil {
		out.Label = *changes.Label
	}
	if changes.Type != nil {
		out.Type = *changes.Type
	}
	if changes.Value != nil {
		out.Value = *changes.Value
	}
	if changes.Required != nil {
		out.Required = *changes.Required
	}
	if changes.Errors != nil {
		out.Errors = *changes.Errors
	}
	if changes.Help != nil {
		out.Help = *changes.Help
	}
	if changes.Options != nil {
		out.Options = *changes.Options
	}
	if changes.Attributes != nil {
		out.Attributes = *changes.Attributes
	}
	if changes.WrapperAttributes != nil {
		out.WrapperAttributes = *changes.WrapperAttributes
	}
	return out
}
