package validation

// DefaultRequiredMessage is attached to every required field left blank.
const DefaultRequiredMessage = "Required"

// Processor runs ordered filterer and validator chains over a submitted
// payload. Chains registered without field names are global and run before
// name-scoped chains; within each scope, registration order is application
// order. A Processor belongs to exactly one Form instance and is not safe for
// concurrent use.
type Processor struct {
	RequiredMessage string

	globalFilterers  []Filterer
	fieldFilterers   map[string][]Filterer
	globalValidators []Validator
	fieldValidators  map[string][]Validator
	requiredValues   []string
}

// NewProcessor returns an empty Processor with the default required message.
func NewProcessor() *Processor {
	return &Processor{
		RequiredMessage: DefaultRequiredMessage,
		fieldFilterers:  map[string][]Filterer{},
		fieldValidators: map[string][]Validator{},
	}
}

// AddFilterer registers a filterer for the given field names, or globally for
// every field when no names are given.
func (p *Processor) AddFilterer(f Filterer, names ...string) *Processor {
	if len(names) == 0 {
		p.globalFilterers = append(p.globalFilterers, f)
		return p
	}
	for _, name := range names {
		p.fieldFilterers[name] = append(p.fieldFilterers[name], f)
	}
	return p
}

// AddValidator registers a validator with the same scoping rule as AddFilterer.
func (p *Processor) AddValidator(v Validator, names ...string) *Processor {
	if len(names) == 0 {
		p.globalValidators = append(p.globalValidators, v)
		return p
	}
	for _, name := range names {
		p.fieldValidators[name] = append(p.fieldValidators[name], v)
	}
	return p
}

// SetRequiredValues replaces the list of field names that must carry a value.
func (p *Processor) SetRequiredValues(names []string) *Processor {
	p.requiredValues = names
	return p
}

// Filter applies each key's filterer chain (global first, then name-scoped)
// and returns the filtered payload. Every filterer sees the original payload
// as its second argument, not the partially filtered one. Keys without a
// registered chain pass through unchanged; keys are not required to
// correspond to declared fields.
func (p *Processor) Filter(values Values) Values {
	results := make(Values, len(values))
	for name, value := range values {
		result := value
		for _, f := range p.globalFilterers {
			result = f.Filter(result, values)
		}
		for _, f := range p.fieldFilterers[name] {
			result = f.Filter(result, values)
		}
		results[name] = result
	}
	return results
}

// Validate checks values in two phases. First every required name is checked
// for a blank value — all of them, with no short-circuit — appending the
// required message on failure. Field validators only run when no required
// check failed at all: a blank required field suppresses every validator
// message in the submission, not just its own. Returns nil when there are no
// errors, never an empty map.
func (p *Processor) Validate(values Values) map[string][]string {
	errors := map[string][]string{}

	for _, name := range p.requiredValues {
		value, ok := values[name]
		if !ok {
			value = ""
		}
		if isBlank(value) {
			errors[name] = append(errors[name], p.RequiredMessage)
		}
	}

	if len(errors) == 0 {
		for name, value := range values {
			for _, v := range p.globalValidators {
				if msg := v.Validate(value, values); msg != "" {
					errors[name] = append(errors[name], msg)
				}
			}
			for _, v := range p.fieldValidators[name] {
				if msg := v.Validate(value, values); msg != "" {
					errors[name] = append(errors[name], msg)
				}
			}
		}
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

// Process filters and validates values, returning a Result that keeps the
// payload exactly as submitted alongside the filtered values and any errors.
func (p *Processor) Process(values Values) *Result {
	filtered := p.Filter(values)
	return NewResult(values, filtered, p.Validate(filtered))
}
