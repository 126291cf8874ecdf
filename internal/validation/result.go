package validation

// Result captures the outcome of one Processor.Process call: the payload as
// submitted, the post-filter values, and any validation errors keyed by field
// name. AddError is the only mutator; everything else is fixed at construction.
type Result struct {
	Raw    Values
	Values Values
	Errors map[string][]string
}

// NewResult builds a Result. A nil errors map is normalized to empty so
// IsValid never has to distinguish the two.
func NewResult(raw, values Values, errors map[string][]string) *Result {
	if errors == nil {
		errors = map[string][]string{}
	}
	return &Result{Raw: raw, Values: values, Errors: errors}
}

// IsValid reports whether the result carries no errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError appends a message to the error list for key, creating the list if
// absent.
func (r *Result) AddError(message, key string) {
	r.Errors[key] = append(r.Errors[key], message)
}

// FieldErrors returns the error list for name, never nil.
func (r *Result) FieldErrors(name string) []string {
	if errs, ok := r.Errors[name]; ok {
		return errs
	}
	return []string{}
}
