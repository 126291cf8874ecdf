package form

import "github.com/composehq/composeweb/internal/validation"

// Submission is the immutable, render-ready outcome of processing one
// request against a Form: resolved fields with values and errors merged back
// in, the raw and filtered payloads, the hidden inputs to emit, and the
// predicates handler and view code branch on.
type Submission struct {
	action           string
	method           string
	formIDField      ValuePair
	csrfField        *ValuePair
	result           *validation.Result
	fields           []Field
	fieldIndex       map[string]int
	submitted        bool
	submissionErrors []string
}

// NewSubmission builds a Submission snapshot. The field slice is owned by the
// Submission from here on.
func NewSubmission(action, method string, formIDField ValuePair, csrfField *ValuePair, result *validation.Result, fields []Field, submitted bool) *Submission {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}
	return &Submission{
		action:      action,
		method:      method,
		formIDField: formIDField,
		csrfField:   csrfField,
		result:      result,
		fields:      fields,
		fieldIndex:  index,
		submitted:   submitted,
	}
}

func (s *Submission) Action() string          { return s.action }
func (s *Submission) Method() string          { return s.method }
func (s *Submission) FormIDField() ValuePair  { return s.formIDField }
func (s *Submission) CSRFField() *ValuePair   { return s.csrfField }
func (s *Submission) IsSubmitted() bool       { return s.submitted }
func (s *Submission) Result() *validation.Result { return s.result }

// IsValid reports whether neither validation nor the handler attached errors.
func (s *Submission) IsValid() bool {
	return s.result.IsValid() && len(s.submissionErrors) == 0
}

// IsValidSubmit is the single predicate handlers branch on for the success
// path.
func (s *Submission) IsValidSubmit() bool {
	return s.submitted && s.IsValid()
}

// Values returns the post-filter values.
func (s *Submission) Values() validation.Values { return s.result.Values }

// Raw returns the payload exactly as submitted.
func (s *Submission) Raw() validation.Values { return s.result.Raw }

// Errors returns the validation errors keyed by field name.
func (s *Submission) Errors() map[string][]string { return s.result.Errors }

// String returns the named filtered value coerced to a string, or "" when
// absent.
func (s *Submission) String(name string) string {
	value, ok := s.result.Values[name]
	if !ok || value == nil {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return str
}

// FieldErrors returns the error list for a field, never nil.
func (s *Submission) FieldErrors(name string) []string {
	return s.result.FieldErrors(name)
}

// Fields returns the post-merge fields in form order.
func (s *Submission) Fields() []Field { return s.fields }

// Field looks up a post-merge field by name.
func (s *Submission) Field(name string) (Field, bool) {
	if i, ok := s.fieldIndex[name]; ok {
		return s.fields[i], true
	}
	return Field{}, false
}

func (s *Submission) HasSubmissionErrors() bool { return len(s.submissionErrors) > 0 }

// SubmissionErrors returns handler-raised errors not tied to a field.
func (s *Submission) SubmissionErrors() []string { return s.submissionErrors }

// WithSubmissionError returns a copy carrying an additional handler-raised
// error, for failures discovered after structural validation (a taken email,
// a rejected credential).
func (s *Submission) WithSubmissionError(message string) *Submission {
	out := *s
	out.submissionErrors = append(append([]string{}, s.submissionErrors...), message)
	return &out
}
