package form

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/composehq/composeweb/internal/validation"
)

const (
	MethodPost = "POST"
	MethodGet  = "GET"

	// FormKey is the reserved payload key carrying the form identity. It must
	// never be used as a real field name; the leading underscore keeps it out
	// of serialized contact summaries.
	FormKey = "__FORM_ID__"

	// CSRFErrorKey namespaces CSRF failures in the error map.
	CSRFErrorKey = "_csrf"

	// CSRFErrorMessage is the single message attached on a token mismatch.
	CSRFErrorMessage = "CSRF token validation failed"
)

// CSRFTokenProvider issues and checks single-use tokens bound to a form id.
// A successful validation consumes the stored token.
type CSRFTokenProvider interface {
	GenerateToken(formID string) string
	ValidateToken(formID, token string) bool
	FieldName() string
}

// ValuePair is a hidden-input name/value pair.
type ValuePair struct {
	Name  string
	Value string
}

// Form holds an idempotency identifier, a method, registered fields, and a
// processor. A Form lives for a single request/response cycle; its id is
// generated once at construction and never regenerated.
type Form struct {
	id         string
	action     string
	method     string
	fields     []Field
	fieldIndex map[string]int
	processor  *validation.Processor
	csrf       CSRFTokenProvider
}

// New constructs a Form for the given action. Any method other than GET is
// normalized to POST.
func New(action, method string) *Form {
	if strings.EqualFold(method, MethodGet) {
		method = MethodGet
	} else {
		method = MethodPost
	}
	return &Form{
		id:         newFormID(action),
		action:     action,
		method:     method,
		fieldIndex: map[string]int{},
	}
}

// newFormID derives an opaque id from the action path and a fresh UUID, so
// two forms for the same action never collide.
func newFormID(action string) string {
	sum := md5.Sum([]byte(action + uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

func (f *Form) ID() string     { return f.id }
func (f *Form) Action() string { return f.action }
func (f *Form) Method() string { return f.method }

// Fields returns the registered fields in registration order.
func (f *Form) Fields() []Field { return f.fields }

// Field looks up a registered field by name.
func (f *Form) Field(name string) (Field, bool) {
	if i, ok := f.fieldIndex[name]; ok {
		return f.fields[i], true
	}
	return Field{}, false
}

// AddField registers a field, replacing any previous field of the same name.
func (f *Form) AddField(field Field) *Form {
	if i, ok := f.fieldIndex[field.Name]; ok {
		f.fields[i] = field
		return f
	}
	f.fieldIndex[field.Name] = len(f.fields)
	f.fields = append(f.fields, field)
	return f
}

// SetFields replaces all registered fields.
func (f *Form) SetFields(fields []Field) *Form {
	f.fields = nil
	f.fieldIndex = map[string]int{}
	for _, field := range fields {
		f.AddField(field)
	}
	return f
}

// SetProcessor attaches the filter/validate engine.
func (f *Form) SetProcessor(p *validation.Processor) *Form {
	f.processor = p
	return f
}

// SetCSRFProvider attaches a CSRF token provider.
func (f *Form) SetCSRFProvider(p CSRFTokenProvider) *Form {
	f.csrf = p
	return f
}

// RestoreFrom adopts the form id carried in the request payload, if any. A
// form is rebuilt on every request with a fresh id; the rebuilt instance only
// recognizes the submission, and the CSRF provider only finds the token
// stored at render time, under the id the render emitted. Adopting a client
// id grants nothing by itself since the token must still match under it.
// Only call this on forms with a CSRF provider attached; without one the
// form would accept any posted id.
func (f *Form) RestoreFrom(req Request) *Form {
	if !strings.EqualFold(req.Method(), f.method) {
		return f
	}
	if id, _ := f.payload(req)[FormKey].(string); id != "" {
		f.id = id
	}
	return f
}

// FormIDField returns the hidden identity input to emit when rendering.
func (f *Form) FormIDField() ValuePair {
	return ValuePair{Name: FormKey, Value: f.id}
}

// IsSubmitted reports whether the request targets this form: the HTTP method
// must match the form's method and the payload's identity key must carry the
// form id. The payload comes from the query string for GET forms and the
// parsed body otherwise.
func (f *Form) IsSubmitted(req Request) bool {
	if !strings.EqualFold(req.Method(), f.method) {
		return false
	}
	payload := f.payload(req)
	id, _ := payload[FormKey].(string)
	return id == f.id
}

func (f *Form) payload(req Request) validation.Values {
	var payload validation.Values
	if f.method == MethodGet {
		payload = req.QueryParams()
	} else {
		payload = req.ParsedBody()
	}
	if payload == nil {
		payload = validation.Values{}
	}
	return payload
}

// ProcessRequest classifies the request, validates CSRF, runs the processor,
// and folds the outcome into an immutable Submission. Non-submissions are
// never validated, so a freshly rendered form shows no errors. When a CSRF
// provider is attached a fresh token is generated for the next render whether
// or not this submission succeeded.
func (f *Form) ProcessRequest(req Request) *Submission {
	payload := f.payload(req)
	submitted := f.IsSubmitted(req)

	var result *validation.Result
	if submitted && f.csrf != nil && !f.validCSRF(payload) {
		result = validation.NewResult(payload, payload, map[string][]string{
			CSRFErrorKey: {CSRFErrorMessage},
		})
	} else if submitted {
		result = f.prepareProcessor().Process(payload)
	} else {
		result = validation.NewResult(payload, payload, nil)
	}

	fields := make([]Field, len(f.fields))
	for i, field := range f.fields {
		changes := FieldChanges{Errors: &[]string{}}
		if value, ok := result.Values[field.Name]; ok {
			changes.Value = ValueOf(value)
		}
		if errs, ok := result.Errors[field.Name]; ok {
			changes.Errors = &errs
		}
		fields[i] = field.With(changes)
	}

	var csrfField *ValuePair
	if f.csrf != nil {
		csrfField = &ValuePair{Name: f.csrf.FieldName(), Value: f.csrf.GenerateToken(f.id)}
	}

	return NewSubmission(f.action, f.method, f.FormIDField(), csrfField, result, fields, submitted)
}

func (f *Form) validCSRF(payload validation.Values) bool {
	token, _ := payload[f.csrf.FieldName()].(string)
	return f.csrf.ValidateToken(f.id, token)
}

// prepareProcessor re-derives the required-name list from the current field
// set so the processor stays in sync with late field changes.
func (f *Form) prepareProcessor() *validation.Processor {
	if f.processor == nil {
		f.processor = validation.NewProcessor()
	}
	var required []string
	for _, field := range f.fields {
		if field.Required {
			required = append(required, field.Name)
		}
	}
	f.processor.SetRequiredValues(required)
	return f.processor
}
