package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/composehq/composeweb/internal/validation"
)

// fakeCSRF is a single-use token provider backed by a plain map.
type fakeCSRF struct {
	tokens    map[string]string
	generated int
}

func newFakeCSRF() *fakeCSRF {
	return &fakeCSRF{tokens: map[string]string{}}
}

func (f *fakeCSRF) GenerateToken(formID string) string {
	f.generated++
	token := formID + "-token-" + string(rune('a'+f.generated))
	f.tokens[formID] = token
	return token
}

func (f *fakeCSRF) ValidateToken(formID, token string) bool {
	stored, ok := f.tokens[formID]
	if !ok || token == "" || stored != token {
		return false
	}
	delete(f.tokens, formID)
	return true
}

func (f *fakeCSRF) FieldName() string { return "__CSRF_TOKEN__" }

func postRequest(f *Form, body validation.Values) *TestRequest {
	payload := validation.Values{FormKey: f.ID()}
	for k, v := range body {
		payload[k] = v
	}
	return &TestRequest{ReqMethod: "POST", Body: payload}
}

func TestFormIDsNeverCollide(t *testing.T) {
	a := New("/contact", MethodPost)
	b := New("/contact", MethodPost)

	if a.ID() == b.ID() {
		t.Fatal("two forms for the same action share an id")
	}
	if a.FormIDField().Name != FormKey {
		t.Errorf("identity field name = %q, want %q", a.FormIDField().Name, FormKey)
	}
	if a.FormIDField().Value != a.ID() {
		t.Error("identity field value does not carry the form id")
	}
}

func TestRestoreFromRecognizesEarlierRender(t *testing.T) {
	csrf := newFakeCSRF()

	// First request renders the form; its id and token go to the client.
	rendered := New("/contact", MethodPost).SetCSRFProvider(csrf)
	rendered.AddField(NewField(Definition{Name: "name"}))
	blank := rendered.ProcessRequest(&TestRequest{ReqMethod: "GET"})
	token := blank.CSRFField().Value

	// Second request rebuilds the form with a fresh id and adopts the
	// posted one before processing.
	rebuilt := New("/contact", MethodPost).SetCSRFProvider(csrf)
	rebuilt.AddField(NewField(Definition{Name: "name"}))
	req := &TestRequest{ReqMethod: "POST", Body: validation.Values{
		FormKey:          rendered.ID(),
		csrf.FieldName(): token,
		"name":           "Alice",
	}}
	rebuilt.RestoreFrom(req)

	if rebuilt.ID() != rendered.ID() {
		t.Fatalf("restored id = %q, want %q", rebuilt.ID(), rendered.ID())
	}
	sub := rebuilt.ProcessRequest(req)
	if !sub.IsValidSubmit() {
		t.Fatalf("submission rejected: %v", sub.Errors())
	}
}

func TestRestoreFromIgnoresMethodMismatch(t *testing.T) {
	f := New("/contact", MethodPost)
	original := f.ID()

	f.RestoreFrom(&TestRequest{ReqMethod: "GET", Query: validation.Values{FormKey: "spoofed"}})
	if f.ID() != original {
		t.Error("id adopted from a non-matching method")
	}
}

func TestMethodNormalization(t *testing.T) {
	if got := New("/x", "get").Method(); got != MethodGet {
		t.Errorf("method = %q, want GET", got)
	}
	if got := New("/x", "delete").Method(); got != MethodPost {
		t.Errorf("method = %q, want POST fallback", got)
	}
}

func TestIsSubmittedRequiresMethodAndIdentity(t *testing.T) {
	f := New("/contact", MethodPost)

	if f.IsSubmitted(&TestRequest{ReqMethod: "POST", Body: validation.Values{FormKey: f.ID()}}) != true {
		t.Error("matching method and id should count as submitted")
	}
	if f.IsSubmitted(&TestRequest{ReqMethod: "POST", Body: validation.Values{FormKey: "wrong"}}) {
		t.Error("wrong id accepted")
	}
	// Correct id in the query params of a GET must not count for a POST form.
	if f.IsSubmitted(&TestRequest{ReqMethod: "GET", Query: validation.Values{FormKey: f.ID()}}) {
		t.Error("method mismatch accepted")
	}
}

func TestProcessRequestTrimsAndAccepts(t *testing.T) {
	f := New("/profile", MethodPost)
	f.AddField(NewField(Definition{Name: "name", Label: "Name", Required: true}))
	f.SetProcessor(validation.NewProcessor().AddFilterer(validation.NewTrimString(), "name"))

	sub := f.ProcessRequest(postRequest(f, validation.Values{"name": "  Alice  "}))

	if !sub.IsValidSubmit() {
		t.Fatalf("expected valid submit, errors = %v", sub.Errors())
	}
	if got := sub.Values()["name"]; got != "Alice" {
		t.Errorf("filtered name = %v, want Alice", got)
	}
	field, ok := sub.Field("name")
	if !ok || field.Value != "Alice" {
		t.Errorf("merged field value = %v, want Alice", field.Value)
	}
}

func TestRequiredFailureSuppressesFormatValidators(t *testing.T) {
	f := New("/register", MethodPost)
	f.AddField(NewField(Definition{Name: "email", Label: "Email", Required: true}))
	f.SetProcessor(validation.NewProcessor().AddValidator(validation.NewEmailAddress(""), "email"))

	sub := f.ProcessRequest(postRequest(f, validation.Values{"email": ""}))

	want := []string{"Required"}
	if diff := cmp.Diff(want, sub.FieldErrors("email")); diff != "" {
		t.Errorf("email errors mismatch (-want +got):\n%s", diff)
	}
	if len(sub.Errors()) != 1 {
		t.Errorf("unexpected extra errors: %v", sub.Errors())
	}
}

func TestMatchFieldErrorLandsOnConfirmOnly(t *testing.T) {
	f := New("/register", MethodPost)
	f.AddField(NewField(Definition{Name: "password", Label: "Password"}))
	f.AddField(NewField(Definition{Name: "confirm_password", Label: "Confirm"}))
	f.SetProcessor(validation.NewProcessor().
		AddValidator(validation.NewMatchField("password", ""), "confirm_password"))

	sub := f.ProcessRequest(postRequest(f, validation.Values{
		"password":         "s3cret",
		"confirm_password": "different",
	}))

	if len(sub.FieldErrors("confirm_password")) == 0 {
		t.Error("confirm_password should carry the mismatch error")
	}
	if len(sub.FieldErrors("password")) != 0 {
		t.Errorf("password errors = %v, want none", sub.FieldErrors("password"))
	}
}

func TestGetRequestToPostFormIsNeverValidated(t *testing.T) {
	f := New("/contact", MethodPost)
	f.AddField(NewField(Definition{Name: "name", Label: "Name", Required: true}))

	sub := f.ProcessRequest(&TestRequest{
		ReqMethod: "GET",
		Query:     validation.Values{FormKey: f.ID(), "name": ""},
	})

	if sub.IsSubmitted() {
		t.Error("GET request counted as submission of a POST form")
	}
	if len(sub.Errors()) != 0 {
		t.Errorf("errors = %v, want none on a non-submission", sub.Errors())
	}
	if sub.IsValidSubmit() {
		t.Error("non-submission reported as valid submit")
	}
}

func TestDefaultValuesSurviveNonSubmission(t *testing.T) {
	f := New("/settings", MethodPost)
	f.AddField(NewField(Definition{Name: "email", Label: "Email", Value: "alice@example.com"}))

	sub := f.ProcessRequest(&TestRequest{ReqMethod: "GET"})

	field, _ := sub.Field("email")
	if field.Value != "alice@example.com" {
		t.Errorf("field value = %v, want the configured default", field.Value)
	}
}

func TestCSRFFailureShortCircuitsPipeline(t *testing.T) {
	csrf := newFakeCSRF()
	f := New("/contact", MethodPost)
	f.AddField(NewField(Definition{Name: "name", Label: "Name", Required: true}))
	f.SetCSRFProvider(csrf)

	filterRuns := 0
	f.SetProcessor(validation.NewProcessor().AddFilterer(validation.FiltererFunc(func(v any, _ validation.Values) any {
		filterRuns++
		return v
	}), "name"))

	// Stale token: nothing was generated for this form id.
	sub := f.ProcessRequest(postRequest(f, validation.Values{
		"name":           "Alice",
		csrf.FieldName(): "stale",
	}))

	want := []string{CSRFErrorMessage}
	if diff := cmp.Diff(want, sub.FieldErrors(CSRFErrorKey)); diff != "" {
		t.Errorf("_csrf errors mismatch (-want +got):\n%s", diff)
	}
	if filterRuns != 0 {
		t.Errorf("filter chain ran %d times, want 0", filterRuns)
	}
	if sub.IsValidSubmit() {
		t.Error("CSRF failure reported as valid submit")
	}
	// Raw payload doubles as the filtered values.
	if got := sub.Values()["name"]; got != "Alice" {
		t.Errorf("values[name] = %v, want raw payload", got)
	}
}

func TestCSRFHappyPathConsumesAndRegeneratesToken(t *testing.T) {
	csrf := newFakeCSRF()
	f := New("/contact", MethodPost)
	f.AddField(NewField(Definition{Name: "name", Label: "Name"}))
	f.SetCSRFProvider(csrf)

	token := csrf.GenerateToken(f.ID())

	sub := f.ProcessRequest(postRequest(f, validation.Values{
		"name":           "Alice",
		csrf.FieldName(): token,
	}))

	if !sub.IsValidSubmit() {
		t.Fatalf("expected valid submit, errors = %v", sub.Errors())
	}
	if sub.CSRFField() == nil {
		t.Fatal("submission carries no CSRF field for the next render")
	}
	if sub.CSRFField().Value == token {
		t.Error("next-render token equals the consumed one")
	}
	// The consumed token must not validate again.
	if csrf.ValidateToken(f.ID(), token) {
		t.Error("consumed token validated a second time")
	}
}

func TestCSRFFieldEmittedOnNonSubmission(t *testing.T) {
	csrf := newFakeCSRF()
	f := New("/contact", MethodPost)
	f.SetCSRFProvider(csrf)

	sub := f.ProcessRequest(&TestRequest{ReqMethod: "GET"})

	if sub.CSRFField() == nil || sub.CSRFField().Name != csrf.FieldName() {
		t.Fatal("blank render should still receive a CSRF field")
	}
	if sub.CSRFField().Value == "" {
		t.Error("CSRF field has no token")
	}
}

func TestRequiredValuesRederivedFromFields(t *testing.T) {
	f := New("/x", MethodPost)
	f.AddField(NewField(Definition{Name: "a", Label: "A"}))
	f.SetProcessor(validation.NewProcessor())

	// Field becomes required after the processor was attached.
	f.AddField(NewField(Definition{Name: "a", Label: "A", Required: true}))

	sub := f.ProcessRequest(postRequest(f, validation.Values{"a": ""}))

	if diff := cmp.Diff([]string{"Required"}, sub.FieldErrors("a")); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestWithSubmissionErrorGatesValidSubmit(t *testing.T) {
	f := New("/register", MethodPost)
	f.AddField(NewField(Definition{Name: "email", Label: "Email"}))

	sub := f.ProcessRequest(postRequest(f, validation.Values{"email": "a@b.c"}))
	if !sub.IsValidSubmit() {
		t.Fatalf("precondition failed: %v", sub.Errors())
	}

	flagged := sub.WithSubmissionError("An account with that email already exists.")

	if flagged.IsValidSubmit() {
		t.Error("submission error did not gate IsValidSubmit")
	}
	if !flagged.HasSubmissionErrors() || len(flagged.SubmissionErrors()) != 1 {
		t.Errorf("submission errors = %v", flagged.SubmissionErrors())
	}
	// The original snapshot stays untouched.
	if sub.HasSubmissionErrors() {
		t.Error("WithSubmissionError mutated the original submission")
	}
}

func TestSubmissionSnapshotIndependentOfForm(t *testing.T) {
	f := New("/x", MethodPost)
	f.AddField(NewField(Definition{Name: "a", Label: "A", Value: "before"}))

	sub := f.ProcessRequest(&TestRequest{ReqMethod: "GET"})

	// Later changes to the form's fields must not alter the snapshot.
	f.AddField(NewField(Definition{Name: "a", Label: "A", Value: "after"}))

	field, _ := sub.Field("a")
	if field.Value != "before" {
		t.Errorf("snapshot value = %v, want before", field.Value)
	}
}
