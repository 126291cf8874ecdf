package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/composehq/composeweb/internal/validation"
)

func registerDefinitions() Definitions {
	return Definitions{
		{
			Name: "email", Label: "Email", Type: "email", Required: true,
			Filters:    Rules{{Name: validation.FilterTrim}},
			Validators: Rules{{Name: validation.ValidatorEmail}},
		},
		{
			Name: "password", Label: "Password", Type: "password", Required: true,
			Filters:    Rules{{Name: validation.FilterTrim}},
			Validators: Rules{{Name: validation.ValidatorStringLength, Args: []any{6, nil}}},
		},
		{
			Name: "confirm_password", Label: "Confirm password", Type: "password", Required: true,
			Filters: Rules{{Name: validation.FilterTrim}},
			Validators: Rules{
				{Name: validation.ValidatorStringLength, Args: []any{6, nil}},
				{Name: validation.ValidatorMatchField, Args: []any{"password"}},
			},
		},
	}
}

func TestBuildWiresFieldsAndProcessor(t *testing.T) {
	b := NewBuilder(nil, nil)

	f, err := b.Build("/auth/register", registerDefinitions(), MethodPost, nil)
	require.NoError(t, err)

	require.Len(t, f.Fields(), 3)
	assert.Equal(t, "/auth/register", f.Action())
	assert.Equal(t, MethodPost, f.Method())

	email, ok := f.Field("email")
	require.True(t, ok)
	assert.Equal(t, "email", email.Type)
	assert.True(t, email.Required)

	sub := f.ProcessRequest(postRequest(f, validation.Values{
		"email":            "  alice@example.com ",
		"password":         "s3cret99",
		"confirm_password": "s3cret99",
	}))
	require.True(t, sub.IsValidSubmit(), "errors: %v", sub.Errors())
	assert.Equal(t, "alice@example.com", sub.Values()["email"])
}

func TestBuildValidatorOrderIsPreserved(t *testing.T) {
	b := NewBuilder(nil, nil)
	f, err := b.Build("/auth/register", registerDefinitions(), MethodPost, nil)
	require.NoError(t, err)

	// Too short and mismatching: length error must come first.
	sub := f.ProcessRequest(postRequest(f, validation.Values{
		"email":            "alice@example.com",
		"password":         "s3cret99",
		"confirm_password": "abc",
	}))

	errs := sub.FieldErrors("confirm_password")
	require.Len(t, errs, 2)
	assert.Equal(t, "Must be at least 6 characters", errs[0])
	assert.Equal(t, "Values do not match.", errs[1])
}

func TestBuildAppliesInitialValues(t *testing.T) {
	b := NewBuilder(nil, nil)
	defs := Definitions{{Name: "email", Label: "Email", Value: "default@example.com"}}

	f, err := b.Build("/user/settings", defs, MethodPost, validation.Values{"email": "alice@example.com"})
	require.NoError(t, err)

	field, ok := f.Field("email")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", field.Value)
}

func TestBuildAttachesCSRFProvider(t *testing.T) {
	csrf := newFakeCSRF()
	b := NewBuilder(nil, csrf)

	f, err := b.Build("/contact", Definitions{{Name: "name", Label: "Name"}}, MethodPost, nil)
	require.NoError(t, err)

	sub := f.ProcessRequest(&TestRequest{ReqMethod: "GET"})
	require.NotNil(t, sub.CSRFField())
	assert.Equal(t, csrf.FieldName(), sub.CSRFField().Name)
}

func TestBuildFailsOnConfigurationMistakes(t *testing.T) {
	b := NewBuilder(nil, nil)

	_, err := b.Build("/x", Definitions{
		{Name: "a", Label: "A", Filters: Rules{{Name: "no_such_filter"}}},
	}, MethodPost, nil)
	assert.ErrorContains(t, err, "unknown filter/validator")

	_, err = b.Build("/x", Definitions{
		{Name: "a", Label: "A", Validators: Rules{{Name: validation.ValidatorStringLength, Args: map[string]any{"min": 1}}}},
	}, MethodPost, nil)
	assert.ErrorContains(t, err, "positional list")

	_, err = b.Build("/x", Definitions{
		{Name: "a", Label: "A", Validators: Rules{{Name: validation.FilterTrim}}},
	}, MethodPost, nil)
	assert.ErrorContains(t, err, "does not produce a validator")
}

func TestDefinitionsYAMLDecoding(t *testing.T) {
	src := `
email:
  label: Email
  type: email
  required: true
  filters:
    trim: ~
  validators:
    email: ~
ignored: just a string
subject:
  label: Subject
  type: select
  options:
    - {value: "", label: Select a topic}
    - {value: sales, label: Sales}
message:
  name: body
  label: Message
  type: textarea
  required: true
  validators:
    string_length: [10, 2000]
`
	var defs Definitions
	require.NoError(t, yaml.Unmarshal([]byte(src), &defs))

	// Non-mapping entries are skipped, order is preserved, names default to keys.
	require.Len(t, defs, 3)
	assert.Equal(t, "email", defs[0].Name)
	assert.Equal(t, "subject", defs[1].Name)
	assert.Equal(t, "body", defs[2].Name, "explicit name overrides the key")

	require.Len(t, defs[0].Filters, 1)
	assert.Equal(t, validation.FilterTrim, defs[0].Filters[0].Name)
	assert.Nil(t, defs[0].Filters[0].Args)

	require.Len(t, defs[2].Validators, 1)
	assert.Equal(t, []any{10, 2000}, defs[2].Validators[0].Args)

	b := NewBuilder(nil, nil)
	_, err := b.Build("/contact", defs, MethodPost, nil)
	require.NoError(t, err)
}
