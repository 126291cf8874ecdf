// Package validation implements the filter/validate pipeline that form
// submissions run through: ordered filterer and validator chains, global or
// scoped to a field name, plus required-field checking.
package validation

import (
	"fmt"
	"strings"
)

// Values is a submitted payload keyed by field name.
type Values map[string]any

// Filterer transforms a submitted value before validation. The second
// argument is always the original, unfiltered payload so cross-field
// filterers are insensitive to registration order.
type Filterer interface {
	Filter(value any, all Values) any
}

// FiltererFunc adapts a plain function to the Filterer interface.
type FiltererFunc func(value any, all Values) any

func (f FiltererFunc) Filter(value any, all Values) any { return f(value, all) }

// Validator checks a filtered value and returns an error message, or the
// empty string when the value is acceptable.
type Validator interface {
	Validate(value any, all Values) string
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(value any, all Values) string

func (f ValidatorFunc) Validate(value any, all Values) string { return f(value, all) }

// UploadStatus reports the outcome of a file upload.
type UploadStatus int

const (
	UploadOK UploadStatus = iota
	UploadNoFile
	UploadFailed
)

// FileUpload is the tagged representation of a file-shaped submitted value.
// A FileUpload with Status == UploadNoFile counts as "no value provided" for
// the required check.
type FileUpload struct {
	Filename string
	Size     int64
	Status   UploadStatus
}

// stringify renders a scalar value for required checking and messages.
// nil becomes the empty string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isBlank reports whether a submitted value counts as absent: nil, empty or
// whitespace-only strings, empty slices, and file uploads without a file.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case FileUpload:
		return v.Status == UploadNoFile
	case *FileUpload:
		return v == nil || v.Status == UploadNoFile
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return strings.TrimSpace(stringify(v)) == ""
	}
}
