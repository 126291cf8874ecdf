package validation

import "strings"

const defaultTrimCutset = " \t\n\r\x00\x0B"

// TrimString trims string-shaped values while passing nils and non-scalar
// values through untouched.
type TrimString struct {
	cutset string
}

// NewTrimString trims the usual whitespace characters.
func NewTrimString() *TrimString {
	return &TrimString{cutset: defaultTrimCutset}
}

// NewTrimStringCutset trims a caller-supplied character set.
func NewTrimStringCutset(cutset string) *TrimString {
	if cutset == "" {
		cutset = defaultTrimCutset
	}
	return &TrimString{cutset: cutset}
}

func (t *TrimString) Filter(value any, _ Values) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return strings.Trim(v, t.cutset)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return strings.Trim(stringify(v), t.cutset)
	default:
		return value
	}
}
