// Package security holds the CSRF token provider consumed by the form
// pipeline.
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"

	"github.com/composehq/composeweb/internal/session"
)

const (
	// sessionKey is where the per-form token map lives inside the session.
	sessionKey = "__CSRF_TOKENS__"

	// DefaultFieldName is the payload key the token travels under. The
	// leading underscore keeps it out of serialized contact summaries.
	DefaultFieldName = "__CSRF_TOKEN__"
)

// SessionTokenProvider issues single-use CSRF tokens bound to a form id and
// stored in the session. Each form id has its own token slot, so concurrent
// tabs submitting different forms do not clobber each other; two tabs on the
// same form get last-write-wins, which invalidates the earlier render.
type SessionTokenProvider struct {
	session   session.Store
	fieldName string
}

// NewSessionTokenProvider creates a provider for one request's session. An
// empty fieldName falls back to DefaultFieldName.
func NewSessionTokenProvider(store session.Store, fieldName string) *SessionTokenProvider {
	if fieldName == "" {
		fieldName = DefaultFieldName
	}
	return &SessionTokenProvider{session: store, fieldName: fieldName}
}

// GenerateToken mints a fresh token for formID, replacing any earlier one.
func (p *SessionTokenProvider) GenerateToken(formID string) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; there is no
		// reasonable fallback token source.
		panic(err)
	}
	token := hex.EncodeToString(buf)

	tokens := p.tokens()
	tokens[formID] = token
	p.session.Set(sessionKey, tokens)

	return token
}

// ValidateToken checks token against the stored one for formID in constant
// time. A successful validation consumes the token: validating the same
// value twice returns false the second time.
func (p *SessionTokenProvider) ValidateToken(formID, token string) bool {
	if token == "" {
		return false
	}

	tokens := p.tokens()
	stored, ok := tokens[formID]
	if !ok {
		return false
	}

	if !hmac.Equal([]byte(stored), []byte(token)) {
		return false
	}

	delete(tokens, formID)
	if len(tokens) == 0 {
		p.session.Unset(sessionKey)
	} else {
		p.session.Set(sessionKey, tokens)
	}
	return true
}

// FieldName returns the payload key for the token input.
func (p *SessionTokenProvider) FieldName() string {
	return p.fieldName
}

func (p *SessionTokenProvider) tokens() map[string]string {
	if tokens, ok := p.session.Get(sessionKey, nil).(map[string]string); ok {
		return tokens
	}
	return map[string]string{}
}
