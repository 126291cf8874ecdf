// Package contact records contact form submissions and routes them to the
// configured recipients by email.
package contact

import "time"

// Entry is a stored contact submission.
type Entry struct {
	ID        int64
	FormSlug  string
	Email     string
	Subject   string
	Payload   map[string]any
	Tags      []string
	Read      bool
	Starred   bool
	CreatedAt time.Time
}
