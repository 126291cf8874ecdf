package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/composehq/composeweb/internal/email"
	"github.com/composehq/composeweb/internal/form"
)

// EmailSettings configures where contact submissions are routed.
type EmailSettings struct {
	To         string            `yaml:"to"`
	Cc         []string          `yaml:"cc"`
	From       string            `yaml:"from"`
	Subject    string            `yaml:"subject"`
	SubjectMap map[string]string `yaml:"subject_map"`
}

// Service records submissions and forwards them by email.
type Service struct {
	entries  *Repository
	emailer  *email.Emailer
	settings EmailSettings
}

func NewService(entries *Repository, emailer *email.Emailer, settings EmailSettings) *Service {
	if settings.To == "" {
		settings.To = "admin@example.com"
	}
	if settings.From == "" {
		settings.From = "no-reply@example.com"
	}
	if settings.Subject == "" {
		settings.Subject = "Contact submission received"
	}
	return &Service{entries: entries, emailer: emailer, settings: settings}
}

// HandleSubmission stores the submission and emails it to the routed
// recipient. The submission must already have validated successfully.
func (s *Service) HandleSubmission(ctx context.Context, formSlug string, sub *form.Submission) (int64, error) {
	values := sub.Values()

	id, err := s.entries.Record(ctx, formSlug, values)
	if err != nil {
		return 0, err
	}

	msg := email.NewMessage(s.resolveSubject(values), "")
	msg.TextBody = buildBody(values)

	fromEmail := s.settings.From
	fromName := ""
	if v, ok := values["email"].(string); ok && v != "" {
		fromEmail = v
	}
	if v, ok := values["name"].(string); ok {
		fromName = v
	}
	msg.SetFrom(fromEmail, fromName)
	msg.AddTo(s.resolveRecipient(values), "")
	for _, cc := range s.settings.Cc {
		msg.AddCc(cc, "")
	}

	if err := s.emailer.Send(msg); err != nil {
		return id, fmt.Errorf("contact: sending notification: %w", err)
	}
	return id, nil
}

// buildBody renders one "key: value" line per field. Keys with a leading
// underscore are infrastructure fields and are skipped.
func buildBody(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if strings.HasPrefix(key, "_") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, renderValue(values[key])))
	}
	return strings.Join(lines, "\n")
}

func renderValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// resolveRecipient routes by the submitted subject when the subject map has
// an entry for it.
func (s *Service) resolveRecipient(values map[string]any) string {
	subjectKey, _ := values["subject"].(string)
	if subjectKey == "" {
		return s.settings.To
	}
	if to, ok := s.settings.SubjectMap[subjectKey]; ok {
		return to
	}
	return s.settings.To
}

func (s *Service) resolveSubject(values map[string]any) string {
	if subjectKey, _ := values["subject"].(string); subjectKey != "" {
		return fmt.Sprintf("%s: %s", s.settings.Subject, subjectKey)
	}
	return s.settings.Subject
}
