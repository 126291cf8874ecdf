package eventbus

import (
	"context"
	"log"

	"github.com/composehq/composeweb/internal/event"
)

// LogConsumer logs every domain event for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.Event) error {
	log.Printf("event: %s actor=%s %s", evt.Type, evt.Actor, evt.Summary)
	return nil
}

// AuditConsumer persists every domain event into the audit trail.
type AuditConsumer struct {
	recorder *event.Recorder
}

func NewAuditConsumer(r *event.Recorder) *AuditConsumer {
	return &AuditConsumer{recorder: r}
}

func (c *AuditConsumer) HandleEvent(ctx context.Context, evt event.Event) error {
	return c.recorder.Record(ctx, evt)
}
