package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"sharematch-backend/internal/common/logger"
)

// Publisher emits compliance events for downstream consumers (audit
// trail, notification jobs). Publishing is fire-and-forget: a failure is
// logged, never propagated.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect opens a NATS connection. An empty URL returns a disabled
// publisher so callers never need to nil-check.
func Connect(url, subjectPrefix string) (*Publisher, error) {
	if url == "" {
		return &Publisher{subject: subjectPrefix}, nil
	}

	conn, err := nats.Connect(url, nats.Name("sharematch-compliance"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn, subject: subjectPrefix}, nil
}

// Publish marshals the event and publishes it under
// "<prefix>.<topic>".
func (p *Publisher) Publish(topic string, event interface{}) {
	if p.conn == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("topic", topic).Msg("Event marshal failed")
		return
	}

	subject := fmt.Sprintf("%s.%s", p.subject, topic)
	if err := p.conn.Publish(subject, data); err != nil {
		logger.Warn().Err(err).Str("subject", subject).Msg("Event publish failed")
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
