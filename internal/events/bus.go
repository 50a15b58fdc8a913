// Package events publishes domain events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// Publisher sends an event payload under a short event name such as
// "partnership.linked". Publish failures never roll back domain writes.
type Publisher interface {
	Publish(ctx context.Context, event string, v any) error
}

// Bus wraps a NATS JetStream connection for publishing events.
type Bus struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

// Connect dials NATS and makes sure a stream captures every subject under
// prefix.
func Connect(url, prefix string, opts ...nats.Option) (*Bus, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     strings.ToUpper(prefix),
		Subjects: []string{prefix + ".>"},
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, fmt.Errorf("add stream: %w", err)
	}

	return &Bus{conn: nc, js: js, prefix: prefix}, nil
}

// Subject returns the full subject for an event name.
func (b *Bus) Subject(event string) string {
	return Subject(b.prefix, event)
}

func Subject(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "." + event
}

// Close drains the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Publish encodes v as JSON and publishes it to the event's subject.
func (b *Bus) Publish(ctx context.Context, event string, v any) error {
	if b == nil {
		return errors.New("nil bus")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(b.Subject(event), data, nats.Context(ctx))
	return err
}

// Nop drops every event. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
