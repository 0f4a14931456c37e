// Package events publishes domain notifications. Publishing is best-effort:
// failures are logged and never fail the request that caused them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// Event types, appended to the configured subject prefix.
const (
	TypeQueryLogCreated = "querylog.created"
	TypeModelRetrained  = "model.retrained"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher delivers an encoded event to subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
	Close() error
}

// Emitter builds events and hands them to a Publisher.
type Emitter struct {
	pub    Publisher
	prefix string
	log    *slog.Logger
}

func NewEmitter(pub Publisher, prefix string, log *slog.Logger) *Emitter {
	if pub == nil {
		pub = Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{pub: pub, prefix: prefix, log: log}
}

func (e *Emitter) Subject(typ string) string {
	if e.prefix == "" {
		return typ
	}
	return e.prefix + "." + typ
}

// Emit publishes data under typ and logs instead of returning failures.
func (e *Emitter) Emit(ctx context.Context, typ string, data any) {
	ev := Event{
		ID:         ulid.Make().String(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		e.log.Error("encode event failed", "type", typ, "err", err)
		return
	}
	subject := e.Subject(typ)
	if err := e.pub.Publish(ctx, subject, payload); err != nil {
		e.log.Warn("publish event failed", "subject", subject, "id", ev.ID, "err", err)
		return
	}
	e.log.Debug("event published", "subject", subject, "id", ev.ID)
}

func (e *Emitter) Close() error { return e.pub.Close() }

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }

// Open returns an emitter that publishes to NATS when url is set. A broker
// that cannot be reached disables events instead of failing the caller.
func Open(url, prefix string, log *slog.Logger) *Emitter {
	if url == "" {
		return NewEmitter(Nop{}, prefix, log)
	}
	pub, err := ConnectNATS(url, log)
	if err != nil {
		log.Warn("nats unavailable, events disabled", "url", url, "err", err)
		return NewEmitter(Nop{}, prefix, log)
	}
	log.Info("publishing events", "url", url, "prefix", prefix)
	return NewEmitter(pub, prefix, log)
}

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATS publishes core NATS messages.
type NATS struct {
	conn natsConn
}

// ConnectNATS dials url; the connection reconnects on its own afterwards.
func ConnectNATS(url string, log *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("query-advisor"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.conn.Publish(subject, payload)
}

func (n *NATS) Close() error { return n.conn.Drain() }

// Recorder keeps published messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

type Message struct {
	Subject string
	Event   Event
}

func (r *Recorder) Publish(_ context.Context, subject string, payload []byte) error {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	r.mu.Lock()
	r.messages = append(r.messages, Message{Subject: subject, Event: ev})
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
