package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

// Envelope is the message body published for every committed transition
type Envelope struct {
	ID string `json:"id"`
	usecase.MirrorEvent
}

// publisher is the subset of *nats.Conn the mirror needs
type publisher interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Config holds NATS mirror configuration
type Config struct {
	URL     string
	Subject string
	Timeout time.Duration
}

// NATSMirror publishes ledger events to NATS. The connection is opened on
// first use so commands that never commit do not dial the broker.
type NATSMirror struct {
	cfg     Config
	log     *slog.Logger
	connect func() (publisher, error)

	mu   sync.Mutex
	conn publisher
}

// NewNATSMirror creates a mirror for the given server
func NewNATSMirror(cfg Config, log *slog.Logger) *NATSMirror {
	m := &NATSMirror{
		cfg: cfg,
		log: log.With("component", "mirror"),
	}
	m.connect = func() (publisher, error) {
		conn, err := nats.Connect(cfg.URL,
			nats.Name("pledge"),
			nats.Timeout(cfg.Timeout),
			nats.MaxReconnects(0),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		return conn, nil
	}
	return m
}

// Publish sends the event and waits for the server to acknowledge the flush
func (m *NATSMirror) Publish(ctx context.Context, event usecase.MirrorEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		conn, err := m.connect()
		if err != nil {
			return err
		}
		m.conn = conn
	}

	env := Envelope{ID: uuid.NewString(), MirrorEvent: event}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := nats.NewMsg(m.subject(event.Type))
	msg.Header.Set(nats.MsgIdHdr, env.ID)
	msg.Data = payload
	if err := m.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	if err := m.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("failed to flush %s: %w", event.Type, err)
	}

	m.log.Debug("mirrored event", "subject", msg.Subject, "id", env.ID)
	return nil
}

// subject maps "challenge.cast_vote" to "<base>.cast_vote"
func (m *NATSMirror) subject(eventType string) string {
	return m.cfg.Subject + "." + strings.TrimPrefix(eventType, "challenge.")
}

// Close releases the connection if one was opened
func (m *NATSMirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// NopMirror is used when no mirror is configured
type NopMirror struct{}

func (NopMirror) Publish(context.Context, usecase.MirrorEvent) error { return nil }

var (
	_ usecase.Mirror = (*NATSMirror)(nil)
	_ usecase.Mirror = NopMirror{}
)
