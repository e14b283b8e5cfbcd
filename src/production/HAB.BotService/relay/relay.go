package relay

import (
	"context"
	"strings"
	"sync"
	"time"

	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

const editTimeout = 10 * time.Second

// Session states reported by Status
const (
	StatusIdle         = "idle"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Editor edits a previously sent chat message in place
type Editor interface {
	EditMessage(ctx context.Context, target habmodels.ChatTarget, text string, keyboard habmodels.Keyboard) error
}

// MessageHandler receives one broker message
type MessageHandler func(topic string, payload []byte)

// Dialer opens a broker connection subscribed to topics
type Dialer interface {
	Dial(ctx context.Context, topics []string, onMessage MessageHandler) (Connection, error)
}

// Connection is a live broker connection
type Connection interface {
	IsConnected() bool
	Close()
}

// Options configures a Relay
type Options struct {
	Topics      []habmodels.TopicSpec
	FlushWindow time.Duration
	// ResetOnOpen drops values kept from a previous session when a new one opens
	ResetOnOpen bool
	Keyboard    habmodels.Keyboard
}

// Relay keeps a chat message in sync with the latest broker values.
//
// lifecycle serializes OpenSession, CloseSession and renders so that nothing is
// rendered once CloseSession has returned. mu guards the session record and is
// never held across network calls.
type Relay struct {
	topics      []habmodels.TopicSpec
	paths       []string
	window      time.Duration
	resetOnOpen bool
	keyboard    habmodels.Keyboard
	dialer      Dialer
	editor      Editor
	logger      *logger.Logger

	lifecycle sync.Mutex

	mu         sync.Mutex
	target     habmodels.ChatTarget
	conn       Connection
	generation uint64
	order      []string
	values     map[string]string
	pending    *time.Timer
}

// New creates a relay with no open session
func New(opts Options, dialer Dialer, editor Editor, log *logger.Logger) *Relay {
	paths := make([]string, 0, len(opts.Topics))
	for _, t := range opts.Topics {
		paths = append(paths, t.Path)
	}
	return &Relay{
		topics:      opts.Topics,
		paths:       paths,
		window:      opts.FlushWindow,
		resetOnOpen: opts.ResetOnOpen,
		keyboard:    opts.Keyboard,
		dialer:      dialer,
		editor:      editor,
		logger:      log.WithComponent("relay"),
		values:      make(map[string]string),
	}
}

// OpenSession points the relay at target and connects to the broker if needed.
// Calling it while a session is open only moves the target.
func (r *Relay) OpenSession(ctx context.Context, target habmodels.ChatTarget) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	r.target = target
	if r.resetOnOpen {
		r.order = nil
		r.values = make(map[string]string)
	}
	if r.conn != nil {
		r.scheduleLocked()
		r.mu.Unlock()
		r.logger.Logger.Debug().Int64("chat_id", target.ChatID).Int("message_id", target.MessageID).Msg("Relay session retargeted")
		return nil
	}
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	conn, err := r.dialer.Dial(ctx, r.paths, func(topic string, payload []byte) {
		r.handleMessage(generation, topic, payload)
	})
	if err != nil {
		r.logger.Logger.Error().Err(err).Msg("Failed to open broker connection")
		return err
	}

	r.mu.Lock()
	r.conn = conn
	r.scheduleLocked()
	r.mu.Unlock()

	r.logger.Logger.Info().Int64("chat_id", target.ChatID).Int("message_id", target.MessageID).Strs("topics", r.paths).Msg("Relay session opened")
	return nil
}

// CloseSession disconnects from the broker. Collected values are kept unless the
// relay was built with ResetOnOpen.
func (r *Relay) CloseSession() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.generation++
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.mu.Unlock()

	if conn == nil {
		return
	}
	conn.Close()
	r.logger.Info("Relay session closed")
}

// IsConnected reports whether a session is open with a live broker connection
func (r *Relay) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil && r.conn.IsConnected()
}

// Status reports "idle" while no session is open, otherwise whether the broker
// connection is up
func (r *Relay) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.conn == nil:
		return StatusIdle
	case r.conn.IsConnected():
		return StatusConnected
	default:
		return StatusDisconnected
	}
}

func (r *Relay) handleMessage(generation uint64, topic string, payload []byte) {
	value := strings.TrimSpace(strings.ToValidUTF8(string(payload), "�"))

	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation {
		r.logger.Logger.Debug().Str("topic", topic).Msg("Dropping message from closed session")
		return
	}
	if _, seen := r.values[topic]; !seen {
		r.order = append(r.order, topic)
	}
	r.values[topic] = value
	r.logger.Logger.Debug().Str("topic", topic).Str("payload", value).Msg("Received telemetry")

	// the flush is deferred until the session is established
	if r.conn != nil {
		r.scheduleLocked()
	}
}

// scheduleLocked arms a flush unless one is already pending. r.mu must be held.
func (r *Relay) scheduleLocked() {
	if r.pending != nil || len(r.order) == 0 {
		return
	}
	r.pending = time.AfterFunc(r.window, r.flush)
}

func (r *Relay) flush() {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	r.pending = nil
	if r.conn == nil || !r.conn.IsConnected() || len(r.order) == 0 {
		r.mu.Unlock()
		return
	}
	text := Render(r.topics, r.order, r.values)
	target := r.target
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
	defer cancel()

	if err := r.editor.EditMessage(ctx, target, text, r.keyboard); err != nil {
		r.logger.Logger.Warn().Err(err).Int64("chat_id", target.ChatID).Int("message_id", target.MessageID).Msg("Failed to edit relay message")
	}
}
