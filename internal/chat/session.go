// Package chat owns the conversation with the assistant backend: the ordered
// message history, the staged draft, and the pending-request state machine.
// A session is Idle, then Sending, then AwaitingResponse, then Idle again;
// at most one exchange is outstanding at any time.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tickerdesk/tickerdesk/internal/selection"
	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// FallbackReply is surfaced to the UI when an exchange fails. It is never
// appended to the message history.
const FallbackReply = "I'm sorry, I don't understand that."

var (
	// ErrBusy is returned by Submit while a previous exchange is in flight.
	ErrBusy = errors.New("chat: exchange already in flight")
	// ErrEmptyDraft is returned by Submit when the draft is empty or
	// whitespace. The session state is left untouched.
	ErrEmptyDraft = errors.New("chat: draft is empty")
)

// Exchanger performs a single prompt/history round trip with the backend.
type Exchanger interface {
	Exchange(ctx context.Context, prompt string, history []models.ChatMessage) (string, error)
}

// EventFunc observes session changes: "message" with a models.ChatMessage,
// "draft" with the draft string, "awaiting" with a bool, "fallback" with the
// fallback string.
type EventFunc func(event string, data any)

// Session is the conversation coordinator. Safe for concurrent use; the
// awaiting gate serializes sends without serializing callers.
type Session struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	draft    string
	awaiting bool

	backend   Exchanger
	selection *selection.Store // cleared after every successful submit
	notify    EventFunc
}

// NewSession creates an idle session. sel may be nil when no selection store
// should be consumed on send (e.g. the one-shot CLI).
func NewSession(backend Exchanger, sel *selection.Store) *Session {
	return &Session{backend: backend, selection: sel}
}

// Notify registers an observer for session events. Must be called before the
// session is shared between goroutines.
func (s *Session) Notify(fn EventFunc) {
	s.notify = fn
}

// Messages returns a copy of the conversation history in insertion order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Draft returns the currently staged draft text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft replaces the draft text. Used both for composer-derived drafts
// and manual edits; the most recent write wins.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.emit("draft", text)
}

// Awaiting reports whether an exchange is currently in flight.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Submit sends the current draft to the backend. Valid only while idle:
// returns ErrBusy during an in-flight exchange and ErrEmptyDraft for a
// blank draft, leaving all state unchanged in both cases.
//
// On success the user message is appended, the draft and the selection store
// are cleared, and the exchange runs in the background behind the returned
// handle. A failed exchange appends nothing; the handle then carries the
// fixed fallback reply and the underlying error.
func (s *Session) Submit(ctx context.Context) (*Exchange, error) {
	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	prompt := strings.TrimSpace(s.draft)
	if prompt == "" {
		s.mu.Unlock()
		return nil, ErrEmptyDraft
	}

	// History carries everything before the new user message.
	history := make([]models.ChatMessage, len(s.messages))
	copy(history, s.messages)

	msg := models.NewChatMessage(models.SenderUser, prompt)
	s.messages = append(s.messages, msg)
	s.draft = ""
	s.awaiting = true
	ex := &Exchange{done: make(chan struct{})}
	s.mu.Unlock()

	// The send consumes whatever selection produced it.
	if s.selection != nil {
		s.selection.Clear()
	}

	s.emit("message", msg)
	s.emit("draft", "")
	s.emit("awaiting", true)

	go s.run(ctx, ex, prompt, history)
	return ex, nil
}

// run performs the backend exchange and settles the handle.
func (s *Session) run(ctx context.Context, ex *Exchange, prompt string, history []models.ChatMessage) {
	reply, err := s.backend.Exchange(ctx, prompt, history)

	s.mu.Lock()
	s.awaiting = false
	if err != nil {
		s.mu.Unlock()
		ex.settle(FallbackReply, err)
		s.emit("awaiting", false)
		s.emit("fallback", FallbackReply)
		return
	}

	msg := models.NewChatMessage(models.SenderAssistant, reply)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	ex.settle(reply, nil)
	s.emit("awaiting", false)
	s.emit("message", msg)
}

func (s *Session) emit(event string, data any) {
	if s.notify != nil {
		s.notify(event, data)
	}
}

// Exchange is the handle for one in-flight backend round trip. Callers wait
// on it for the outcome; it is the seam for adding timeout or cancellation
// later without changing the submit path.
type Exchange struct {
	done  chan struct{}
	reply string
	err   error
}

func (e *Exchange) settle(reply string, err error) {
	e.reply = reply
	e.err = err
	close(e.done)
}

// Done is closed once the exchange has settled.
func (e *Exchange) Done() <-chan struct{} { return e.done }

// Reply returns the assistant's text, or the fixed fallback on failure.
// Only valid after Done is closed.
func (e *Exchange) Reply() string { return e.reply }

// Err returns the exchange error, if any. Only valid after Done is closed.
func (e *Exchange) Err() error { return e.err }
