// Package selection holds the dashboard's ticker selection state: the single
// clicked symbol and the ordered multi-select set. It is the single source of
// truth that the composer and UI layers read and mutate; changes are pushed
// to subscribers as explicit events so trigger ordering stays deterministic.
package selection

import "sync"

// EventKind discriminates selection store events.
type EventKind int

const (
	// EventSingle fires when the single-click symbol is set.
	EventSingle EventKind = iota
	// EventMulti fires when the multi-select set actually changes.
	EventMulti
	// EventCleared fires when the whole selection is reset.
	EventCleared
)

// Event is a snapshot of a selection change delivered to subscribers.
type Event struct {
	Kind    EventKind
	Symbol  string   // the symbol that triggered the event, if any
	Symbols []string // multi-select contents in first-added order
}

// Listener receives selection events. Listeners are invoked synchronously in
// subscription order, outside the store lock.
type Listener func(Event)

// Store is the selection state container. All operations are total; there
// are no error conditions. Safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	single    string
	multi     []string            // insertion order
	members   map[string]struct{} // set view of multi
	listeners []Listener
}

// New creates an empty selection store.
func New() *Store {
	return &Store{members: make(map[string]struct{})}
}

// Subscribe registers a listener for selection events.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// SetSingle replaces the single-click symbol and notifies subscribers.
// The multi-select set is left untouched.
func (s *Store) SetSingle(symbol string) {
	s.mu.Lock()
	s.single = symbol
	ev := Event{Kind: EventSingle, Symbol: symbol, Symbols: s.multiLocked()}
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, ev)
}

// AddToMulti inserts symbol into the multi-select set if absent. Adding a
// symbol that is already present is a no-op and does not notify.
func (s *Store) AddToMulti(symbol string) {
	s.mu.Lock()
	if _, ok := s.members[symbol]; ok {
		s.mu.Unlock()
		return
	}
	s.members[symbol] = struct{}{}
	s.multi = append(s.multi, symbol)
	ev := Event{Kind: EventMulti, Symbol: symbol, Symbols: s.multiLocked()}
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, ev)
}

// Clear empties both the single symbol and the multi-select set. The chat
// session calls this after every completed send.
func (s *Store) Clear() {
	s.mu.Lock()
	s.single = ""
	s.multi = nil
	s.members = make(map[string]struct{})
	ev := Event{Kind: EventCleared}
	fns := s.listenersLocked()
	s.mu.Unlock()

	notify(fns, ev)
}

// ClearSingle resets only the single-click symbol without notifying.
// The composer uses this to consume a single-shot trigger, so that
// re-selecting the same symbol fires again.
func (s *Store) ClearSingle() {
	s.mu.Lock()
	s.single = ""
	s.mu.Unlock()
}

// ClearMulti resets only the multi-select set without notifying.
// A sector pick consumes the multi selection this way.
func (s *Store) ClearMulti() {
	s.mu.Lock()
	s.multi = nil
	s.members = make(map[string]struct{})
	s.mu.Unlock()
}

// Single returns the currently selected single-click symbol, or "".
func (s *Store) Single() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.single
}

// Multi returns a copy of the multi-select set in first-added order.
func (s *Store) Multi() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multiLocked()
}

func (s *Store) multiLocked() []string {
	out := make([]string, len(s.multi))
	copy(out, s.multi)
	return out
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notify(fns []Listener, ev Event) {
	for _, fn := range fns {
		fn(ev)
	}
}
