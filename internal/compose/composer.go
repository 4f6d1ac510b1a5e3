// Package compose turns selection events into canonical draft text for the
// chat session. It owns the three fixed question templates and the rules for
// when a selection may overwrite the draft.
package compose

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tickerdesk/tickerdesk/internal/selection"
)

// Session is the slice of the chat session the composer needs: somewhere to
// write the derived draft, and the busy gate that suppresses single-symbol
// triggers while an exchange is in flight.
type Session interface {
	SetDraft(text string)
	Awaiting() bool
}

const (
	singleTemplate = "Can you tell me why $%s has been performing like this recently?"
	multiTemplate  = "Can you tell me more about %s?"
	sectorTemplate = "Can you tell me more about the current financial state of the %s sector?"
)

// Composer subscribes to a selection store and derives draft text from its
// events. Manual edits made through the session stand until the next
// selection event, which always re-derives the draft.
type Composer struct {
	mu      sync.Mutex
	store   *selection.Store
	session Session
}

// New creates a composer and subscribes it to the store.
func New(store *selection.Store, session Session) *Composer {
	c := &Composer{store: store, session: session}
	store.Subscribe(c.onEvent)
	return c
}

// PickSector stages the sector question, overwriting any existing draft and
// consuming the multi-select set.
func (c *Composer) PickSector(sector string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ClearMulti()
	c.session.SetDraft(fmt.Sprintf(sectorTemplate, sector))
}

// onEvent reacts to selection changes. A pending single-click symbol always
// wins over a multi-select change delivered in the same window; the single
// trigger is one-shot and consumed on firing, so re-selecting the same
// symbol fires again.
func (c *Composer) onEvent(ev selection.Event) {
	if ev.Kind == selection.EventCleared {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Single-symbol takes precedence whenever one is staged, but never
	// while a request is in flight.
	if sym := c.store.Single(); sym != "" && !c.session.Awaiting() {
		c.session.SetDraft(fmt.Sprintf(singleTemplate, sym))
		c.store.ClearSingle()
		return
	}

	if ev.Kind == selection.EventMulti && len(ev.Symbols) > 0 {
		c.session.SetDraft(fmt.Sprintf(multiTemplate, joinSymbols(ev.Symbols)))
	}
}

// joinSymbols renders "$AAPL, $MSFT, $JPM" in first-added order.
func joinSymbols(symbols []string) string {
	parts := make([]string, len(symbols))
	for i, s := range symbols {
		parts[i] = "$" + s
	}
	return strings.Join(parts, ", ")
}
