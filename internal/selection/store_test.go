package selection

import (
	"reflect"
	"testing"
)

func TestSetSingle(t *testing.T) {
	s := New()

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.SetSingle("AAPL")
	if got := s.Single(); got != "AAPL" {
		t.Errorf("Single() = %q, want %q", got, "AAPL")
	}
	if len(events) != 1 || events[0].Kind != EventSingle || events[0].Symbol != "AAPL" {
		t.Fatalf("unexpected events: %+v", events)
	}

	// Replacing fires again.
	s.SetSingle("TSLA")
	if got := s.Single(); got != "TSLA" {
		t.Errorf("Single() = %q, want %q", got, "TSLA")
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestSetSingleLeavesMultiUntouched(t *testing.T) {
	s := New()
	s.AddToMulti("MSFT")
	s.SetSingle("AAPL")

	if got := s.Multi(); !reflect.DeepEqual(got, []string{"MSFT"}) {
		t.Errorf("Multi() = %v, want [MSFT]", got)
	}
}

func TestAddToMultiPreservesOrder(t *testing.T) {
	s := New()
	for _, sym := range []string{"JPM", "AAPL", "MSFT"} {
		s.AddToMulti(sym)
	}
	want := []string{"JPM", "AAPL", "MSFT"}
	if got := s.Multi(); !reflect.DeepEqual(got, want) {
		t.Errorf("Multi() = %v, want %v", got, want)
	}
}

func TestAddToMultiIdempotent(t *testing.T) {
	s := New()

	var notifications int
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventMulti {
			notifications++
		}
	})

	s.AddToMulti("TSLA")
	s.AddToMulti("TSLA")

	if got := s.Multi(); len(got) != 1 {
		t.Errorf("Multi() has %d entries, want 1", len(got))
	}
	if notifications != 1 {
		t.Errorf("got %d notifications, want 1", notifications)
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.SetSingle("AAPL")
	s.AddToMulti("MSFT")

	var cleared bool
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventCleared {
			cleared = true
		}
	})

	s.Clear()
	if s.Single() != "" {
		t.Error("Single() not empty after Clear")
	}
	if len(s.Multi()) != 0 {
		t.Error("Multi() not empty after Clear")
	}
	if !cleared {
		t.Error("Clear did not notify")
	}

	// Previously added symbol can be re-added and re-fires.
	var refired bool
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventMulti {
			refired = true
		}
	})
	s.AddToMulti("MSFT")
	if !refired {
		t.Error("AddToMulti after Clear did not notify")
	}
}

func TestClearSingleSilent(t *testing.T) {
	s := New()
	s.SetSingle("AAPL")

	var events int
	s.Subscribe(func(Event) { events++ })

	s.ClearSingle()
	if s.Single() != "" {
		t.Error("ClearSingle left symbol set")
	}
	if events != 0 {
		t.Errorf("ClearSingle notified %d times, want 0", events)
	}
}

func TestClearMultiSilent(t *testing.T) {
	s := New()
	s.AddToMulti("AAPL")
	s.AddToMulti("MSFT")

	var events int
	s.Subscribe(func(Event) { events++ })

	s.ClearMulti()
	if len(s.Multi()) != 0 {
		t.Error("ClearMulti left symbols")
	}
	if events != 0 {
		t.Errorf("ClearMulti notified %d times, want 0", events)
	}
}

func TestEventCarriesSnapshot(t *testing.T) {
	s := New()

	var last Event
	s.Subscribe(func(ev Event) { last = ev })

	s.AddToMulti("AAPL")
	s.AddToMulti("MSFT")

	want := []string{"AAPL", "MSFT"}
	if !reflect.DeepEqual(last.Symbols, want) {
		t.Errorf("event Symbols = %v, want %v", last.Symbols, want)
	}

	// Mutating the snapshot must not affect the store.
	last.Symbols[0] = "X"
	if got := s.Multi(); got[0] != "AAPL" {
		t.Error("event snapshot aliases store state")
	}
}
