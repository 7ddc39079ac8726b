package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidWindow    = errors.New("invalid time window")
	ErrInvalidIntensity = errors.New("invalid minimum intensity")
)

// KindAll selects every kind.
const KindAll Kind = "all"

// Window is a recency bound relative to the filter pass.
type Window string

const (
	WindowHour  Window = "1h"
	WindowDay   Window = "24h"
	WindowWeek  Window = "7d"
	WindowMonth Window = "30d"
	WindowAll   Window = "all"
)

// Windows lists the accepted windows, narrowest first.
var Windows = []Window{WindowHour, WindowDay, WindowWeek, WindowMonth, WindowAll}

// ParseWindow validates a window name.
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	switch w {
	case WindowHour, WindowDay, WindowWeek, WindowMonth, WindowAll:
		return w, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
}

// Hours returns the window bound in hours and false for WindowAll.
func (w Window) Hours() (float64, bool) {
	switch w {
	case WindowHour:
		return 1, true
	case WindowDay:
		return 24, true
	case WindowWeek:
		return 168, true
	case WindowMonth:
		return 720, true
	default:
		return 0, false
	}
}

// FilterState is the user-controlled selection applied to the event list.
type FilterState struct {
	Kind         Kind    `json:"kind"`
	MinIntensity float64 `json:"min_intensity"`
	Window       Window  `json:"window"`
}

// DefaultFilter shows every kind from the last 24 hours.
func DefaultFilter() FilterState {
	return FilterState{Kind: KindAll, MinIntensity: 0, Window: WindowDay}
}

// Validate checks the state for values the filter cannot evaluate.
func (s FilterState) Validate() error {
	if math.IsNaN(s.MinIntensity) || math.IsInf(s.MinIntensity, 0) || s.MinIntensity < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidIntensity, s.MinIntensity)
	}
	if _, err := ParseWindow(string(s.Window)); err != nil {
		return err
	}
	return nil
}

// Filter returns the events visible under state, in input order. now is the
// single reference time for the whole pass. The input slice is not modified.
func Filter(events []Event, state FilterState, now time.Time) []Event {
	bound, bounded := state.Window.Hours()
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.HasCoordinates() {
			continue
		}
		if state.Kind != KindAll && state.Kind != "" && e.Kind != state.Kind {
			continue
		}
		if NormalizedIntensity(e) < state.MinIntensity {
			continue
		}
		if bounded && now.Sub(e.OccurredAt).Hours() > bound {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterNow runs Filter against the package clock.
func FilterNow(events []Event, state FilterState) []Event {
	return Filter(events, state, clock.Now())
}
