// Package dashboard holds the user-facing filter state and derives every view
// from the latest committed snapshot.
package dashboard

import (
	"sync"

	"github.com/couchcryptid/hazardwatch/internal/adapter/static"
	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/ingest"
	"github.com/couchcryptid/hazardwatch/internal/view"
)

// SnapshotReader exposes the latest committed cycle.
type SnapshotReader interface {
	Snapshot() (ingest.Snapshot, bool)
}

// View is the visible subset under a filter state.
type View struct {
	Filter domain.FilterState `json:"filter"`
	Events []domain.Event     `json:"events"`
	Total  int                `json:"total"`
}

// News is the side-panel reference content.
type News struct {
	Headlines    []static.Headline             `json:"headlines"`
	Explanations map[string]static.Explanation `json:"explanations"`
}

// Dashboard is the explicit application context: one filter state, one
// snapshot reader. Dispatch is the only writer of the filter state.
type Dashboard struct {
	store SnapshotReader
	doc   *static.Document

	mu     sync.Mutex
	filter domain.FilterState
}

// New creates a Dashboard with the default filter. doc may be nil, in which
// case News is empty.
func New(store SnapshotReader, doc *static.Document) *Dashboard {
	return &Dashboard{
		store:  store,
		doc:    doc,
		filter: domain.DefaultFilter(),
	}
}

// Filter returns the current filter state.
func (d *Dashboard) Filter() domain.FilterState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Dispatch applies one command and recomputes the view once. A rejected
// command leaves the state unchanged.
func (d *Dashboard) Dispatch(cmd domain.Command) (View, error) {
	d.mu.Lock()
	next, err := cmd.Apply(d.filter)
	if err != nil {
		d.mu.Unlock()
		return View{}, err
	}
	d.filter = next
	d.mu.Unlock()

	return d.VisibleWith(next), nil
}

// Visible returns the view under the current filter state.
func (d *Dashboard) Visible() View {
	return d.VisibleWith(d.Filter())
}

// VisibleWith evaluates an arbitrary filter state without storing it.
func (d *Dashboard) VisibleWith(state domain.FilterState) View {
	events := d.events()
	return View{
		Filter: state,
		Events: domain.FilterNow(events, state),
		Total:  len(events),
	}
}

// Markers returns map markers for the visible subset.
func (d *Dashboard) Markers() []view.Marker {
	return view.Markers(d.Visible().Events)
}

// Recent returns the n most recent events regardless of the filter.
func (d *Dashboard) Recent(n int) []view.RecentItem {
	return view.RecentItems(d.events(), n)
}

// Summary returns status-bar counts for the current filter.
func (d *Dashboard) Summary() view.Summary {
	snap, _ := d.store.Snapshot()
	visible := domain.FilterNow(snap.Events, d.Filter())
	return view.NewSummary(snap.Events, visible, snap.UpdatedAt, snap.Fallback)
}

// News returns headlines rebased to now and the science explanations.
func (d *Dashboard) News() News {
	if d.doc == nil {
		return News{Headlines: []static.Headline{}, Explanations: map[string]static.Explanation{}}
	}
	return News{
		Headlines:    d.doc.HeadlinesAt(domain.Now()),
		Explanations: d.doc.Explanations,
	}
}

func (d *Dashboard) events() []domain.Event {
	snap, ok := d.store.Snapshot()
	if !ok {
		return nil
	}
	return snap.Events
}
