// Package export writes filtered events as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// ErrNothingToExport is returned for an empty event subset. Nothing is
// written in that case.
var ErrNothingToExport = errors.New("no events to export")

// Header is the column row of every export.
var Header = []string{"ID", "Type", "Title", "Latitude", "Longitude", "Intensity", "Timestamp", "Source", "Status"}

const defaultStatus = "unknown"

// WriteCSV writes one row per event in input order. Fields are quoted per
// RFC 4180 where needed.
func WriteCSV(w io.Writer, events []domain.Event) error {
	if len(events) == 0 {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range events {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Row renders one event as export columns.
func Row(e domain.Event) []string {
	var lat, lon string
	if e.Geo != nil {
		lat = strconv.FormatFloat(e.Geo.Lat, 'f', -1, 64)
		lon = strconv.FormatFloat(e.Geo.Lon, 'f', -1, 64)
	}
	status := e.Status
	if status == "" {
		status = defaultStatus
	}
	return []string{
		e.ID,
		string(e.Kind),
		e.Title,
		lat,
		lon,
		strconv.FormatFloat(domain.NormalizedIntensity(e), 'f', -1, 64),
		e.OccurredAt.UTC().Format(time.RFC3339),
		e.Source,
		status,
	}
}

// FileName is the suggested download name for an export made at t.
func FileName(t time.Time) string {
	return "natural_phenomena_" + t.UTC().Format("2006-01-02") + ".csv"
}
