package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"time"
)

// Phase tracks pass/fail for one integrity check over an export.
type Phase struct {
	Name   string
	Errors []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase found no problems.
func (p *Phase) Passed() bool { return len(p.Errors) == 0 }

// Report is the outcome of Validate.
type Report struct {
	Rows   int
	Phases []*Phase
}

// Passed reports whether every phase passed.
func (r Report) Passed() bool {
	for _, p := range r.Phases {
		if !p.Passed() {
			return false
		}
	}
	return true
}

// row is a data line with its 1-based line number.
type row struct {
	line   int
	fields []string
}

// Validate reads an export and runs integrity phases over it. It returns an
// error only when the input is not readable CSV at all.
func Validate(r io.Reader) (Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return Report{}, fmt.Errorf("read export: %w", err)
	}

	header := &Phase{Name: "Header"}
	var rows []row
	switch {
	case len(records) == 0:
		header.errorf("file is empty")
	case !slices.Equal(records[0], Header):
		header.errorf("header is %v, want %v", records[0], Header)
	}
	if len(records) > 1 {
		for i, rec := range records[1:] {
			rows = append(rows, row{line: i + 2, fields: rec})
		}
	}

	counts := validateColumnCounts(rows)
	complete := make([]row, 0, len(rows))
	for _, r := range rows {
		if len(r.fields) == len(Header) {
			complete = append(complete, r)
		}
	}

	return Report{
		Rows: len(rows),
		Phases: []*Phase{
			header,
			counts,
			validateCoordinates(complete),
			validateIntensity(complete),
			validateTimestamps(complete),
			validateUniqueIDs(complete),
		},
	}, nil
}

func validateColumnCounts(rows []row) *Phase {
	p := &Phase{Name: "Column counts"}
	if len(rows) == 0 {
		p.errorf("no data rows")
	}
	for _, r := range rows {
		if len(r.fields) != len(Header) {
			p.errorf("line %d: %d columns, want %d", r.line, len(r.fields), len(Header))
		}
	}
	return p
}

func validateCoordinates(rows []row) *Phase {
	p := &Phase{Name: "Coordinates"}
	for _, r := range rows {
		lat, err := strconv.ParseFloat(r.fields[3], 64)
		if err != nil || lat < -90 || lat > 90 {
			p.errorf("line %d: invalid latitude %q", r.line, r.fields[3])
		}
		lon, err := strconv.ParseFloat(r.fields[4], 64)
		if err != nil || lon < -180 || lon > 180 {
			p.errorf("line %d: invalid longitude %q", r.line, r.fields[4])
		}
	}
	return p
}

func validateIntensity(rows []row) *Phase {
	p := &Phase{Name: "Intensity"}
	for _, r := range rows {
		v, err := strconv.ParseFloat(r.fields[5], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			p.errorf("line %d: intensity %q is not a finite non-negative number", r.line, r.fields[5])
		}
	}
	return p
}

func validateTimestamps(rows []row) *Phase {
	p := &Phase{Name: "Timestamps"}
	for _, r := range rows {
		if _, err := time.Parse(time.RFC3339, r.fields[6]); err != nil {
			p.errorf("line %d: timestamp %q is not RFC 3339", r.line, r.fields[6])
		}
	}
	return p
}

func validateUniqueIDs(rows []row) *Phase {
	p := &Phase{Name: "Unique IDs"}
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		id := r.fields[0]
		if id == "" {
			p.errorf("line %d: empty ID", r.line)
			continue
		}
		if first, ok := seen[id]; ok {
			p.errorf("line %d: duplicate ID %q (first on line %d)", r.line, id, first)
			continue
		}
		seen[id] = r.line
	}
	return p
}
