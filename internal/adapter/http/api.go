package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/export"
	"github.com/couchcryptid/hazardwatch/internal/view"
)

const (
	defaultArchiveLimit = 100
	maxArchiveLimit     = 1000
	maxCommandBytes     = 4 << 10
)

var errArchiveDisabled = errors.New("archive is not enabled")

type commandRequest struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

// filterFromQuery starts from the dashboard state and applies any kind,
// min_intensity, or window query parameters as commands, without storing
// the result.
func (s *Server) filterFromQuery(r *http.Request) (domain.FilterState, error) {
	state := s.dash.Filter()
	q := r.URL.Query()
	for _, p := range []struct{ param, action string }{
		{"kind", "setKindFilter"},
		{"min_intensity", "setIntensityFilter"},
		{"window", "setWindow"},
	} {
		if !q.Has(p.param) {
			continue
		}
		cmd, err := domain.ParseCommand(p.action, q.Get(p.param))
		if err != nil {
			return state, err
		}
		if state, err = cmd.Apply(state); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	state, err := s.filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dash.VisibleWith(state))
}

func (s *Server) handleGetFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Filter())
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode command: %w", err))
		return
	}
	cmd, err := domain.ParseCommand(req.Action, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := s.dash.Dispatch(cmd)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Info("filter updated", "action", req.Action, "value", req.Value, "visible", len(v.Events))
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleMarkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Markers())
}

func (s *Server) handleRecent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Recent(view.RecentCount))
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Summary())
}

func (s *Server) handleNews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.News())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	state, err := s.filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events := s.dash.VisibleWith(state).Events

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, events); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			s.metrics.ExportsTotal.WithLabelValues("empty").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":   err.Error(),
				"message": "No events to export. Please adjust your filters.",
			})
			return
		}
		s.metrics.ExportsTotal.WithLabelValues("error").Inc()
		s.logger.Error("csv export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.ExportsTotal.WithLabelValues("written").Inc()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(domain.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.refresher.RefreshNow(r.Context()); !ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "refresh result was superseded or cancelled",
			"summary": s.dash.Summary(),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Summary())
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, errArchiveDisabled)
		return
	}
	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	events, err := s.archive.Since(r.Context(), domain.Now().Add(-since), limit)
	if err != nil {
		s.logger.Error("archive query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	total, err := s.archive.Count(r.Context())
	if err != nil {
		s.logger.Error("archive count failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, events)
}

// parseSince accepts a window name (1h, 24h, 7d, 30d) or a Go duration.
// Empty means 24h.
func parseSince(v string) (time.Duration, error) {
	if v == "" {
		return 24 * time.Hour, nil
	}
	if w, err := domain.ParseWindow(v); err == nil {
		if hours, bounded := w.Hours(); bounded {
			return time.Duration(hours) * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid since: %q", v)
	}
	return d, nil
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return defaultArchiveLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxArchiveLimit {
		return 0, fmt.Errorf("invalid limit: %q (must be 1-%d)", v, maxArchiveLimit)
	}
	return n, nil
}
