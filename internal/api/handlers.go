package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"SMARespect/internal/config"
	"SMARespect/internal/model"
	"SMARespect/internal/render"
)

// handleReport runs a report. Query parameters override the configured
// defaults: symbols, start, end (YYYY-MM-DD, inclusive), interval, periods,
// only_respected.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	symbols := config.SplitList(q.Get("symbols"))
	if len(symbols) == 0 {
		var err error
		if symbols, err = s.watchlist.List(ctx); err != nil {
			s.fail(w, err)
			return
		}
	}

	req, err := s.config.Request(symbols, s.now())
	if err != nil {
		s.fail(w, err)
		return
	}
	if v := q.Get("start"); v != "" {
		if req.Start, err = config.ParseDate(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	if v := q.Get("end"); v != "" {
		end, err := config.ParseDate(v)
		if err != nil {
			s.fail(w, err)
			return
		}
		req.End = config.EndOfDay(end)
	}
	if v := q.Get("interval"); v != "" {
		if req.Interval, err = model.ParseInterval(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	if v := q.Get("periods"); v != "" {
		if req.Periods, err = config.ParsePeriods(v); err != nil {
			s.fail(w, err)
			return
		}
	}
	onlyRespected := s.config.Analysis.OnlyRespected
	if v := q.Get("only_respected"); v != "" {
		if onlyRespected, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "only_respected must be a boolean")
			return
		}
	}

	report, err := s.collector.Collect(ctx, req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, render.View(report, onlyRespected))
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.watchlist.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"symbols": symbols})
}

func (s *Server) handleAddSymbol(w http.ResponseWriter, r *http.Request) {
	added, err := s.watchlist.Add(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"symbol": model.NormalizeSymbol(chi.URLParam(r, "symbol")), "added": added})
}

func (s *Server) handleRemoveSymbol(w http.ResponseWriter, r *http.Request) {
	removed, err := s.watchlist.Remove(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "symbol not in watchlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
