package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/roulette-strategy-sim/internal/store"
)

// handleListRuns lists persisted runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	q := r.URL.Query()
	page, err := parseIntQuery(q.Get, "page")
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	perPage, err := parseIntQuery(q.Get, "per_page")
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	runs, err := s.db.ListRuns(r.Context(), store.RunsQuery{
		Strategy: q.Get("strategy"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		s.storageError(w, r, "list runs", err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	run, err := s.db.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.runError(w, r, "get run", err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunSessions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	q := r.URL.Query()
	page, err := parseIntQuery(q.Get, "page")
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	perPage, err := parseIntQuery(q.Get, "per_page")
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	sessions, err := s.db.GetRunSessions(r.Context(), chi.URLParam(r, "id"), page, perPage)
	if err != nil {
		s.runError(w, r, "get sessions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	if err := s.db.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.runError(w, r, "delete run", err)
		return
	}
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(http.StatusNoContent)
}

// runError reports a missing run as 404 and anything else as a storage
// failure.
func (s *Server) runError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeRunNotFound, "Run not found").
			WithContext("id", chi.URLParam(r, "id")).
			Build())
		return
	}
	s.storageError(w, r, op, err)
}
