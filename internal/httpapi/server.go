// Package httpapi exposes the submission and retrieval APIs over HTTP,
// routed with chi, with a bearer-API-key check on every route.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"taskqueue/internal/model"
	"taskqueue/internal/retrieve"
	"taskqueue/internal/submit"
)

// Server wires the submission and retrieval APIs behind chi routes.
type Server struct {
	submitter *submit.Submitter
	retriever *retrieve.Retriever
	apiKey    string
	log       *slog.Logger
}

// NewServer builds an *http.Server listening on addr. apiKey, if non-empty,
// is required as a bearer token on every request.
func NewServer(addr, apiKey string, submitter *submit.Submitter, retriever *retrieve.Retriever, log *slog.Logger) *http.Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{submitter: submitter, retriever: retriever, apiKey: apiKey, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.authenticate)

	r.Post("/tasks", s.postTask)
	r.Get("/result/{id}", s.getResult)
	r.Delete("/result/{id}", s.deleteResult)
	r.Get("/result/{id}/exists", s.existsResult)

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

// authenticate enforces the bearer API key on every route. If no key is
// configured, authentication is skipped (useful for local development).
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) || strings.TrimPrefix(header, prefix) != s.apiKey {
			http.Error(w, "invalid or missing API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type postTaskRequest struct {
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

type postTaskResponse struct {
	ID string `json:"id"`
}

func (s *Server) postTask(w http.ResponseWriter, r *http.Request) {
	var req postTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.submitter.Submit(r.Context(), req.Kind, req.Payload)
	if err != nil {
		if errors.Is(err, submit.ErrEmptyKind) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, model.ErrBackendUnavailable) {
			http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
			return
		}
		s.log.Error("submit failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(postTaskResponse{ID: id})
}

type resultResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Result      any       `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt int64     `json:"submitted_at"`
	StartedAt   int64     `json:"started_at,omitempty"`
	FinishedAt  int64     `json:"finished_at,omitempty"`
}

func toResultResponse(t *model.Task) resultResponse {
	resp := resultResponse{
		ID:     t.ID,
		Kind:   t.Kind,
		Status: string(t.Status),
		Result: t.Result,
		Error:  t.Error,
	}
	if !t.SubmittedAt.IsZero() {
		resp.SubmittedAt = t.SubmittedAt.UnixMilli()
	}
	if !t.StartedAt.IsZero() {
		resp.StartedAt = t.StartedAt.UnixMilli()
	}
	if !t.FinishedAt.IsZero() {
		resp.FinishedAt = t.FinishedAt.UnixMilli()
	}
	return resp
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.retriever.Get(r.Context(), id)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	if rec == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResultResponse(&rec.Task))
}

func (s *Server) deleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.retriever.Delete(r.Context(), id); err != nil {
		s.writeBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) existsResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exists, err := s.retriever.Exists(r.Context(), id)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
}

func (s *Server) writeBackendError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrBackendUnavailable) {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
		return
	}
	s.log.Error("backend error", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// ShutdownTimeout bounds cmd/taskqueue's graceful HTTP shutdown call.
const ShutdownTimeout = 5 * time.Second
