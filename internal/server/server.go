// Package server exposes the REST and WebSocket surface of the tutor.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/platform/web"
	"github.com/jononovo/codementor/internal/tutor"
)

// Server wires the store, the tutor service, the run-job queue and the
// WebSocket hub behind one http.Handler.
type Server struct {
	store   domain.Store
	tutor   *tutor.Service
	queue   domain.JobQueue
	hub     *Hub
	limiter *web.RateLimiter
}

// New assembles a Server. The limiter may be nil to disable rate limiting
// (tests do this).
func New(store domain.Store, tutorSvc *tutor.Service, queue domain.JobQueue, limiter *web.RateLimiter) *Server {
	return &Server{
		store:   store,
		tutor:   tutorSvc,
		queue:   queue,
		hub:     NewHub(),
		limiter: limiter,
	}
}

// Routes builds the full route table with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/personas", s.handleListPersonas)
	mux.HandleFunc("GET /api/styles", s.handleListStyles)

	mux.HandleFunc("POST /api/lessons", s.handleCreateLesson)
	mux.HandleFunc("GET /api/lessons", s.handleListLessons)
	mux.HandleFunc("GET /api/lessons/{id}", s.handleGetLesson)
	mux.HandleFunc("PATCH /api/lessons/{id}", s.handleUpdateLesson)
	mux.HandleFunc("DELETE /api/lessons/{id}", s.handleDeleteLesson)
	mux.HandleFunc("GET /api/lessons/{id}/slides", s.handleLessonSlides)

	mux.HandleFunc("GET /api/slides/{id}", s.handleGetSlide)
	mux.HandleFunc("PATCH /api/slides/{id}", s.handleUpdateSlide)

	mux.HandleFunc("POST /api/chats", s.handleCreateChat)
	mux.HandleFunc("GET /api/chats", s.handleListChats)
	mux.HandleFunc("GET /api/chats/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/chats/{id}/messages", s.handlePostMessage)
	mux.HandleFunc("GET /api/chats/{id}/ws", s.handleChatWS)

	runHandler := s.handleRun
	if s.limiter != nil {
		runHandler = s.limiter.Middleware(runHandler)
	}
	mux.HandleFunc("POST /api/run", runHandler)
	mux.HandleFunc("GET /api/ws", s.handleRunWS)

	return enableCORS(mux)
}

// StartResultBroadcaster forwards finished run results from the queue to the
// WebSocket connection waiting on that job id, until the context is
// cancelled.
func (s *Server) StartResultBroadcaster(ctx context.Context) error {
	results, err := s.queue.SubscribeResults(ctx)
	if err != nil {
		return err
	}

	go func() {
		slog.Info("Starting result broadcaster")
		for result := range results {
			if err := s.hub.Send(result.JobID, result); err != nil {
				slog.Error("Failed to push result", "jobID", result.JobID, "error", err)
			}
		}
	}()
	return nil
}

// enableCORS allows the browser client to call the API from another origin.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
