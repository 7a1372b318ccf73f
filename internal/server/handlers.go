package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/tutor"
)

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func notFoundOr500(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	type persona struct {
		Name    string `json:"name"`
		Tagline string `json:"tagline"`
	}
	out := []persona{}
	for _, p := range tutor.Personas() {
		out = append(out, persona{Name: p.Name, Tagline: p.Tagline})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListStyles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, tutor.StyleOptions())
}

// handleCreateLesson generates a lesson directly, outside any chat.
func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
		Style string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		respondError(w, http.StatusBadRequest, "topic is required")
		return
	}

	lesson, slides, err := s.tutor.GenerateLesson(r.Context(), req.Topic, req.Style)
	if err != nil {
		slog.Error("Lesson generation failed", "topic", req.Topic, "error", err)
		respondError(w, http.StatusBadGateway, "lesson generation failed")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"lesson": lesson,
		"slides": slides,
	})
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.store.ListLessons()
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lessons)
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	lesson, err := s.store.GetLesson(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lesson)
}

func (s *Server) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	lesson, err := s.store.GetLesson(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}

	// Patch semantics: absent fields keep their stored values.
	if err := json.NewDecoder(r.Body).Decode(&lesson); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lesson.ID = id

	updated, err := s.store.UpdateLesson(lesson)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.store.DeleteLesson(id); err != nil {
		notFoundOr500(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLessonSlides(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.store.GetLesson(id); err != nil {
		notFoundOr500(w, err)
		return
	}
	slides, err := s.store.SlidesByLesson(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	if slides == nil {
		slides = []domain.Slide{}
	}
	respondJSON(w, http.StatusOK, slides)
}

func (s *Server) handleGetSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	slide, err := s.store.GetSlide(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slide)
}

func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	slide, err := s.store.GetSlide(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&slide); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	slide.ID = id

	updated, err := s.store.UpdateSlide(slide)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID int    `json:"lessonId"`
		Persona  string `json:"persona"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.LessonID != 0 {
		if _, err := s.store.GetLesson(req.LessonID); err != nil {
			notFoundOr500(w, err)
			return
		}
	}
	if req.Persona == "" {
		req.Persona = tutor.DefaultPersona
	}

	chat, err := s.store.CreateChat(domain.Chat{
		LessonID: req.LessonID,
		Persona:  req.Persona,
	})
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, chat)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.ListChats()
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chats)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.store.GetChat(id); err != nil {
		notFoundOr500(w, err)
		return
	}
	msgs, err := s.store.MessagesByChat(id)
	if err != nil {
		notFoundOr500(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

// handlePostMessage stores the learner's message and returns the assistant's
// structured reply envelope.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	if _, err := s.store.GetChat(id); err != nil {
		notFoundOr500(w, err)
		return
	}

	userMsg, err := s.store.CreateMessage(domain.Message{
		ChatID:  id,
		Role:    domain.RoleUser,
		Content: req.Content,
	})
	if err != nil {
		notFoundOr500(w, err)
		return
	}

	reply, err := s.tutor.Respond(r.Context(), userMsg)
	if err != nil {
		if errors.Is(err, tutor.ErrDuplicateMessage) {
			respondError(w, http.StatusConflict, "message already processed")
			return
		}
		slog.Error("Tutor reply failed", "chatID", id, "error", err)
		respondError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

// handleRun validates a code submission and enqueues it as a run job.
// Results arrive over the WebSocket registered for the returned job id.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Language string `json:"language"`
		Tests    string `json:"tests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		req.Language = "javascript"
	}

	jobID := uuid.New().String()
	job := domain.Job{
		ID:       jobID,
		Code:     req.Code,
		Language: req.Language,
		Tests:    req.Tests,
	}

	slog.Info("Received submission", "jobID", jobID, "language", req.Language)
	if err := s.queue.Publish(r.Context(), job); err != nil {
		slog.Error("Failed to publish job", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID,
		"status": "queued",
	})
}
