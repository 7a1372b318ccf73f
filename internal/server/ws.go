package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/tutor"
)

// Hub tracks the WebSocket connection waiting on each run job.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn)}
}

// Register binds a connection to a job id, replacing any previous one.
func (h *Hub) Register(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[jobID] = conn
	h.mu.Unlock()
}

// Unregister drops the binding if conn still owns it.
func (h *Hub) Unregister(jobID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[jobID] == conn {
		delete(h.conns, jobID)
	}
	h.mu.Unlock()
}

// Send writes v as JSON to the connection waiting on jobID. No connection is
// not an error; the learner may have navigated away before the run finished.
func (h *Hub) Send(jobID string, v interface{}) error {
	h.mu.RLock()
	conn, exists := h.conns[jobID]
	h.mu.RUnlock()

	if !exists {
		return nil
	}
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write to websocket: %w", err)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // browser client runs on another origin
}

// handleRunWS upgrades the connection and parks it in the hub until the
// job's result is pushed or the client disconnects.
func (s *Server) handleRunWS(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("Client waiting on run result", "jobID", jobID, "remoteAddr", conn.RemoteAddr())
	s.hub.Register(jobID, conn)

	defer func() {
		slog.Info("Client disconnected", "jobID", jobID)
		s.hub.Unregister(jobID, conn)
		conn.Close()
	}()

	// Drain until the client goes away; results are pushed from the
	// broadcaster, not from this read loop.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// chatFrame is one inbound chat turn over WebSocket. MessageID, when set,
// refers to a message already stored via REST: the tutor's idempotency set
// makes the echoed delivery a no-op.
type chatFrame struct {
	MessageID int    `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
}

// handleChatWS carries the same envelope as the REST message endpoint over a
// socket, so the client can keep one connection per chat open.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	chatID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.store.GetChat(chatID); err != nil {
		notFoundOr500(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("Chat socket opened", "chatID", chatID, "remoteAddr", conn.RemoteAddr())

	for {
		var frame chatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			slog.Info("Chat socket closed", "chatID", chatID)
			return
		}

		userMsg, err := s.resolveFrame(chatID, frame)
		if err != nil {
			conn.WriteJSON(map[string]string{"error": err.Error()})
			continue
		}

		reply, err := s.tutor.Respond(r.Context(), userMsg)
		if err != nil {
			if errors.Is(err, tutor.ErrDuplicateMessage) {
				continue // REST already answered this one
			}
			slog.Error("Tutor reply failed", "chatID", chatID, "error", err)
			conn.WriteJSON(map[string]string{"error": "assistant unavailable"})
			continue
		}

		if err := conn.WriteJSON(reply); err != nil {
			slog.Error("Failed to write chat reply", "chatID", chatID, "error", err)
			return
		}
	}
}

func (s *Server) resolveFrame(chatID int, frame chatFrame) (domain.Message, error) {
	if frame.MessageID != 0 {
		msgs, err := s.store.MessagesByChat(chatID)
		if err != nil {
			return domain.Message{}, err
		}
		for _, msg := range msgs {
			if msg.ID == frame.MessageID {
				return msg, nil
			}
		}
		return domain.Message{}, fmt.Errorf("message %d not found in chat", frame.MessageID)
	}

	if frame.Content == "" {
		return domain.Message{}, fmt.Errorf("content is required")
	}
	return s.store.CreateMessage(domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleUser,
		Content: frame.Content,
	})
}
