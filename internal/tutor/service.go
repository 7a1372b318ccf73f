// Package tutor turns chat messages into persona-framed assistant replies,
// detecting lesson requests and driving lesson generation through the
// completion provider.
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jononovo/codementor/internal/domain"
)

// ErrDuplicateMessage signals that a message id was already answered for its
// chat. The REST handler and the WebSocket echo can both deliver the same
// message; only the first delivery produces a reply.
var ErrDuplicateMessage = errors.New("message already processed")

// Service owns the per-chat conversation state: which message ids have been
// answered and which chats are waiting on a style choice. Both sets are
// scoped to the chat, never global.
type Service struct {
	store domain.Store
	llm   Completer

	mu            sync.Mutex
	processed     map[int]map[int]struct{}
	pendingTopics map[int]string
}

// NewService wires the tutor against a store and a completion provider.
func NewService(store domain.Store, llm Completer) *Service {
	return &Service{
		store:         store,
		llm:           llm,
		processed:     make(map[int]map[int]struct{}),
		pendingTopics: make(map[int]string),
	}
}

// markProcessed records the message id for its chat, reporting whether it
// was already there.
func (s *Service) markProcessed(chatID, messageID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen, ok := s.processed[chatID]
	if !ok {
		seen = make(map[int]struct{})
		s.processed[chatID] = seen
	}
	if _, dup := seen[messageID]; dup {
		return true
	}
	seen[messageID] = struct{}{}
	return false
}

// Respond produces the structured reply envelope for one stored user
// message. Duplicate deliveries return ErrDuplicateMessage.
func (s *Service) Respond(ctx context.Context, userMsg domain.Message) (domain.AssistantReply, error) {
	if s.markProcessed(userMsg.ChatID, userMsg.ID) {
		return domain.AssistantReply{}, ErrDuplicateMessage
	}

	chat, err := s.store.GetChat(userMsg.ChatID)
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("load chat: %w", err)
	}
	persona := LookupPersona(chat.Persona)

	// A chat waiting on a style choice consumes the answer first.
	s.mu.Lock()
	topic, awaitingStyle := s.pendingTopics[chat.ID]
	s.mu.Unlock()

	if awaitingStyle {
		if style, ok := MatchStyle(userMsg.Content); ok {
			s.mu.Lock()
			delete(s.pendingTopics, chat.ID)
			s.mu.Unlock()
			return s.createLessonReply(ctx, chat, topic, style)
		}
		// Not a style answer after all; fall through to a normal turn.
	}

	if WantsLesson(userMsg.Content) {
		topic := ExtractTopic(userMsg.Content)
		s.mu.Lock()
		s.pendingTopics[chat.ID] = topic
		s.mu.Unlock()

		msg, err := s.storeReply(chat.ID, fmt.Sprintf(
			"Happy to put together a lesson on %s! Pick a slide style first:", topic))
		if err != nil {
			return domain.AssistantReply{}, err
		}
		return domain.AssistantReply{
			Kind:    domain.ReplyStyleChoice,
			Message: msg,
			Styles:  StyleOptions(),
		}, nil
	}

	return s.plainReply(ctx, chat, persona, userMsg)
}

func (s *Service) plainReply(ctx context.Context, chat domain.Chat, persona Persona, userMsg domain.Message) (domain.AssistantReply, error) {
	var lesson *domain.Lesson
	if chat.LessonID != 0 {
		if l, err := s.store.GetLesson(chat.LessonID); err == nil {
			lesson = &l
		}
	}

	history, err := s.store.MessagesByChat(chat.ID)
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("load history: %w", err)
	}
	// The just-stored user message is already in the history tail.
	if n := len(history); n > 0 && history[n-1].ID == userMsg.ID {
		history = history[:n-1]
	}

	text, err := s.llm.Complete(ctx, chatSystem(persona, lesson), historyPrompt(history, userMsg.Content))
	if err != nil {
		return domain.AssistantReply{}, fmt.Errorf("completion: %w", err)
	}

	msg, err := s.storeReply(chat.ID, text)
	if err != nil {
		return domain.AssistantReply{}, err
	}
	return domain.AssistantReply{Kind: domain.ReplyPlainText, Message: msg}, nil
}

func (s *Service) createLessonReply(ctx context.Context, chat domain.Chat, topic, style string) (domain.AssistantReply, error) {
	lesson, slides, err := s.GenerateLesson(ctx, topic, style)
	if err != nil {
		// Generation failure degrades to a plain apology rather than a 500:
		// the chat stays usable.
		slog.Error("Lesson generation failed", "chatID", chat.ID, "topic", topic, "error", err)
		msg, storeErr := s.storeReply(chat.ID, fmt.Sprintf(
			"I couldn't build that lesson just now (%v). Want to try a different topic?", err))
		if storeErr != nil {
			return domain.AssistantReply{}, storeErr
		}
		return domain.AssistantReply{Kind: domain.ReplyPlainText, Message: msg}, nil
	}

	msg, err := s.storeReply(chat.ID, fmt.Sprintf(
		"Your lesson %q is ready with %d slides. Open it from the lessons list!",
		lesson.Title, len(slides)))
	if err != nil {
		return domain.AssistantReply{}, err
	}
	return domain.AssistantReply{
		Kind:     domain.ReplyLessonCreated,
		Message:  msg,
		LessonID: lesson.ID,
	}, nil
}

func (s *Service) storeReply(chatID int, content string) (domain.Message, error) {
	msg, err := s.store.CreateMessage(domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleAssistant,
		Content: content,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("store reply: %w", err)
	}
	return msg, nil
}

// generatedLesson is the JSON shape the lesson prompt asks the model for.
type generatedLesson struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Slides      []struct {
		Kind        string `json:"kind"`
		Title       string `json:"title"`
		Content     string `json:"content"`
		StarterCode string `json:"starterCode"`
		Tests       string `json:"tests"`
	} `json:"slides"`
}

// GenerateLesson asks the provider for a lesson on topic in the given style,
// parses it, and persists the lesson with its slides (ordered, titles
// decorated per slide kind).
func (s *Service) GenerateLesson(ctx context.Context, topic, style string) (domain.Lesson, []domain.Slide, error) {
	raw, err := s.llm.Complete(ctx, lessonSystem, lessonPrompt(topic, style))
	if err != nil {
		return domain.Lesson{}, nil, fmt.Errorf("lesson completion: %w", err)
	}

	var gen generatedLesson
	if err := json.Unmarshal([]byte(stripFences(raw)), &gen); err != nil {
		return domain.Lesson{}, nil, fmt.Errorf("parse generated lesson: %w", err)
	}
	if gen.Title == "" || len(gen.Slides) == 0 {
		return domain.Lesson{}, nil, fmt.Errorf("generated lesson is empty")
	}

	lesson, err := s.store.CreateLesson(domain.Lesson{
		Title:       gen.Title,
		Topic:       topic,
		Description: gen.Description,
		Style:       style,
	})
	if err != nil {
		return domain.Lesson{}, nil, fmt.Errorf("store lesson: %w", err)
	}

	slides := make([]domain.Slide, 0, len(gen.Slides))
	for i, gs := range gen.Slides {
		kind := domain.SlideKind(gs.Kind)
		switch kind {
		case domain.SlideKindInfo, domain.SlideKindChallenge, domain.SlideKindQuiz:
		default:
			kind = domain.SlideKindInfo
		}

		slide, err := s.store.CreateSlide(domain.Slide{
			LessonID:    lesson.ID,
			Order:       i + 1,
			Kind:        kind,
			Title:       decorateTitle(kind, gs.Title),
			Content:     gs.Content,
			StarterCode: gs.StarterCode,
			Tests:       gs.Tests,
		})
		if err != nil {
			return domain.Lesson{}, nil, fmt.Errorf("store slide: %w", err)
		}
		slides = append(slides, slide)
	}

	slog.Info("Lesson generated", "lessonID", lesson.ID, "topic", topic, "slides", len(slides))
	return lesson, slides, nil
}

// stripFences removes a surrounding markdown code fence, which models add
// even when told not to.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
