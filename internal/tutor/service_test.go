package tutor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/store"
)

// fakeCompleter returns canned text and records the prompts it saw.
type fakeCompleter struct {
	reply   string
	err     error
	calls   int
	systems []string
	users   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systems = append(f.systems, systemPrompt)
	f.users = append(f.users, userPrompt)
	return f.reply, f.err
}

const lessonJSON = `{
  "title": "Closures",
  "description": "All about closures",
  "slides": [
    {"kind": "info", "title": "What is a closure", "content": "..."},
    {"kind": "challenge", "title": "Write one", "content": "...",
     "starterCode": "function counter() {}",
     "tests": "Has function|checks|function\\s+counter"}
  ]
}`

func newTestService(reply string) (*Service, *store.MemStore, *fakeCompleter) {
	s := store.NewMemStore()
	llm := &fakeCompleter{reply: reply}
	return NewService(s, llm), s, llm
}

func storeUserMessage(t *testing.T, s *store.MemStore, chatID int, content string) domain.Message {
	t.Helper()
	msg, err := s.CreateMessage(domain.Message{ChatID: chatID, Role: domain.RoleUser, Content: content})
	require.NoError(t, err)
	return msg
}

func TestRespondPlainText(t *testing.T) {
	svc, s, llm := newTestService("A closure captures its scope.")
	chat, _ := s.CreateChat(domain.Chat{Persona: "mentor"})
	msg := storeUserMessage(t, s, chat.ID, "what is a closure?")

	reply, err := svc.Respond(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, domain.ReplyPlainText, reply.Kind)
	assert.Equal(t, "A closure captures its scope.", reply.Message.Content)
	assert.Equal(t, domain.RoleAssistant, reply.Message.Role)
	assert.Equal(t, 1, llm.calls)

	// Both sides of the turn are in the history now.
	msgs, _ := s.MessagesByChat(chat.ID)
	assert.Len(t, msgs, 2)
}

func TestRespondDuplicateMessage(t *testing.T) {
	svc, s, _ := newTestService("hello")
	chat, _ := s.CreateChat(domain.Chat{})
	msg := storeUserMessage(t, s, chat.ID, "hi")

	_, err := svc.Respond(context.Background(), msg)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), msg)
	assert.ErrorIs(t, err, ErrDuplicateMessage)
}

func TestRespondSameMessageIDInOtherChat(t *testing.T) {
	// The idempotency set is per chat: the same message id in two chats is
	// two distinct deliveries.
	svc, s, _ := newTestService("hello")
	chatA, _ := s.CreateChat(domain.Chat{})
	chatB, _ := s.CreateChat(domain.Chat{})

	msgA := storeUserMessage(t, s, chatA.ID, "hi")
	_, err := svc.Respond(context.Background(), msgA)
	require.NoError(t, err)

	msgB := domain.Message{ID: msgA.ID, ChatID: chatB.ID, Role: domain.RoleUser, Content: "hi"}
	_, err = svc.Respond(context.Background(), msgB)
	assert.NoError(t, err)
}

func TestRespondLessonRequestOffersStyles(t *testing.T) {
	svc, s, llm := newTestService("unused")
	chat, _ := s.CreateChat(domain.Chat{})
	msg := storeUserMessage(t, s, chat.ID, "teach me about closures")

	reply, err := svc.Respond(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, domain.ReplyStyleChoice, reply.Kind)
	assert.Len(t, reply.Styles, 3)
	assert.Contains(t, reply.Message.Content, "closures")
	assert.Zero(t, llm.calls, "style offer needs no completion")
}

func TestRespondStyleAnswerCreatesLesson(t *testing.T) {
	svc, s, llm := newTestService(lessonJSON)
	chat, _ := s.CreateChat(domain.Chat{})

	ask := storeUserMessage(t, s, chat.ID, "teach me about closures")
	_, err := svc.Respond(context.Background(), ask)
	require.NoError(t, err)

	answer := storeUserMessage(t, s, chat.ID, "2")
	reply, err := svc.Respond(context.Background(), answer)
	require.NoError(t, err)

	assert.Equal(t, domain.ReplyLessonCreated, reply.Kind)
	require.NotZero(t, reply.LessonID)
	assert.Equal(t, 1, llm.calls)

	lesson, err := s.GetLesson(reply.LessonID)
	require.NoError(t, err)
	assert.Equal(t, "Closures", lesson.Title)
	assert.Equal(t, "closures", lesson.Topic)
	assert.Equal(t, "playful", lesson.Style)

	slides, _ := s.SlidesByLesson(lesson.ID)
	require.Len(t, slides, 2)
	assert.Equal(t, domain.SlideKindInfo, slides[0].Kind)
	assert.Equal(t, "📘 What is a closure", slides[0].Title)
	assert.Equal(t, domain.SlideKindChallenge, slides[1].Kind)
	assert.Equal(t, 2, slides[1].Order)
}

func TestRespondNonStyleAnswerFallsThrough(t *testing.T) {
	svc, s, llm := newTestService("just chatting")
	chat, _ := s.CreateChat(domain.Chat{})

	ask := storeUserMessage(t, s, chat.ID, "teach me about closures")
	_, err := svc.Respond(context.Background(), ask)
	require.NoError(t, err)

	other := storeUserMessage(t, s, chat.ID, "actually, what is a variable?")
	reply, err := svc.Respond(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, domain.ReplyPlainText, reply.Kind)
	assert.Equal(t, 1, llm.calls)
}

func TestRespondLessonGenerationFailureDegrades(t *testing.T) {
	svc, s, llm := newTestService("")
	llm.err = fmt.Errorf("provider down")
	chat, _ := s.CreateChat(domain.Chat{})

	ask := storeUserMessage(t, s, chat.ID, "teach me about closures")
	_, err := svc.Respond(context.Background(), ask)
	require.NoError(t, err)

	answer := storeUserMessage(t, s, chat.ID, "minimal")
	reply, err := svc.Respond(context.Background(), answer)
	require.NoError(t, err, "generation failure should degrade, not error")

	assert.Equal(t, domain.ReplyPlainText, reply.Kind)
	assert.Contains(t, reply.Message.Content, "couldn't build")
}

func TestGenerateLessonStripsFences(t *testing.T) {
	svc, _, _ := newTestService("```json\n" + lessonJSON + "\n```")

	lesson, slides, err := svc.GenerateLesson(context.Background(), "closures", "minimal")
	require.NoError(t, err)
	assert.Equal(t, "Closures", lesson.Title)
	assert.Len(t, slides, 2)
}

func TestGenerateLessonRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService("not json at all")
	_, _, err := svc.GenerateLesson(context.Background(), "closures", "minimal")
	assert.Error(t, err)
}

func TestGenerateLessonUnknownSlideKindBecomesInfo(t *testing.T) {
	svc, _, _ := newTestService(`{
  "title": "T", "description": "D",
  "slides": [{"kind": "weird", "title": "S", "content": "c"}]
}`)

	_, slides, err := svc.GenerateLesson(context.Background(), "t", "minimal")
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, domain.SlideKindInfo, slides[0].Kind)
}

func TestChatWithLessonContext(t *testing.T) {
	svc, s, llm := newTestService("answer")
	lesson, _ := s.CreateLesson(domain.Lesson{Title: "Loops", Topic: "loops"})
	chat, _ := s.CreateChat(domain.Chat{LessonID: lesson.ID})
	msg := storeUserMessage(t, s, chat.ID, "help")

	_, err := svc.Respond(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, llm.systems, 1)
	assert.Contains(t, llm.systems[0], "Loops")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
