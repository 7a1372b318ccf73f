package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jononovo/codementor/internal/domain"
)

func TestLessonCRUD(t *testing.T) {
	s := NewMemStore()

	created, err := s.CreateLesson(domain.Lesson{Title: "Loops", Topic: "loops"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetLesson(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	got.Title = "Loops, revisited"
	updated, err := s.UpdateLesson(got)
	require.NoError(t, err)
	assert.Equal(t, "Loops, revisited", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.DeleteLesson(created.ID))
	_, err = s.GetLesson(created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLessonIDsAreSequential(t *testing.T) {
	s := NewMemStore()

	first, _ := s.CreateLesson(domain.Lesson{Title: "A"})
	second, _ := s.CreateLesson(domain.Lesson{Title: "B"})
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)

	// Deleting does not recycle ids.
	require.NoError(t, s.DeleteLesson(second.ID))
	third, _ := s.CreateLesson(domain.Lesson{Title: "C"})
	assert.Equal(t, 3, third.ID)
}

func TestListLessonsOrdered(t *testing.T) {
	s := NewMemStore()
	s.CreateLesson(domain.Lesson{Title: "A"})
	s.CreateLesson(domain.Lesson{Title: "B"})
	s.CreateLesson(domain.Lesson{Title: "C"})

	lessons, err := s.ListLessons()
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, []string{"A", "B", "C"},
		[]string{lessons[0].Title, lessons[1].Title, lessons[2].Title})
}

func TestUpdateMissingLesson(t *testing.T) {
	s := NewMemStore()
	_, err := s.UpdateLesson(domain.Lesson{ID: 99, Title: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteLesson(99), domain.ErrNotFound)
}

func TestSlidesSortedByOrder(t *testing.T) {
	s := NewMemStore()
	lesson, _ := s.CreateLesson(domain.Lesson{Title: "L"})

	s.CreateSlide(domain.Slide{LessonID: lesson.ID, Order: 2, Title: "second"})
	s.CreateSlide(domain.Slide{LessonID: lesson.ID, Order: 1, Title: "first"})
	s.CreateSlide(domain.Slide{LessonID: 999, Order: 1, Title: "other lesson"})

	slides, err := s.SlidesByLesson(lesson.ID)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "first", slides[0].Title)
	assert.Equal(t, "second", slides[1].Title)
}

func TestDeleteLessonCascadesSlides(t *testing.T) {
	s := NewMemStore()
	lesson, _ := s.CreateLesson(domain.Lesson{Title: "L"})
	slide, _ := s.CreateSlide(domain.Slide{LessonID: lesson.ID, Order: 1})

	require.NoError(t, s.DeleteLesson(lesson.ID))

	_, err := s.GetSlide(slide.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSlide(t *testing.T) {
	s := NewMemStore()
	slide, _ := s.CreateSlide(domain.Slide{LessonID: 1, Order: 1, Content: "old"})

	slide.Content = "new"
	updated, err := s.UpdateSlide(slide)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)

	_, err = s.UpdateSlide(domain.Slide{ID: 42})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatAndMessages(t *testing.T) {
	s := NewMemStore()

	chat, err := s.CreateChat(domain.Chat{Persona: "mentor"})
	require.NoError(t, err)
	assert.Equal(t, 1, chat.ID)

	first, _ := s.CreateMessage(domain.Message{ChatID: chat.ID, Role: domain.RoleUser, Content: "hi"})
	second, _ := s.CreateMessage(domain.Message{ChatID: chat.ID, Role: domain.RoleAssistant, Content: "hello"})
	s.CreateMessage(domain.Message{ChatID: 999, Role: domain.RoleUser, Content: "elsewhere"})

	msgs, err := s.MessagesByChat(chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)

	chats, err := s.ListChats()
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	_, err = s.GetChat(404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
