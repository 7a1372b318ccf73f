package domain

import "errors"

// ErrNotFound is returned by stores when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract for lesson content and chat history.
// Implementations return copies of records; callers never share memory with
// the store. Create operations assign the id and creation time.
type Store interface {
	CreateLesson(lesson Lesson) (Lesson, error)
	GetLesson(id int) (Lesson, error)
	ListLessons() ([]Lesson, error)
	UpdateLesson(lesson Lesson) (Lesson, error)
	DeleteLesson(id int) error

	CreateSlide(slide Slide) (Slide, error)
	GetSlide(id int) (Slide, error)
	UpdateSlide(slide Slide) (Slide, error)
	SlidesByLesson(lessonID int) ([]Slide, error)

	CreateChat(chat Chat) (Chat, error)
	GetChat(id int) (Chat, error)
	ListChats() ([]Chat, error)

	CreateMessage(msg Message) (Message, error)
	MessagesByChat(chatID int) ([]Message, error)
}
