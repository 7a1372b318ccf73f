package domain

import "time"

// SlideKind is the presentation type of one lesson slide.
type SlideKind string

const (
	SlideKindInfo      SlideKind = "info"
	SlideKindChallenge SlideKind = "challenge"
	SlideKindQuiz      SlideKind = "quiz"
)

// Lesson is one generated lesson. Style names the slide style template the
// lesson was generated with.
type Lesson struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	Style       string    `json:"style"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Slide is one unit of lesson content. Challenge slides carry starter code
// and a raw pipe-delimited test block; the other kinds leave those empty.
type Slide struct {
	ID          int       `json:"id"`
	LessonID    int       `json:"lessonId"`
	Order       int       `json:"order"`
	Kind        SlideKind `json:"kind"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	StarterCode string    `json:"starterCode,omitempty"`
	Tests       string    `json:"tests,omitempty"`
}

// Chat is one tutoring conversation, optionally bound to a lesson.
// Persona names the tutoring voice used for replies.
type Chat struct {
	ID        int       `json:"id"`
	LessonID  int       `json:"lessonId,omitempty"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	ID        int       `json:"id"`
	ChatID    int       `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
