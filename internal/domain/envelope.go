package domain

// ReplyKind tags an assistant reply envelope. The tag replaces the string
// prefixes the legacy client sniffed out of message bodies: consumers switch
// on Kind instead of scanning text.
type ReplyKind string

const (
	// ReplyPlainText is an ordinary tutoring answer.
	ReplyPlainText ReplyKind = "plain_text"

	// ReplyLessonCreated signals that a lesson was generated and stored;
	// LessonID points at it.
	ReplyLessonCreated ReplyKind = "lesson_created"

	// ReplyStyleChoice asks the learner to pick a slide style before the
	// lesson is generated; Styles lists the options.
	ReplyStyleChoice ReplyKind = "style_choice"
)

// StyleOption is one selectable slide style.
type StyleOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AssistantReply is the structured envelope returned for every chat turn,
// over REST and WebSocket alike.
type AssistantReply struct {
	Kind     ReplyKind     `json:"kind"`
	Message  Message       `json:"message"`
	LessonID int           `json:"lessonId,omitempty"`
	Styles   []StyleOption `json:"styles,omitempty"`
}
