package tutor

import (
	"fmt"
	"strings"

	"github.com/jononovo/codementor/internal/domain"
)

// Slide style templates. The style shapes tone and pacing of the generated
// slides; it is injected verbatim into the lesson prompt.
var slideStyles = []domain.StyleOption{
	{Name: "minimal", Description: "Short, clean slides with one idea each"},
	{Name: "playful", Description: "Casual tone, lots of emoji and small jokes"},
	{Name: "detailed", Description: "Thorough explanations with extra context and edge cases"},
}

var styleGuidance = map[string]string{
	"minimal":  "Keep every slide short: one concept, one tiny example, no filler.",
	"playful":  "Use a casual, fun tone with emoji sprinkled into the content.",
	"detailed": "Explain thoroughly: cover the why, common mistakes, and edge cases.",
}

// Emoji decoration per slide kind, matched against the original client's
// presentation formatting.
var kindEmoji = map[domain.SlideKind]string{
	domain.SlideKindInfo:      "📘",
	domain.SlideKindChallenge: "💻",
	domain.SlideKindQuiz:      "❓",
}

// StyleOptions returns the selectable slide styles.
func StyleOptions() []domain.StyleOption {
	return slideStyles
}

// decorateTitle prefixes a slide title with its kind's emoji unless the
// generator already put one there.
func decorateTitle(kind domain.SlideKind, title string) string {
	emoji, ok := kindEmoji[kind]
	if !ok || strings.HasPrefix(title, emoji) {
		return title
	}
	return emoji + " " + title
}

// chatSystem builds the system prompt for a free-form tutoring turn.
func chatSystem(persona Persona, lesson *domain.Lesson) string {
	var b strings.Builder
	b.WriteString(persona.SystemPrompt)
	if lesson != nil {
		fmt.Fprintf(&b, "\n\nThe learner is currently working through the lesson %q (%s). "+
			"Relate your answers to that lesson where it helps.", lesson.Title, lesson.Topic)
	}
	return b.String()
}

// lessonSystem instructs the model to emit a lesson as strict JSON. The test
// block format mirrors what the challenge parser consumes.
const lessonSystem = `You are a curriculum generator for a browser-based coding tutor.
Respond with a single JSON object and nothing else, using this shape:

{
  "title": "...",
  "description": "...",
  "slides": [
    {
      "kind": "info" | "challenge" | "quiz",
      "title": "...",
      "content": "... (markdown)",
      "starterCode": "... (challenge slides only)",
      "tests": "name | description | validation | kind  (one test per line; kind is 'predicate' for code predicates, omit or anything else for a regex pattern)"
    }
  ]
}

Lessons have 4 to 8 slides, starting with an info slide and including at least
one challenge slide with tests. Challenge code is JavaScript.`

func lessonPrompt(topic, style string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a lesson teaching: %s\n", topic)
	if guidance, ok := styleGuidance[style]; ok {
		fmt.Fprintf(&b, "Slide style: %s. %s\n", style, guidance)
	}
	return b.String()
}

// historyPrompt flattens recent chat turns into the user prompt so the model
// sees the conversation. The store returns messages in creation order.
func historyPrompt(history []domain.Message, latest string) string {
	const maxTurns = 12

	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	var b strings.Builder
	for _, msg := range history {
		role := "Learner"
		if msg.Role == domain.RoleAssistant {
			role = "Tutor"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	fmt.Fprintf(&b, "Learner: %s\nTutor:", latest)
	return b.String()
}
