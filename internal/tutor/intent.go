package tutor

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent detection is plain regular-expression matching on the chat text.
// It only needs to catch the obvious phrasings; anything it misses falls
// through to a normal tutoring reply, which is the safe default.
var (
	lessonIntentPattern = regexp.MustCompile(
		`(?i)\b(?:teach me|learn about|lesson (?:about|on)|create a lesson|make a lesson|show me how to)\b`)

	topicStripPattern = regexp.MustCompile(
		`(?i)^.*?\b(?:teach me(?: about)?|learn about|lesson (?:about|on)|create a lesson (?:about|on)|make a lesson (?:about|on)|show me how to)\s+`)
)

// WantsLesson reports whether the message reads as a lesson request.
func WantsLesson(text string) bool {
	return lessonIntentPattern.MatchString(text)
}

// ExtractTopic pulls the lesson topic out of a request, e.g.
// "teach me about closures" -> "closures". Falls back to the whole message.
func ExtractTopic(text string) string {
	topic := topicStripPattern.ReplaceAllString(text, "")
	topic = strings.Trim(strings.TrimSpace(topic), ".!?")
	if topic == "" {
		return strings.TrimSpace(text)
	}
	return topic
}

// MatchStyle resolves a style-choice answer: either the option's 1-based
// number or its name anywhere in the text.
func MatchStyle(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	if n, err := strconv.Atoi(strings.Trim(trimmed, ".)")); err == nil {
		styles := StyleOptions()
		if n >= 1 && n <= len(styles) {
			return styles[n-1].Name, true
		}
	}

	lower := strings.ToLower(trimmed)
	for _, style := range StyleOptions() {
		if strings.Contains(lower, style.Name) {
			return style.Name, true
		}
	}

	return "", false
}
