package tutor

// Persona is a named tutoring voice. Personas change prompt framing only;
// intent handling and lesson mechanics are identical across them.
type Persona struct {
	Name         string
	Tagline      string
	SystemPrompt string
}

// DefaultPersona is used when a chat names no persona or an unknown one.
const DefaultPersona = "mentor"

var personas = map[string]Persona{
	"mentor": {
		Name:    "mentor",
		Tagline: "patient, step-by-step guidance",
		SystemPrompt: "You are a patient, encouraging coding mentor. Explain concepts " +
			"step by step with short examples, celebrate progress, and never assume " +
			"prior knowledge the learner hasn't shown. Keep answers focused on the " +
			"question asked.",
	},
	"maverick": {
		Name:    "maverick",
		Tagline: "fast-paced and a little irreverent",
		SystemPrompt: "You are a sharp, fast-paced coding tutor with a dry sense of " +
			"humor. Get to the point quickly, use punchy examples, and challenge the " +
			"learner to figure out the last step themselves when it's within reach.",
	},
}

// LookupPersona returns the persona for name, falling back to the default.
func LookupPersona(name string) Persona {
	if p, ok := personas[name]; ok {
		return p
	}
	return personas[DefaultPersona]
}

// Personas lists the available voices, default first.
func Personas() []Persona {
	return []Persona{personas["mentor"], personas["maverick"]}
}
