package policy

import "strings"

// emotionFraming maps a detected emotion annotation to a short framing
// line spoken before the answer. Unknown emotions get no framing.
var emotionFraming = map[string]string{
	"sad":        "I can hear this one matters to you. ",
	"upset":      "I can hear this one matters to you. ",
	"frustrated": "Let's see if I can make this one easy. ",
	"angry":      "Let's see if I can make this one easy. ",
	"excited":    "I love the enthusiasm! ",
	"happy":      "I love the enthusiasm! ",
	"curious":    "A kindred spirit! ",
}

// EmotionFraming returns the prefix to speak for an emotion annotation,
// or "" when none applies.
func EmotionFraming(emotion string) string {
	return emotionFraming[strings.ToLower(strings.TrimSpace(emotion))]
}
