// Package classify maps an incoming turn to a tagged classification:
// silence, greeting request, affirmation, or plain query.
//
// Classification is a pure function of the message text plus the
// session's stored suggestion; classifying the same input twice always
// yields the same result.
package classify

import (
	"regexp"
	"strings"
)

// Kind tags the classification outcome of a turn.
type Kind int

const (
	// KindQuery is the default: the text is used verbatim as the
	// retrieval query.
	KindQuery Kind = iota

	// KindSilence means the user said nothing; the turn produces no
	// content at all.
	KindSilence

	// KindGreeting means the front-end asked for a session greeting.
	KindGreeting

	// KindAffirmation is a short confirmatory response resolved
	// against the previously suggested topic.
	KindAffirmation
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindSilence:
		return "silence"
	case KindGreeting:
		return "greeting"
	case KindAffirmation:
		return "affirmation"
	default:
		return "query"
	}
}

const (
	// SilenceSentinel is the exact front-end marker for "user silent".
	SilenceSentinel = "[user silent]"

	// GreetingPrefix marks a front-end instruction to greet the user.
	// Only the most recent message is checked, so stale greeting
	// instructions in history cannot re-trigger a greeting.
	GreetingPrefix = "[greeting]"
)

// affirmationWords is the fixed vocabulary that can open an affirmation.
var affirmationWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "ok": true, "okay": true, "please": true,
	"definitely": true, "absolutely": true, "certainly": true,
}

// maxAffirmationWords bounds how long an affirmation can be; anything
// longer is a real query even if it starts with "yes".
const maxAffirmationWords = 3

// emotionSuffix matches a trailing bracketed emotion annotation,
// e.g. "tell me more {excited}".
var emotionSuffix = regexp.MustCompile(`\{([^{}]*)\}\s*$`)

// Result is the tagged classification of one turn.
type Result struct {
	Kind Kind

	// Text is the cleaned message text (emotion stripped). For
	// KindQuery it is the verbatim retrieval query.
	Text string

	// TopicHint carries the words following an affirmation word, if
	// any ("yeah, the Thames" -> "the Thames"). Empty when the
	// affirmation was a bare word.
	TopicHint string

	// Emotion is the stripped annotation value, kept for the policy
	// layer. Never part of the retrieval query.
	Emotion string
}

// Classify maps raw message text to a tagged classification.
//
// Checks run in a fixed order: silence, greeting, affirmation, query.
// The order matters: a one-word "yes" must never become a literal
// search query.
func Classify(raw string) Result {
	text := strings.TrimSpace(raw)

	if text == SilenceSentinel {
		return Result{Kind: KindSilence}
	}

	text, emotion := StripEmotion(text)

	if strings.HasPrefix(text, GreetingPrefix) {
		return Result{Kind: KindGreeting, Emotion: emotion}
	}

	if hint, ok := matchAffirmation(text); ok {
		return Result{Kind: KindAffirmation, TopicHint: hint, Text: text, Emotion: emotion}
	}

	return Result{Kind: KindQuery, Text: text, Emotion: emotion}
}

// StripEmotion removes a trailing {emotion} annotation, returning the
// cleaned text and the annotation value.
func StripEmotion(text string) (cleaned, emotion string) {
	m := emotionSuffix.FindStringSubmatch(text)
	if m == nil {
		return text, ""
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(text, m[0]))
	return cleaned, strings.TrimSpace(m[1])
}

// matchAffirmation reports whether text is a short response opening
// with an affirmation word, and extracts the trailing topic hint.
func matchAffirmation(text string) (hint string, ok bool) {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > maxAffirmationWords {
		return "", false
	}

	first := strings.ToLower(strings.Trim(words[0], ",.!?"))
	if !affirmationWords[first] {
		return "", false
	}

	// Courtesy words after the affirmation ("yes please") carry no
	// topic; only genuinely new words become a hint.
	var rest []string
	for _, w := range words[1:] {
		bare := strings.ToLower(strings.Trim(w, ",.!?"))
		if affirmationWords[bare] || courtesyWords[bare] {
			continue
		}
		rest = append(rest, w)
	}
	if len(rest) == 0 {
		return "", true
	}
	return strings.Trim(strings.Join(rest, " "), " ,.!?"), true
}

// courtesyWords never contribute to a topic hint.
var courtesyWords = map[string]bool{
	"please": true, "thanks": true, "thank": true, "you": true,
}

// ResolveQuery maps an affirmation to its effective retrieval query: the
// topic hint when present, otherwise the session's stored suggestion.
// Falls back to the literal text when neither exists, so an unresolvable
// affirmation degrades to a plain query instead of failing.
func ResolveQuery(r Result, lastSuggestedTopic string) string {
	if r.Kind != KindAffirmation {
		return r.Text
	}
	if r.TopicHint != "" {
		return r.TopicHint
	}
	if lastSuggestedTopic != "" {
		return lastSuggestedTopic
	}
	return r.Text
}
