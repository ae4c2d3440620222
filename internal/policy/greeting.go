package policy

import (
	"fmt"
	"hash/fnv"
)

// Greeting variants. Selection is deterministic in the session ID so a
// retried greeting turn speaks the same words.
var (
	firstGreetings = []string{
		"Hello there! I'm Vic, and I've spent years wandering London's hidden corners. What should I call you?",
		"Well hello! Vic here - London's lost history is my patch. Before we start, what should I call you?",
		"Hello! Lovely to meet you. I'm Vic, and I do love a good London story. What's your name?",
	}

	namedGreetings = []string{
		"Hello %s! Lovely to have you here. What bit of London shall we dig into?",
		"Ah, %s! Good to see you. Where in London's past shall we wander today?",
	}

	returningGreetings = []string{
		"Welcome back, %s! Good to see you again.",
		"%s! You've returned - I do enjoy our chats.",
	}

	returningWithTopic = []string{
		"Welcome back, %s! Last time we were talking about %s - shall we pick that up, or try something new?",
		"%s! Good to see you again. We left off around %s, if you fancy carrying on.",
	}
)

// GreetingInput describes the session state a greeting depends on.
type GreetingInput struct {
	UserName   string
	Returning  bool
	PriorTopic string

	// SessionID seeds deterministic variant selection.
	SessionID string
}

// Greet selects the greeting utterance for a session.
func Greet(in GreetingInput) string {
	pick := func(variants []string) string {
		return variants[pickIndex(in.SessionID, len(variants))]
	}

	switch {
	case in.UserName == "":
		return pick(firstGreetings)
	case in.Returning && in.PriorTopic != "":
		return fmt.Sprintf(pick(returningWithTopic), in.UserName, in.PriorTopic)
	case in.Returning:
		return fmt.Sprintf(pick(returningGreetings), in.UserName)
	default:
		return fmt.Sprintf(pick(namedGreetings), in.UserName)
	}
}

func pickIndex(seed string, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}
