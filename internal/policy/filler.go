package policy

import "strings"

// Fillers mask generation latency. Selection is deterministic in the
// extracted topic so a retried turn speaks the same filler.
var topicFillers = map[string][]string{
	"thames": {
		"Ah, the river... let me think back to what I found along its banks...",
		"The Thames! Give me a moment, I have a few stories from the water...",
	},
	"church": {
		"Churches now... let me dig through my notes on London's spires...",
		"Ah, one of the city's churches. Bear with me a moment...",
	},
	"palace": {
		"A palace, you say... let me gather what I found there...",
	},
	"tyburn": {
		"Tyburn... grim business, that. Give me a second to collect the details...",
	},
}

var defaultFillers = []string{
	"Hmm, let me think about that one...",
	"Ah, good question... give me just a moment...",
	"Let me have a rummage through my notes...",
	"Interesting... let me see what I dug up on that...",
}

// queryStopWords are dropped before extracting a topic from a query.
var queryStopWords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "any": true,
	"can": true, "did": true, "do": true, "does": true, "else": true,
	"have": true, "history": true, "how": true, "i": true, "is": true,
	"know": true, "london": true, "londons": true, "me": true,
	"more": true, "of": true, "on": true, "please": true, "something": true,
	"tell": true, "the": true, "there": true, "was": true, "what": true,
	"when": true, "where": true, "who": true, "why": true, "you": true,
}

// ExtractTopic pulls a short topic phrase out of a query: stop words are
// dropped and up to the first three remaining words are kept. Returns ""
// when nothing survives.
func ExtractTopic(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	kept := make([]string, 0, 3)
	for _, f := range fields {
		f = strings.Trim(f, ".,!?'\"")
		if f == "" || queryStopWords[f] {
			continue
		}
		kept = append(kept, f)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}

// FillerFor returns the filler utterance for a topic. A topic word with
// its own table gets a topical filler; anything else falls back to the
// general list. Same topic, same filler.
func FillerFor(topic string) string {
	for _, word := range strings.Fields(topic) {
		if variants, ok := topicFillers[word]; ok {
			return variants[pickIndex(topic, len(variants))]
		}
	}
	return defaultFillers[pickIndex(topic, len(defaultFillers))]
}
