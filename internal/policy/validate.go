package policy

import (
	"regexp"
	"strings"
)

// Category classifies a validation verdict.
type Category string

// Verdict categories, from most to least severe. The stages run in this
// order and the first match wins.
const (
	CategoryOffensive     Category = "offensive"
	CategoryInappropriate Category = "inappropriate"
	CategoryOffTopic      Category = "off_topic"
	CategorySpam          Category = "spam"
	CategorySafe          Category = "safe"
)

// Verdict is the outcome of content validation. For non-safe categories
// Response carries the canned redirect to speak instead of generating.
type Verdict struct {
	Category Category
	Response string
}

// Safe reports whether the turn may proceed to generation and memory.
func (v Verdict) Safe() bool {
	return v.Category == CategorySafe
}

var bannedTerms = []string{
	"fuck", "shit", "cunt", "bastard", "wanker",
}

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+|your\s+)?(?:previous|prior)\s+instructions`),
	regexp.MustCompile(`(?i)\bsystem\s+prompt\b`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)pretend\s+(?:you\s+are|to\s+be)\s`),
	regexp.MustCompile(`(?i)\bact\s+as\s+(?:a|an)\s+(?:different|new)\b`),
}

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:buy\s+now|limited\s+offer|click\s+here|subscribe\s+to)\b`),
	regexp.MustCompile(`(?i)\bhttps?://\S+`),
}

var offTopicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:bitcoin|crypto(?:currency)?|stock\s+tips?|forex)\b`),
	regexp.MustCompile(`(?i)\b(?:write|generate)\s+(?:me\s+)?(?:some\s+)?code\b`),
	regexp.MustCompile(`(?i)\bmedical\s+advice\b`),
}

var cannedResponses = map[Category]string{
	CategoryOffensive: "I'd rather we kept things civil. London's history has plenty of " +
		"colourful characters without us adding to them - shall we talk about one?",
	CategoryInappropriate: "I'm just a London historian, I'm afraid - I can't help with that. " +
		"But I do know some wonderful stories about the city. Want to hear one?",
	CategoryOffTopic: "That's a bit outside my patch - I only really know London's history. " +
		"Is there a corner of the city you're curious about?",
	CategorySpam: "I don't think that's quite what I'm here for. " +
		"Ask me about London's lost history and I'll happily oblige.",
}

// Validator runs the staged content checks that gate the fast path.
type Validator struct {
	banned     []string
	suspicious []*regexp.Regexp
	spam       []*regexp.Regexp
	offTopic   []*regexp.Regexp
}

// NewValidator creates a validator with the built-in rule set.
func NewValidator() *Validator {
	return &Validator{
		banned:     bannedTerms,
		suspicious: suspiciousPatterns,
		spam:       spamPatterns,
		offTopic:   offTopicPatterns,
	}
}

// Check classifies a user turn. Stages run in severity order: banned
// terms, then suspicious patterns, then spam, then off-topic. Non-safe
// verdicts carry their canned response and must skip generation and
// memory persistence.
func (v *Validator) Check(text string) Verdict {
	lower := strings.ToLower(text)

	for _, term := range v.banned {
		if containsWord(lower, term) {
			return Verdict{Category: CategoryOffensive, Response: cannedResponses[CategoryOffensive]}
		}
	}
	for _, re := range v.suspicious {
		if re.MatchString(text) {
			return Verdict{Category: CategoryInappropriate, Response: cannedResponses[CategoryInappropriate]}
		}
	}
	for _, re := range v.spam {
		if re.MatchString(text) {
			return Verdict{Category: CategorySpam, Response: cannedResponses[CategorySpam]}
		}
	}
	for _, re := range v.offTopic {
		if re.MatchString(text) {
			return Verdict{Category: CategoryOffTopic, Response: cannedResponses[CategoryOffTopic]}
		}
	}

	return Verdict{Category: CategorySafe}
}

// containsWord matches term on word boundaries so "scunthorpe" does not
// trip the banned list.
func containsWord(text, term string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
