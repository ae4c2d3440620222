package generate

import (
	"regexp"
	"strings"
)

// Safe corrections substituted when a grounding check fires. Worded as
// natural speech since they go straight to the voice channel.
const (
	architectCorrection = "That's a great question about who designed or built it. " +
		"I want to be accurate, so I should say my articles don't " +
		"specifically mention the architect or builder for this one."

	yearCorrection = "I want to make sure I give you accurate dates. " +
		"Let me stick to what my articles specifically mention..."
)

// architectPatterns capture a proper name credited as architect or
// builder. The keywords match case-insensitively; the captured name must
// be capitalized so ordinary prose doesn't trip the check.
var architectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:architect(?:ed|s)?\s+(?:was|were|by))\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`(?i:(?:designed|built|constructed|created)\s+by)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
	regexp.MustCompile(`(?i:(?:the\s+)?architect)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
}

// yearPattern matches four-digit years from 1000 through 2099.
var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// leakedMetadata strips structured-output fields a model sometimes
// appends after the prose answer.
var leakedMetadata = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\n*facts_stated:.*$`),
	regexp.MustCompile(`(?is)\n*source_content:.*$`),
	regexp.MustCompile(`(?is)\n*source_titles:.*$`),
}

// CleanResponse removes leaked metadata fields and surrounding space.
func CleanResponse(text string) string {
	for _, re := range leakedMetadata {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// Validate checks a generated answer against the retrieved source
// content and returns either the answer unchanged or a safe correction.
//
// Two hallucination classes are caught: an architect or builder credited
// by name when that name never appears in the sources, and a year stated
// as fact that the sources never mention. With no source content the
// year check is skipped since there is nothing to compare against.
func Validate(text, sourceContent string) string {
	sourceLower := strings.ToLower(sourceContent)

	for _, re := range architectPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !strings.Contains(sourceLower, strings.ToLower(m[1])) {
				return architectCorrection
			}
		}
	}

	if sourceContent == "" {
		return text
	}

	sourceYears := make(map[string]bool)
	for _, m := range yearPattern.FindAllStringSubmatch(sourceContent, -1) {
		sourceYears[m[1]] = true
	}

	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		year := m[1]
		if sourceYears[year] {
			continue
		}
		// Flag only years stated as fact, i.e. preceded by a word
		// ("in 1851", "built 1851"), not bare enumerations.
		asFact := regexp.MustCompile(`\w+\s+` + year)
		if asFact.MatchString(text) {
			return yearCorrection
		}
	}

	return text
}
