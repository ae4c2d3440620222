package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// correctionPatterns detect a user correcting a previous answer
// ("actually, that's wrong", "the correct date is..."). They are
// deliberately loose: a captured correction is held for human review,
// never applied to the article collection directly.
var correctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:actually|no,?\s*)?(?:that'?s?\s+)?(?:wrong|incorrect|not\s+(?:right|correct|accurate))`),
	regexp.MustCompile(`(?:the\s+)?correct\s+(?:answer|date|name|fact)\s+is`),
	regexp.MustCompile(`it\s+(?:was|should\s+be|is)\s+actually`),
	regexp.MustCompile(`you\s+(?:got|have)\s+(?:that|it)\s+wrong`),
	regexp.MustCompile(`let\s+me\s+correct\s+(?:that|you)`),
	regexp.MustCompile(`(?:no,?\s+)?it\s+(?:was|is)\s+(?:really|actually)`),
}

// IsCorrection reports whether the user is correcting a previous answer.
func IsCorrection(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range correctionPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// CorrectionAck acknowledges a captured correction, addressing the user
// by name when it is known.
func CorrectionAck(userName string) string {
	name := ""
	if userName != "" {
		name = " " + userName
	}
	return fmt.Sprintf("Thank you%s, I've noted that correction. It will be reviewed and added to my knowledge base.", name)
}
