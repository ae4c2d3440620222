package classify

import (
	"regexp"
	"strings"
)

// phoneticCorrections maps common speech-to-text mishearings of London
// names to the spelling used by the article collection. Matches are
// word-bounded so "tems" never fires inside "items". Longer forms come
// first so "ignacio sancho" is rewritten whole, not twice.
var phoneticCorrections = []struct {
	heard *regexp.Regexp
	meant string
}{
	{regexp.MustCompile(`(?i)\btie burn\b`), "tyburn"},
	{regexp.MustCompile(`(?i)\btems\b`), "thames"},
	{regexp.MustCompile(`(?i)\bthorny island\b`), "thorney island"},
	{regexp.MustCompile(`(?i)\bfawny island\b`), "thorney island"},
	{regexp.MustCompile(`(?i)\bignacio sancho\b`), "ignatius sancho"},
	{regexp.MustCompile(`(?i)\bignacio\b`), "ignatius sancho"},
	{regexp.MustCompile(`(?i)\bignacius\b`), "ignatius"},
}

// NormalizeQuery prepares a query for retrieval: collapses whitespace
// and applies phonetic corrections. Classification runs on the raw
// text; only retrieval sees the normalized form.
func NormalizeQuery(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	for _, pc := range phoneticCorrections {
		normalized = pc.heard.ReplaceAllLiteralString(normalized, pc.meant)
	}
	return normalized
}
