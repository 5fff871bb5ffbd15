package ai

import "strings"

// CleanQuery removes punctuation and trims whitespace from a user query
// before it is embedded or handed to a reranker.
func CleanQuery(s string) string {
	// Remove common punctuation
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}—–", r) {
			return -1
		}
		return r
	}, s)
	// Collapse runs of whitespace left behind by the scrub
	return strings.Join(strings.Fields(s), " ")
}
