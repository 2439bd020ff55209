// Package fts builds safe FTS5 MATCH expressions from free text.
package fts

import "strings"

// MatchExpr turns free text into an FTS5 MATCH expression that can never
// trip the query parser: each token is quoted and tokens are OR-joined.
// Returns "" when the text has no indexable tokens; callers treat that as
// an empty lexical result, never an error.
func MatchExpr(text string) string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9')
	})
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " OR ")
}
