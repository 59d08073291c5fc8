package conscience

import (
	"strings"
	"unicode"

	"github.com/mindforge-ai/conscience/internal/domain"
)

// KeywordFunc derives the trigger keywords for a rule. Swapping the
// derivation changes the matching policy without touching the scoring.
type KeywordFunc func(domain.MoralRule) []string

// minKeywordLen drops tokens too short to be meaningful triggers.
const minKeywordLen = 3

// keywordStopwords are common words excluded from derived keyword sets.
// Tokens shorter than minKeywordLen never reach this map.
var keywordStopwords = map[string]bool{
	"about": true, "after": true, "all": true, "also": true, "and": true,
	"any": true, "anyone": true, "are": true, "because": true, "been": true,
	"before": true, "being": true, "but": true, "can": true, "could": true,
	"did": true, "does": true, "doing": true, "during": true, "each": true,
	"ever": true, "every": true, "everyone": true, "for": true, "from": true,
	"had": true, "has": true, "have": true, "having": true, "her": true,
	"here": true, "him": true, "his": true, "how": true, "into": true,
	"its": true, "may": true, "might": true, "more": true, "most": true,
	"must": true, "never": true, "not": true, "once": true, "only": true,
	"other": true, "our": true, "out": true, "over": true, "shall": true,
	"she": true, "should": true, "some": true, "someone": true, "such": true,
	"than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "under": true, "until": true, "very": true,
	"was": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "whom": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// DeriveKeywords is the default KeywordFunc. It tokenizes the rule id
// and description into lowercase alphanumeric runs, drops stopwords and
// short tokens, and de-duplicates preserving first-seen order.
func DeriveKeywords(r domain.MoralRule) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range tokenize(r.ID + " " + r.Description) {
		if len(tok) < minKeywordLen || keywordStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

// tokenize splits text into lowercase runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
