package memory

import (
	"strings"
	"unicode"
)

// minTermLen drops query tokens too short to be useful match terms.
const minTermLen = 3

// queryStopwords are common words stripped from search queries before
// they become FTS5 match expressions.
var queryStopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "all": true,
	"and": true, "are": true, "because": true, "been": true, "before": true,
	"being": true, "below": true, "between": true, "but": true, "can": true,
	"could": true, "did": true, "does": true, "during": true, "each": true,
	"few": true, "for": true, "from": true, "further": true, "had": true,
	"has": true, "have": true, "here": true, "how": true, "into": true,
	"its": true, "just": true, "may": true, "might": true, "more": true,
	"most": true, "must": true, "nor": true, "not": true, "once": true,
	"only": true, "other": true, "own": true, "same": true, "shall": true,
	"she": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "too": true, "under": true,
	"until": true, "very": true, "was": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"whom": true, "why": true, "will": true, "with": true, "would": true,
	"you": true, "your": true,
}

// buildMatchQuery converts free text into a safe FTS5 match expression.
// Raw user input is not valid FTS5 syntax (hyphens, quotes and operator
// words all break it), so the text is reduced to lowercase alphanumeric
// terms with stopwords and short tokens removed, each prefix-matched
// and joined with OR. Returns "" when nothing usable remains.
func buildMatchQuery(query string) string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var terms []string
	for _, f := range fields {
		if len(f) < minTermLen || queryStopwords[f] {
			continue
		}
		terms = append(terms, f+"*")
	}
	return strings.Join(terms, " OR ")
}
