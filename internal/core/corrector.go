package core

import (
	"regexp"

	"github.com/mes-labs/plantquery/internal/catalog"
)

// Corrector rewrites known domain phrases in a raw question to their
// canonical form before classification, e.g. "1라인" -> "LINE-01".
type Corrector struct {
	rules []correctionRule
}

type correctionRule struct {
	re          *regexp.Regexp
	replacement string
}

// NewCorrector compiles the term dictionary into replacement rules. The
// snapshot keeps entries sorted longest pattern first, so a short pattern
// can never clip a longer one that contains it.
func NewCorrector(snap *catalog.Snapshot) *Corrector {
	rules := make([]correctionRule, 0, len(snap.Terms))
	for _, t := range snap.Terms {
		if t.Pattern == "" || t.Pattern == t.Replacement {
			continue
		}
		rules = append(rules, correctionRule{
			re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t.Pattern)),
			replacement: t.Replacement,
		})
	}
	return &Corrector{rules: rules}
}

// Correct applies every dictionary rule to the text, replacing all
// occurrences case-insensitively. A question with no known terms passes
// through unchanged; correction never fails.
func (c *Corrector) Correct(text string) string {
	for _, r := range c.rules {
		text = r.re.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}
