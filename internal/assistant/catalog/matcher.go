package catalog

import (
	"errors"
	"fmt"
	"strings"

	"biashara-bot/internal/models"
)

// Matcher finds the catalog response for free text that matched no command.
type Matcher struct {
	catalog *Catalog
	cutoff  float64
}

var ErrInvalidCutoff = errors.New("INVALID_CUTOFF")

// NewMatcher binds a catalog to a cutoff, which must lie in (0,1].
func NewMatcher(c *Catalog, cutoff float64) (*Matcher, error) {
	if cutoff <= 0 || cutoff > 1 {
		return nil, fmt.Errorf("%w: %v is outside (0, 1]", ErrInvalidCutoff, cutoff)
	}
	if c == nil {
		c = New(nil)
	}
	return &Matcher{catalog: c, cutoff: cutoff}, nil
}

// DefaultMatcher binds c to DefaultCutoff.
func DefaultMatcher(c *Catalog) *Matcher {
	if c == nil {
		c = New(nil)
	}
	return &Matcher{catalog: c, cutoff: DefaultCutoff}
}

func (m *Matcher) Cutoff() float64 {
	return m.cutoff
}

// Match returns the first rule, in catalog order, with any phrase scoring at
// least the cutoff against text. Later rules are not consulted once one
// hits, even if they would score higher.
func (m *Matcher) Match(text string) models.MatchResult {
	return Match(text, m.catalog.rules, m.cutoff)
}

// Match is the stateless form of Matcher.Match.
func Match(text string, rules []models.IntentRule, cutoff float64) models.MatchResult {
	needle := normalize(text)
	for i := range rules {
		bestScore := -1.0
		bestPhrase := ""
		for _, phrase := range rules[i].ExamplePhrases {
			if score := Ratio(needle, normalize(phrase)); score > bestScore {
				bestScore, bestPhrase = score, phrase
			}
		}
		if bestScore >= cutoff {
			rule := rules[i]
			return models.MatchResult{
				MatchedPhrase: bestPhrase,
				Rule:          &rule,
				Score:         bestScore,
				RuleIndex:     i,
			}
		}
	}
	return models.MatchResult{RuleIndex: -1}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
