package models

// IntentRule is one fallback catalog entry: any message close enough to one
// of the example phrases gets ResponseText back.
type IntentRule struct {
	ResponseText   string   `json:"response" yaml:"response"`
	ExamplePhrases []string `json:"patterns" yaml:"patterns"`
}

// MatchResult is the outcome of a fuzzy catalog lookup. Rule is nil when
// nothing reached the cutoff.
type MatchResult struct {
	MatchedPhrase string      `json:"matchedPhrase,omitempty"`
	Rule          *IntentRule `json:"rule,omitempty"`
	Score         float64     `json:"score"`
	RuleIndex     int         `json:"ruleIndex"`
}

// Found reports whether a rule matched.
func (m MatchResult) Found() bool {
	return m.Rule != nil
}
