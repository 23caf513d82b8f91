package dispatcher

import "github.com/sahilm/fuzzy"

// suggestItem returns the closest known item name for a stock lookup that
// missed, or "" when nothing is close. It is only a hint; lookups stay exact.
func suggestItem(item string, known []string) string {
	matches := fuzzy.Find(item, known)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
