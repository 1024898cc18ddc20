package binder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// suggest ranks candidates that look like name: fuzzy subsequence matches
// plus typos within a small edit distance. At most limit names are returned.
func suggest(name string, candidates []string, limit int) []string {
	if limit <= 0 || name == "" || len(candidates) == 0 {
		return nil
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	folded := strings.ToLower(name)
	maxEdits := len(name)/3 + 1
	for i, c := range candidates {
		if d := fuzzy.LevenshteinDistance(folded, strings.ToLower(c)); d <= maxEdits {
			ranks = append(ranks, fuzzy.Rank{Source: name, Target: c, Distance: d, OriginalIndex: i})
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})

	seen := make(map[string]bool, len(ranks))
	out := make([]string, 0, limit)
	for _, r := range ranks {
		if seen[r.Target] || r.Target == name {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
		if len(out) == limit {
			break
		}
	}
	return out
}

// didYouMean renders suggestions as a message suffix.
func didYouMean(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = fmt.Sprintf("'%s'", s)
	}
	return ", did you mean " + strings.Join(quoted, " or ") + "?"
}
