// Package rank scores cached script records against query terms and orders
// the results.
package rank

import (
	"sort"
	"strings"

	"github.com/pvescout/pvescout/pkg/catalog"
)

const (
	// MaxResults caps the ranked result list.
	MaxResults = 20

	nameWeight = 10
	descWeight = 5

	// summaryLen is the maximum summary length before word-boundary
	// truncation kicks in, in characters.
	summaryLen = 300
)

// Match pairs a script with its relevance score.
type Match struct {
	Script catalog.Script
	Score  int
}

// Score rates a script against lowercase query terms. Each term found as a
// substring of the lowercase name adds 10, of the lowercase description adds
// 5. A term found in neither disqualifies the record: strict AND semantics.
func Score(script catalog.Script, terms []string) int {
	name := strings.ToLower(script.Name)
	desc := strings.ToLower(script.Description)

	total := 0
	for _, term := range terms {
		found := false
		if strings.Contains(name, term) {
			total += nameWeight
			found = true
		}
		if strings.Contains(desc, term) {
			total += descWeight
			found = true
		}
		if !found {
			return 0
		}
	}
	return total
}

// Rank scores every script against the query, keeps nonzero matches, sorts
// by descending score with ties preserving input order, and truncates to
// MaxResults. An empty or whitespace-only query yields no results.
func Rank(scripts []catalog.Script, query string) []Match {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var matches []Match
	for _, script := range scripts {
		if s := Score(script, terms); s > 0 {
			matches = append(matches, Match{Script: script, Score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches
}

// Summarize returns the description as-is when it fits, otherwise cuts it at
// the summary length, trims back to the last whitespace boundary so no word
// is split, and appends an ellipsis marker.
func Summarize(description string) string {
	runes := []rune(description)
	if len(runes) <= summaryLen {
		return description
	}

	cut := string(runes[:summaryLen])
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \t\n") + "…"
}
