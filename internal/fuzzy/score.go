// Package fuzzy scores package names against a search query.
//
// Score is a pure function of its two arguments, so it can be registered as
// a deterministic SQLite scalar function and evaluated inside ORDER BY.
package fuzzy

import (
	"math"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	// MaxScore is returned for a case-insensitive exact match, so exact
	// matches always rank first.
	MaxScore int64 = math.MaxInt64

	// NoMatch is returned when the query is not a subsequence of the name.
	// It is the lowest possible rank; such rows are ordered last, not dropped.
	NoMatch int64 = math.MinInt64

	// prefixBonus lifts names that start with the query above every name
	// that only contains it. Matcher scores stay far below it.
	prefixBonus int64 = 1 << 32
)

// Score ranks choice against pattern. Higher is better.
func Score(choice, pattern string) int64 {
	if strings.EqualFold(choice, pattern) {
		return MaxScore
	}

	// Lower-case both sides so "Zsh" and "zsh" produce identical scores;
	// the matcher would otherwise award camel-case bonuses.
	choice, pattern = strings.ToLower(choice), strings.ToLower(pattern)
	matches := fuzzy.FindNoSort(pattern, []string{choice})
	if len(matches) == 0 {
		return NoMatch
	}
	score := int64(matches[0].Score)
	if strings.HasPrefix(choice, pattern) {
		score += prefixBonus
	}
	return score
}
