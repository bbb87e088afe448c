// Package matcher decides whether two product names refer to the same product.
//
// Names are normalized (lowercased, trimmed, whitespace collapsed) and then
// compared with a sequence-similarity ratio in [0, 1]. Two names match when the
// ratio reaches the threshold. The default threshold is deliberately high so
// that model variants such as "HiBy R1" and "HiBy R4" stay distinct while
// reformatted names such as "7hz Crinacle Zero 2" and "7hz x Crinacle Zero 2"
// still pair up.
package matcher

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// DefaultThreshold is the minimum similarity for two names to match.
const DefaultThreshold = constants.DefaultMatchThreshold

// Normalize lowercases s, trims it, and collapses whitespace runs to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity returns the similarity ratio of two names after normalization.
// Identical normalized names score exactly 1.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	return newSequence([]rune(na), []rune(nb)).ratio()
}

// MatchingBlocks returns the matched rune runs between the normalized names,
// ordered by their position in a.
func MatchingBlocks(a, b string) []Block {
	blocks := newSequence([]rune(Normalize(a)), []rune(Normalize(b))).blocks()
	slices.SortFunc(blocks, func(x, y Block) int { return x.A - y.A })
	return blocks
}

// IsMatch reports whether Similarity(a, b) >= threshold.
func IsMatch(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// FindMatch returns the index of the first candidate that matches name.
// Candidate order decides: no attempt is made to find a better later match.
func FindMatch(name string, candidates []string, threshold float64) (int, bool) {
	for i, c := range candidates {
		if IsMatch(name, c, threshold) {
			return i, true
		}
	}
	return -1, false
}

// FindBestMatch returns the index and score of the most similar candidate
// at or above threshold. Ties go to the earlier candidate.
func FindBestMatch(name string, candidates []string, threshold float64) (int, float64, bool) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		score := Similarity(name, c)
		if score >= threshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore, best >= 0
}

// Strategy selects how a name is resolved against several candidates.
type Strategy string

const (
	// StrategyFirst accepts the first candidate above threshold.
	StrategyFirst Strategy = "first"
	// StrategyBest accepts the highest-scoring candidate above threshold.
	StrategyBest Strategy = "best"
)

// Strategies lists the supported strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyBest, StrategyFirst}
}

// String returns the strategy name.
func (s Strategy) String() string { return string(s) }

// ParseStrategy parses a strategy name; the empty string yields StrategyBest.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyBest:
		return StrategyBest, nil
	case StrategyFirst:
		return StrategyFirst, nil
	}
	return "", errors.NewValidationError("match_strategy", s,
		fmt.Sprintf("unknown strategy (want %s or %s)", StrategyBest, StrategyFirst))
}

// Find resolves name against candidates using the strategy.
func (s Strategy) Find(name string, candidates []string, threshold float64) (int, float64, bool) {
	if s == StrategyFirst {
		i, ok := FindMatch(name, candidates, threshold)
		if !ok {
			return -1, 0, false
		}
		return i, Similarity(name, candidates[i]), true
	}
	return FindBestMatch(name, candidates, threshold)
}
