package exercisebank

import "strings"

// Common abbreviation expansions
var abbreviations = map[string]string{
	"db":   "dumbbell",
	"bb":   "barbell",
	"kb":   "kettlebell",
	"ez":   "ez bar",
	"ohp":  "overhead press",
	"rdl":  "romanian deadlift",
	"sldl": "stiff leg deadlift",
	"dl":   "deadlift",
	"lat":  "lateral",
	"incl": "incline",
	"decl": "decline",
	"ext":  "extension",
}

// fuzzyThreshold is the minimum similarity accepted by Lookup.
const fuzzyThreshold = 0.90

// LookupResult is returned by Lookup.
type LookupResult struct {
	Matched    bool
	Exercise   Exercise
	Confidence float64 // 0.0-1.0 match confidence
}

// Lookup resolves a free-text exercise name: exact name, then alias, then
// abbreviation expansion, then fuzzy match.
func (b *Bank) Lookup(name string) LookupResult {
	normalized := normalize(name)
	if normalized == "" {
		return LookupResult{}
	}

	if i, ok := b.byName[normalized]; ok {
		return LookupResult{Matched: true, Exercise: b.exercises[i], Confidence: 1.0}
	}
	if i, ok := b.byAlias[normalized]; ok {
		return LookupResult{Matched: true, Exercise: b.exercises[i], Confidence: 1.0}
	}

	expanded := expandAbbreviations(normalized)
	if expanded != normalized {
		if i, ok := b.byName[expanded]; ok {
			return LookupResult{Matched: true, Exercise: b.exercises[i], Confidence: 0.95}
		}
		if i, ok := b.byAlias[expanded]; ok {
			return LookupResult{Matched: true, Exercise: b.exercises[i], Confidence: 0.95}
		}
	}

	best, confidence := b.fuzzyMatch(normalized)
	if best >= 0 && confidence >= fuzzyThreshold {
		return LookupResult{Matched: true, Exercise: b.exercises[best], Confidence: confidence}
	}
	return LookupResult{}
}

// expandAbbreviations replaces common abbreviations with full words
func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if expanded, ok := abbreviations[word]; ok {
			words[i] = expanded
		}
	}
	return strings.Join(words, " ")
}

// fuzzyMatch returns the index of the closest name or alias and its score.
func (b *Bank) fuzzyMatch(normalized string) (int, float64) {
	best := -1
	var bestScore float64
	for i, ex := range b.exercises {
		if score := similarityScore(normalized, normalize(ex.Name)); score > bestScore {
			best, bestScore = i, score
		}
		for _, alias := range ex.Aliases {
			if score := similarityScore(normalized, normalize(alias)); score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	return best, bestScore
}

// similarityScore calculates a 0-1 similarity score based on Levenshtein distance
func similarityScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
