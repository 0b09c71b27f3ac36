package request

import (
	"sort"
	"strings"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "should": {}, "could": {}, "may": {},
	"might": {}, "must": {}, "can": {},
}

// SimilarityScore blends four signals into one score in [0, 1]: edit
// similarity of the titles (weight 0.4), word overlap of the titles (0.2),
// keyword overlap of title plus description with stop words removed (0.2),
// and edit similarity of the descriptions (0.2).
func SimilarityScore(newTitle, newDescription, existingTitle, existingDescription string) float64 {
	titleEdit := levenshteinSimilarity(newTitle, existingTitle)
	titleWords := jaccardSimilarity(wordSet(newTitle), wordSet(existingTitle))
	keywords := jaccardSimilarity(
		keywordSet(newTitle+" "+newDescription),
		keywordSet(existingTitle+" "+existingDescription),
	)
	descEdit := levenshteinSimilarity(newDescription, existingDescription)

	return titleEdit*0.4 + titleWords*0.2 + keywords*0.2 + descEdit*0.2
}

// Match pairs a candidate request with its similarity score
type Match struct {
	Request *FeatureRequest
	Score   float64
}

// RankSimilar scores candidates against a draft request and returns those at
// or above the threshold, best first, capped at maxResults.
func RankSimilar(title, description string, candidates []FeatureRequest, threshold float64, maxResults int) []Match {
	var matches []Match
	for i := range candidates {
		score := SimilarityScore(title, description, candidates[i].Title, candidates[i].Description)
		if score >= threshold {
			matches = append(matches, Match{Request: &candidates[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func keywordSet(s string) map[string]struct{} {
	set := wordSet(s)
	for w := range set {
		if _, stop := stopWords[w]; stop {
			delete(set, w)
		}
	}
	return set
}

func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// levenshteinSimilarity is 1 - dist/maxLen over the lowercased inputs
func levenshteinSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
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
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
