package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, levenshteinSimilarity("dark mode", "Dark Mode"))
	assert.Equal(t, 0.0, levenshteinSimilarity("", "anything"))
	assert.Equal(t, 0.0, levenshteinSimilarity("abc", "xyz"))

	// One edit, normalized by the longer string's ten characters
	assert.InDelta(t, 0.9, levenshteinSimilarity("dark mode", "dark modes"), 1e-9)
}

func TestJaccardSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, jaccardSimilarity(wordSet("dark mode"), wordSet("mode dark")))
	assert.Equal(t, 0.0, jaccardSimilarity(wordSet(""), wordSet("dark")))
	assert.InDelta(t, 1.0/3.0, jaccardSimilarity(wordSet("dark mode"), wordSet("dark theme")), 1e-9)
}

func TestKeywordSetDropsStopWords(t *testing.T) {
	set := keywordSet("add support for the dark mode")
	_, hasFor := set["for"]
	_, hasThe := set["the"]
	assert.False(t, hasFor)
	assert.False(t, hasThe)
	_, hasDark := set["dark"]
	assert.True(t, hasDark)
}

func TestSimilarityScoreIdenticalRequests(t *testing.T) {
	score := SimilarityScore("Dark mode", "Add a dark theme", "Dark mode", "Add a dark theme")
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestSimilarityScoreUnrelatedRequests(t *testing.T) {
	score := SimilarityScore("Dark mode", "Add a dark theme", "Export to CSV", "Download spreadsheets")
	assert.Less(t, score, 0.2)
}

func TestRankSimilarFiltersAndSorts(t *testing.T) {
	candidates := []FeatureRequest{
		{ID: 1, Title: "Export to CSV", Description: "Download spreadsheets"},
		{ID: 2, Title: "Dark mode", Description: "Add a dark theme"},
		{ID: 3, Title: "Dark mode support", Description: "Add a dark theme option"},
	}

	matches := RankSimilar("Dark mode", "Add a dark theme", candidates, 0.6, 5)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(2), matches[0].Request.ID)
	assert.Equal(t, int64(3), matches[1].Request.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRankSimilarCapsResults(t *testing.T) {
	candidates := make([]FeatureRequest, 10)
	for i := range candidates {
		candidates[i] = FeatureRequest{ID: int64(i + 1), Title: "Dark mode", Description: "Add a dark theme"}
	}

	matches := RankSimilar("Dark mode", "Add a dark theme", candidates, 0.6, 5)
	assert.Len(t, matches, 5)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusRequested, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusCompleted))
	assert.True(t, CanTransition(StatusCompleted, StatusConfirmed))
	assert.True(t, CanTransition(StatusCompleted, StatusInProgress))
	assert.True(t, CanTransition(StatusRequested, StatusCancelled))

	assert.False(t, CanTransition(StatusRequested, StatusCompleted))
	assert.False(t, CanTransition(StatusConfirmed, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusRequested))
	assert.False(t, CanTransition(StatusConfirmed, StatusInProgress))
}
