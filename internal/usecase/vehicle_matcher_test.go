package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

func testCatalog() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{ID: 1, Name: "Toyota Camry XSE", Price: "32500"},
		{ID: 2, Name: "Toyota Fortuner Legender", Price: "4350000"},
		{ID: 3, Name: "Hyundai Creta SX", Price: "1511000"},
		{ID: 4, Name: "Nexon", Price: "999000"},
	}
}

func TestNewVehicleMatcher_Defaults(t *testing.T) {
	m := NewVehicleMatcher(MatchConfig{})
	assert.Equal(t, 50.0, m.minScore)
	assert.Equal(t, 1, m.fuzzyEditDistance)
	assert.Equal(t, 3, m.maxResults)

	m = NewVehicleMatcher(MatchConfig{MinScore: 70, FuzzyEditDistance: 2, MaxResults: 1})
	assert.Equal(t, 70.0, m.minScore)
	assert.Equal(t, 2, m.fuzzyEditDistance)
	assert.Equal(t, 1, m.maxResults)
}

func TestFindVehicles(t *testing.T) {
	m := NewVehicleMatcher(MatchConfig{})

	tests := []struct {
		name    string
		message string
		wantIDs []int64
	}{
		{name: "model without make", message: "How much is the Camry XSE?", wantIDs: []int64{1}},
		{name: "typo in model", message: "price of toyota camrey", wantIDs: []int64{1}},
		{name: "make alone is not enough", message: "any toyota deals this week", wantIDs: nil},
		{name: "single token name", message: "is the nexon electric", wantIDs: []int64{4}},
		{name: "two vehicles", message: "compare creta and fortuner", wantIDs: []int64{3, 2}},
		{name: "nothing relevant", message: "hello there", wantIDs: nil},
		{name: "empty message", message: "", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := m.FindVehicles(tt.message, testCatalog())
			var ids []int64
			for _, match := range matches {
				ids = append(ids, match.Entry.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestFindVehicles_RanksAndLimits(t *testing.T) {
	m := NewVehicleMatcher(MatchConfig{MaxResults: 1})

	matches := m.FindVehicles("toyota camry xse or creta", testCatalog())
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].Entry.ID)
	assert.Equal(t, 100.0, matches[0].Score)
	assert.Equal(t, []string{"toyota", "camry", "xse"}, matches[0].MatchedTokens)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"price", "camry", "xse"}, tokenize("What is the price of the Camry-XSE?"))
	assert.Empty(t, tokenize("a the of"))
}

func TestFuzzyTokenMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"camry", "camrey", true},
		{"creta", "creta", true},
		{"creta", "crete", true},
		{"kia", "kai", false},   // too short
		{"2024", "2025", false}, // numbers match exactly or not at all
		{"fortuner", "fortune", true},
		{"fortuner", "forte", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, fuzzyTokenMatch(tt.a, tt.b, 1))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("camry", "camry"))
	assert.Equal(t, 1, levenshteinDistance("camry", "camrey"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("creta", "cerat"))
}
