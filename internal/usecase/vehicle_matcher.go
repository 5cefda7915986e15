package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/salescoach/backend/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Scoring weights for matching a catalog vehicle against a chat message
const (
	modelMatchBase    = 50.0 // any model token is mentioned
	coverageWeight    = 30.0 // share of the vehicle's name tokens found in the message
	makeMatchBonus    = 20.0 // the first name token (the make) is mentioned
	fuzzyWeightFactor = 0.8  // fuzzy token hits count 80% of an exact hit
)

// chatStopWords are dropped from both sides before matching
var chatStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"what": true, "how": true, "much": true, "does": true, "do": true,
	"me": true, "my": true, "about": true, "tell": true, "can": true,
	"you": true, "this": true, "that": true, "new": true, "car": true,
}

// MatchConfig holds configuration for the vehicle matcher
type MatchConfig struct {
	MinScore          float64
	FuzzyEditDistance int
	MaxResults        int
}

// VehicleMatch is a catalog entry mentioned in a message
type VehicleMatch struct {
	Entry         domain.CatalogEntry
	Score         float64
	MatchedTokens []string
}

// VehicleMatcher finds catalog vehicles a salesperson refers to in free text,
// tolerating typos such as "camrey" or "fortuner" misspelled by one letter.
type VehicleMatcher struct {
	minScore          float64
	fuzzyEditDistance int
	maxResults        int
}

// NewVehicleMatcher creates a matcher with the given configuration
func NewVehicleMatcher(config MatchConfig) *VehicleMatcher {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = 50.0
	}
	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	return &VehicleMatcher{
		minScore:          minScore,
		fuzzyEditDistance: fuzzyDist,
		maxResults:        maxResults,
	}
}

// FindVehicles returns the entries mentioned in message, best match first
func (m *VehicleMatcher) FindVehicles(message string, entries []domain.CatalogEntry) []VehicleMatch {
	messageTokens := tokenize(message)
	if len(messageTokens) == 0 {
		return nil
	}

	var matches []VehicleMatch
	for _, entry := range entries {
		score, matched := m.score(messageTokens, entry.Name)
		if score < m.minScore {
			continue
		}
		matches = append(matches, VehicleMatch{Entry: entry, Score: score, MatchedTokens: matched})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > m.maxResults {
		matches = matches[:m.maxResults]
	}
	return matches
}

// score rates how strongly messageTokens refer to the vehicle called name (0-100).
// A make alone is not enough: at least one model token has to appear.
func (m *VehicleMatcher) score(messageTokens []string, name string) (float64, []string) {
	nameTokens := tokenize(name)
	if len(nameTokens) == 0 {
		return 0, nil
	}

	var hits float64
	var matched []string
	modelHit := false
	makeHit := false

	for i, nt := range nameTokens {
		weight := 0.0
		for _, mt := range messageTokens {
			if mt == nt {
				weight = 1
				break
			}
			if fuzzyTokenMatch(nt, mt, m.fuzzyEditDistance) {
				weight = fuzzyWeightFactor
			}
		}
		if weight == 0 {
			continue
		}
		hits += weight
		matched = append(matched, nt)
		if i == 0 {
			makeHit = true
		}
		if i > 0 || len(nameTokens) == 1 {
			modelHit = true
		}
	}

	if !modelHit {
		return 0, matched
	}

	score := modelMatchBase + hits/float64(len(nameTokens))*coverageWeight
	if makeHit {
		score += makeMatchBonus
	}
	if score > 100 {
		score = 100
	}
	return score, matched
}

// tokenize splits a string into normalized lowercase tokens, dropping stop words
// and single characters.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || chatStopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Short tokens and model numbers only match exactly
	if len(token1) < 4 || len(token2) < 4 || isNumeric(token1) || isNumeric(token2) {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
