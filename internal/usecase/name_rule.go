package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/salescoach/backend/internal/domain"
)

// Name rule confidence increments
const (
	nameExactDelta       = 20
	nameSpacedDelta      = 15
	nameSubsequenceDelta = 10
	namePatternDelta     = 15
)

const (
	nameScanLines         = 5
	nameMinLineLength     = 3
	nameMaxLineLength     = 100
	subsequenceMinRatio   = 0.7
	// intentionally narrower than a plain subsequence test: the make needs 5+ letters, and a
	// candidate must share its first letter and stay within subsequenceLenSlack of its length
	subsequenceMinMakeLen = 5
	subsequenceLenSlack   = 2
)

// knownMakes is ordered so that longer names shadow their prefixes (e.g. "Maruti Suzuki" before "Suzuki")
var knownMakes = []string{
	"Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "Hyundai", "Kia", "Mazda", "Subaru",
	"Volkswagen", "BMW", "Mercedes-Benz", "Mercedes", "Audi", "Lexus", "Acura", "Infiniti",
	"Cadillac", "Lincoln", "Buick", "GMC", "Jeep", "Dodge", "Ram", "Chrysler", "Tesla",
	"Volvo", "Porsche", "Jaguar", "Land Rover", "Range Rover", "Mini", "Mitsubishi",
	"Genesis", "Alfa Romeo", "Fiat", "Maserati", "Ferrari", "Lamborghini", "Bentley",
	"Rolls-Royce", "Aston Martin", "McLaren", "Maruti Suzuki", "Maruti", "Suzuki", "Tata",
	"Mahindra", "Skoda", "Renault", "MG", "Rivian", "Lucid", "Polestar", "Citroen", "Peugeot",
}

var (
	yearTokenRegex = regexp.MustCompile(`\b(?:19[89]\d|20[0-2]\d)\b`)

	// metadataLineRegex matches "Label: value" lines that describe rather than name a vehicle
	metadataLineRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z /]{0,30}\s*:`)

	labelNameRegex = regexp.MustCompile(`(?im)^\s*(?:vehicle|model|car|name)(?:\s+name)?\s*[:\-]\s*([^\n]{2,80})$`)

	yearNameRegex = regexp.MustCompile(`\b(?:19[89]\d|20[0-2]\d)[ \t]+([A-Z][A-Za-z0-9\-]*(?:[ \t]+[A-Z][A-Za-z0-9\-]*){0,3})`)

	makeExactPatterns  []*regexp.Regexp
	makeSpacedPatterns []*regexp.Regexp
	makeModelRegex     *regexp.Regexp
)

func init() {
	makeExactPatterns = make([]*regexp.Regexp, len(knownMakes))
	makeSpacedPatterns = make([]*regexp.Regexp, len(knownMakes))
	for i, brand := range knownMakes {
		makeExactPatterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(brand) + `\b`)
		makeSpacedPatterns[i] = regexp.MustCompile(spacedPattern(brand))
	}

	// Longest first so alternation prefers "Land Rover" over "Rover"-like prefixes
	sorted := append([]string(nil), knownMakes...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, brand := range sorted {
		quoted[i] = regexp.QuoteMeta(brand)
	}
	makeModelRegex = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") +
		`)[ \t]+([A-Za-z0-9][A-Za-z0-9\-]*(?:[ \t]+[A-Za-z0-9][A-Za-z0-9\-]*){0,2})`)
}

// spacedPattern interleaves the make's characters with optional whitespace so that
// OCR output like "T o y o t a" still matches.
func spacedPattern(brand string) string {
	var b strings.Builder
	b.WriteString(`(?i)\b`)
	first := true
	for _, r := range brand {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		if !first {
			b.WriteString(`[\s\-]*`)
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
		first = false
	}
	b.WriteString(`\b`)
	return b.String()
}

func matchName(in extractionInput) (ruleOutcome, bool) {
	if name, delta := nameFromLeadingLines(in.lines); name != "" {
		return single(domain.FieldName, name, delta)
	}
	if name := nameFromPatterns(in.raw); name != "" {
		return single(domain.FieldName, name, namePatternDelta)
	}
	return ruleOutcome{}, false
}

// nameFromLeadingLines looks for a known make in the first few lines, trying an exact
// match, then a spacing-tolerant match, then an in-order character match.
func nameFromLeadingLines(lines []string) (string, int) {
	limit := nameScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		length := utf8.RuneCountInString(line)
		if length < nameMinLineLength || length > nameMaxLineLength {
			continue
		}
		if metadataLineRegex.MatchString(line) {
			continue
		}

		delta := 0
		switch {
		case anyMatch(makeExactPatterns, line):
			delta = nameExactDelta
		case anyMatch(makeSpacedPatterns, line):
			delta = nameSpacedDelta
		case anySubsequence(line):
			delta = nameSubsequenceDelta
		default:
			continue
		}

		if name := finalizeName(yearTokenRegex.ReplaceAllString(line, " ")); name != "" {
			return name, delta
		}
	}
	return "", 0
}

func anyMatch(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func anySubsequence(line string) bool {
	for _, brand := range knownMakes {
		if inOrderRatio(brand, line) >= subsequenceMinRatio {
			return true
		}
	}
	return false
}

// inOrderRatio returns the best fraction of the make's letters found in order inside a
// single word of line, or two adjacent words joined (OCR often splits a make in two).
// Candidates must start with the make's first letter and be close to it in length.
func inOrderRatio(brand, line string) float64 {
	target := letters(brand)
	if len(target) < subsequenceMinMakeLen {
		return 0
	}

	var words [][]rune
	for _, w := range strings.Fields(line) {
		if l := letters(w); len(l) > 0 {
			words = append(words, l)
		}
	}

	best := 0
	for i := range words {
		candidates := [][]rune{words[i]}
		if i+1 < len(words) {
			candidates = append(candidates, append(append([]rune(nil), words[i]...), words[i+1]...))
		}
		for _, c := range candidates {
			if c[0] != target[0] || abs(len(c)-len(target)) > subsequenceLenSlack {
				continue
			}
			if n := inOrderCount(target, c); n > best {
				best = n
			}
		}
	}
	return float64(best) / float64(len(target))
}

// inOrderCount greedily counts target letters appearing in order in hay
func inOrderCount(target, hay []rune) int {
	matched, pos := 0, 0
	for _, r := range target {
		for i := pos; i < len(hay); i++ {
			if hay[i] == r {
				matched++
				pos = i + 1
				break
			}
		}
	}
	return matched
}

func letters(s string) []rune {
	var out []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			out = append(out, r)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// nameFromPatterns is the fallback when no leading line names a make
func nameFromPatterns(raw string) string {
	if m := labelNameRegex.FindStringSubmatch(raw); m != nil {
		if name := finalizeName(yearTokenRegex.ReplaceAllString(m[1], " ")); name != "" {
			return name
		}
	}
	if m := makeModelRegex.FindStringSubmatch(raw); m != nil {
		if name := finalizeName(m[1] + " " + m[2]); name != "" {
			return name
		}
	}
	if m := yearNameRegex.FindStringSubmatch(raw); m != nil {
		if name := finalizeName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

// finalizeName trims punctuation and quotes, collapses whitespace and title-cases words.
// Short all-caps tokens such as "GT" or "BMW" are kept as written.
func finalizeName(s string) string {
	s = collapseSpaces(s)
	s = strings.TrimLeft(s, "\"'“”‘’ ")
	s = strings.TrimRight(s, ".,;:!?-–—\"'“”‘’ ")
	s = collapseSpaces(s)
	if s == "" {
		return ""
	}

	words := strings.Fields(s)
	for i, w := range words {
		if utf8.RuneCountInString(w) <= 3 && isAllCaps(w) {
			continue
		}
		words[i] = titleWord(w)
	}
	name := strings.Join(words, " ")
	if utf8.RuneCountInString(name) > nameMaxLineLength {
		name = string([]rune(name)[:nameMaxLineLength])
	}
	return name
}

func isAllCaps(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// titleWord upper-cases the first letter of each hyphen-separated part
func titleWord(w string) string {
	parts := strings.Split(w, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + strings.ToLower(p[size:])
	}
	return strings.Join(parts, "-")
}
