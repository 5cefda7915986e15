package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Thresholds of the OCR corruption heuristic
const (
	corruptMinLength       = 20
	corruptSingleCharRatio = 0.30
	corruptDigitTokenRatio = 0.40
)

var (
	// fragmentShapeRegex matches short letter-digit-digit-letter debris such as "To 28 1462 To"
	fragmentShapeRegex = regexp.MustCompile(`^[A-Za-z]{1,3}\s+\d{1,4}\s+\d{1,6}\s+[A-Za-z]{1,3}$`)

	digitTokenRegex = regexp.MustCompile(`^\d+$`)
)

// IsCorrupted reports whether OCR output looks too garbled to trust. It is a warning only.
func IsCorrupted(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < corruptMinLength {
		return true
	}
	if fragmentShapeRegex.MatchString(trimmed) {
		return true
	}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		return true
	}

	var singles, digits int
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) == 1 {
			singles++
		}
		if digitTokenRegex.MatchString(tok) {
			digits++
		}
	}

	total := float64(len(tokens))
	return float64(singles)/total > corruptSingleCharRatio ||
		float64(digits)/total > corruptDigitTokenRatio
}
