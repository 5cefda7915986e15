package usecase

// Confidence bounds
const (
	minConfidence = 0
	maxConfidence = 100
)

// Confidence accumulates per-rule confidence increments into a single score.
// The running total never decreases; Value clamps it to [0,100].
type Confidence struct {
	total int
}

// Add records a rule's increment. Negative increments are ignored.
func (c *Confidence) Add(delta int) {
	if delta > 0 {
		c.total += delta
	}
}

// Raw returns the unclamped running total
func (c Confidence) Raw() int {
	return c.total
}

// Value returns the score clamped to [0,100]
func (c Confidence) Value() int {
	switch {
	case c.total < minConfidence:
		return minConfidence
	case c.total > maxConfidence:
		return maxConfidence
	}
	return c.total
}
