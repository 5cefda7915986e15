package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/salescoach/backend/internal/domain"
)

// Price rule confidence increments
const (
	priceDelta      = 15
	msrpDelta       = 5
	dealerCostDelta = 5
)

// minPlausiblePrice filters out trims, years and other small numbers picked up as prices
const minPlausiblePrice = 10000

// dealerCostPercent is the share of MSRP assumed as dealer cost when none is stated
const dealerCostPercent = 92

// numeralPattern captures an amount in Indian (15,11,000), Western (1,511,000),
// OCR-spaced (12 45 000) or plain (1511000) form. Separators are never mixed and the
// last group is three digits, so a figure following the price is not absorbed.
const numeralPattern = `(\d{1,3}(?:,\d{2,3})*,\d{3}(?:\.\d{1,2})?\b` +
	`|\d{1,3}(?: \d{2,3})* \d{3}(?:\.\d{1,2})?\b` +
	`|\d{4,9}(?:\.\d{1,2})?\b)`

// pricePattern is one entry of the prioritized price table
type pricePattern struct {
	re         *regexp.Regexp
	multiplier float64 // applied to the captured value, 1 for plain amounts
}

// pricePatterns are tried in order; the first value above minPlausiblePrice wins
var pricePatterns = []pricePattern{
	// labelled with currency: "Price: ₹15,11,000", "Ex-showroom price Rs. 9,99,000"
	{re: regexp.MustCompile(`(?i)price[^\d\n₹$]{0,20}(?:₹|rs\.?|inr|usd|\$)\s*` + numeralPattern), multiplier: 1},
	// rupee symbol or abbreviation
	{re: regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*` + numeralPattern), multiplier: 1},
	// dollar symbol
	{re: regexp.MustCompile(`\$\s*` + numeralPattern), multiplier: 1},
	// labelled without currency
	{re: regexp.MustCompile(`(?i)price[^\d\n]{0,20}` + numeralPattern), multiplier: 1},
	// "15.11 lakh"
	{re: regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{1,2})?)\s*(?:lakhs?|lacs?)\b`), multiplier: 1e5},
	// "1.2 crore"
	{re: regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{1,2})?)\s*(?:crores?|cr)\b`), multiplier: 1e7},
	// bare Indian grouping
	{re: regexp.MustCompile(`\b(\d{1,2}(?:,\d{2})+,\d{3})\b`), multiplier: 1},
	// bare Western grouping
	{re: regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+)\b`), multiplier: 1},
}

var (
	msrpPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:msrp|m\.s\.r\.p\.?|sticker\s+price|original\s+price|list\s+price)[^\d\n]{0,20}` + numeralPattern),
	}

	dealerCostPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:dealer\s*(?:cost|price|invoice)|invoice(?:\s+price)?)[^\d\n]{0,20}` + numeralPattern),
	}

	nonDigitRegex = regexp.MustCompile(`\D`)
	decimalTail   = regexp.MustCompile(`\.\d{1,2}$`)
)

func matchPrice(in extractionInput) (ruleOutcome, bool) {
	var outcome ruleOutcome

	price, hasPrice := firstPrice(in.raw)
	if hasPrice {
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldPrice, strconv.FormatInt(price, 10)})
		outcome.delta += priceDelta
	}

	msrp, hasMSRP := firstLabelledAmount(msrpPatterns, in.raw)
	if hasMSRP {
		outcome.delta += msrpDelta
	} else if hasPrice {
		msrp, hasMSRP = price, true
	}
	if hasMSRP {
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldMSRP, strconv.FormatInt(msrp, 10)})
	}

	dealerCost, hasDealerCost := firstLabelledAmount(dealerCostPatterns, in.raw)
	if hasDealerCost {
		outcome.delta += dealerCostDelta
	} else if hasMSRP {
		dealerCost, hasDealerCost = deriveDealerCost(msrp), true
	}
	if hasDealerCost {
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldDealerCost, strconv.FormatInt(dealerCost, 10)})
	}

	return outcome, len(outcome.fields) > 0
}

// firstPrice walks the pattern table in priority order and, within a pattern, every
// match in document order.
func firstPrice(text string) (int64, bool) {
	for _, p := range pricePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1], p.multiplier); ok && v > minPlausiblePrice {
				return v, true
			}
		}
	}
	return 0, false
}

func firstLabelledAmount(patterns []*regexp.Regexp, text string) (int64, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1], 1); ok && v > minPlausiblePrice {
				return v, true
			}
		}
	}
	return 0, false
}

// parseAmount converts a captured numeral into an integer amount, dropping paise/cents
func parseAmount(s string, multiplier float64) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if multiplier != 1 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return int64(math.Round(f * multiplier)), true
	}

	s = decimalTail.ReplaceAllString(s, "")
	digits := nonDigitRegex.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// deriveDealerCost returns round(msrp * 0.92) using integer arithmetic
func deriveDealerCost(msrp int64) int64 {
	return (msrp*dealerCostPercent + 50) / 100
}
