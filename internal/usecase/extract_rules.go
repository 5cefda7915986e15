package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/salescoach/backend/internal/domain"
)

// Confidence increments per rule
const (
	yearDelta         = 10
	categoryDelta     = 10
	engineDelta       = 10
	horsepowerDelta   = 8
	torqueDelta       = 8
	mpgPairDelta      = 15
	mpgSingleDelta    = 5
	transmissionDelta = 5
	drivetrainDelta   = 5
	seatingDelta      = 5
)

// EPA-style combined fuel economy weighting, in percent
const (
	cityWeightPercent    = 55
	highwayWeightPercent = 45
)

// Description sentence bounds, in characters
const (
	descriptionMinLength = 20
	descriptionMaxLength = 200
)

// Package-level compiled regex patterns for performance
var (
	multipleSpacesRegex = regexp.MustCompile(`\s+`)

	yearRegex = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)

	engineDisplacementFirst = regexp.MustCompile(`(?i)\b(\d\.\d)\s*-?\s*(?:l|liters?|litres?)\b[\s,\-]*(?:turbo(?:charged)?\s*)?(v-?\d{1,2}|i-?\d|inline[\s\-]?\d|flat[\s\-]?\d|h\d|w\d{1,2}|\d{1,2}[\s\-]cyl(?:inder)?)\b`)
	engineCylinderFirst     = regexp.MustCompile(`(?i)\b(v-?\d{1,2}|i-?\d|inline[\s\-]?\d|flat[\s\-]?\d)\s*,?\s*(\d\.\d)\s*-?\s*(?:l|liters?|litres?)\b`)

	horsepowerRegex = regexp.MustCompile(`(?i)\b(\d{2,4})\s*-?\s*(?:hp|horsepower|bhp)\b`)
	torqueRegex     = regexp.MustCompile(`(?i)\b(\d{2,4})\s*-?\s*(?:lbs?\.?\s*-?\s*ft|pound[\s\-]*f(?:ee|oo)t)`)

	mpgPairRegex = regexp.MustCompile(`(?i)\b(\d{1,3})\s*/\s*(\d{1,3})\s*mpg\b`)

	mpgCityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*city\s*mpg\b`),
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*mpg\s*city\b`),
		regexp.MustCompile(`(?i)\bcity\s*mpg\s*[:\-]?\s*(\d{1,3})\b`),
	}

	mpgHighwayPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:highway|hwy)\s*mpg\b`),
		regexp.MustCompile(`(?i)\b(\d{1,3})\s*mpg\s*(?:highway|hwy)\b`),
		regexp.MustCompile(`(?i)\b(?:highway|hwy)\s*mpg\s*[:\-]?\s*(\d{1,3})\b`),
	}

	transmissionSpeedRegex   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*-?\s*speed\b(?:\s*(automatic|manual|auto|dct|dual[\s\-]clutch|cvt))?`)
	transmissionKeywordRegex = regexp.MustCompile(`(?i)\b(automatic|manual|cvt)\b`)

	drivetrainRegex = regexp.MustCompile(`(?i)\b(fwd|rwd|awd|4wd|4x4|front-wheel|rear-wheel|all-wheel)\b`)

	seatingRegex = regexp.MustCompile(`(?i)\b(\d)\s*-?\s*(?:seats?|seater|passengers?|persons?)\b`)

	sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)
)

// vehicleCategory is one keyword class of the category rule
type vehicleCategory struct {
	name    string
	pattern *regexp.Regexp
}

// vehicleCategories are tested in declaration order; the first class that matches anywhere wins
var vehicleCategories = []vehicleCategory{
	{"SUV", regexp.MustCompile(`\b(?:suv|crossover|sport utility)\b`)},
	{"Sedan", regexp.MustCompile(`\b(?:sedan|saloon)\b`)},
	{"Truck", regexp.MustCompile(`\b(?:truck|pickup|pick-up)\b`)},
	{"Coupe", regexp.MustCompile(`\bcoup(?:e|é)`)},
	{"Wagon", regexp.MustCompile(`\b(?:wagon|estate)\b`)},
	{"Van", regexp.MustCompile(`\b(?:van|minivan|mpv)\b`)},
	{"Convertible", regexp.MustCompile(`\b(?:convertible|cabriolet|roadster)\b`)},
	{"Hatchback", regexp.MustCompile(`\b(?:hatchback|hatch)\b`)},
	{"Electric", regexp.MustCompile(`\b(?:electric|ev|bev)\b`)},
	{"Hybrid", regexp.MustCompile(`\b(?:hybrid|phev|plug-in)\b`)},
	{"Luxury", regexp.MustCompile(`\b(?:luxury|premium)\b`)},
}

// marketableFeatures are matched as plain substrings of the normalized text
var marketableFeatures = []string{
	"leather", "sunroof", "navigation", "bluetooth", "backup camera",
	"blind spot", "adaptive cruise", "heated seats", "apple carplay", "android auto",
}

var descriptionKeywords = []string{
	"vehicle", "car", "engine", "feature", "performance",
	"comfort", "design", "equipped", "offers", "provides",
}

func matchYear(in extractionInput) (ruleOutcome, bool) {
	if m := yearRegex.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldYear, m[1], yearDelta)
	}
	return ruleOutcome{}, false
}

func matchCategory(in extractionInput) (ruleOutcome, bool) {
	for _, c := range vehicleCategories {
		if c.pattern.MatchString(in.normalized) {
			return single(domain.FieldCategory, c.name, categoryDelta)
		}
	}
	return ruleOutcome{}, false
}

func matchEngine(in extractionInput) (ruleOutcome, bool) {
	if m := engineDisplacementFirst.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldEngine, fmt.Sprintf("%sL %s", m[1], normalizeCylinders(m[2])), engineDelta)
	}
	if m := engineCylinderFirst.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldEngine, fmt.Sprintf("%sL %s", m[2], normalizeCylinders(m[1])), engineDelta)
	}

	switch {
	case strings.Contains(in.normalized, "electric"):
		return ruleOutcome{
			fields: []fieldValue{
				{domain.FieldEngine, "Electric Motor"},
				{domain.FieldFuelType, "Electric"},
			},
			delta: engineDelta,
		}, true
	case strings.Contains(in.normalized, "hybrid"):
		return ruleOutcome{
			fields: []fieldValue{
				{domain.FieldEngine, "Hybrid"},
				{domain.FieldFuelType, "Hybrid"},
			},
			delta: engineDelta,
		}, true
	}
	return ruleOutcome{}, false
}

// normalizeCylinders maps "v-6", "inline 4" or "4-cylinder" to "V6", "I4" and "4-Cylinder"
func normalizeCylinders(s string) string {
	s = strings.ToLower(s)
	if strings.Contains(s, "cyl") {
		return nonDigitRegex.ReplaceAllString(s, "") + "-Cylinder"
	}
	s = strings.Replace(s, "inline", "i", 1)
	s = strings.Replace(s, "flat", "h", 1)
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	return strings.ToUpper(s)
}

func matchHorsepower(in extractionInput) (ruleOutcome, bool) {
	if m := horsepowerRegex.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldHorsepower, m[1], horsepowerDelta)
	}
	return ruleOutcome{}, false
}

func matchTorque(in extractionInput) (ruleOutcome, bool) {
	if m := torqueRegex.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldTorque, m[1], torqueDelta)
	}
	return ruleOutcome{}, false
}

// matchFuelEconomy prefers a "city/highway mpg" pair and computes the combined figure from it
func matchFuelEconomy(in extractionInput) (ruleOutcome, bool) {
	if m := mpgPairRegex.FindStringSubmatch(in.raw); m != nil {
		city, _ := strconv.Atoi(m[1])
		highway, _ := strconv.Atoi(m[2])
		return ruleOutcome{
			fields: []fieldValue{
				{domain.FieldCityMPG, m[1]},
				{domain.FieldHighwayMPG, m[2]},
				{domain.FieldCombinedMPG, strconv.Itoa(combinedMPG(city, highway))},
			},
			delta: mpgPairDelta,
		}, true
	}

	var outcome ruleOutcome
	city, hasCity := firstCapture(mpgCityPatterns, in.raw)
	if hasCity {
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldCityMPG, city})
		outcome.delta += mpgSingleDelta
	}
	highway, hasHighway := firstCapture(mpgHighwayPatterns, in.raw)
	if hasHighway {
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldHighwayMPG, highway})
		outcome.delta += mpgSingleDelta
	}
	if hasCity && hasHighway {
		c, _ := strconv.Atoi(city)
		h, _ := strconv.Atoi(highway)
		outcome.fields = append(outcome.fields, fieldValue{domain.FieldCombinedMPG, strconv.Itoa(combinedMPG(c, h))})
	}
	return outcome, len(outcome.fields) > 0
}

// combinedMPG returns round(city*0.55 + highway*0.45) without floating point drift
func combinedMPG(city, highway int) int {
	return (city*cityWeightPercent + highway*highwayWeightPercent + 50) / 100
}

func firstCapture(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func matchTransmission(in extractionInput) (ruleOutcome, bool) {
	if m := transmissionSpeedRegex.FindStringSubmatch(in.raw); m != nil {
		value := m[1] + "-Speed"
		if kind := transmissionKind(m[2]); kind != "" {
			value += " " + kind
		}
		return single(domain.FieldTransmission, value, transmissionDelta)
	}
	if m := transmissionKeywordRegex.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldTransmission, transmissionKind(m[1]), transmissionDelta)
	}
	return ruleOutcome{}, false
}

func transmissionKind(s string) string {
	switch k := strings.ToLower(s); {
	case k == "":
		return ""
	case k == "auto" || k == "automatic":
		return "Automatic"
	case k == "manual":
		return "Manual"
	case k == "cvt":
		return "CVT"
	default:
		return "DCT"
	}
}

func matchDrivetrain(in extractionInput) (ruleOutcome, bool) {
	if m := drivetrainRegex.FindStringSubmatch(in.raw); m != nil {
		value := strings.TrimSuffix(strings.ToUpper(m[1]), "-WHEEL")
		return single(domain.FieldDrivetrain, value, drivetrainDelta)
	}
	return ruleOutcome{}, false
}

func matchSeating(in extractionInput) (ruleOutcome, bool) {
	if m := seatingRegex.FindStringSubmatch(in.raw); m != nil {
		return single(domain.FieldSeatingCapacity, m[1], seatingDelta)
	}
	return ruleOutcome{}, false
}

func matchFeatures(in extractionInput) (ruleOutcome, bool) {
	var outcome ruleOutcome
	for _, feature := range marketableFeatures {
		if strings.Contains(in.normalized, feature) {
			outcome.features = append(outcome.features, titleWords(feature))
		}
	}
	return outcome, len(outcome.features) > 0
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// matchDescription takes the first marketing-style sentence, or builds one from the
// fields extracted so far.
func matchDescription(in extractionInput) (ruleOutcome, bool) {
	for _, sentence := range sentenceSplitRegex.Split(in.raw, -1) {
		sentence = collapseSpaces(sentence)
		length := utf8.RuneCountInString(sentence)
		if length < descriptionMinLength || length > descriptionMaxLength {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, kw := range descriptionKeywords {
			if strings.Contains(lower, kw) {
				return single(domain.FieldDescription, sentence, 0)
			}
		}
	}

	if desc := synthesizeDescription(in.sofar); desc != "" {
		return single(domain.FieldDescription, desc, 0)
	}
	return ruleOutcome{}, false
}

func synthesizeDescription(r domain.VehicleRecord) string {
	subject := strings.TrimSpace(r.Year + " " + r.Name)
	if subject == "" && r.Category == "" && r.Engine == "" {
		return ""
	}

	var b strings.Builder
	if subject != "" {
		b.WriteString("The " + subject)
	} else {
		b.WriteString("This vehicle")
	}
	if r.Category != "" {
		b.WriteString(" is " + article(r.Category) + " " + r.Category)
	}
	if r.Engine != "" {
		desc := r.Engine
		if !strings.Contains(strings.ToLower(desc), "motor") {
			desc += " engine"
		}
		verb := " powered by "
		if r.Category == "" {
			verb = " is powered by "
		}
		b.WriteString(verb + article(desc) + " " + desc)
	}
	b.WriteString(".")
	return b.String()
}

func article(word string) string {
	if word == "" {
		return "a"
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u", "8":
		return "an"
	}
	return "a"
}
