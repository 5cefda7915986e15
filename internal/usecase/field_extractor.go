package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/salescoach/backend/internal/domain"
)

// minExtractableLength is the shortest trimmed input worth running the rules on
const minExtractableLength = 10

// fieldValue is a single field produced by a rule
type fieldValue struct {
	field domain.Field
	value string
}

// ruleOutcome is what a rule contributes when it fires
type ruleOutcome struct {
	fields   []fieldValue
	features []string
	delta    int
}

// extractionInput is the shared, read-only view every rule works on
type extractionInput struct {
	raw        string   // original text, case and whitespace preserved
	normalized string   // lowercase, whitespace collapsed
	lines      []string // trimmed non-empty lines of raw
	sofar      domain.VehicleRecord
}

// extractionRule is one entry of the ordered rule table
type extractionRule struct {
	name  string
	apply func(in extractionInput) (ruleOutcome, bool)
}

// extractionRules is the fixed rule order. A field is taken from the first rule that fills it.
var extractionRules = []extractionRule{
	{name: "year", apply: matchYear},
	{name: "name", apply: matchName},
	{name: "category", apply: matchCategory},
	{name: "price", apply: matchPrice},
	{name: "engine", apply: matchEngine},
	{name: "horsepower", apply: matchHorsepower},
	{name: "torque", apply: matchTorque},
	{name: "fuel_economy", apply: matchFuelEconomy},
	{name: "transmission", apply: matchTransmission},
	{name: "drivetrain", apply: matchDrivetrain},
	{name: "seating", apply: matchSeating},
	{name: "features", apply: matchFeatures},
	{name: "description", apply: matchDescription},
}

// FieldExtractor turns raw document text into a VehicleRecord using heuristic rules.
// The confidence score only says how many rules fired; it is a triage signal, not accuracy.
type FieldExtractor struct {
	rules  []extractionRule
	logger zerolog.Logger
}

// NewFieldExtractor creates an extractor with the default rule table
func NewFieldExtractor(logger zerolog.Logger) *FieldExtractor {
	return &FieldExtractor{
		rules:  extractionRules,
		logger: logger.With().Str("component", "field_extractor").Logger(),
	}
}

// Extract runs every rule over rawText. It never fails: missing evidence leaves fields empty.
func (e *FieldExtractor) Extract(rawText, displayName string) domain.VehicleRecord {
	record := domain.NewVehicleRecord()

	if utf8.RuneCountInString(strings.TrimSpace(rawText)) < minExtractableLength {
		e.logger.Warn().Str("file", displayName).Int("length", len(rawText)).
			Msg("text too short for extraction")
		return record
	}

	in := newExtractionInput(rawText)
	var confidence Confidence

	for _, rule := range e.rules {
		in.sofar = record
		outcome, ok := rule.apply(in)
		if !ok {
			continue
		}
		for _, fv := range outcome.fields {
			record.SetIfEmpty(fv.field, fv.value)
		}
		for _, feature := range outcome.features {
			record.AddFeature(feature)
		}
		confidence.Add(outcome.delta)

		e.logger.Debug().Str("file", displayName).Str("rule", rule.name).
			Int("delta", outcome.delta).Int("running", confidence.Raw()).
			Msg("extraction rule matched")
	}

	record.Confidence = confidence.Value()

	missing := record.Missing()
	e.logger.Info().Str("file", displayName).Str("name", record.Name).
		Str("price", record.Price).Int("confidence", record.Confidence).
		Int("missing", len(missing)).Msg("extraction complete")
	e.logger.Debug().Str("file", displayName).Interface("missing_fields", missing).
		Msg("fields without evidence")

	return record
}

func newExtractionInput(raw string) extractionInput {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return extractionInput{
		raw:        raw,
		normalized: normalizeText(raw),
		lines:      lines,
	}
}

// normalizeText lowercases and collapses whitespace runs into single spaces
func normalizeText(s string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(strings.ToLower(s), " "))
}

// collapseSpaces collapses whitespace runs without changing case
func collapseSpaces(s string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(s, " "))
}

func single(field domain.Field, value string, delta int) (ruleOutcome, bool) {
	return ruleOutcome{fields: []fieldValue{{field: field, value: value}}, delta: delta}, true
}
