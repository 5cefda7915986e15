package usecase

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

const camryBrochure = `2024 Toyota Camry XSE.
Mid-size sedan with premium comfort.
Price: $32,500
MSRP: $33,000
Dealer Invoice: $30,100
Engine: 3.5L V6, 301 hp, 267 lb-ft of torque
8-speed automatic transmission, FWD
Fuel economy: 22/32 mpg
Seats 5 passengers
Features: leather seats, sunroof, Apple CarPlay, blind spot monitoring.
This vehicle offers outstanding performance and everyday comfort.`

func newTestExtractor() *FieldExtractor {
	return NewFieldExtractor(zerolog.Nop())
}

func TestExtract_ShortInput(t *testing.T) {
	extractor := newTestExtractor()

	for _, input := range []string{"", "   ", "Camry", "2023 Kia", "  short \n  "} {
		t.Run(input, func(t *testing.T) {
			record := extractor.Extract(input, "short.txt")
			assert.Equal(t, domain.NewVehicleRecord(), record)
			assert.Equal(t, 0, record.Confidence)
		})
	}
}

func TestExtract_FullBrochure(t *testing.T) {
	record := newTestExtractor().Extract(camryBrochure, "camry.txt")

	assert.Equal(t, "2024", record.Year)
	assert.Equal(t, "Toyota Camry XSE", record.Name)
	assert.Equal(t, "Sedan", record.Category)
	assert.Equal(t, "32500", record.Price)
	assert.Equal(t, "33000", record.MSRP)
	assert.Equal(t, "30100", record.DealerCost)
	assert.Equal(t, "3.5L V6", record.Engine)
	assert.Equal(t, "301", record.Horsepower)
	assert.Equal(t, "267", record.Torque)
	assert.Equal(t, "22", record.CityMPG)
	assert.Equal(t, "32", record.HighwayMPG)
	assert.Equal(t, "27", record.CombinedMPG)
	assert.Equal(t, "8-Speed Automatic", record.Transmission)
	assert.Equal(t, "FWD", record.Drivetrain)
	assert.Equal(t, "5", record.SeatingCapacity)
	assert.Equal(t, []string{"Leather", "Sunroof", "Blind Spot", "Apple Carplay"}, record.Features)
	assert.Equal(t, "Mid-size sedan with premium comfort", record.Description)
	assert.Empty(t, record.FuelType)

	// 121 raw points clamp to 100
	assert.Equal(t, 100, record.Confidence)
}

func TestExtract_ConfidenceBounds(t *testing.T) {
	inputs := []string{
		camryBrochure,
		"plain words with no vehicle data at all",
		"2023 Toyota Camry",
		"To 28 1462 To",
		"₹₹₹ 99,99,99,999 lakh crore $$$ 1/2 mpg",
	}

	extractor := newTestExtractor()
	for _, input := range inputs {
		record := extractor.Extract(input, "bounds.txt")
		assert.GreaterOrEqual(t, record.Confidence, 0)
		assert.LessOrEqual(t, record.Confidence, 100)
	}
}

func TestExtract_FuelEconomyPairWins(t *testing.T) {
	text := "2022 Honda Civic\nCity/Highway: 30/40 mpg\nAlso rated 25 city mpg in winter"
	record := newTestExtractor().Extract(text, "civic.txt")

	assert.Equal(t, "30", record.CityMPG)
	assert.Equal(t, "40", record.HighwayMPG)
	assert.Equal(t, "35", record.CombinedMPG)
	assert.Equal(t, "Honda Civic", record.Name)
}

func TestExtract_IndianPrice(t *testing.T) {
	text := "Hyundai Creta SX\nPrice: ₹15,11,000 ex-showroom"
	record := newTestExtractor().Extract(text, "creta.txt")

	assert.Equal(t, "1511000", record.Price)
	assert.Equal(t, record.Price, record.MSRP)
	assert.Equal(t, "1390120", record.DealerCost)
}

func TestExtract_PriceFollowedByYear(t *testing.T) {
	text := "2024 Toyota Camry\nPrice: ₹15,11,000 2024 model year"
	record := newTestExtractor().Extract(text, "camry.txt")

	assert.Equal(t, "1511000", record.Price)
	assert.Equal(t, "1511000", record.MSRP)
	assert.Equal(t, "1390120", record.DealerCost)
	assert.Equal(t, "2024", record.Year)
}

func TestExtract_YearStrippedFromName(t *testing.T) {
	record := newTestExtractor().Extract("2023 Toyota Camry\nLE trim with great features", "camry.txt")

	assert.Equal(t, "Toyota Camry", record.Name)
	assert.Equal(t, "2023", record.Year)
}

func TestExtract_CorruptedOCRText(t *testing.T) {
	extractor := newTestExtractor()

	var record domain.VehicleRecord
	require.NotPanics(t, func() {
		record = extractor.Extract("To 28 1462 To", "scan.png")
	})
	assert.Empty(t, record.Year)
	assert.Empty(t, record.Price)
	assert.NotNil(t, record.Features)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	// Electric text with an explicit displacement keeps the displacement engine,
	// and the fuel type is left to later evidence.
	text := "2021 BMW X5 xDrive45e plug-in hybrid\n3.0L I6 paired with an electric motor"
	record := newTestExtractor().Extract(text, "x5.txt")

	assert.Equal(t, "3.0L I6", record.Engine)
	assert.Empty(t, record.FuelType)
	assert.Equal(t, "Electric", record.Category)
}

func TestExtract_SynthesizedDescription(t *testing.T) {
	record := newTestExtractor().Extract("2020 Ford Ranger\n2.3L I4\npickup", "ranger.txt")

	assert.Equal(t, "The 2020 Ford Ranger is a Truck powered by a 2.3L I4 engine.", record.Description)
}
