package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestEntryFromRecord_RoundTrip(t *testing.T) {
	record := VehicleRecord{
		Name: "Toyota Camry XSE", Category: "Sedan", Price: "32500", MSRP: "33000", DealerCost: "30100",
		Engine: "3.5L V6", Horsepower: "301", Torque: "267", Transmission: "8-Speed Automatic",
		Drivetrain: "FWD", FuelType: "Gasoline", SeatingCapacity: "5",
		CityMPG: "22", HighwayMPG: "32", CombinedMPG: "27",
		Features: []string{"Leather"}, Description: "Mid-size sedan",
	}

	entry := EntryFromRecord(record)
	assert.Equal(t, int64(0), entry.ID)
	assert.Equal(t, "33000", entry.OriginalPrice)
	assert.Equal(t, "3.5L V6", entry.Specs.Engine)
	assert.Equal(t, "27", entry.Mileage.Combined)
	assert.Empty(t, entry.Image)

	// features are copied, not shared
	entry.Features[0] = "Cloth"
	assert.Equal(t, "Leather", record.Features[0])

	entry.Features[0] = "Leather"
	assert.Equal(t, record, RecordFromEntry(entry))
}

func TestCatalogPatch_Apply(t *testing.T) {
	base := CatalogEntry{
		ID: 7, Name: "Honda City", Price: "1200000",
		Specs:    Specs{Engine: "1.5L I4", Horsepower: "119"},
		Mileage:  Mileage{City: "30", Highway: "38"},
		Features: []string{"Sunroof"},
	}

	tests := []struct {
		name   string
		patch  CatalogPatch
		expect func(e *CatalogEntry)
	}{
		{
			name:   "empty patch",
			patch:  CatalogPatch{},
			expect: func(e *CatalogEntry) {},
		},
		{
			name:   "top level only",
			patch:  CatalogPatch{Price: ptr("1150000")},
			expect: func(e *CatalogEntry) { e.Price = "1150000" },
		},
		{
			name:   "nested fields merge",
			patch:  CatalogPatch{Specs: &SpecsPatch{Torque: ptr("145")}, Mileage: &MileagePatch{Combined: ptr("33")}},
			expect: func(e *CatalogEntry) { e.Specs.Torque = "145"; e.Mileage.Combined = "33" },
		},
		{
			name:   "explicit empty string clears",
			patch:  CatalogPatch{Specs: &SpecsPatch{Engine: ptr("")}},
			expect: func(e *CatalogEntry) { e.Specs.Engine = "" },
		},
		{
			name:   "features replaced",
			patch:  CatalogPatch{Features: &[]string{"ADAS", "Sunroof"}},
			expect: func(e *CatalogEntry) { e.Features = []string{"ADAS", "Sunroof"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base
			got.Features = append([]string(nil), base.Features...)
			tt.patch.Apply(&got)

			want := base
			want.Features = append([]string(nil), base.Features...)
			tt.expect(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Toyota Camry XSE":       "toyota-camry-xse",
		"  Mercedes-Benz  C300 ": "mercedes-benz-c300",
		"Kia Sonet (HTX+)":       "kia-sonet-htx",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestVehicleRecord_SetIfEmpty(t *testing.T) {
	r := NewVehicleRecord()

	assert.True(t, r.SetIfEmpty(FieldPrice, "32500"))
	assert.False(t, r.SetIfEmpty(FieldPrice, "99999"))
	assert.False(t, r.SetIfEmpty(FieldEngine, ""))
	assert.False(t, r.SetIfEmpty(Field("bogus"), "x"))
	assert.Equal(t, "32500", r.Get(FieldPrice))
	assert.Equal(t, "", r.Get(FieldEngine))

	r.AddFeature("Sunroof")
	r.AddFeature("Sunroof")
	assert.Equal(t, []string{"Sunroof"}, r.Features)
}

func TestVehicleRecord_Missing(t *testing.T) {
	r := NewVehicleRecord()
	assert.Equal(t, Fields, r.Missing())

	r.SetIfEmpty(FieldName, "Toyota Camry")
	r.SetIfEmpty(FieldPrice, "32500")
	missing := r.Missing()
	assert.Len(t, missing, len(Fields)-2)
	assert.NotContains(t, missing, FieldName)
	assert.NotContains(t, missing, FieldPrice)
	assert.Equal(t, FieldCategory, missing[0])

	for _, f := range Fields {
		r.SetIfEmpty(f, "x")
	}
	assert.Empty(t, r.Missing())
	assert.NotNil(t, r.Missing())
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("no such host")
	err := fmt.Errorf("fetch: %w", &NetworkError{Kind: NetworkNotFound, URL: "https://x.test", Err: cause})

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause))

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Contains(t, netErr.Error(), "not_found")

	messages := map[string]bool{}
	for _, kind := range []NetworkErrorKind{NetworkNotFound, NetworkTimeout, NetworkForbidden, NetworkOther} {
		messages[(&NetworkError{Kind: kind}).UserMessage()] = true
	}
	assert.Len(t, messages, 4)
}
