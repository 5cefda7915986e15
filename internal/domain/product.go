package domain

import (
	"regexp"
	"strings"
)

// CatalogEntry is a persisted vehicle product shown to sales staff
type CatalogEntry struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         string   `json:"price"`
	OriginalPrice string   `json:"originalPrice"`
	DealerCost    string   `json:"dealerCost"`
	Specs         Specs    `json:"specs"`
	Mileage       Mileage  `json:"mileage"`
	Features      []string `json:"features"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
}

// Specs groups the mechanical details of a catalog entry
type Specs struct {
	Engine          string `json:"engine"`
	Horsepower      string `json:"horsepower"`
	Torque          string `json:"torque"`
	Transmission    string `json:"transmission"`
	Drivetrain      string `json:"drivetrain"`
	FuelType        string `json:"fuelType"`
	SeatingCapacity string `json:"seatingCapacity"`
}

// Mileage groups fuel economy figures (mpg)
type Mileage struct {
	City     string `json:"city"`
	Highway  string `json:"highway"`
	Combined string `json:"combined"`
}

// CatalogPatch is a partial update. Nil fields keep the existing value.
type CatalogPatch struct {
	Name          *string       `json:"name,omitempty"`
	Category      *string       `json:"category,omitempty"`
	Price         *string       `json:"price,omitempty"`
	OriginalPrice *string       `json:"originalPrice,omitempty"`
	DealerCost    *string       `json:"dealerCost,omitempty"`
	Specs         *SpecsPatch   `json:"specs,omitempty"`
	Mileage       *MileagePatch `json:"mileage,omitempty"`
	Features      *[]string     `json:"features,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Image         *string       `json:"image,omitempty"`
}

// SpecsPatch is the partial form of Specs
type SpecsPatch struct {
	Engine          *string `json:"engine,omitempty"`
	Horsepower      *string `json:"horsepower,omitempty"`
	Torque          *string `json:"torque,omitempty"`
	Transmission    *string `json:"transmission,omitempty"`
	Drivetrain      *string `json:"drivetrain,omitempty"`
	FuelType        *string `json:"fuelType,omitempty"`
	SeatingCapacity *string `json:"seatingCapacity,omitempty"`
}

// MileagePatch is the partial form of Mileage
type MileagePatch struct {
	City     *string `json:"city,omitempty"`
	Highway  *string `json:"highway,omitempty"`
	Combined *string `json:"combined,omitempty"`
}

// EntryFromRecord maps a flat extraction record onto the nested catalog shape.
// It never assigns an ID and applies no defaults.
func EntryFromRecord(r VehicleRecord) CatalogEntry {
	features := make([]string, len(r.Features))
	copy(features, r.Features)

	return CatalogEntry{
		Name:          r.Name,
		Category:      r.Category,
		Price:         r.Price,
		OriginalPrice: r.MSRP,
		DealerCost:    r.DealerCost,
		Specs: Specs{
			Engine:          r.Engine,
			Horsepower:      r.Horsepower,
			Torque:          r.Torque,
			Transmission:    r.Transmission,
			Drivetrain:      r.Drivetrain,
			FuelType:        r.FuelType,
			SeatingCapacity: r.SeatingCapacity,
		},
		Mileage: Mileage{
			City:     r.CityMPG,
			Highway:  r.HighwayMPG,
			Combined: r.CombinedMPG,
		},
		Features:    features,
		Description: r.Description,
	}
}

// RecordFromEntry is the inverse of EntryFromRecord. Year and confidence are not
// part of a catalog entry and come back empty.
func RecordFromEntry(e CatalogEntry) VehicleRecord {
	features := make([]string, len(e.Features))
	copy(features, e.Features)

	return VehicleRecord{
		Name:            e.Name,
		Category:        e.Category,
		Price:           e.Price,
		MSRP:            e.OriginalPrice,
		DealerCost:      e.DealerCost,
		Engine:          e.Specs.Engine,
		Horsepower:      e.Specs.Horsepower,
		Torque:          e.Specs.Torque,
		Transmission:    e.Specs.Transmission,
		Drivetrain:      e.Specs.Drivetrain,
		FuelType:        e.Specs.FuelType,
		SeatingCapacity: e.Specs.SeatingCapacity,
		CityMPG:         e.Mileage.City,
		HighwayMPG:      e.Mileage.Highway,
		CombinedMPG:     e.Mileage.Combined,
		Features:        features,
		Description:     e.Description,
	}
}

// Apply merges the patch into e field by field, including nested groups.
func (p CatalogPatch) Apply(e *CatalogEntry) {
	assign(&e.Name, p.Name)
	assign(&e.Category, p.Category)
	assign(&e.Price, p.Price)
	assign(&e.OriginalPrice, p.OriginalPrice)
	assign(&e.DealerCost, p.DealerCost)
	assign(&e.Description, p.Description)
	assign(&e.Image, p.Image)
	if p.Features != nil {
		e.Features = append([]string{}, (*p.Features)...)
	}
	if s := p.Specs; s != nil {
		assign(&e.Specs.Engine, s.Engine)
		assign(&e.Specs.Horsepower, s.Horsepower)
		assign(&e.Specs.Torque, s.Torque)
		assign(&e.Specs.Transmission, s.Transmission)
		assign(&e.Specs.Drivetrain, s.Drivetrain)
		assign(&e.Specs.FuelType, s.FuelType)
		assign(&e.Specs.SeatingCapacity, s.SeatingCapacity)
	}
	if m := p.Mileage; m != nil {
		assign(&e.Mileage.City, m.City)
		assign(&e.Mileage.Highway, m.Highway)
		assign(&e.Mileage.Combined, m.Combined)
	}
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

var slugInvalidRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a vehicle name into a lowercase dash-separated path segment
func Slugify(name string) string {
	slug := slugInvalidRegex.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
