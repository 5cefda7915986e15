package domain

// VehicleRecord is the flat result of running the field extractor over one artifact.
// Every unset field is the empty string.
type VehicleRecord struct {
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Year            string   `json:"year"`
	Price           string   `json:"price"`
	MSRP            string   `json:"msrp"`
	DealerCost      string   `json:"dealerCost"`
	Engine          string   `json:"engine"`
	Horsepower      string   `json:"horsepower"`
	Torque          string   `json:"torque"`
	CityMPG         string   `json:"cityMPG"`
	HighwayMPG      string   `json:"highwayMPG"`
	CombinedMPG     string   `json:"combinedMPG"`
	Transmission    string   `json:"transmission"`
	Drivetrain      string   `json:"drivetrain"`
	FuelType        string   `json:"fuelType"`
	SeatingCapacity string   `json:"seatingCapacity"`
	Features        []string `json:"features"`
	Description     string   `json:"description"`
	Confidence      int      `json:"confidence"`
}

// Field names a single scalar slot of a VehicleRecord.
type Field string

const (
	FieldName            Field = "name"
	FieldCategory        Field = "category"
	FieldYear            Field = "year"
	FieldPrice           Field = "price"
	FieldMSRP            Field = "msrp"
	FieldDealerCost      Field = "dealerCost"
	FieldEngine          Field = "engine"
	FieldHorsepower      Field = "horsepower"
	FieldTorque          Field = "torque"
	FieldCityMPG         Field = "cityMPG"
	FieldHighwayMPG      Field = "highwayMPG"
	FieldCombinedMPG     Field = "combinedMPG"
	FieldTransmission    Field = "transmission"
	FieldDrivetrain      Field = "drivetrain"
	FieldFuelType        Field = "fuelType"
	FieldSeatingCapacity Field = "seatingCapacity"
	FieldDescription     Field = "description"
)

// Fields lists every scalar field in record order.
var Fields = []Field{
	FieldName, FieldCategory, FieldYear, FieldPrice, FieldMSRP, FieldDealerCost,
	FieldEngine, FieldHorsepower, FieldTorque, FieldCityMPG, FieldHighwayMPG, FieldCombinedMPG,
	FieldTransmission, FieldDrivetrain, FieldFuelType, FieldSeatingCapacity, FieldDescription,
}

// NewVehicleRecord returns an all-empty record with a non-nil feature list.
func NewVehicleRecord() VehicleRecord {
	return VehicleRecord{Features: []string{}}
}

// Get returns the value of a scalar field.
func (r *VehicleRecord) Get(f Field) string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return ""
}

// Missing returns the scalar fields no rule filled, in record order.
func (r *VehicleRecord) Missing() []Field {
	missing := []Field{}
	for _, f := range Fields {
		if r.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// SetIfEmpty stores value in f unless the field already holds a value.
// It reports whether the value was stored.
func (r *VehicleRecord) SetIfEmpty(f Field, value string) bool {
	p := r.slot(f)
	if p == nil || *p != "" || value == "" {
		return false
	}
	*p = value
	return true
}

// AddFeature appends a feature tag if it is not already present.
func (r *VehicleRecord) AddFeature(feature string) {
	for _, existing := range r.Features {
		if existing == feature {
			return
		}
	}
	r.Features = append(r.Features, feature)
}

func (r *VehicleRecord) slot(f Field) *string {
	switch f {
	case FieldName:
		return &r.Name
	case FieldCategory:
		return &r.Category
	case FieldYear:
		return &r.Year
	case FieldPrice:
		return &r.Price
	case FieldMSRP:
		return &r.MSRP
	case FieldDealerCost:
		return &r.DealerCost
	case FieldEngine:
		return &r.Engine
	case FieldHorsepower:
		return &r.Horsepower
	case FieldTorque:
		return &r.Torque
	case FieldCityMPG:
		return &r.CityMPG
	case FieldHighwayMPG:
		return &r.HighwayMPG
	case FieldCombinedMPG:
		return &r.CombinedMPG
	case FieldTransmission:
		return &r.Transmission
	case FieldDrivetrain:
		return &r.Drivetrain
	case FieldFuelType:
		return &r.FuelType
	case FieldSeatingCapacity:
		return &r.SeatingCapacity
	case FieldDescription:
		return &r.Description
	}
	return nil
}

// MediaType identifies how an artifact is decoded into raw text.
type MediaType string

const (
	MediaText        MediaType = "text"
	MediaCSV         MediaType = "csv"
	MediaSpreadsheet MediaType = "spreadsheet"
	MediaDocument    MediaType = "document"
	MediaPDF         MediaType = "pdf"
	MediaImage       MediaType = "image"
	MediaWebpage     MediaType = "webpage"
	MediaUnknown     MediaType = ""
)

// RawDocument is a transient artifact submitted for extraction.
// Path points at the uploaded bytes on disk; for webpages it is the URL.
type RawDocument struct {
	Path      string
	MediaType MediaType
	Name      string
}

// ExtractionResult is one successful extraction inside a batch.
type ExtractionResult struct {
	File      string        `json:"file"`
	Method    string        `json:"method"`
	Corrupted bool          `json:"ocrCorrupted,omitempty"`
	Record    VehicleRecord `json:"record"`
}

// ExtractionFailure is one failed artifact inside a batch.
type ExtractionFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ExtractionSummary is always returned for a batch, whatever the individual outcomes.
type ExtractionSummary struct {
	Results []ExtractionResult  `json:"results"`
	Errors  []ExtractionFailure `json:"errors"`
}
