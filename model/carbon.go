package model

// Footprint band upper bounds in kilograms of CO2, inclusive.
const (
	LowThresholdKg    = 1.0
	MediumThresholdKg = 5.0
)

// Category is an ordered carbon footprint band.
type Category int

// Footprint bands, from best to worst.
const (
	CategoryZero Category = iota
	CategoryLow
	CategoryMedium
	CategoryHigh
)

// Classify maps a CO2 value in kilograms to its band. Upper bounds are
// inclusive: 1.0 is Low and 5.0 is Medium. Zero is an exact comparison;
// negative inputs are treated as zero.
func Classify(kg float64) Category {
	switch {
	case kg <= 0:
		return CategoryZero
	case kg <= LowThresholdKg:
		return CategoryLow
	case kg <= MediumThresholdKg:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// GramsToKilograms converts an emission factor expressed in grams per
// kilometre into the kilogram value stored on a footprint.
func GramsToKilograms(g float64) float64 {
	return g / 1000
}

var categoryInfo = [...]struct {
	label, color, emoji string
}{
	CategoryZero:   {"Zero emission", "green", "🌱"},
	CategoryLow:    {"Low", "light-green", "🍃"},
	CategoryMedium: {"Medium", "orange", "⚠️"},
	CategoryHigh:   {"High", "red", "🔥"},
}

func (c Category) valid() bool {
	return c >= CategoryZero && c <= CategoryHigh
}

// Label returns the display label of the band.
func (c Category) Label() string {
	if !c.valid() {
		return "Unknown"
	}
	return categoryInfo[c].label
}

// Color returns the display color token of the band.
func (c Category) Color() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].color
}

// Emoji returns the emoji shown next to the band.
func (c Category) Emoji() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].emoji
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return c.Label()
}
