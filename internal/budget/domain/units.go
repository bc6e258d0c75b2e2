package budget

import (
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DefaultConversionFactor converts square feet to acres and cubic feet to acre-feet.
const DefaultConversionFactor = 0.0000229568411

// ColumnType is the semantic type of a budget data column.
type ColumnType int

const (
	ColumnUnknown ColumnType = iota
	ColumnVolume
	ColumnArea
	ColumnStorage
	ColumnLength
)

// ColumnTypeFromCode maps legacy integer type codes to column types.
func ColumnTypeFromCode(code int) ColumnType {
	switch code {
	case 1:
		return ColumnVolume
	case 2:
		return ColumnArea
	case 3:
		return ColumnStorage
	case 4:
		return ColumnLength
	default:
		return ColumnUnknown
	}
}

func (c ColumnType) String() string {
	switch c {
	case ColumnVolume:
		return "VOLUME"
	case ColumnArea:
		return "AREA"
	case ColumnStorage:
		return "STORAGE"
	case ColumnLength:
		return "LENGTH"
	default:
		return "UNKNOWN"
	}
}

// Factors holds the model-to-report conversion factors.
type Factors struct {
	Area   float64
	Volume float64
	Length float64
}

// DefaultFactors converts feet-based model output to acres and acre-feet.
func DefaultFactors() Factors {
	return Factors{Area: DefaultConversionFactor, Volume: DefaultConversionFactor, Length: 1.0}
}

// For returns the factor applied to a column of type c. Unknown types use the
// volume factor.
func (f Factors) For(c ColumnType) float64 {
	switch c {
	case ColumnArea:
		return f.Area
	case ColumnLength:
		return f.Length
	default:
		return f.Volume
	}
}

// ConvertColumns scales every data column by the factor its type code selects.
// colTypes[0] belongs to the time column; colTypes[i+1] governs data column i.
// Columns without a code use the volume factor.
func ConvertColumns(data mat.Matrix, colTypes []int, f Factors) *mat.Dense {
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	out := mat.DenseCopyOf(data)
	scale := make([]float64, cols)
	for j := range scale {
		code := 0
		if j+1 < len(colTypes) {
			code = colTypes[j+1]
		}
		scale[j] = f.For(ColumnTypeFromCode(code))
	}
	out.Apply(func(_, j int, v float64) float64 { return v * scale[j] }, out)
	return out
}

// VolumeUnit is the family of a volume unit spelling.
type VolumeUnit int

const (
	VolumeOther VolumeUnit = iota
	VolumeAcreFeet
	VolumeAF
)

// ParseVolumeUnit maps legacy volume spellings to a unit family.
func ParseVolumeUnit(unit string) VolumeUnit {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "ACFT", "AC-FT", "ACRE-FT", "ACRE-FEET":
		return VolumeAcreFeet
	case "AF":
		return VolumeAF
	default:
		return VolumeOther
	}
}

// VolumeLabel renders the report label of a volume unit.
func VolumeLabel(unit string) string {
	switch ParseVolumeUnit(unit) {
	case VolumeAcreFeet:
		return "AC.FT."
	case VolumeAF:
		return "AF"
	default:
		return strings.ToUpper(unit)
	}
}

// AreaUnit is the family of an area unit spelling.
type AreaUnit int

const (
	AreaOther AreaUnit = iota
	AreaAcres
)

// ParseAreaUnit maps legacy area spellings to a unit family.
func ParseAreaUnit(unit string) AreaUnit {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "AC", "ACRES":
		return AreaAcres
	default:
		return AreaOther
	}
}

// AreaLabel renders the report label of an area unit.
func AreaLabel(unit string) string {
	if ParseAreaUnit(unit) == AreaAcres {
		return "AC"
	}
	return strings.ToUpper(unit)
}

// Units are the caller-selected report unit spellings.
type Units struct {
	Area   string
	Volume string
	Length string
}

// DefaultUnits matches DefaultFactors.
func DefaultUnits() Units {
	return Units{Area: "ACRES", Volume: "AC-FT", Length: "FEET"}
}

// AreaLabel returns the normalised area label.
func (u Units) AreaLabel() string { return AreaLabel(u.Area) }

// VolumeLabel returns the normalised volume label.
func (u Units) VolumeLabel() string { return VolumeLabel(u.Volume) }
