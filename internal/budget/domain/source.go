package budget

import "gonum.org/v1/gonum/mat"

// Metadata is the scalar description of a model run read from the store.
type Metadata struct {
	NumElements  int
	NumLayers    int
	NumTimesteps int
	StartDate    string
	DeltaT       float64
	TimeUnit     string
	Descriptor   string
}

// Timesteps generates the period-end sequence described by the metadata.
func (m Metadata) Timesteps() ([]Timestamp, error) {
	return GenerateTimestepsFrom(m.StartDate, m.NumTimesteps, m.DeltaT, m.TimeUnit)
}

// RawSource is the read-only content of a zone budget store.
type RawSource struct {
	Metadata

	// ElementIDs holds the element id of every array position. When empty,
	// position i holds element i+1.
	ElementIDs []int
	// ElementAreas is parallel to the element positions.
	ElementAreas []float64
	// Labels are the raw component/direction labels in store order.
	Labels []string
	// ColumnMaps holds, per layer, a [label][element position] table of 1-based data
	// column numbers. Zero means the element has no data for that label.
	ColumnMaps map[int][][]int
	// Layers holds, per layer, the [timesteps x data columns] dataset of
	// every label.
	Layers map[int]map[string]*mat.Dense
}

// Dataset returns the dataset stored under Layer_<layer>/<label>.
func (s RawSource) Dataset(layer int, label string) (*mat.Dense, bool) {
	group, ok := s.Layers[layer]
	if !ok {
		return nil, false
	}
	data, ok := group[label]
	if !ok || data == nil {
		return nil, false
	}
	return data, true
}

func (s RawSource) elementCount() int {
	if s.NumElements > 0 {
		return s.NumElements
	}
	if len(s.ElementIDs) > 0 {
		return len(s.ElementIDs)
	}
	return len(s.ElementAreas)
}

func (s RawSource) elementID(pos int) int {
	if pos < len(s.ElementIDs) {
		return s.ElementIDs[pos]
	}
	return pos + 1
}

func (s RawSource) layerCount() int {
	if s.NumLayers > 0 {
		return s.NumLayers
	}
	return 1
}

// Scaled returns a copy of the source with areas and flow datasets converted
// to report units. Zone budget datasets are volumetric throughout.
func (s RawSource) Scaled(f Factors) RawSource {
	out := s
	out.ElementAreas = make([]float64, len(s.ElementAreas))
	for i, a := range s.ElementAreas {
		out.ElementAreas[i] = a * f.Area
	}
	out.Layers = make(map[int]map[string]*mat.Dense, len(s.Layers))
	for layer, group := range s.Layers {
		scaled := make(map[string]*mat.Dense, len(group))
		for label, data := range group {
			if data == nil {
				continue
			}
			scaled[label] = ConvertColumns(data, nil, f)
		}
		out.Layers[layer] = scaled
	}
	return out
}
