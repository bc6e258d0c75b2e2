package budget

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// table is the (zone, component, direction, timestep) accumulation grid.
// Slots are fixed when the table is built so accumulation never creates keys.
type table struct {
	zones      []int
	slot       map[int]int
	components int
	timesteps  int
	values     []float64
}

func newTable(zoneIDs []int, components, timesteps int) *table {
	t := &table{
		zones:      zoneIDs,
		slot:       make(map[int]int, len(zoneIDs)),
		components: components,
		timesteps:  timesteps,
		values:     make([]float64, len(zoneIDs)*components*2*timesteps),
	}
	for i, id := range zoneIDs {
		t.slot[id] = i
	}
	return t
}

func (t *table) series(zone, component int, dir Direction) []float64 {
	off := ((zone*t.components+component)*2 + int(dir)) * t.timesteps
	return t.values[off : off+t.timesteps : off+t.timesteps]
}

// Aggregate accumulates per-element flow series into zone budgets.
//
// Missing layers and datasets are reported as diagnostics and skipped.
// Elements without a zone, and column map entries of zero, contribute nothing.
func Aggregate(def *ZoneDefinition, timesteps []Timestamp, src RawSource) (*Result, error) {
	if def == nil {
		return nil, ErrNilZoneDefinition
	}
	nt := len(timesteps)
	if nt < 1 {
		return nil, ErrInvalidTimestepCount
	}

	components, labelComponent := DiscoverComponents(src.Labels)
	labels := make([]Label, len(src.Labels))
	for i, raw := range src.Labels {
		labels[i] = ParseLabel(raw)
	}

	zoneIDs := def.ZoneIDs()
	acc := newTable(zoneIDs, len(components), nt)
	areas := zoneAreas(def, src, acc)

	nElements := src.elementCount()
	column := make([]float64, nt)
	var diagnostics []Diagnostic
	for layer := 1; layer <= src.layerCount(); layer++ {
		if _, ok := src.Layers[layer]; !ok {
			diagnostics = append(diagnostics, Diagnostic{Layer: layer, Reason: ReasonLayerMissing})
			continue
		}
		colMap, ok := src.ColumnMaps[layer]
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{Layer: layer, Reason: ReasonColumnMapMissing})
			continue
		}

		for li, label := range labels {
			data, ok := src.Dataset(layer, label.Raw)
			if !ok {
				diagnostics = append(diagnostics, Diagnostic{Layer: layer, Label: label.Raw, Reason: ReasonDatasetMissing})
				continue
			}
			rows, cols := data.Dims()
			if rows != nt {
				diagnostics = append(diagnostics, Diagnostic{
					Layer:  layer,
					Label:  label.Raw,
					Reason: ReasonShapeMismatch,
					Detail: fmt.Sprintf("%d rows, %d timesteps", rows, nt),
				})
				continue
			}
			if li >= len(colMap) {
				continue
			}
			elementCols := colMap[li]
			ci := labelComponent[li]
			for e := 0; e < nElements && e < len(elementCols); e++ {
				c := elementCols[e]
				if c <= 0 || c > cols {
					continue
				}
				zone, ok := def.ZoneOf(src.elementID(e), layer)
				if !ok {
					continue
				}
				mat.Col(column, c-1, data)
				floats.Add(acc.series(acc.slot[zone], ci, label.Direction), column)
			}
		}
	}

	res := &Result{
		Extent:      def.Extent(),
		Components:  components,
		Budgets:     make(map[int]*ZoneBudget, len(zoneIDs)),
		Diagnostics: diagnostics,
		Timesteps:   nt,
	}
	for slot, id := range zoneIDs {
		res.Budgets[id] = buildBudget(def, acc, slot, id, components, areas[slot])
	}
	return res, nil
}

func zoneAreas(def *ZoneDefinition, src RawSource, acc *table) []float64 {
	areas := make([]float64, len(acc.zones))
	nLayers := src.layerCount()
	for e := 0; e < src.elementCount(); e++ {
		var area float64
		if e < len(src.ElementAreas) {
			area = src.ElementAreas[e]
		}
		if def.Extent() == ExtentHorizontalPlane {
			if zone, ok := def.ZoneOf(src.elementID(e), 0); ok {
				areas[acc.slot[zone]] += area
			}
			continue
		}
		share := area / float64(nLayers)
		for layer := 1; layer <= nLayers; layer++ {
			if zone, ok := def.ZoneOf(src.elementID(e), layer); ok {
				areas[acc.slot[zone]] += share
			}
		}
	}
	return areas
}

func buildBudget(def *ZoneDefinition, acc *table, slot, id int, components []Component, area float64) *ZoneBudget {
	name, ok := def.ZoneName(id)
	if !ok {
		name = fmt.Sprintf("Zone%d", id)
	}
	b := &ZoneBudget{
		ZoneID:      id,
		ZoneName:    name,
		Area:        area,
		Components:  make([]string, len(components)),
		In:          make(map[string][]float64, len(components)),
		Out:         make(map[string][]float64, len(components)),
		Discrepancy: make([]float64, acc.timesteps),
	}
	totalOut := make([]float64, acc.timesteps)
	for ci, c := range components {
		in := append([]float64(nil), acc.series(slot, ci, DirectionIn)...)
		out := append([]float64(nil), acc.series(slot, ci, DirectionOut)...)
		b.Components[ci] = c.Name
		b.In[c.Name] = in
		b.Out[c.Name] = out
		floats.Add(b.Discrepancy, in)
		floats.Add(totalOut, out)
	}
	floats.Sub(b.Discrepancy, totalOut)
	return b
}
