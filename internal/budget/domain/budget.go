package budget

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ZoneBudget is the inflow/outflow time series of one zone.
type ZoneBudget struct {
	ZoneID   int
	ZoneName string
	Area     float64
	// Components lists component names in report order.
	Components  []string
	In          map[string][]float64
	Out         map[string][]float64
	Discrepancy []float64
}

// AbsoluteStorage returns IN - OUT of the first storage component, or nil
// when the budget has none.
func (b *ZoneBudget) AbsoluteStorage() []float64 {
	for _, name := range b.Components {
		if IsStorageComponent(name) {
			return storageSeries(b.In[name], b.Out[name])
		}
	}
	return nil
}

// IsStorageComponent reports whether a component holds storage change.
func IsStorageComponent(name string) bool {
	return strings.Contains(strings.ToUpper(name), "STORAGE")
}

func storageSeries(in, out []float64) []float64 {
	storage := make([]float64, len(in))
	for t := range in {
		storage[t] = in[t] - out[t]
	}
	return storage
}

// Diagnostic records a non-fatal data source gap.
type Diagnostic struct {
	Layer int
	Label string
	// Reason is one of the Reason constants.
	Reason string
	Detail string
}

const (
	ReasonLayerMissing     = "layer group missing"
	ReasonColumnMapMissing = "element column map missing"
	ReasonDatasetMissing   = "dataset missing"
	ReasonShapeMismatch    = "dataset row count does not match timesteps"
	ReasonLocationMissing  = "location dataset missing"
)

// Result is the output of one aggregation run.
type Result struct {
	Extent      ExtentMode
	Components  []Component
	Budgets     map[int]*ZoneBudget
	Diagnostics []Diagnostic
	Timesteps   int
}

// ZoneIDs returns the budget zone ids in ascending order.
func (r *Result) ZoneIDs() []int {
	ids := make([]int, 0, len(r.Budgets))
	for id := range r.Budgets {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ComponentNames returns the component names in report order.
func (r *Result) ComponentNames() []string {
	names := make([]string, len(r.Components))
	for i, c := range r.Components {
		names[i] = c.Name
	}
	return names
}

// ZoneColumnTotals holds the whole-period sums of selected report columns.
type ZoneColumnTotals struct {
	ZoneID int
	Totals []float64
}

// ColumnTotals sums each zone's series over all timesteps for 1-based report
// column ids: 1 is the first component IN, 2 its OUT, 3 the second component
// IN and so on. Ids outside the component range total zero.
func (r *Result) ColumnTotals(colIDs []int) []ZoneColumnTotals {
	out := make([]ZoneColumnTotals, 0, len(r.Budgets))
	for _, id := range r.ZoneIDs() {
		b := r.Budgets[id]
		row := ZoneColumnTotals{ZoneID: id, Totals: make([]float64, len(colIDs))}
		for i, col := range colIDs {
			if col < 1 {
				continue
			}
			ci := (col - 1) / 2
			if ci >= len(b.Components) {
				continue
			}
			series := b.In[b.Components[ci]]
			if (col-1)%2 == 1 {
				series = b.Out[b.Components[ci]]
			}
			row.Totals[i] = floats.Sum(series)
		}
		out = append(out, row)
	}
	return out
}
