package budget

// TimeHeader and DiscrepancyHeader frame every zone report table.
const (
	TimeHeader        = "Time"
	DiscrepancyHeader = "Discrepancy"
)

// ZoneReportTable is the assembled report of one zone.
type ZoneReportTable struct {
	ZoneID   int
	ZoneName string
	Area     float64
	Titles   [3]string
	// Headers are Time, <C>_IN, <C>_OUT, ..., Discrepancy.
	Headers    []string
	Components []string
	// Time holds the report dates (MM/DD/YYYY).
	Time []string
	// Labels holds the timestep labels (MM/DD/YYYY_24:00) in Time order.
	Labels []string
	// Columns holds one series per header after Time.
	Columns [][]float64
	// AbsoluteStorage is nil when the zone has no storage component.
	AbsoluteStorage []float64
}

// Rows returns the number of timesteps in the table.
func (t ZoneReportTable) Rows() int { return len(t.Time) }

// Label returns the timestep label of row i, falling back to the report date
// for tables built without labels.
func (t ZoneReportTable) Label(i int) string {
	if i < len(t.Labels) {
		return t.Labels[i]
	}
	return t.Time[i]
}

// Row returns the numeric values of one timestep in header order.
func (t ZoneReportTable) Row(i int) []float64 {
	row := make([]float64, len(t.Columns))
	for j, col := range t.Columns {
		row[j] = col[i]
	}
	return row
}

// DeriveAbsoluteStorage recomputes the absolute storage series from the
// storage component columns. It returns nil when there is no storage component.
func (t ZoneReportTable) DeriveAbsoluteStorage() []float64 {
	for i, name := range t.Components {
		if !IsStorageComponent(name) || 2*i+1 >= len(t.Columns) {
			continue
		}
		return storageSeries(t.Columns[2*i], t.Columns[2*i+1])
	}
	return nil
}

// ReportHeaders builds the ordered column headers for components.
func ReportHeaders(components []string) []string {
	headers := make([]string, 0, 2*len(components)+2)
	headers = append(headers, TimeHeader)
	for _, c := range components {
		headers = append(headers, c+DirectionIn.Suffix(), c+DirectionOut.Suffix())
	}
	return append(headers, DiscrepancyHeader)
}

// AssembleReports builds one table per zone in ascending zone id order.
func AssembleReports(res *Result, timesteps []Timestamp, units Units) []ZoneReportTable {
	if res == nil {
		return nil
	}
	times := make([]string, len(timesteps))
	labels := make([]string, len(timesteps))
	for i, ts := range timesteps {
		times[i] = ts.ReportDate()
		labels[i] = ts.String()
	}
	components := res.ComponentNames()
	headers := ReportHeaders(components)

	tables := make([]ZoneReportTable, 0, len(res.Budgets))
	for _, id := range res.ZoneIDs() {
		b := res.Budgets[id]
		t := ZoneReportTable{
			ZoneID:          id,
			ZoneName:        b.ZoneName,
			Area:            b.Area,
			Headers:         append([]string(nil), headers...),
			Components:      append([]string(nil), components...),
			Time:            append([]string(nil), times...),
			Labels:          append([]string(nil), labels...),
			Columns:         make([][]float64, 0, len(headers)-1),
			AbsoluteStorage: b.AbsoluteStorage(),
		}
		for _, c := range components {
			t.Columns = append(t.Columns,
				append([]float64(nil), b.In[c]...),
				append([]float64(nil), b.Out[c]...),
			)
		}
		t.Columns = append(t.Columns, append([]float64(nil), b.Discrepancy...))

		data := TitleData{
			LocationName: b.ZoneName,
			Area:         b.Area,
			AreaLabel:    units.AreaLabel(),
			VolumeLabel:  units.VolumeLabel(),
		}
		for i, tpl := range ZoneTitleTemplates(id) {
			t.Titles[i] = RenderTitle(tpl, data)
		}
		tables = append(tables, t)
	}
	return tables
}
