package budget

import "gonum.org/v1/gonum/mat"

// LocationSource is the content of a location budget store, where every
// location already has its own [timesteps x columns] dataset.
type LocationSource struct {
	Metadata

	Names []string
	// Areas is parallel to Names, in model units.
	Areas []float64
	// Headers include the leading Time header.
	Headers []string
	// ColumnTypes include the leading time column code.
	ColumnTypes    []int
	TitleTemplates []string
	Data           map[string]*mat.Dense
}

// LocationReportTable is the converted report of one location.
type LocationReportTable struct {
	Name    string
	Area    float64
	Titles  []string
	Headers []string
	Time    []string
	Data    *mat.Dense
}

// AssembleLocationReports converts every location dataset to report units and
// renders its title lines. Locations without a dataset are reported as
// diagnostics.
func AssembleLocationReports(src LocationSource, timesteps []Timestamp, f Factors, units Units) ([]LocationReportTable, []Diagnostic) {
	times := make([]string, len(timesteps))
	for i, ts := range timesteps {
		times[i] = ts.ReportDate()
	}

	var diagnostics []Diagnostic
	tables := make([]LocationReportTable, 0, len(src.Names))
	for i, name := range src.Names {
		raw, ok := src.Data[name]
		if !ok || raw == nil {
			diagnostics = append(diagnostics, Diagnostic{Label: name, Reason: ReasonLocationMissing})
			continue
		}
		var area float64
		if i < len(src.Areas) {
			area = src.Areas[i] * f.Area
		}
		data := TitleData{
			LocationName: name,
			Area:         area,
			AreaLabel:    units.AreaLabel(),
			VolumeLabel:  units.VolumeLabel(),
		}
		titles := make([]string, len(src.TitleTemplates))
		for j, tpl := range src.TitleTemplates {
			titles[j] = RenderTitle(tpl, data)
		}
		tables = append(tables, LocationReportTable{
			Name:    name,
			Area:    area,
			Titles:  titles,
			Headers: append([]string(nil), src.Headers...),
			Time:    append([]string(nil), times...),
			Data:    ConvertColumns(raw, src.ColumnTypes, f),
		})
	}
	return tables, diagnostics
}
