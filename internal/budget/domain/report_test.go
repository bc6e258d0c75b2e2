package budget

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssembleReportsLayout(t *testing.T) {
	ts := mustTimesteps(t, 3)
	src := twoLayerSource()
	src.Labels = append(src.Labels, "GW Storage_Inflow (+)")
	src.ColumnMaps[1] = append(src.ColumnMaps[1], []int{1, 1, 1, 1})
	src.Layers[1]["GW Storage_Inflow (+)"] = src.Layers[1]["Recharge_Inflow (+)"]
	res, err := Aggregate(horizontalDef(), ts, src)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	tables := AssembleReports(res, ts, Units{Area: "ACRES", Volume: "AC-FT"})
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	wantHeaders := []string{
		"Time",
		"Recharge_IN", "Recharge_OUT",
		"Pumping_IN", "Pumping_OUT",
		"GW Storage_IN", "GW Storage_OUT",
		"Discrepancy",
	}
	a := tables[0]
	if diff := cmp.Diff(wantHeaders, a.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if len(a.Columns) != len(wantHeaders)-1 {
		t.Fatalf("expected %d value columns, got %d", len(wantHeaders)-1, len(a.Columns))
	}
	if a.Rows() != 3 || a.Time[0] != "09/30/2000" || a.Time[2] != "11/30/2000" {
		t.Fatalf("unexpected time column %v", a.Time)
	}
	wantLabels := []string{"10/01/2000_24:00", "11/01/2000_24:00", "12/01/2000_24:00"}
	if diff := cmp.Diff(wantLabels, a.Labels); diff != "" {
		t.Fatalf("timestep labels mismatch (-want +got):\n%s", diff)
	}
	if a.Label(2) != "12/01/2000_24:00" {
		t.Fatalf("unexpected label %q", a.Label(2))
	}
	if a.Columns[0][0] != 301.5 {
		t.Fatalf("expected first recharge value 301.5, got %v", a.Columns[0][0])
	}
	if got := a.Row(0)[len(a.Columns)-1]; got != res.Budgets[1].Discrepancy[0] {
		t.Fatalf("expected discrepancy column last, got %v", got)
	}
	if a.AbsoluteStorage == nil || a.AbsoluteStorage[0] != 200 {
		t.Fatalf("expected absolute storage 200, got %v", a.AbsoluteStorage)
	}

	wantTitles := [3]string{
		"GROUNDWATER ZONE BUDGET IN AC.FT. FOR ZONE 1 (A)",
		"ZONE AREA: 300.00 AC",
		strings.Repeat("-", 80),
	}
	if a.Titles != wantTitles {
		t.Fatalf("unexpected titles %q", a.Titles)
	}

	a.Columns[0][0] = -1
	if res.Budgets[1].In["Recharge"][0] == -1 {
		t.Fatalf("tables must not alias budget series")
	}
}

func TestRenderTitlePlaceholders(t *testing.T) {
	got := RenderTitle("@LOCNAME@ BUDGET (@UNITVL@) AREA @AREA@ @UNITAR@", TitleData{
		LocationName: "Sub-basin 7",
		Area:         1234567.891,
		AreaLabel:    AreaLabel("acres"),
		VolumeLabel:  VolumeLabel("af"),
	})
	want := "Sub-basin 7 BUDGET (AF) AREA 1,234,567.89 AC"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatArea(t *testing.T) {
	cases := map[float64]string{
		0:         "0.00",
		10:        "10.00",
		999.5:     "999.50",
		1000:      "1,000.00",
		-25000.25: "-25,000.25",
		72422.905: "72,422.90",
		54109.985: "54,109.99",
		0.015:     "0.01",
		0.125:     "0.12",
		1234567.8: "1,234,567.80",
		-0.001:    "-0.00",
	}
	for in, want := range cases {
		if got := FormatArea(in); got != want {
			t.Fatalf("%v: expected %q, got %q", in, want, got)
		}
	}
}

func TestDeriveAbsoluteStorageMatchesBudget(t *testing.T) {
	ts := mustTimesteps(t, 3)
	src := twoLayerSource()
	src.Labels = append(src.Labels, "GW Storage_Inflow (+)")
	src.ColumnMaps[1] = append(src.ColumnMaps[1], []int{1, 1, 1, 1})
	src.Layers[1]["GW Storage_Inflow (+)"] = src.Layers[1]["Recharge_Inflow (+)"]
	res, err := Aggregate(horizontalDef(), ts, src)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	for _, table := range AssembleReports(res, ts, DefaultUnits()) {
		if diff := cmp.Diff(table.AbsoluteStorage, table.DeriveAbsoluteStorage()); diff != "" {
			t.Fatalf("zone %d storage mismatch (-assembled +derived):\n%s", table.ZoneID, diff)
		}
	}

	plain := ZoneReportTable{Components: []string{"Recharge"}, Columns: [][]float64{{1}, {2}, {-1}}}
	if plain.DeriveAbsoluteStorage() != nil {
		t.Fatalf("expected nil storage without a storage component")
	}
}

func TestZoneReportTableLabelFallsBackToDate(t *testing.T) {
	table := ZoneReportTable{Time: []string{"09/30/2000"}}
	if got := table.Label(0); got != "09/30/2000" {
		t.Fatalf("expected report date fallback, got %q", got)
	}
}
