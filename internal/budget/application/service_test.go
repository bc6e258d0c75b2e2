package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
	"github.com/ucdavis/iwfm-sub003/internal/budget/infrastructure/memory"
)

const zoneFile = `C  zones
     1        / ZEXTENT
C  ZID  ZNAME
     1  North
     2  South
C  IE   ZONE
   101  1
   102  2
`

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingExporter struct {
	dir        string
	descriptor string
	tables     []budget.ZoneReportTable
	locations  []budget.LocationReportTable
	err        error
}

func (e *recordingExporter) Export(ctx context.Context, dir, descriptor string, tables []budget.ZoneReportTable) ([]string, error) {
	e.dir, e.descriptor, e.tables = dir, descriptor, tables
	if e.err != nil {
		return nil, e.err
	}
	return []string{filepath.Join(dir, "zone_1.csv")}, nil
}

func (e *recordingExporter) ExportLocations(ctx context.Context, dir, descriptor string, tables []budget.LocationReportTable) ([]string, error) {
	e.dir, e.descriptor, e.locations = dir, descriptor, tables
	return []string{filepath.Join(dir, "location_1.csv")}, nil
}

func writeZoneFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.dat")
	if err := os.WriteFile(path, []byte(zoneFile), 0o644); err != nil {
		t.Fatalf("write zone file: %v", err)
	}
	return path
}

func northSouthSource() budget.RawSource {
	return budget.RawSource{
		Metadata: budget.Metadata{
			NumElements:  2,
			NumLayers:    1,
			NumTimesteps: 2,
			StartDate:    "09/30/2000_24:00",
			DeltaT:       1,
			TimeUnit:     "1MON",
			Descriptor:   "IWFM Groundwater Zone Budget",
		},
		ElementIDs:   []int{101, 102},
		ElementAreas: []float64{100, 200},
		Labels:       []string{"Recharge_Inflow (+)", "Pumping_Outflow (-)"},
		ColumnMaps: map[int][][]int{
			1: {{1, 2}, {1, 2}},
		},
		Layers: map[int]map[string]*mat.Dense{
			1: {
				"Recharge_Inflow (+)": mat.NewDense(2, 2, []float64{10, 20, 11, 21}),
				"Pumping_Outflow (-)": mat.NewDense(2, 2, []float64{4, 5, 4, 6}),
			},
		},
	}
}

var unitFactors = budget.Factors{Area: 1, Volume: 1, Length: 1}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.SourceReader) {
	t.Helper()
	reader := memory.NewSourceReader()
	reader.PutZoneSource("gw.yaml", northSouthSource())
	base := []Option{
		WithClock(fixedClock{now: time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)}),
		WithIDGenerator(func() string { return "run-1" }),
	}
	svc, err := NewService(reader, nil, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, reader
}

func TestServiceRun(t *testing.T) {
	repo := memory.NewRunRepository()
	exporter := &recordingExporter{}
	svc, _ := newTestService(t, WithRepository(repo), WithExporter(exporter))

	outcome, err := svc.Run(context.Background(), Request{
		ZoneFile:  writeZoneFile(t),
		Source:    "gw.yaml",
		OutputDir: "out",
		Factors:   unitFactors,
		Units:     budget.DefaultUnits(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	north := outcome.Result.Budgets[1]
	if diff := cmp.Diff([]float64{10, 11}, north.In["Recharge"]); diff != "" {
		t.Fatalf("north recharge mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{6, 7}, north.Discrepancy); diff != "" {
		t.Fatalf("north discrepancy mismatch (-want +got):\n%s", diff)
	}
	if north.Area != 100 || outcome.Result.Budgets[2].Area != 200 {
		t.Fatalf("unexpected zone areas")
	}

	if outcome.Run.ID != "run-1" || len(outcome.Run.Tables) != 2 {
		t.Fatalf("unexpected run %+v", outcome.Run)
	}
	if outcome.Run.Tables[0].Titles[0] != "GROUNDWATER ZONE BUDGET IN AC.FT. FOR ZONE 1 (North)" {
		t.Fatalf("unexpected title %q", outcome.Run.Tables[0].Titles[0])
	}
	stored, err := repo.Get(context.Background(), "run-1")
	if err != nil || stored != outcome.Run {
		t.Fatalf("expected run persisted: %v", err)
	}

	if exporter.dir != "out" || exporter.descriptor != "IWFM Groundwater Zone Budget" || len(exporter.tables) != 2 {
		t.Fatalf("unexpected export call %+v", exporter)
	}
	if diff := cmp.Diff([]string{filepath.Join("out", "zone_1.csv")}, outcome.Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceRunDescriptorOverride(t *testing.T) {
	exporter := &recordingExporter{}
	svc, _ := newTestService(t, WithExporter(exporter))
	_, err := svc.Run(context.Background(), Request{
		ZoneFile:   writeZoneFile(t),
		Source:     "gw.yaml",
		OutputDir:  "out",
		Descriptor: "C2VSimFG v1.5",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if exporter.descriptor != "C2VSimFG v1.5" {
		t.Fatalf("expected request descriptor, got %q", exporter.descriptor)
	}
}

func TestServiceRunSkipsExportWithoutDir(t *testing.T) {
	exporter := &recordingExporter{}
	svc, _ := newTestService(t, WithExporter(exporter))
	outcome, err := svc.Run(context.Background(), Request{ZoneFile: writeZoneFile(t), Source: "gw.yaml"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if exporter.tables != nil || outcome.Files != nil {
		t.Fatalf("expected no export without output dir")
	}
}

func TestServiceRunDefaultsFactors(t *testing.T) {
	svc, _ := newTestService(t)
	outcome, err := svc.Run(context.Background(), Request{ZoneFile: writeZoneFile(t), Source: "gw.yaml"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	area := 100.0
	want := area * budget.DefaultConversionFactor
	if got := outcome.Result.Budgets[1].Area; got != want {
		t.Fatalf("expected default area factor, got %v want %v", got, want)
	}
	if outcome.Run.Units != budget.DefaultUnits() {
		t.Fatalf("expected default units, got %+v", outcome.Run.Units)
	}
}

func TestServiceRunReportsDiagnostics(t *testing.T) {
	svc, reader := newTestService(t)
	src := northSouthSource()
	src.Labels = append(src.Labels, "Streams_Inflow (+)")
	src.ColumnMaps[1] = append(src.ColumnMaps[1], []int{1, 2})
	reader.PutZoneSource("gw.yaml", src)

	outcome, err := svc.Run(context.Background(), Request{ZoneFile: writeZoneFile(t), Source: "gw.yaml", Factors: unitFactors})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []budget.Diagnostic{{Layer: 1, Label: "Streams_Inflow (+)", Reason: budget.ReasonDatasetMissing}}
	if diff := cmp.Diff(want, outcome.Run.Diagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0}, outcome.Result.Budgets[1].In["Streams"]); diff != "" {
		t.Fatalf("missing component must stay zero (-want +got):\n%s", diff)
	}
}

func TestServiceRunConfigurationErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Run(ctx, Request{Source: "gw.yaml"}); !errors.Is(err, budget.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing zone file, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.dat")
	if _, err := svc.Run(ctx, Request{ZoneFile: missing, Source: "gw.yaml"}); !errors.Is(err, budget.ErrConfiguration) {
		t.Fatalf("expected configuration error for unreadable zone file, got %v", err)
	}
	if _, err := svc.Run(ctx, Request{ZoneFile: writeZoneFile(t), Source: "other.yaml"}); !errors.Is(err, budget.ErrDataSource) {
		t.Fatalf("expected data source error, got %v", err)
	}
}

func TestServiceRunPropagatesExportError(t *testing.T) {
	exporter := &recordingExporter{err: errors.New("disk full")}
	svc, _ := newTestService(t, WithExporter(exporter))
	_, err := svc.Run(context.Background(), Request{ZoneFile: writeZoneFile(t), Source: "gw.yaml", OutputDir: "out"})
	if err == nil || !errors.Is(err, exporter.err) {
		t.Fatalf("expected export error, got %v", err)
	}
}

type recordingNotifier struct {
	events []RunEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, event RunEvent) error {
	n.events = append(n.events, event)
	return n.err
}

func TestServiceRunNotifies(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	svc, _ := newTestService(t, WithNotifier(notifier), WithExporter(&recordingExporter{}))
	outcome, err := svc.Run(context.Background(), Request{ZoneFile: writeZoneFile(t), Source: "gw.yaml", OutputDir: "out"})
	if err != nil {
		t.Fatalf("notification failure must not fail the run: %v", err)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Run != outcome.Run {
		t.Fatalf("expected event for run %s", outcome.Run.ID)
	}
	if diff := cmp.Diff(outcome.Files, event.Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestServiceRunLocations(t *testing.T) {
	reader := memory.NewSourceReader()
	reader.PutLocationSource("lwu.yaml", budget.LocationSource{
		Metadata: budget.Metadata{
			NumTimesteps: 2,
			StartDate:    "09/30/2000_24:00",
			DeltaT:       1,
			TimeUnit:     "1MON",
			Descriptor:   "IWFM Land and Water Use Budget",
		},
		Names:          []string{"Subregion 1"},
		Areas:          []float64{1000},
		Headers:        []string{"Time", "Ag. Pumping"},
		ColumnTypes:    []int{0, 1},
		TitleTemplates: []string{"LAND AND WATER USE BUDGET IN @UNITVL@ FOR @LOCNAME@"},
		Data:           map[string]*mat.Dense{"Subregion 1": mat.NewDense(2, 1, []float64{10, 12})},
	})
	exporter := &recordingExporter{}
	svc, err := NewService(reader, nil, WithLocationReader(reader), WithExporter(exporter))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	outcome, err := svc.RunLocations(context.Background(), Request{
		Source:    "lwu.yaml",
		OutputDir: "out",
		Factors:   budget.Factors{Area: 1, Volume: 2, Length: 1},
		Units:     budget.DefaultUnits(),
	})
	if err != nil {
		t.Fatalf("run locations: %v", err)
	}
	if len(outcome.Tables) != 1 || outcome.Tables[0].Data.At(1, 0) != 24 {
		t.Fatalf("unexpected location tables %+v", outcome.Tables)
	}
	if outcome.Tables[0].Titles[0] != "LAND AND WATER USE BUDGET IN AC.FT. FOR Subregion 1" {
		t.Fatalf("unexpected title %q", outcome.Tables[0].Titles[0])
	}
	if exporter.descriptor != "IWFM Land and Water Use Budget" || len(outcome.Files) != 1 {
		t.Fatalf("unexpected export %+v", exporter)
	}
}

func TestNewServiceRejectsNilReader(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatalf("expected error for nil source reader")
	}
}

func TestRunLocationsRequiresReader(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RunLocations(context.Background(), Request{Source: "lwu.yaml"}); err == nil {
		t.Fatalf("expected error without location reader")
	}
}
