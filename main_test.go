package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("ZBUDGET_CONFIG", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestTimestepsCommand(t *testing.T) {
	out := execute(t, "timesteps", "10/31/1973_24:00", "3")
	want := []string{"11/01/1973_24:00", "12/01/1973_24:00", "01/01/1974_24:00"}
	if diff := cmp.Diff(want, strings.Fields(out)); diff != "" {
		t.Fatalf("timesteps mismatch (-want +got):\n%s", diff)
	}
}

func TestZonesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.dat")
	content := "C zones\n 1 / ZEXTENT\nC ZID ZNAME\n 1 North\nC IE ZONE\n 10 1\n 11 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write zones: %v", err)
	}
	out := execute(t, "zones", path)
	for _, want := range []string{"extent: HORIZONTAL_PLANE", "assignments: 2", "North", "Zone2 (unnamed)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestColumnsCommand(t *testing.T) {
	testdata := filepath.Join("internal", "budget", "infrastructure", "snapshot", "testdata")
	out := execute(t, "columns",
		"--zones", filepath.Join(testdata, "zones.dat"),
		"--source", filepath.Join(testdata, "gw_zbudget.yaml"),
		"--area-factor", "1", "--volume-factor", "1", "--length-factor", "1",
		"--cols", "1,6",
	)
	rows := map[string][]string{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 {
			rows[fields[0]] = fields[1:]
		}
	}
	if diff := cmp.Diff([]string{"68.00", "28.00"}, rows["1"]); diff != "" {
		t.Fatalf("north totals mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCommandWithoutDatabase(t *testing.T) {
	t.Setenv("ZBUDGET_DATABASE_URL", "")
	t.Setenv("ZBUDGET_NOTIFY_WEBHOOK", "")
	t.Setenv("ZBUDGET_METRICS_TEXTFILE", "")
	testdata := filepath.Join("internal", "budget", "infrastructure", "snapshot", "testdata")
	dir := t.TempDir()
	out := execute(t, "run",
		"--zones", filepath.Join(testdata, "zones.dat"),
		"--source", filepath.Join(testdata, "gw_zbudget.yaml"),
		"--out", dir,
		"--format", "csv",
	)
	if !strings.Contains(out, ": 2 zones, 2 timesteps, 1 diagnostics") {
		t.Fatalf("unexpected run summary:\n%s", out)
	}
	for _, name := range []string{"zone_1.csv", "zone_2.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}
