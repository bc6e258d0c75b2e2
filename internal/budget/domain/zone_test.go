package budget

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const horizontalZoneFile = `C*******************************************
C  Zone definition file
C*******************************************
     1                     / ZEXTENT
C-------------------------------------------
C   ZID    ZNAME
C-------------------------------------------
    1      North Basin
    2      South Basin  
    x      Broken
C-------------------------------------------
C   IE     ZONE
C-------------------------------------------
    101    1
    102    2
    103
    abc    1
`

const layeredZoneFile = `* per-layer zones
0
# ZID ZNAME
1 Upper Aquifer
2 Lower Aquifer
# IE LAYER ZONE
1 1 1
1 2 2
2 1 1
2 2
`

func TestParseZoneDefinitionHorizontal(t *testing.T) {
	def, err := ParseZoneDefinition(strings.NewReader(horizontalZoneFile))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Extent() != ExtentHorizontalPlane {
		t.Fatalf("expected horizontal plane, got %s", def.Extent())
	}
	if name, _ := def.ZoneName(2); name != "South Basin" {
		t.Fatalf("expected trimmed zone name, got %q", name)
	}
	if len(def.Zones()) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(def.Zones()))
	}
	if z, ok := def.ZoneOf(101, 3); !ok || z != 1 {
		t.Fatalf("expected element 101 in zone 1 for any layer, got %d %v", z, ok)
	}
	if _, ok := def.ZoneOf(103, 1); ok {
		t.Fatalf("element 103 row is malformed and must be skipped")
	}
	if def.Assignments() != 2 {
		t.Fatalf("expected 2 assignments, got %d", def.Assignments())
	}
}

func TestParseZoneDefinitionPerLayer(t *testing.T) {
	def, err := ParseZoneDefinition(strings.NewReader(layeredZoneFile))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Extent() != ExtentPerLayer {
		t.Fatalf("expected per layer, got %s", def.Extent())
	}
	if z, ok := def.ZoneOf(1, 2); !ok || z != 2 {
		t.Fatalf("expected (1,2) in zone 2, got %d %v", z, ok)
	}
	if _, ok := def.ZoneOf(2, 2); ok {
		t.Fatalf("short row must be skipped")
	}
	if def.Assignments() != 3 {
		t.Fatalf("expected 3 assignments, got %d", def.Assignments())
	}
}

func TestParseZoneDefinitionMissingExtent(t *testing.T) {
	_, err := ParseZoneDefinition(strings.NewReader("C only comments\n\n# nothing\n"))
	if !errors.Is(err, ErrExtentNotFound) {
		t.Fatalf("expected ZEXTENT not found, got %v", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseZoneDefinitionInvalidExtent(t *testing.T) {
	_, err := ParseZoneDefinition(strings.NewReader("2\n"))
	if !errors.Is(err, ErrInvalidExtent) {
		t.Fatalf("expected invalid extent, got %v", err)
	}
}

func TestLoadZoneDefinitionNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.dat")
	if err := os.WriteFile(path, []byte("C empty\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadZoneDefinition(path)
	if !errors.Is(err, ErrExtentNotFound) {
		t.Fatalf("expected ZEXTENT not found, got %v", err)
	}
	if !strings.Contains(err.Error(), path) || !strings.Contains(err.Error(), "ZEXTENT") {
		t.Fatalf("expected file and marker in message, got %q", err.Error())
	}

	_, err = LoadZoneDefinition(filepath.Join(t.TempDir(), "missing.dat"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for unreadable file, got %v", err)
	}
}

func TestZoneIDsIncludesReferencedZones(t *testing.T) {
	def := NewHorizontalZoneDefinition(map[int]string{2: "B"}, map[int]int{1: 5, 2: 2})
	ids := def.ZoneIDs()
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("expected [2 5], got %v", ids)
	}
}
