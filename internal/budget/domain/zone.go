package budget

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ExtentMode tells whether zones span the full vertical column or are
// assigned per model layer.
type ExtentMode int

const (
	ExtentPerLayer        ExtentMode = 0
	ExtentHorizontalPlane ExtentMode = 1
)

func (m ExtentMode) String() string {
	if m == ExtentHorizontalPlane {
		return "HORIZONTAL_PLANE"
	}
	return "PER_LAYER"
}

// ElementLayer addresses one element in one model layer.
type ElementLayer struct {
	Element int
	Layer   int
}

// ZoneDefinition maps elements (or element/layer pairs) to named zones.
// It is immutable once built.
type ZoneDefinition struct {
	extent  ExtentMode
	zones   map[int]string
	planar  map[int]int
	layered map[ElementLayer]int
}

// NewHorizontalZoneDefinition builds a definition whose zones apply to every layer.
func NewHorizontalZoneDefinition(zones map[int]string, elements map[int]int) *ZoneDefinition {
	def := &ZoneDefinition{
		extent: ExtentHorizontalPlane,
		zones:  copyZoneNames(zones),
		planar: make(map[int]int, len(elements)),
	}
	for e, z := range elements {
		def.planar[e] = z
	}
	return def
}

// NewLayeredZoneDefinition builds a definition with separate assignments per layer.
func NewLayeredZoneDefinition(zones map[int]string, elements map[ElementLayer]int) *ZoneDefinition {
	def := &ZoneDefinition{
		extent:  ExtentPerLayer,
		zones:   copyZoneNames(zones),
		layered: make(map[ElementLayer]int, len(elements)),
	}
	for k, z := range elements {
		def.layered[k] = z
	}
	return def
}

// Extent returns the zone extent mode.
func (d *ZoneDefinition) Extent() ExtentMode { return d.extent }

// ZoneOf resolves the zone of an element in a layer. The layer is ignored in
// horizontal-plane mode. Unassigned elements report false.
func (d *ZoneDefinition) ZoneOf(element, layer int) (int, bool) {
	if d.extent == ExtentHorizontalPlane {
		z, ok := d.planar[element]
		return z, ok
	}
	z, ok := d.layered[ElementLayer{Element: element, Layer: layer}]
	return z, ok
}

// ZoneName returns the configured name of a zone.
func (d *ZoneDefinition) ZoneName(id int) (string, bool) {
	name, ok := d.zones[id]
	return name, ok
}

// Zones returns a copy of the zone id to name table.
func (d *ZoneDefinition) Zones() map[int]string { return copyZoneNames(d.zones) }

// Assignments returns the number of element (or element/layer) assignments.
func (d *ZoneDefinition) Assignments() int {
	if d.extent == ExtentHorizontalPlane {
		return len(d.planar)
	}
	return len(d.layered)
}

// ZoneIDs returns every zone id that is named or referenced by an assignment,
// in ascending order.
func (d *ZoneDefinition) ZoneIDs() []int {
	seen := make(map[int]struct{}, len(d.zones))
	for id := range d.zones {
		seen[id] = struct{}{}
	}
	for _, z := range d.planar {
		seen[z] = struct{}{}
	}
	for _, z := range d.layered {
		seen[z] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// LoadZoneDefinition reads a zone definition file from disk.
func LoadZoneDefinition(path string) (*ZoneDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: zone file %s: %v", ErrConfiguration, path, err)
	}
	defer f.Close()

	def, err := ParseZoneDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("zone file %s: %w", path, err)
	}
	return def, nil
}

// ParseZoneDefinition parses the legacy zone definition format.
//
// The first data token is ZEXTENT. Comment lines containing ZID and ZNAME open
// the zone name table; comment lines containing IE and ZONE open the element
// assignment table. Rows that do not parse are skipped.
func ParseZoneDefinition(r io.Reader) (*ZoneDefinition, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read zone definition: %v", ErrConfiguration, err)
	}

	extent, err := findExtent(lines)
	if err != nil {
		return nil, err
	}

	zones := make(map[int]string)
	planar := make(map[int]int)
	layered := make(map[ElementLayer]int)

	const (
		sectionNone = iota
		sectionZones
		sectionElements
	)
	section := sectionNone
	for _, line := range lines {
		if line == "" || isComment(line) {
			upper := strings.ToUpper(line)
			switch {
			case strings.Contains(upper, "ZID") && strings.Contains(upper, "ZNAME"):
				section = sectionZones
			case strings.Contains(upper, "IE") && strings.Contains(upper, "ZONE"):
				section = sectionElements
			}
			continue
		}

		switch section {
		case sectionZones:
			id, name, ok := parseZoneRow(line)
			if ok {
				zones[id] = name
			}
		case sectionElements:
			fields := strings.Fields(line)
			if extent == ExtentHorizontalPlane {
				e, z, ok := parsePlanarRow(fields)
				if ok {
					planar[e] = z
				}
				continue
			}
			key, z, ok := parseLayeredRow(fields)
			if ok {
				layered[key] = z
			}
		}
	}

	if extent == ExtentHorizontalPlane {
		return &ZoneDefinition{extent: extent, zones: zones, planar: planar}, nil
	}
	return &ZoneDefinition{extent: extent, zones: zones, layered: layered}, nil
}

func findExtent(lines []string) (ExtentMode, error) {
	for _, line := range lines {
		if line == "" || isComment(line) {
			continue
		}
		v, err := strconv.Atoi(strings.Fields(line)[0])
		if err != nil {
			continue
		}
		switch v {
		case 1:
			return ExtentHorizontalPlane, nil
		case 0:
			return ExtentPerLayer, nil
		default:
			return 0, fmt.Errorf("%w: %d", ErrInvalidExtent, v)
		}
	}
	return 0, ErrExtentNotFound
}

func isComment(line string) bool {
	switch line[0] {
	case 'C', 'c', '*', '#':
		return true
	}
	return false
}

func parseZoneRow(line string) (int, string, bool) {
	i := strings.IndexAny(line, " \t")
	if i <= 0 {
		return 0, "", false
	}
	id, err := strconv.Atoi(line[:i])
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(line[i+1:])
	if name == "" {
		return 0, "", false
	}
	return id, name, true
}

func parsePlanarRow(fields []string) (int, int, bool) {
	if len(fields) < 2 {
		return 0, 0, false
	}
	e, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	z, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return e, z, true
}

func parseLayeredRow(fields []string) (ElementLayer, int, bool) {
	if len(fields) < 3 {
		return ElementLayer{}, 0, false
	}
	e, err := strconv.Atoi(fields[0])
	if err != nil {
		return ElementLayer{}, 0, false
	}
	l, err := strconv.Atoi(fields[1])
	if err != nil {
		return ElementLayer{}, 0, false
	}
	z, err := strconv.Atoi(fields[2])
	if err != nil {
		return ElementLayer{}, 0, false
	}
	return ElementLayer{Element: e, Layer: l}, z, true
}

func copyZoneNames(zones map[int]string) map[int]string {
	out := make(map[int]string, len(zones))
	for id, name := range zones {
		out[id] = name
	}
	return out
}
