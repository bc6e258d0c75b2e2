package budget

import "strings"

// Direction is the sign of a budget flow.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

// Suffix returns the report column suffix for the direction.
func (d Direction) Suffix() string {
	if d == DirectionIn {
		return "_IN"
	}
	return "_OUT"
}

func (d Direction) String() string {
	if d == DirectionIn {
		return "IN"
	}
	return "OUT"
}

// Label is a raw data label split into component name and direction.
type Label struct {
	Raw       string
	Component string
	Direction Direction
	// Marked is false when the label carried no directional marker and was
	// classified as outflow by default.
	Marked bool
}

var (
	inflowMarkers  = []string{"_Inflow (+)", "_Inflow", "(+)"}
	outflowMarkers = []string{"_Outflow (-)", "_Outflow", "(-)"}
)

// ParseLabel classifies a raw label such as "Recharge_Inflow (+)".
func ParseLabel(raw string) Label {
	l := Label{Raw: raw, Direction: DirectionOut}
	switch {
	case strings.Contains(raw, "_Inflow") || strings.Contains(raw, "(+)"):
		l.Direction = DirectionIn
		l.Marked = true
	case strings.Contains(raw, "_Outflow") || strings.Contains(raw, "(-)"):
		l.Marked = true
	}
	l.Component = stripMarkers(raw)
	return l
}

func stripMarkers(raw string) string {
	name := strings.TrimSpace(raw)
	for _, markers := range [][]string{inflowMarkers, outflowMarkers} {
		for _, m := range markers {
			if strings.HasSuffix(name, m) {
				name = strings.TrimSpace(strings.TrimSuffix(name, m))
				break
			}
		}
	}
	return name
}

// Component is a physical flow process discovered in the raw labels.
type Component struct {
	Name   string
	HasIn  bool
	HasOut bool
}

// DiscoverComponents returns component base names in first-discovered order
// together with the component index of every label.
func DiscoverComponents(labels []string) ([]Component, []int) {
	var components []Component
	index := make(map[string]int)
	labelComponent := make([]int, len(labels))
	for i, raw := range labels {
		l := ParseLabel(raw)
		ci, ok := index[l.Component]
		if !ok {
			ci = len(components)
			index[l.Component] = ci
			components = append(components, Component{Name: l.Component})
		}
		if l.Direction == DirectionIn {
			components[ci].HasIn = true
		} else {
			components[ci].HasOut = true
		}
		labelComponent[i] = ci
	}
	return components, labelComponent
}
