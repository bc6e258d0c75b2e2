package budget

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Title template placeholders.
const (
	PlaceholderLocationName = "@LOCNAME@"
	PlaceholderArea         = "@AREA@"
	PlaceholderVolumeUnit   = "@UNITVL@"
	PlaceholderAreaUnit     = "@UNITAR@"
)

// TitleData is substituted into title templates.
type TitleData struct {
	LocationName string
	Area         float64
	AreaLabel    string
	VolumeLabel  string
}

// RenderTitle replaces every placeholder in template.
func RenderTitle(template string, d TitleData) string {
	return strings.NewReplacer(
		PlaceholderLocationName, d.LocationName,
		PlaceholderArea, FormatArea(d.Area),
		PlaceholderVolumeUnit, d.VolumeLabel,
		PlaceholderAreaUnit, d.AreaLabel,
	).Replace(template)
}

// FormatArea renders an area with thousands separators and two decimals,
// rounding to the nearest cent.
func FormatArea(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + s
	}
	return sign + humanize.Comma(n) + "." + frac
}

// ZoneTitleTemplates returns the three title lines of a groundwater zone budget.
func ZoneTitleTemplates(zoneID int) [3]string {
	return [3]string{
		fmt.Sprintf("GROUNDWATER ZONE BUDGET IN %s FOR ZONE %d (%s)", PlaceholderVolumeUnit, zoneID, PlaceholderLocationName),
		fmt.Sprintf("ZONE AREA: %s %s", PlaceholderArea, PlaceholderAreaUnit),
		strings.Repeat("-", 80),
	}
}
