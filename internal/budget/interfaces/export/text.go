package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

const (
	textLineWidth  = 240
	textRuleWidth  = 500
	textTimeWidth  = 17
	textValueWidth = 15
)

// BuildText renders every zone in the legacy fixed-width budget layout. Zones
// are separated by two blank lines.
func BuildText(descriptor string, tables []budget.ZoneReportTable) []byte {
	var buf bytes.Buffer
	rule := strings.Repeat("-", textRuleWidth)
	for _, t := range tables {
		buf.WriteString(center(descriptor, textLineWidth) + "\n")
		buf.WriteString(padRight(t.Titles[0], textLineWidth) + "\n")
		buf.WriteString(padRight(t.Titles[1], textLineWidth) + "\n")
		buf.WriteString(rule + "\n")

		writeTextHeader(&buf, t.Components)
		buf.WriteString(rule + "\n")

		for i := 0; i < t.Rows(); i++ {
			fmt.Fprintf(&buf, "%*s", textTimeWidth, t.Label(i))
			row := t.Row(i)
			last := len(row) - 1
			for _, v := range row[:last] {
				fmt.Fprintf(&buf, "%*.2f", textValueWidth, v)
			}
			fmt.Fprintf(&buf, "%13.2f", row[last])
			var storage float64
			if t.AbsoluteStorage != nil {
				storage = t.AbsoluteStorage[i]
			}
			fmt.Fprintf(&buf, "%*.2f\n", textValueWidth, storage)
		}
		buf.WriteString("\n\n")
	}
	return buf.Bytes()
}

func writeTextHeader(buf *bytes.Buffer, components []string) {
	buf.WriteString(strings.Repeat(" ", textTimeWidth))
	for _, c := range components {
		buf.WriteString(center(c, 2*textValueWidth))
	}
	buf.WriteString(center("Discrepancy", textValueWidth) + center("Absolute", textValueWidth) + "\n")

	fmt.Fprintf(buf, "%*s", textTimeWidth, budget.TimeHeader)
	for range components {
		fmt.Fprintf(buf, "%*s%*s", textValueWidth, "IN", textValueWidth, "OUT")
	}
	fmt.Fprintf(buf, "%*s%-*s\n", textValueWidth, "", textValueWidth, "   Storage")

	buf.WriteString(strings.Repeat(" ", textTimeWidth))
	for range components {
		fmt.Fprintf(buf, "%*s%*s", textValueWidth, "(+)", textValueWidth, "(-)")
	}
	fmt.Fprintf(buf, "%12s%18s\n", "(=)", "")
}

// center pads s on both sides to width, putting the odd space on the right.
// Widths count characters, not bytes.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
