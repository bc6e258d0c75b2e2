package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

const (
	xlsxHeaderRow = 5
	xlsxDataRow   = 7
	maxSheetName  = 31
)

// BuildXLSX renders one sheet per zone after an empty leading sheet.
func BuildXLSX(descriptor string, tables []budget.ZoneReportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if err := writeZoneSheet(f, styles, descriptor, t); err != nil {
			return nil, fmt.Errorf("zone %d: %w", t.ZoneID, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xlsxStyles struct {
	bold   int
	header int
	date   int
	number int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	}); err != nil {
		return s, err
	}
	dateFormat := "mm/dd/yyyy"
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat}); err != nil {
		return s, err
	}
	numberFormat := "#,##0.00"
	if s.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numberFormat}); err != nil {
		return s, err
	}
	return s, nil
}

func writeZoneSheet(f *excelize.File, styles xlsxStyles, descriptor string, t budget.ZoneReportTable) error {
	sheet := SheetName(t.ZoneID, t.ZoneName)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	_ = f.SetCellValue(sheet, "A1", descriptor)
	_ = f.SetCellValue(sheet, "A2", t.Titles[0])
	_ = f.SetCellValue(sheet, "A3", t.Titles[1])
	_ = f.SetCellStyle(sheet, "A1", "A2", styles.bold)

	_ = f.SetCellValue(sheet, cell(1, xlsxHeaderRow), budget.TimeHeader)
	col := 2
	for _, c := range t.Components {
		_ = f.SetCellValue(sheet, cell(col, xlsxHeaderRow), c)
		if err := f.MergeCell(sheet, cell(col, xlsxHeaderRow), cell(col+1, xlsxHeaderRow)); err != nil {
			return err
		}
		_ = f.SetCellValue(sheet, cell(col, xlsxHeaderRow+1), "IN (+)")
		_ = f.SetCellValue(sheet, cell(col+1, xlsxHeaderRow+1), "OUT (-)")
		col += 2
	}
	discCol, storageCol := col, col+1
	_ = f.SetCellValue(sheet, cell(discCol, xlsxHeaderRow), budget.DiscrepancyHeader)
	_ = f.SetCellValue(sheet, cell(discCol, xlsxHeaderRow+1), "(=)")
	_ = f.SetCellValue(sheet, cell(storageCol, xlsxHeaderRow), "Absolute Storage")
	_ = f.SetCellStyle(sheet, cell(1, xlsxHeaderRow), cell(storageCol, xlsxHeaderRow+1), styles.header)

	for i := 0; i < t.Rows(); i++ {
		row := xlsxDataRow + i
		if day, err := time.Parse("01/02/2006", t.Time[i]); err == nil {
			_ = f.SetCellValue(sheet, cell(1, row), day)
		} else {
			_ = f.SetCellValue(sheet, cell(1, row), t.Time[i])
		}
		for j, v := range t.Row(i) {
			_ = f.SetCellValue(sheet, cell(j+2, row), v)
		}
		var storage float64
		if t.AbsoluteStorage != nil {
			storage = t.AbsoluteStorage[i]
		}
		_ = f.SetCellValue(sheet, cell(storageCol, row), storage)
	}

	_ = f.SetColWidth(sheet, "A", "A", 11)
	if last, err := excelize.ColumnNumberToName(storageCol); err == nil {
		_ = f.SetColWidth(sheet, "B", last, 12)
	}
	if t.Rows() > 0 {
		lastRow := xlsxDataRow + t.Rows() - 1
		_ = f.SetCellStyle(sheet, cell(1, xlsxDataRow), cell(1, lastRow), styles.date)
		_ = f.SetCellStyle(sheet, cell(2, xlsxDataRow), cell(storageCol, lastRow), styles.number)
	}
	return nil
}

// BuildLocationXLSX renders one sheet per location.
func BuildLocationXLSX(descriptor string, tables []budget.LocationReportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}
	for i, t := range tables {
		sheet := truncateSheetName(fmt.Sprintf("%d_%s", i+1, sanitizeSheetName(t.Name)))
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, "A1", descriptor)
		_ = f.SetCellStyle(sheet, "A1", "A1", styles.bold)
		for j, title := range t.Titles {
			_ = f.SetCellValue(sheet, cell(1, j+2), title)
		}
		headerRow := len(t.Titles) + 3
		for j, h := range t.Headers {
			_ = f.SetCellValue(sheet, cell(j+1, headerRow), h)
		}
		if len(t.Headers) > 0 {
			_ = f.SetCellStyle(sheet, cell(1, headerRow), cell(len(t.Headers), headerRow), styles.header)
		}
		if t.Data == nil || t.Data.IsEmpty() {
			continue
		}
		rows, cols := t.Data.Dims()
		for r := 0; r < rows && r < len(t.Time); r++ {
			_ = f.SetCellValue(sheet, cell(1, headerRow+1+r), t.Time[r])
			for c := 0; c < cols; c++ {
				_ = f.SetCellValue(sheet, cell(c+2, headerRow+1+r), t.Data.At(r, c))
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SheetName names a zone sheet "Zone<id>_<name>", truncated to the workbook
// limit of 31 characters.
func SheetName(zoneID int, zoneName string) string {
	return truncateSheetName(fmt.Sprintf("Zone%d_%s", zoneID, sanitizeSheetName(zoneName)))
}

func truncateSheetName(name string) string {
	r := []rune(name)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}

func sanitizeSheetName(name string) string {
	return strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_").Replace(name)
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return name
}
