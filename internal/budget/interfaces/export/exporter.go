package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
	"github.com/ucdavis/iwfm-sub003/internal/observability/metrics"
)

// Format is a report output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat resolves a format name. "txt" and "bud" select the legacy text
// layout.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "text", "txt", "bud":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", budget.ErrConfiguration, name)
	}
}

// Exporter writes zone and location reports in the configured formats.
type Exporter struct {
	formats []Format
	logger  *zap.Logger
}

// NewExporter constructs an exporter. Duplicate formats are written once.
func NewExporter(formats []string, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{logger: logger}
	seen := make(map[Format]bool)
	for _, name := range formats {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		e.formats = append(e.formats, f)
	}
	if len(e.formats) == 0 {
		e.formats = []Format{FormatCSV}
	}
	return e, nil
}

// Formats returns the formats written by the exporter.
func (e *Exporter) Formats() []Format {
	return append([]Format(nil), e.formats...)
}

// Export writes every configured format for the zone tables concurrently and
// returns the written paths in format order.
func (e *Exporter) Export(ctx context.Context, dir, descriptor string, tables []budget.ZoneReportTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	written := make([][]string, len(e.formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, format := range e.formats {
		i, format := i, format
		g.Go(func() error {
			start := time.Now()
			files, err := e.writeZones(ctx, format, dir, descriptor, tables)
			result := metrics.ResultSuccess
			if err != nil {
				result = metrics.ResultError
			}
			metrics.ObserveExport(string(format), result, time.Since(start))
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			written[i] = files
			e.logger.Debug("report written", zap.String("format", string(format)), zap.Strings("files", files))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(written), nil
}

func (e *Exporter) writeZones(ctx context.Context, format Format, dir, descriptor string, tables []budget.ZoneReportTable) ([]string, error) {
	switch format {
	case FormatCSV:
		var files []string
		for _, t := range tables {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := BuildZoneCSV(t)
			if err != nil {
				return nil, err
			}
			path := filepath.Join(dir, fmt.Sprintf("zone_%d.csv", t.ZoneID))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, err
			}
			files = append(files, path)
		}
		return files, nil
	case FormatText:
		return writeOne(filepath.Join(dir, "zbudget.bud"), BuildText(descriptor, tables), nil)
	case FormatXLSX:
		data, err := BuildXLSX(descriptor, tables)
		return writeOne(filepath.Join(dir, "zbudget.xlsx"), data, err)
	case FormatPDF:
		data, err := BuildPDF(descriptor, tables)
		return writeOne(filepath.Join(dir, "zbudget.pdf"), data, err)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", budget.ErrConfiguration, format)
	}
}

// ExportLocations writes location reports. Only the csv and xlsx formats
// apply to location budgets; other formats are skipped.
func (e *Exporter) ExportLocations(ctx context.Context, dir, descriptor string, tables []budget.LocationReportTable) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var files []string
	for _, format := range e.formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		var written []string
		var err error
		switch format {
		case FormatCSV:
			for _, t := range tables {
				var data []byte
				data, err = BuildLocationCSV(t)
				if err != nil {
					break
				}
				path := filepath.Join(dir, "location_"+fileSafe(t.Name)+".csv")
				if err = os.WriteFile(path, data, 0o644); err != nil {
					break
				}
				written = append(written, path)
			}
		case FormatXLSX:
			var data []byte
			data, err = BuildLocationXLSX(descriptor, tables)
			written, err = writeOne(filepath.Join(dir, "locations.xlsx"), data, err)
		default:
			e.logger.Debug("format skipped for location budgets", zap.String("format", string(format)))
			continue
		}
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveExport(string(format), result, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		files = append(files, written...)
	}
	return files, nil
}

func writeOne(path string, data []byte, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func flatten(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// fileSafe maps a location name to a file name fragment.
func fileSafe(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
