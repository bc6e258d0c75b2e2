package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

// Document is the YAML layout of a budget store snapshot. Zone budget stores
// fill Attributes and Layers; location budget stores fill Attributes and
// Locations.
type Document struct {
	Attributes Attributes                     `yaml:"attributes"`
	Layers     map[int]map[string][][]float64 `yaml:"layers"`
	Locations  *Locations                     `yaml:"locations"`
}

// Attributes mirrors the store's Attributes group.
type Attributes struct {
	NumElements     int             `yaml:"n_elements"`
	NumLayers       int             `yaml:"n_layers"`
	NumTimesteps    int             `yaml:"n_timesteps"`
	BeginDate       string          `yaml:"begin_date"`
	DeltaT          float64         `yaml:"delta_t"`
	Unit            string          `yaml:"unit"`
	Descriptor      string          `yaml:"descriptor"`
	ElementIDs      []int           `yaml:"element_ids"`
	ElementAreas    []float64       `yaml:"element_areas"`
	FullDataNames   []string        `yaml:"full_data_names"`
	ElemDataColumns map[int][][]int `yaml:"elem_data_columns"`
}

// Locations holds a location budget store body.
type Locations struct {
	Names          []string               `yaml:"names"`
	Areas          []float64              `yaml:"areas"`
	Headers        []string               `yaml:"headers"`
	ColumnTypes    []int                  `yaml:"column_types"`
	TitleTemplates []string               `yaml:"titles"`
	Data           map[string][][]float64 `yaml:"data"`
}

// Reader loads snapshots from disk.
type Reader struct {
	logger *zap.Logger
}

// NewReader constructs a reader.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// ReadZoneSource loads a zone budget snapshot.
func (r *Reader) ReadZoneSource(ctx context.Context, path string) (budget.RawSource, error) {
	doc, err := r.load(ctx, path)
	if err != nil {
		return budget.RawSource{}, err
	}
	src, err := doc.RawSource()
	if err != nil {
		return budget.RawSource{}, fmt.Errorf("snapshot %s: %w", path, err)
	}
	r.logger.Debug("zone snapshot loaded",
		zap.String("path", path),
		zap.Int("labels", len(src.Labels)),
		zap.Int("layers", len(src.Layers)),
	)
	return src, nil
}

// ReadLocationSource loads a location budget snapshot.
func (r *Reader) ReadLocationSource(ctx context.Context, path string) (budget.LocationSource, error) {
	doc, err := r.load(ctx, path)
	if err != nil {
		return budget.LocationSource{}, err
	}
	src, err := doc.LocationSource()
	if err != nil {
		return budget.LocationSource{}, fmt.Errorf("snapshot %s: %w", path, err)
	}
	r.logger.Debug("location snapshot loaded",
		zap.String("path", path),
		zap.Int("locations", len(src.Names)),
	)
	return src, nil
}

func (r *Reader) load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", budget.ErrDataSource, err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a YAML snapshot.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty snapshot", budget.ErrDataSource)
		}
		return nil, fmt.Errorf("%w: %v", budget.ErrDataSource, err)
	}
	return &doc, nil
}

func (a Attributes) metadata() budget.Metadata {
	return budget.Metadata{
		NumElements:  a.NumElements,
		NumLayers:    a.NumLayers,
		NumTimesteps: a.NumTimesteps,
		StartDate:    a.BeginDate,
		DeltaT:       a.DeltaT,
		TimeUnit:     a.Unit,
		Descriptor:   a.Descriptor,
	}
}

// RawSource converts the document to a zone budget source.
func (d *Document) RawSource() (budget.RawSource, error) {
	src := budget.RawSource{
		Metadata:     d.Attributes.metadata(),
		ElementIDs:   d.Attributes.ElementIDs,
		ElementAreas: d.Attributes.ElementAreas,
		Labels:       d.Attributes.FullDataNames,
		ColumnMaps:   d.Attributes.ElemDataColumns,
		Layers:       make(map[int]map[string]*mat.Dense, len(d.Layers)),
	}
	for layer, group := range d.Layers {
		datasets := make(map[string]*mat.Dense, len(group))
		for label, rows := range group {
			data, err := dense(rows)
			if err != nil {
				return budget.RawSource{}, fmt.Errorf("Layer_%d/%s: %w", layer, label, err)
			}
			datasets[label] = data
		}
		src.Layers[layer] = datasets
	}
	return src, nil
}

// LocationSource converts the document to a location budget source.
func (d *Document) LocationSource() (budget.LocationSource, error) {
	if d.Locations == nil {
		return budget.LocationSource{}, fmt.Errorf("%w: no locations section", budget.ErrDataSource)
	}
	loc := d.Locations
	src := budget.LocationSource{
		Metadata:       d.Attributes.metadata(),
		Names:          loc.Names,
		Areas:          loc.Areas,
		Headers:        loc.Headers,
		ColumnTypes:    loc.ColumnTypes,
		TitleTemplates: loc.TitleTemplates,
		Data:           make(map[string]*mat.Dense, len(loc.Data)),
	}
	for name, rows := range loc.Data {
		data, err := dense(rows)
		if err != nil {
			return budget.LocationSource{}, fmt.Errorf("location %s: %w", name, err)
		}
		src.Data[name] = data
	}
	return src, nil
}

// dense builds a [rows x cols] matrix. A dataset with no rows or no columns
// yields nil so the engine reports it as missing.
func dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil
	}
	cols := len(rows[0])
	values := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", budget.ErrDataSource, i+1, len(row), cols)
		}
		values = append(values, row...)
	}
	return mat.NewDense(len(rows), cols, values), nil
}
