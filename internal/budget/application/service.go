package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
	"github.com/ucdavis/iwfm-sub003/internal/observability/metrics"
)

// SourceReader loads zone budget stores.
type SourceReader interface {
	ReadZoneSource(ctx context.Context, path string) (budget.RawSource, error)
}

// LocationReader loads location budget stores.
type LocationReader interface {
	ReadLocationSource(ctx context.Context, path string) (budget.LocationSource, error)
}

// ReportExporter writes assembled reports to an output directory and returns
// the files written.
type ReportExporter interface {
	Export(ctx context.Context, dir, descriptor string, tables []budget.ZoneReportTable) ([]string, error)
	ExportLocations(ctx context.Context, dir, descriptor string, tables []budget.LocationReportTable) ([]string, error)
}

// RunEvent describes a finished zone budget run.
type RunEvent struct {
	Run   *budget.Run
	Files []string
}

// RunNotifier announces finished runs.
type RunNotifier interface {
	Notify(ctx context.Context, event RunEvent) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Request describes one zone budget run.
type Request struct {
	ZoneFile string
	Source   string
	// OutputDir disables export when empty.
	OutputDir  string
	Descriptor string
	Factors    budget.Factors
	Units      budget.Units
}

// RequestFromConfig builds a run request from a loaded config.
func RequestFromConfig(cfg Config) Request {
	return Request{
		ZoneFile:   cfg.ZoneFile,
		Source:     cfg.Source,
		OutputDir:  cfg.OutputDir,
		Descriptor: cfg.Descriptor,
		Factors:    cfg.BudgetFactors(),
		Units:      cfg.BudgetUnits(),
	}
}

// Outcome is the result of a finished run.
type Outcome struct {
	Run    *budget.Run
	Result *budget.Result
	Files  []string
}

// LocationOutcome is the result of a location budget run.
type LocationOutcome struct {
	Tables      []budget.LocationReportTable
	Diagnostics []budget.Diagnostic
	Files       []string
}

// Service runs the zone budget pipeline.
type Service struct {
	source    SourceReader
	locations LocationReader
	repo      budget.RunRepository
	exporter  ReportExporter
	notifier  RunNotifier
	logger    *zap.Logger
	clock     Clock
	newID     func() string
}

// Option customises a Service.
type Option func(*Service)

// WithLocationReader enables location budget runs.
func WithLocationReader(reader LocationReader) Option {
	return func(s *Service) {
		s.locations = reader
	}
}

// WithRepository persists every finished run.
func WithRepository(repo budget.RunRepository) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

// WithExporter writes reports for requests that name an output directory.
func WithExporter(exporter ReportExporter) Option {
	return func(s *Service) {
		s.exporter = exporter
	}
}

// WithNotifier announces every finished run. Notification failures are
// logged and never fail the run.
func WithNotifier(notifier RunNotifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock overrides the run clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs the service.
func NewService(source SourceReader, logger *zap.Logger, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("zbudget service: nil source reader")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source: source,
		logger: logger,
		clock:  SystemClock{},
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Run loads zones and source data, aggregates them, and persists and exports
// the assembled reports. Configuration and source errors abort the run; data
// gaps are logged and returned with the result.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	start := s.clock.Now()
	outcome, err := s.run(ctx, req, start)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		s.logger.Error("zone budget run failed",
			zap.String("zone_file", req.ZoneFile),
			zap.String("source", req.Source),
			zap.Error(err),
		)
	}
	metrics.ObserveRun(result, s.clock.Now().Sub(start))
	return outcome, err
}

func (s *Service) run(ctx context.Context, req Request, start time.Time) (*Outcome, error) {
	req = normalizeRequest(req)
	if req.ZoneFile == "" {
		return nil, fmt.Errorf("%w: zone file required", budget.ErrConfiguration)
	}

	def, err := budget.LoadZoneDefinition(req.ZoneFile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("zone definition loaded",
		zap.String("zone_file", req.ZoneFile),
		zap.Stringer("extent", def.Extent()),
		zap.Int("zones", len(def.ZoneIDs())),
		zap.Int("assignments", def.Assignments()),
	)

	src, err := s.source.ReadZoneSource(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	timesteps, err := src.Timesteps()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := budget.Aggregate(def, timesteps, src.Scaled(req.Factors))
	if err != nil {
		return nil, err
	}
	s.logDiagnostics(res.Diagnostics)
	tables := budget.AssembleReports(res, timesteps, req.Units)
	metrics.SetZonesReported(len(tables))

	run := &budget.Run{
		ID:          s.newID(),
		ZoneFile:    req.ZoneFile,
		Source:      req.Source,
		Extent:      res.Extent,
		Units:       req.Units,
		StartedAt:   start,
		FinishedAt:  s.clock.Now(),
		Timesteps:   timesteps,
		Tables:      tables,
		Diagnostics: res.Diagnostics,
	}
	outcome := &Outcome{Run: run, Result: res}

	if s.repo != nil {
		if err := s.repo.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("save run %s: %w", run.ID, err)
		}
	}
	if s.exporter != nil && req.OutputDir != "" {
		descriptor := req.Descriptor
		if descriptor == "" {
			descriptor = src.Descriptor
		}
		files, err := s.exporter.Export(ctx, req.OutputDir, descriptor, tables)
		if err != nil {
			return nil, fmt.Errorf("export run %s: %w", run.ID, err)
		}
		outcome.Files = files
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, RunEvent{Run: run, Files: outcome.Files}); err != nil {
			s.logger.Warn("run notification failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	s.logger.Info("zone budget run finished",
		zap.String("run_id", run.ID),
		zap.Int("zones", len(tables)),
		zap.Int("timesteps", len(timesteps)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Int("files", len(outcome.Files)),
	)
	return outcome, nil
}

// RunLocations converts a location budget store into per-location reports.
func (s *Service) RunLocations(ctx context.Context, req Request) (*LocationOutcome, error) {
	if s.locations == nil {
		return nil, errors.New("zbudget service: nil location reader")
	}
	req = normalizeRequest(req)
	src, err := s.locations.ReadLocationSource(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	timesteps, err := src.Timesteps()
	if err != nil {
		return nil, err
	}
	tables, diagnostics := budget.AssembleLocationReports(src, timesteps, req.Factors, req.Units)
	s.logDiagnostics(diagnostics)

	outcome := &LocationOutcome{Tables: tables, Diagnostics: diagnostics}
	if s.exporter != nil && req.OutputDir != "" {
		descriptor := req.Descriptor
		if descriptor == "" {
			descriptor = src.Descriptor
		}
		files, err := s.exporter.ExportLocations(ctx, req.OutputDir, descriptor, tables)
		if err != nil {
			return nil, err
		}
		outcome.Files = files
	}
	return outcome, nil
}

func (s *Service) logDiagnostics(diagnostics []budget.Diagnostic) {
	for _, d := range diagnostics {
		s.logger.Warn("skipped source data",
			zap.Int("layer", d.Layer),
			zap.String("label", d.Label),
			zap.String("reason", d.Reason),
			zap.String("detail", d.Detail),
		)
		metrics.IncDiagnostic(d.Reason)
	}
}

func normalizeRequest(req Request) Request {
	if req.Factors == (budget.Factors{}) {
		req.Factors = budget.DefaultFactors()
	}
	if req.Units == (budget.Units{}) {
		req.Units = budget.DefaultUnits()
	}
	return req
}
