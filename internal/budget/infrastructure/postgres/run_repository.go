package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

const defaultTablePrefix = "zbudget_"

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS {p}runs (
	id TEXT PRIMARY KEY,
	zone_file TEXT NOT NULL,
	source TEXT NOT NULL,
	extent INTEGER NOT NULL,
	area_units TEXT NOT NULL,
	volume_units TEXT NOT NULL,
	length_units TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS {p}timesteps (
	run_id TEXT NOT NULL REFERENCES {p}runs(id) ON DELETE CASCADE,
	step_index INTEGER NOT NULL,
	period_end DATE NOT NULL,
	end_of_day BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, step_index)
);
CREATE TABLE IF NOT EXISTS {p}zones (
	run_id TEXT NOT NULL REFERENCES {p}runs(id) ON DELETE CASCADE,
	zone_id INTEGER NOT NULL,
	zone_name TEXT NOT NULL,
	area DOUBLE PRECISION NOT NULL,
	title TEXT NOT NULL,
	area_title TEXT NOT NULL,
	rule_title TEXT NOT NULL,
	PRIMARY KEY (run_id, zone_id)
);
CREATE TABLE IF NOT EXISTS {p}values (
	run_id TEXT NOT NULL REFERENCES {p}runs(id) ON DELETE CASCADE,
	zone_id INTEGER NOT NULL,
	column_index INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	step_index INTEGER NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, zone_id, column_index, step_index)
);
CREATE TABLE IF NOT EXISTS {p}diagnostics (
	run_id TEXT NOT NULL REFERENCES {p}runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	layer INTEGER NOT NULL,
	label TEXT NOT NULL,
	reason TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);
ALTER TABLE {p}diagnostics ADD COLUMN IF NOT EXISTS detail TEXT NOT NULL DEFAULT '';`

// RunRepository persists zone budget runs.
type RunRepository struct {
	db     *sql.DB
	prefix string
}

// RunOption configures the repository.
type RunOption func(*RunRepository)

// WithTablePrefix overrides the table name prefix.
func WithTablePrefix(prefix string) RunOption {
	return func(r *RunRepository) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRunRepository constructs a repository.
func NewRunRepository(db *sql.DB, opts ...RunOption) *RunRepository {
	repo := &RunRepository{db: db, prefix: defaultTablePrefix}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *RunRepository) table(name string) string {
	return r.prefix + name
}

// Migrate creates the run tables when missing.
func (r *RunRepository) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("run repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, strings.ReplaceAll(schemaTemplate, "{p}", r.prefix))
	return err
}

// Save inserts a run with its timesteps, zones, values and diagnostics in
// one transaction. Saving an existing id replaces it.
func (r *RunRepository) Save(ctx context.Context, run *budget.Run) error {
	if r == nil || r.db == nil {
		return errors.New("run repo: nil db")
	}
	if run == nil {
		return errors.New("run repo: nil run")
	}
	if run.ID == "" {
		return errors.New("run repo: empty run id")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.save(ctx, tx, run); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *RunRepository) save(ctx context.Context, tx *sql.Tx, run *budget.Run) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table("runs")), run.ID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (
	id, zone_file, source, extent, area_units, volume_units, length_units, started_at, finished_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.table("runs")),
		run.ID, run.ZoneFile, run.Source, int(run.Extent),
		run.Units.Area, run.Units.Volume, run.Units.Length,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return err
	}

	for i, ts := range run.Timesteps {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, step_index, period_end, end_of_day) VALUES ($1,$2,$3,$4)`, r.table("timesteps")),
			run.ID, i, ts.Date(), ts.IsEndOfDay())
		if err != nil {
			return err
		}
	}

	valueStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, zone_id, column_index, column_name, step_index, value) VALUES ($1,$2,$3,$4,$5,$6)`, r.table("values")))
	if err != nil {
		return err
	}
	defer valueStmt.Close()

	for _, t := range run.Tables {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, zone_id, zone_name, area, title, area_title, rule_title) VALUES ($1,$2,$3,$4,$5,$6,$7)`, r.table("zones")),
			run.ID, t.ZoneID, t.ZoneName, t.Area, t.Titles[0], t.Titles[1], t.Titles[2])
		if err != nil {
			return err
		}
		for c, series := range t.Columns {
			name := t.Headers[c+1]
			for step, v := range series {
				if _, err := valueStmt.ExecContext(ctx, run.ID, t.ZoneID, c, name, step, v); err != nil {
					return err
				}
			}
		}
	}

	for i, d := range run.Diagnostics {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (run_id, seq, layer, label, reason, detail) VALUES ($1,$2,$3,$4,$5,$6)`, r.table("diagnostics")),
			run.ID, i, d.Layer, d.Label, d.Reason, d.Detail)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get loads a run and rebuilds its report tables.
func (r *RunRepository) Get(ctx context.Context, id string) (*budget.Run, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("run repo: nil db")
	}
	run := &budget.Run{ID: id}
	var extent int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT zone_file, source, extent, area_units, volume_units, length_units, started_at, finished_at
FROM %s
WHERE id = $1`, r.table("runs")), id).Scan(
		&run.ZoneFile, &run.Source, &extent,
		&run.Units.Area, &run.Units.Volume, &run.Units.Length,
		&run.StartedAt, &run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Extent = budget.ExtentMode(extent)

	if run.Timesteps, err = r.loadTimesteps(ctx, id); err != nil {
		return nil, err
	}
	if run.Tables, err = r.loadTables(ctx, id, run.Timesteps); err != nil {
		return nil, err
	}
	if run.Diagnostics, err = r.loadDiagnostics(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) loadTimesteps(ctx context.Context, id string) ([]budget.Timestamp, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT period_end, end_of_day
FROM %s
WHERE run_id = $1
ORDER BY step_index ASC`, r.table("timesteps")), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []budget.Timestamp
	for rows.Next() {
		var day time.Time
		var endOfDay bool
		if err := rows.Scan(&day, &endOfDay); err != nil {
			return nil, err
		}
		result = append(result, budget.NewTimestamp(day, endOfDay))
	}
	return result, rows.Err()
}

func (r *RunRepository) loadTables(ctx context.Context, id string, timesteps []budget.Timestamp) ([]budget.ZoneReportTable, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT zone_id, zone_name, area, title, area_title, rule_title
FROM %s
WHERE run_id = $1
ORDER BY zone_id ASC`, r.table("zones")), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := make([]string, len(timesteps))
	labels := make([]string, len(timesteps))
	for i, ts := range timesteps {
		times[i] = ts.ReportDate()
		labels[i] = ts.String()
	}
	var tables []budget.ZoneReportTable
	index := make(map[int]int)
	for rows.Next() {
		var t budget.ZoneReportTable
		if err := rows.Scan(&t.ZoneID, &t.ZoneName, &t.Area, &t.Titles[0], &t.Titles[1], &t.Titles[2]); err != nil {
			return nil, err
		}
		t.Time = append([]string(nil), times...)
		t.Labels = append([]string(nil), labels...)
		index[t.ZoneID] = len(tables)
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	values, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT zone_id, column_index, column_name, step_index, value
FROM %s
WHERE run_id = $1
ORDER BY zone_id ASC, column_index ASC, step_index ASC`, r.table("values")), id)
	if err != nil {
		return nil, err
	}
	defer values.Close()

	headers := make(map[int][]string)
	for values.Next() {
		var zoneID, column, step int
		var name string
		var v float64
		if err := values.Scan(&zoneID, &column, &name, &step, &v); err != nil {
			return nil, err
		}
		i, ok := index[zoneID]
		if !ok {
			continue
		}
		t := &tables[i]
		for len(t.Columns) <= column {
			t.Columns = append(t.Columns, make([]float64, len(timesteps)))
			headers[zoneID] = append(headers[zoneID], "")
		}
		if step < len(t.Columns[column]) {
			t.Columns[column][step] = v
		}
		headers[zoneID][column] = name
	}
	if err := values.Err(); err != nil {
		return nil, err
	}

	for i := range tables {
		t := &tables[i]
		t.Headers = append([]string{budget.TimeHeader}, headers[t.ZoneID]...)
		t.Components = componentsFromHeaders(t.Headers)
		t.AbsoluteStorage = t.DeriveAbsoluteStorage()
	}
	return tables, nil
}

func componentsFromHeaders(headers []string) []string {
	var components []string
	suffix := budget.DirectionIn.Suffix()
	for _, h := range headers {
		if strings.HasSuffix(h, suffix) {
			components = append(components, strings.TrimSuffix(h, suffix))
		}
	}
	return components
}

func (r *RunRepository) loadDiagnostics(ctx context.Context, id string) ([]budget.Diagnostic, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT layer, label, reason, detail
FROM %s
WHERE run_id = $1
ORDER BY seq ASC`, r.table("diagnostics")), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []budget.Diagnostic
	for rows.Next() {
		var d budget.Diagnostic
		if err := rows.Scan(&d.Layer, &d.Label, &d.Reason, &d.Detail); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
