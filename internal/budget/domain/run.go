package budget

import (
	"context"
	"time"
)

// Run is the persisted record of one post-processing run.
type Run struct {
	ID          string
	ZoneFile    string
	Source      string
	Extent      ExtentMode
	Units       Units
	StartedAt   time.Time
	FinishedAt  time.Time
	Timesteps   []Timestamp
	Tables      []ZoneReportTable
	Diagnostics []Diagnostic
}

// RunRepository stores finished runs.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
}
