package notify

import (
	"context"
	"errors"

	"github.com/ucdavis/iwfm-sub003/internal/budget/application"
)

// MultiNotifier dispatches run events to multiple notifiers.
type MultiNotifier struct {
	notifiers []application.RunNotifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...application.RunNotifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the event to every notifier and joins their errors.
func (m *MultiNotifier) Notify(ctx context.Context, event application.RunEvent) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
