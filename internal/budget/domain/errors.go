package budget

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for malformed or missing run configuration.
	// It is fatal for the whole run.
	ErrConfiguration = errors.New("budget: configuration error")
	// ErrDataSource is returned when the raw source cannot supply expected data.
	ErrDataSource = errors.New("budget: data source error")
	// ErrExtentNotFound is returned when a zone definition has no ZEXTENT value.
	ErrExtentNotFound = fmt.Errorf("%w: ZEXTENT not found", ErrConfiguration)
	// ErrInvalidExtent is returned when ZEXTENT is neither 0 nor 1.
	ErrInvalidExtent = fmt.Errorf("%w: invalid ZEXTENT", ErrConfiguration)
	// ErrInvalidTimestepCount is returned when fewer than one timestep is requested.
	ErrInvalidTimestepCount = fmt.Errorf("%w: timestep count must be at least 1", ErrConfiguration)
	// ErrInvalidTimestamp is returned when a date string cannot be parsed.
	ErrInvalidTimestamp = fmt.Errorf("%w: invalid timestamp", ErrConfiguration)
	// ErrNilZoneDefinition is returned when aggregation is attempted without zones.
	ErrNilZoneDefinition = fmt.Errorf("%w: nil zone definition", ErrConfiguration)
	// ErrRunNotFound is returned by run repositories for unknown ids.
	ErrRunNotFound = errors.New("budget: run not found")
)
