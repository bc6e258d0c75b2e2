package budget

import (
	"fmt"
	"strings"
	"time"
)

const (
	endOfDayMarker = "_24:00"
	dateLayout     = "01/02/2006"
	dateTimeLayout = "01/02/2006_15:04"
)

// StepUnit is the calendar unit of one model timestep.
type StepUnit int

const (
	StepDay StepUnit = iota
	StepMonth
	StepYear
)

// ParseStepUnit matches legacy unit spellings such as "1MON", "1DAY" or "1YEAR".
// Unrecognised spellings step by days.
func ParseStepUnit(unit string) StepUnit {
	u := strings.ToUpper(strings.TrimSpace(unit))
	switch {
	case strings.Contains(u, "MON"):
		return StepMonth
	case strings.Contains(u, "DAY"):
		return StepDay
	case strings.Contains(u, "YEAR"):
		return StepYear
	default:
		return StepDay
	}
}

func (u StepUnit) String() string {
	switch u {
	case StepMonth:
		return "MONTH"
	case StepYear:
		return "YEAR"
	default:
		return "DAY"
	}
}

// Timestamp is a period-end label.
//
// Model dates written as "MM/DD/YYYY_24:00" mean midnight at the end of the
// nominal day. The nominal calendar date is kept for arithmetic and the
// marker is re-applied when the timestamp is rendered.
type Timestamp struct {
	nominal time.Time
	shifted bool
}

// ParseTimestamp parses "MM/DD/YYYY_24:00", "MM/DD/YYYY_HH:MM" or "MM/DD/YYYY".
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, endOfDayMarker) {
		day, err := time.Parse(dateLayout, strings.TrimSuffix(value, endOfDayMarker))
		if err != nil {
			return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
		}
		return Timestamp{nominal: day, shifted: true}, nil
	}
	layout := dateLayout
	if strings.Contains(value, "_") {
		layout = dateTimeLayout
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	return Timestamp{nominal: parsed}, nil
}

// EndOfDay returns the end-of-day timestamp for a calendar date.
func EndOfDay(year int, month time.Month, day int) Timestamp {
	return Timestamp{nominal: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), shifted: true}
}

// NewTimestamp builds a timestamp from a nominal date and its end-of-day marker.
func NewTimestamp(nominal time.Time, endOfDay bool) Timestamp {
	y, m, d := nominal.Date()
	return Timestamp{nominal: time.Date(y, m, d, nominal.Hour(), nominal.Minute(), 0, 0, time.UTC), shifted: endOfDay}
}

// Date returns the nominal calendar date of the period end.
func (t Timestamp) Date() time.Time { return t.nominal }

// IsEndOfDay reports whether the timestamp carries the end-of-day marker.
func (t Timestamp) IsEndOfDay() bool { return t.shifted }

// Instant returns the moment the period ends.
func (t Timestamp) Instant() time.Time {
	if t.shifted {
		return t.nominal.AddDate(0, 0, 1)
	}
	return t.nominal
}

// String renders the timestamp the way model output files label time steps.
func (t Timestamp) String() string {
	return t.Instant().Format(dateLayout) + endOfDayMarker
}

// ReportDate renders the nominal date as MM/DD/YYYY for report tables.
func (t Timestamp) ReportDate() string { return t.nominal.Format(dateLayout) }

// Step advances the timestamp by delta units. Monthly steps land on the last
// day of the resulting month.
func (t Timestamp) Step(delta int, unit StepUnit) Timestamp {
	d := t.nominal
	switch unit {
	case StepMonth:
		first := time.Date(d.Year(), d.Month()+time.Month(delta), 1, 0, 0, 0, 0, d.Location())
		d = lastDayOfMonth(first)
	case StepYear:
		first := time.Date(d.Year()+delta, d.Month(), 1, 0, 0, 0, 0, d.Location())
		day := d.Day()
		if last := lastDayOfMonth(first).Day(); day > last {
			day = last
		}
		d = time.Date(first.Year(), first.Month(), day, d.Hour(), d.Minute(), 0, 0, d.Location())
	default:
		d = d.AddDate(0, 0, delta)
	}
	return Timestamp{nominal: d, shifted: t.shifted}
}

// GenerateTimesteps returns count period-end timestamps starting at start.
func GenerateTimesteps(start Timestamp, count int, delta float64, unit string) ([]Timestamp, error) {
	if count < 1 {
		return nil, ErrInvalidTimestepCount
	}
	step := ParseStepUnit(unit)
	out := make([]Timestamp, count)
	out[0] = start
	for i := 1; i < count; i++ {
		out[i] = out[i-1].Step(int(delta), step)
	}
	return out, nil
}

// GenerateTimestepsFrom parses start and generates the sequence.
func GenerateTimestepsFrom(start string, count int, delta float64, unit string) ([]Timestamp, error) {
	ts, err := ParseTimestamp(start)
	if err != nil {
		return nil, err
	}
	return GenerateTimesteps(ts, count, delta, unit)
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
