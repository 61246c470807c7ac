package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DatePrecision records how much of a published date the source actually knew.
type DatePrecision string

const (
	PrecisionDay   DatePrecision = "day"
	PrecisionMonth DatePrecision = "month"
	PrecisionYear  DatePrecision = "year"
)

// PublishedDate is a calendar date with a precision. Missing month and day
// components default to 1.
type PublishedDate struct {
	time.Time
	Precision DatePrecision
}

// Layouts are tried in order; the first that parses wins.
var publishedLayouts = []struct {
	layout    string
	precision DatePrecision
}{
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ParsePublishedDate parses provider dates of varying granularity
// ("2020-05-14", "2020-05", "2020"). It returns nil when raw is empty or
// matches none of the layouts.
func ParsePublishedDate(raw string) *PublishedDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, l := range publishedLayouts {
		t, err := time.Parse(l.layout, raw)
		if err == nil {
			return &PublishedDate{Time: t, Precision: l.precision}
		}
	}
	return nil
}

// NewPublishedDate builds a date of the given precision, e.g. from a stored row.
func NewPublishedDate(t time.Time, p DatePrecision) *PublishedDate {
	switch p {
	case PrecisionMonth, PrecisionYear:
	default:
		p = PrecisionDay
	}
	return &PublishedDate{Time: t, Precision: p}
}

// String formats the date at its own precision.
func (d PublishedDate) String() string {
	switch d.Precision {
	case PrecisionYear:
		return d.Format("2006")
	case PrecisionMonth:
		return d.Format("2006-01")
	default:
		return d.Format("2006-01-02")
	}
}

func (d PublishedDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.String())
}

func (d *PublishedDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date format (string expected): %w", err)
	}
	if s == "" {
		*d = PublishedDate{}
		return nil
	}
	parsed := ParsePublishedDate(s)
	if parsed == nil {
		return fmt.Errorf("cannot parse date: %s", s)
	}
	*d = *parsed
	return nil
}

// MarshalYAML renders the date the same way as JSON.
func (d PublishedDate) MarshalYAML() (any, error) {
	return d.String(), nil
}
