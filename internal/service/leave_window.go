package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-substitution-api/pkg/config"
)

// SubmissionWindow is the daily time range in which teachers may file their own leave.
// Start and End are offsets from local midnight; the End minute itself is still open.
type SubmissionWindow struct {
	Location *time.Location
	Start    time.Duration
	End      time.Duration
}

// NewSubmissionWindow parses the configured HH:MM bounds and time zone.
func NewSubmissionWindow(cfg config.SubstitutionConfig) (SubmissionWindow, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return SubmissionWindow{}, fmt.Errorf("load substitution timezone %q: %w", cfg.Timezone, err)
	}
	start, err := parseClockTime(cfg.WindowStart)
	if err != nil {
		return SubmissionWindow{}, err
	}
	end, err := parseClockTime(cfg.WindowEnd)
	if err != nil {
		return SubmissionWindow{}, err
	}
	if end < start {
		return SubmissionWindow{}, fmt.Errorf("submission window ends (%s) before it starts (%s)", cfg.WindowEnd, cfg.WindowStart)
	}
	return SubmissionWindow{Location: loc, Start: start, End: end}, nil
}

func parseClockTime(raw string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", raw, err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func (w SubmissionWindow) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Today returns the calendar date of now in the window's zone.
func (w SubmissionWindow) Today(now time.Time) time.Time {
	return dateOnly(now.In(w.location()))
}

// Open reports whether now falls inside the window.
func (w SubmissionWindow) Open(now time.Time) bool {
	local := now.In(w.location())
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	offset := local.Sub(midnight)
	return offset >= w.Start && offset < w.End+time.Minute
}

func (w SubmissionWindow) describe() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d %s",
		int(w.Start.Hours()), int(w.Start.Minutes())%60,
		int(w.End.Hours()), int(w.End.Minutes())%60,
		w.location().String())
}
