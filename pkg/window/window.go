// Package window resolves business date windows for order queries and
// reports. All windows are anchored in the brokerage's timezone and
// converted to UTC instants for storage-level filtering.
package window

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
)

// BusinessTimezone is the fixed operating timezone of the brokerage.
const BusinessTimezone = "America/Chicago"

// Window is a half-open UTC interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Request carries the raw query inputs. Precedence: explicit Start/End,
// then Month+Year, then the current month.
type Request struct {
	Start string // RFC 3339 or YYYY-MM-DD
	End   string
	Month string // "Jan".."Dec" or "January".."December" or "1".."12"
	Year  int
}

var monthsByName = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		monthsByName[strings.ToLower(name)] = m
		monthsByName[strings.ToLower(name[:3])] = m
	}
}

// Resolve turns the request into a UTC window using the precedence rules.
// now supplies the clock for the current-month fallback.
func Resolve(req Request, now time.Time) (Window, error) {
	loc, err := time.LoadLocation(BusinessTimezone)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load business timezone")
	}

	if strings.TrimSpace(req.Start) != "" || strings.TrimSpace(req.End) != "" {
		return resolveExplicit(req, loc)
	}
	if strings.TrimSpace(req.Month) != "" || req.Year != 0 {
		return resolveMonthYear(req, loc, now)
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: start.UTC(), End: start.AddDate(0, 1, 0).UTC()}, nil
}

func resolveExplicit(req Request, loc *time.Location) (Window, error) {
	start, err := parseStamp(req.Start, loc)
	if err != nil {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid start date").WithDetails(map[string]any{"start": req.Start})
	}
	end, err := parseStamp(req.End, loc)
	if err != nil {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid end date").WithDetails(map[string]any{"end": req.End})
	}
	if !end.After(start) {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

func resolveMonthYear(req Request, loc *time.Location, now time.Time) (Window, error) {
	month, err := parseMonth(req.Month)
	if err != nil {
		return Window{}, err
	}
	year := req.Year
	if year == 0 {
		year = now.In(loc).Year()
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{Start: start.UTC(), End: start.AddDate(0, 1, 0).UTC()}, nil
}

func parseMonth(raw string) (time.Month, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "month is required with year")
	}
	if m, ok := monthsByName[trimmed]; ok {
		return m, nil
	}
	var numeric int
	if _, err := fmt.Sscanf(trimmed, "%d", &numeric); err == nil && numeric >= 1 && numeric <= 12 {
		return time.Month(numeric), nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid month").WithDetails(map[string]any{"month": raw})
}

func parseStamp(raw string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", trimmed, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// Now returns the current time in the business timezone. Used where a
// caller-supplied timestamp defaults to "now" (dispute dates).
func Now() time.Time {
	loc, err := time.LoadLocation(BusinessTimezone)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(loc)
}
