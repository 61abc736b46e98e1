package coupons

import (
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

var chileLocation = loadChileLocation()

func loadChileLocation() *time.Location {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseValidUntil accepts RFC 3339 timestamps, plain ISO dates, and
// day-first Spanish dates such as "31/12/2026" or "31 de diciembre de 2026".
// Date-only inputs expire at the end of that day in Santiago.
func ParseValidUntil(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, chileLocation); err == nil {
		end := endOfDay(t)
		return &end, nil
	}

	cfg := &dps.Configuration{
		Languages:   []string{"es"},
		DateOrder:   dps.DMY,
		CurrentTime: now.In(chileLocation),
	}
	dt, err := dps.Parse(cfg, raw)
	if err != nil || dt.Time.IsZero() {
		return nil, fmt.Errorf("unrecognized date %q", raw)
	}
	end := endOfDay(dt.Time.In(chileLocation))
	return &end, nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
