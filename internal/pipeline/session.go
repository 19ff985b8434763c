package pipeline

import (
	"fmt"
	"time"

	"github.com/pj950/ffftttt/internal/config"
)

type clockRange struct{ start, end int }

// Session answers whether the market is open, in the market's timezone.
// Start and end are inclusive, as are excluded ranges; weekends are closed.
type Session struct {
	loc     *time.Location
	open    clockRange
	exclude []clockRange
}

// NewSession resolves the timezone and clock strings once.
func NewSession(market config.Market, hours config.MarketHours) (*Session, error) {
	loc, err := time.LoadLocation(market.Timezone)
	if err != nil {
		return nil, fmt.Errorf("market timezone: %w", err)
	}
	open, err := parseRange(config.TimeRange{Start: hours.Start, End: hours.End})
	if err != nil {
		return nil, err
	}
	s := &Session{loc: loc, open: open}
	for _, r := range hours.ExcludeRanges {
		ex, err := parseRange(r)
		if err != nil {
			return nil, err
		}
		s.exclude = append(s.exclude, ex)
	}
	return s, nil
}

func parseRange(r config.TimeRange) (clockRange, error) {
	start, err := config.ParseClock(r.Start)
	if err != nil {
		return clockRange{}, err
	}
	end, err := config.ParseClock(r.End)
	if err != nil {
		return clockRange{}, err
	}
	return clockRange{start: start * 60, end: end * 60}, nil
}

// Location is the market timezone.
func (s *Session) Location() *time.Location { return s.loc }

// IsOpen reports whether t falls inside trading hours.
func (s *Session) IsOpen(t time.Time) bool {
	local := t.In(s.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if sec < s.open.start || sec > s.open.end {
		return false
	}
	for _, ex := range s.exclude {
		if sec >= ex.start && sec <= ex.end {
			return false
		}
	}
	return true
}
