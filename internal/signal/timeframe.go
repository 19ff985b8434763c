package signal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeframe converts labels such as "1min", "15min", "60min", "4h" and "1d" into a bar width.
func ParseTimeframe(tf string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(tf))
	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"min", time.Minute},
		{"m", time.Minute},
		{"h", time.Hour},
		{"d", 24 * time.Hour},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil || n <= 0 {
			break
		}
		return time.Duration(n) * u.unit, nil
	}
	return 0, fmt.Errorf("invalid timeframe %q", tf)
}
