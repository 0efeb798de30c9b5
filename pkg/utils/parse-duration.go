package utils

import (
	"fmt"
	"time"
)

// ParseDurationString parses duration values arriving as strings from the
// environment, e.g. the licence token lifetime override ("24h", "30m").
func ParseDurationString(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time duration '%s': %w", value, err)
	}
	return d, nil
}
