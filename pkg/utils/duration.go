package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

var unitSizes = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// ParseDuration converts moderation shorthand like "30m", "2h", "7d" or
// "1w" into a duration.
func ParseDuration(s string) (time.Duration, error) {
	matches := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format %q", s)
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration format %q", s)
	}
	return time.Duration(value) * unitSizes[matches[2]], nil
}

// FormatDuration renders a duration as compact shorthand, e.g. "1d 2h 30m".
func FormatDuration(d time.Duration) string {
	total := int64(d.Seconds())
	if total <= 0 {
		return "0s"
	}

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}
