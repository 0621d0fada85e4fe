package util

import (
	"regexp"
	"strconv"
	"strings"
)

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func BoolPtr(b bool) *bool {
	return &b
}

// SplitAndTrim splits a comma separated list and drops empty entries.
func SplitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var throttleDelayPattern = regexp.MustCompile(`(?i)available in (\d+) second`)

// ParseDelaySeconds extracts the delay from a throttling message such as
// "Request was throttled. Expected available in 30 seconds." -> 30.
// Other numbers in the message are ignored.
func ParseDelaySeconds(msg string) (int, bool) {
	m := throttleDelayPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
