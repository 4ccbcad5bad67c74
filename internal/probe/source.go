// Package probe normalizes the three metadata tools (mediainfo, ffprobe,
// exiftool) into flat field lookups the reconciler can consume.
package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// Source is a uniform field accessor over one probed metadata document.
// The second return is false when the field is absent; callers never see a
// silently defaulted zero.
type Source interface {
	Get(field string) (string, bool)
}

// fieldMap is the shared Source implementation backing all three adapters.
type fieldMap map[string]string

func (m fieldMap) Get(field string) (string, bool) {
	v, ok := m[field]
	return v, ok
}

// ParseAspect converts an aspect-ratio value to a float. It accepts both the
// ffprobe "N:D" form and the mediainfo decimal form ("0.889"). A zero
// denominator yields the raw numerator value.
func ParseAspect(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, fmt.Errorf("empty aspect ratio")
	}
	if n, d, ok := strings.Cut(t, ":"); ok {
		num, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("invalid aspect ratio %q", s)
		}
		den, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return 0, fmt.Errorf("invalid aspect ratio %q", s)
		}
		if den == 0 {
			return float64(num), nil
		}
		return float64(num) / float64(den), nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid aspect ratio %q", s)
	}
	return f, nil
}

// IsDegenerateRatio reports whether s is the "0:1" placeholder some muxers
// write when the real ratio is unknown.
func IsDegenerateRatio(s string) bool {
	n, d, ok := strings.Cut(strings.TrimSpace(s), ":")
	return ok && strings.TrimSpace(n) == "0" && strings.TrimSpace(d) == "1"
}
