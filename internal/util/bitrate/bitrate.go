package bitrate

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKbps extracts the numeric magnitude from a "k"-suffixed bitrate string
// such as "1000k". A bare number is accepted as-is.
func ParseKbps(s string) (int, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(strings.TrimSuffix(t, "k"), "K")
	if t == "" {
		return 0, fmt.Errorf("empty bitrate %q", s)
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return v, nil
}

// Total sums the video and audio bitrate magnitudes and re-suffixes with "k".
// The result labels renditions and output filenames.
func Total(vbitrate, abitrate string) (string, error) {
	v, err := ParseKbps(vbitrate)
	if err != nil {
		return "", fmt.Errorf("video bitrate: %w", err)
	}
	a, err := ParseKbps(abitrate)
	if err != nil {
		return "", fmt.Errorf("audio bitrate: %w", err)
	}
	return strconv.Itoa(v+a) + "k", nil
}

// DefaultBufsize returns 2x the video bitrate magnitude, "k"-suffixed. Used
// when a profile omits an explicit buffer size.
func DefaultBufsize(vbitrate string) (string, error) {
	v, err := ParseKbps(vbitrate)
	if err != nil {
		return "", fmt.Errorf("video bitrate: %w", err)
	}
	return strconv.Itoa(v*2) + "k", nil
}
