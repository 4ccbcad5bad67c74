package media

import (
	"path/filepath"
	"strings"

	"streambake/internal/util"
)

// OutputBasename builds the rendition base filename (without extension) from
// the prefix, the total bitrate label, and optional device class and suffix.
func OutputBasename(prefix, totalBitrate, device, suffix string) string {
	parts := []string{util.SanitizeFilename(prefix), totalBitrate}
	if device != "" {
		parts = append(parts, util.SanitizeFilename(device))
	}
	if suffix != "" {
		parts = append(parts, util.SanitizeFilename(suffix))
	}
	return strings.Join(parts, "_")
}

// OutputPath joins the output directory with the rendition filename.
func OutputPath(outDir, prefix, totalBitrate, device, suffix string) string {
	return filepath.Join(outDir, OutputBasename(prefix, totalBitrate, device, suffix)+".mp4")
}

// DefaultPrefix derives an output prefix from the input path when the user
// did not set one.
func DefaultPrefix(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DeviceTier maps a device class to codec tiers. A class containing "mobile"
// (case-insensitive) gets the constrained tier.
func DeviceTier(device string) (videoProfile, videoLevel, audioProfile string) {
	if strings.Contains(strings.ToLower(device), "mobile") {
		return "main", "3.1", "aac_he"
	}
	return "high", "4.1", "aac_low"
}
