package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// Tools holds resolved paths for every external tool the pipeline shells out to.
type Tools struct {
	FFmpeg    string
	FFprobe   string
	MediaInfo string
	ExifTool  string
}

// Find resolves the external tools, honoring optional explicit paths. The
// first three are required; exiftool is optional unless an explicit path was
// given, since the tag probe degrades gracefully without it.
func Find(ffmpeg, ffprobe, mediainfo, exiftool string) (Tools, error) {
	var t Tools
	var err error
	if t.FFmpeg, err = find(ffmpeg, "ffmpeg"); err != nil {
		return Tools{}, err
	}
	if t.FFprobe, err = find(ffprobe, "ffprobe"); err != nil {
		return Tools{}, err
	}
	if t.MediaInfo, err = find(mediainfo, "mediainfo"); err != nil {
		return Tools{}, err
	}
	if t.ExifTool, err = find(exiftool, "exiftool"); err != nil {
		if exiftool != "" {
			return Tools{}, err
		}
		t.ExifTool = ""
	}
	return t, nil
}

// find returns the path to the named tool. If customPath is non-empty, it
// tries that path or looks it up in PATH.
func find(customPath, name string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q", name, customPath)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH. Please install %s.", name, name)
}
