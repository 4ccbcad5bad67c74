package probe

import (
	"encoding/json"
	"fmt"
)

// Container-probe fields consumed downstream.
const (
	FieldWidth               = "Width"
	FieldHeight              = "Height"
	FieldWidthCleanAperture  = "Width_CleanAperture"
	FieldHeightCleanAperture = "Height_CleanAperture"
	FieldScanType            = "ScanType"
	FieldChromaSubsampling   = "ChromaSubsampling"
	FieldPixelAspectRatio    = "PixelAspectRatio"
	FieldTrackID             = "ID"
)

// mediaInfoDoc mirrors `mediainfo --Output=JSON` just deep enough to reach
// the first video track.
type mediaInfoDoc struct {
	Media struct {
		Track []map[string]any `json:"track"`
	} `json:"media"`
}

// ParseMediaInfo flattens the first video track of a mediainfo JSON document
// into a Source.
func ParseMediaInfo(data []byte) (Source, error) {
	var doc mediaInfoDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse mediainfo JSON: %w", err)
	}
	for _, tr := range doc.Media.Track {
		if t, _ := tr["@type"].(string); t != "Video" {
			continue
		}
		m := make(fieldMap, len(tr))
		for k, v := range tr {
			if s := stringify(v); s != "" {
				m[k] = s
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("mediainfo output has no video track")
}

// stringify renders scalar JSON values the way mediainfo prints them; nested
// values are dropped (no downstream field is nested).
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return ""
	}
}
