package probe

import (
	"encoding/json"
	"fmt"
)

// Tag-probe fields, looked up per track with a "Track{id}:" prefix.
const (
	TagCleanAperture      = "CleanApertureDimensions"
	TagProductionAperture = "ProductionApertureDimensions"
	TagEncodedPixels      = "EncodedPixelsDimensions"
)

// TrackField builds the namespaced key exiftool uses for per-track tags,
// e.g. "Track1:CleanApertureDimensions".
func TrackField(trackID, field string) string {
	return "Track" + trackID + ":" + field
}

// emptyTags is the Source used when the tag probe is unavailable; every
// lookup degrades to "not available".
var emptyTags = fieldMap{}

// ParseExifTags flattens an `exiftool -j -G4` document. The output is a JSON
// array with one object per file; group-prefixed keys are kept verbatim.
// Tag metadata is frequently absent or malformed, so callers treat a nil
// error with empty content as normal.
func ParseExifTags(data []byte) (Source, error) {
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse exiftool JSON: %w", err)
	}
	if len(docs) == 0 {
		return emptyTags, nil
	}
	m := make(fieldMap, len(docs[0]))
	for k, v := range docs[0] {
		if s := stringify(v); s != "" {
			m[k] = s
		}
	}
	return m, nil
}
