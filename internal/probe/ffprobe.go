package probe

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Stream-probe fields consumed downstream. Audio fields carry an "audio_"
// prefix so one Source covers both selected streams.
const (
	FieldStreamIndex  = "index"
	FieldStreamWidth  = "width"
	FieldStreamHeight = "height"
	FieldPixFmt       = "pix_fmt"
	FieldSAR          = "sample_aspect_ratio"
	FieldDAR          = "display_aspect_ratio"
	FieldAudioIndex   = "audio_index"
	FieldAudioCodec   = "audio_codec_name"
	FieldDuration     = "duration"
)

type ffprobeStream struct {
	Index              int    `json:"index"`
	CodecType          string `json:"codec_type"`
	CodecName          string `json:"codec_name"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	PixFmt             string `json:"pix_fmt"`
	SampleAspectRatio  string `json:"sample_aspect_ratio"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
}

type ffprobeDoc struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseFFProbe selects the first video and first audio stream from an
// `ffprobe -show_streams` JSON document and flattens their fields.
func ParseFFProbe(data []byte) (Source, error) {
	var doc ffprobeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	m := make(fieldMap, 8)
	haveVideo, haveAudio := false, false
	for _, st := range doc.Streams {
		switch st.CodecType {
		case "video":
			if haveVideo {
				continue
			}
			haveVideo = true
			m[FieldStreamIndex] = strconv.Itoa(st.Index)
			m[FieldStreamWidth] = strconv.Itoa(st.Width)
			m[FieldStreamHeight] = strconv.Itoa(st.Height)
			if st.PixFmt != "" {
				m[FieldPixFmt] = st.PixFmt
			}
			if st.SampleAspectRatio != "" {
				m[FieldSAR] = st.SampleAspectRatio
			}
			if st.DisplayAspectRatio != "" {
				m[FieldDAR] = st.DisplayAspectRatio
			}
		case "audio":
			if haveAudio {
				continue
			}
			haveAudio = true
			m[FieldAudioIndex] = strconv.Itoa(st.Index)
			if st.CodecName != "" {
				m[FieldAudioCodec] = st.CodecName
			}
		}
	}
	if doc.Format.Duration != "" {
		m[FieldDuration] = doc.Format.Duration
	}
	if !haveVideo {
		return nil, fmt.Errorf("ffprobe output has no video stream")
	}
	return m, nil
}
