package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"streambake/internal/geometry"
	"streambake/internal/model"
)

// BuildOptions carry the run-level inputs shared by every rendition's
// command line.
type BuildOptions struct {
	Input      string
	Watermark  *model.WatermarkSpec
	Keyframes  []string // additional forced-keyframe timecodes
	AudioDelay float64  // seconds; >0 switches to dual-input mapping
	Test       bool     // truncate to the first 30 seconds
	Progress   bool     // include -progress pipe:1
}

// BuildArgs constructs the ffmpeg invocation for one rendition. The filter
// graph order is fixed: watermark source scale, crop, scale+setsar, overlay.
func BuildArgs(plan model.RenditionPlan, geo model.Geometry, o BuildOptions) []string {
	args := []string{"-y", "-i", o.Input}

	// A positive audio delay attaches the input twice; video maps from the
	// first input, audio from the delayed second.
	delayed := o.AudioDelay > 0
	if delayed {
		args = append(args,
			"-itsoffset", strconv.FormatFloat(o.AudioDelay, 'f', -1, 64),
			"-i", o.Input,
		)
	}

	vchain := videoChain(plan, geo)

	if o.Watermark != nil {
		wmIdx := 1
		if delayed {
			wmIdx = 2
		}
		args = append(args, "-i", o.Watermark.Path)
		wmWidth := geometry.RoundToEven(float64(plan.Width) * float64(o.Watermark.WidthPercent) / 100)
		fc := fmt.Sprintf("[%d:v]scale=%d:-1[wm];[0:v]%s[base];[base][wm]overlay=%s[out]",
			wmIdx, wmWidth, vchain, overlayPosition(o.Watermark.Orientation))
		args = append(args, "-filter_complex", fc, "-map", "[out]")
	} else {
		args = append(args, "-vf", vchain, "-map", "0:v:0")
	}

	if delayed {
		args = append(args, "-map", "1:a:0")
	} else {
		args = append(args, "-map", "0:a:0")
	}

	args = append(args,
		"-c:v", "libx264",
		"-profile:v", plan.VideoProfile,
		"-level", plan.VideoLevel,
		"-b:v", plan.VBitrate,
		"-bufsize", plan.VBufsize,
		"-c:a", "aac",
		"-profile:a", plan.AudioProfile,
		"-b:a", plan.ABitrate,
		"-force_key_frames", keyframeSpec(o.Keyframes),
		"-movflags", "+faststart",
	)

	if o.Test {
		args = append(args, "-t", "30")
	}
	if o.Progress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}

	args = append(args, plan.OutputPath)
	return args
}

// videoChain is the comma-joined per-frame filter list: optional
// deinterlace, optional crop, scale to the final dimensions, and a forced
// 1:1 sample aspect.
func videoChain(plan model.RenditionPlan, geo model.Geometry) string {
	var filters []string
	if geo.Interlaced {
		filters = append(filters, "yadif")
	}
	if c := geo.Crop; c != nil {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", c.Width, c.Height, c.X, c.Y))
	}
	filters = append(filters,
		fmt.Sprintf("scale=%d:%d", plan.Width, plan.Height),
		"setsar=1:1",
	)
	return strings.Join(filters, ",")
}

// overlayPosition maps an orientation to the overlay coordinate expression,
// with a 10-pixel margin. The center expression subtracts the margin from
// both dimensions before halving; this matches the long-standing production
// behavior and is pinned by tests.
func overlayPosition(o model.Orientation) string {
	switch o {
	case model.OrientTopLeft:
		return "10:10"
	case model.OrientTopRight:
		return "main_w-overlay_w-10:10"
	case model.OrientBottomLeft:
		return "10:main_h-overlay_h-10"
	case model.OrientCenter:
		return "(main_w-overlay_w-10)/2:(main_h-overlay_h-10)/2"
	case model.OrientBottomRight:
		fallthrough
	default:
		return "main_w-overlay_w-10:main_h-overlay_h-10"
	}
}

// keyframeSpec always forces keyframes on chapter marks, plus any extra
// absolute timecodes.
func keyframeSpec(timecodes []string) string {
	if len(timecodes) == 0 {
		return "chapters"
	}
	return "chapters," + strings.Join(timecodes, ",")
}
