package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"streambake/internal/geometry"
	"streambake/internal/model"
	"streambake/internal/util/bitrate"
	"streambake/internal/util/media"
)

// autoAxis is the sentinel for a profile axis given as "auto".
const autoAxis = -1

// ExpandProfile turns one enabled profile into a concrete rendition plan
// against the reconciled geometry. Upscaling is allowed but warned about.
func ExpandProfile(p model.EncodingProfile, geo model.Geometry, outDir, prefix, suffix string) (model.RenditionPlan, []model.Warning, error) {
	targetW, targetH, err := parseDimensions(p.Dimensions)
	if err != nil {
		return model.RenditionPlan{}, nil, err
	}

	ratio, err := scaleRatio(targetW, targetH, geo)
	if err != nil {
		return model.RenditionPlan{}, nil, err
	}

	var warnings []model.Warning
	if ratio > 1 {
		warnings = append(warnings, model.Warning{
			Kind: model.WarnUpscale,
			Message: fmt.Sprintf("profile %q requests %s from a %dx%d source; output will be upscaled",
				p.Device, p.Dimensions, geo.SquareWidth, geo.SquareHeight),
		})
	}

	width := geometry.RoundToEven(float64(geo.SquareWidth) * ratio)
	height := geometry.RoundToEven(float64(geo.SquareHeight) * ratio)

	vbufsize := p.VBufsize
	if vbufsize == "" {
		vbufsize, err = bitrate.DefaultBufsize(p.VBitrate)
		if err != nil {
			return model.RenditionPlan{}, nil, fmt.Errorf("profile %q: %w", p.Device, err)
		}
	}
	total, err := bitrate.Total(p.VBitrate, p.ABitrate)
	if err != nil {
		return model.RenditionPlan{}, nil, fmt.Errorf("profile %q: %w", p.Device, err)
	}

	videoProfile, videoLevel, audioProfile := media.DeviceTier(p.Device)

	return model.RenditionPlan{
		Width:        width,
		Height:       height,
		VideoProfile: videoProfile,
		VideoLevel:   videoLevel,
		AudioProfile: audioProfile,
		VBitrate:     p.VBitrate,
		VBufsize:     vbufsize,
		ABitrate:     p.ABitrate,
		TotalBitrate: total,
		Device:       p.Device,
		OutputPath:   media.OutputPath(outDir, prefix, total, p.Device, suffix),
	}, warnings, nil
}

// scaleRatio derives the scale factor from the requested axes. When both are
// literal the smaller per-axis ratio wins so the output never exceeds either
// request; an "auto" axis follows the other.
func scaleRatio(targetW, targetH int, geo model.Geometry) (float64, error) {
	if geo.SquareWidth <= 0 || geo.SquareHeight <= 0 {
		return 0, fmt.Errorf("source geometry %dx%d is unusable", geo.SquareWidth, geo.SquareHeight)
	}
	switch {
	case targetW == autoAxis && targetH == autoAxis:
		return 0, fmt.Errorf("profile dimensions cannot be auto on both axes")
	case targetW == autoAxis:
		return float64(targetH) / float64(geo.SquareHeight), nil
	case targetH == autoAxis:
		return float64(targetW) / float64(geo.SquareWidth), nil
	}
	rw := float64(targetW) / float64(geo.SquareWidth)
	rh := float64(targetH) / float64(geo.SquareHeight)
	if rw < rh {
		return rw, nil
	}
	return rh, nil
}

// parseDimensions parses "WxH" where either axis may be "auto".
func parseDimensions(dims string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.TrimSpace(dims), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid profile dimensions %q (want WxH)", dims)
	}
	w, err = parseAxis(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid profile dimensions %q: %w", dims, err)
	}
	h, err = parseAxis(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid profile dimensions %q: %w", dims, err)
	}
	return w, h, nil
}

func parseAxis(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return autoAxis, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("axis %q is neither a positive integer nor auto", s)
	}
	return v, nil
}

// EnabledProfiles filters the configured profile list down to the enabled
// entries, preserving order.
func EnabledProfiles(profiles []model.EncodingProfile) []model.EncodingProfile {
	var out []model.EncodingProfile
	for _, p := range profiles {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// RenditionJobID names the reporter job for the i-th enabled profile.
func RenditionJobID(i int, p model.EncodingProfile) string {
	return fmt.Sprintf("rendition-%d-%s", i+1, p.Dimensions)
}
