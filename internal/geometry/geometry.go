// Package geometry cross-validates the probed aspect-ratio and aperture
// metadata and derives the crop and square-pixel baseline shared by every
// rendition.
package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"streambake/internal/model"
	"streambake/internal/probe"
)

// Round rounds half away from zero. All derived pixel counts use this.
func Round(x float64) int {
	return int(math.Round(x))
}

// RoundToEven rounds to the nearest even integer, half away from zero.
// Encoder chroma subsampling requires even dimensions.
func RoundToEven(x float64) int {
	return 2 * Round(x/2)
}

// Reconcile derives the shared Geometry from the three probe sources.
// A clean-aperture/source-dimension mismatch is fatal: the metadata is
// irreconcilable and no rendition can be trusted.
func Reconcile(pr probe.Result) (model.Geometry, error) {
	realW, err := intField(pr.Stream, probe.FieldStreamWidth)
	if err != nil {
		return model.Geometry{}, err
	}
	realH, err := intField(pr.Stream, probe.FieldStreamHeight)
	if err != nil {
		return model.Geometry{}, err
	}

	par := resolvePixelAspect(pr)

	geo := model.Geometry{
		RealWidth:    realW,
		RealHeight:   realH,
		PixelAspect:  par,
		SquareWidth:  RoundToEven(float64(realW) * par),
		SquareHeight: realH,
	}

	if scan, ok := pr.Container.Get(probe.FieldScanType); ok {
		geo.Interlaced = strings.Contains(strings.ToLower(scan), "interlace")
	}

	crop, err := resolveCrop(pr, par, realW, realH)
	if err != nil {
		return model.Geometry{}, err
	}
	geo.Crop = crop

	return geo, nil
}

// resolvePixelAspect reads the stream probe's sample/display aspect ratios.
// When both are the degenerate "0:1", the container probe's ratio is used;
// failing that, square pixels are assumed.
func resolvePixelAspect(pr probe.Result) float64 {
	sar, haveSAR := pr.Stream.Get(probe.FieldSAR)
	dar, haveDAR := pr.Stream.Get(probe.FieldDAR)

	degenerate := (!haveSAR || probe.IsDegenerateRatio(sar)) &&
		(!haveDAR || probe.IsDegenerateRatio(dar))
	if !degenerate {
		if v, err := probe.ParseAspect(sar); err == nil && v > 0 {
			return v
		}
	}
	if v, ok := pr.Container.Get(probe.FieldPixelAspectRatio); ok {
		if f, err := probe.ParseAspect(v); err == nil && f > 0 {
			return f
		}
	}
	return 1.0
}

// resolveCrop determines the crop rectangle, or nil when the clean aperture
// matches the encoded frame. The tag probe wins when its track exists; the
// container probe's aperture fields are the fallback, with the crop width
// taken as already pixel-aspect-final.
func resolveCrop(pr probe.Result, par float64, realW, realH int) (*model.CropRect, error) {
	var cleanDims, encodedDims string
	parCorrect := false

	if trackID, ok := pr.Container.Get(probe.FieldTrackID); ok {
		clean, okC := pr.Tags.Get(probe.TrackField(trackID, probe.TagCleanAperture))
		encoded, okE := pr.Tags.Get(probe.TrackField(trackID, probe.TagEncodedPixels))
		if okC && okE {
			cleanDims, encodedDims = clean, encoded
			parCorrect = true
		}
	}

	if cleanDims == "" {
		cw, okW := pr.Container.Get(probe.FieldWidthCleanAperture)
		ch, okH := pr.Container.Get(probe.FieldHeightCleanAperture)
		if okW && okH {
			w, okSW := pr.Container.Get(probe.FieldWidth)
			h, okSH := pr.Container.Get(probe.FieldHeight)
			if !okSW || !okSH {
				return nil, fmt.Errorf("container probe reports a clean aperture but no source dimensions")
			}
			cleanDims = cw + "x" + ch
			encodedDims = w + "x" + h
		}
	}

	if cleanDims == "" || cleanDims == encodedDims {
		return nil, nil
	}

	cleanW, cleanH, err := parseDims(cleanDims)
	if err != nil {
		return nil, fmt.Errorf("clean aperture: %w", err)
	}

	cropW := cleanW
	if parCorrect {
		cropW = Round(float64(cleanW) * correctionFactor(pr, par))
	}
	cropH := cleanH

	// In the tag path the corrected crop must reproduce the container
	// probe's source frame; anything else means the probes cannot be
	// reconciled. The container fallback has no independent dimensions to
	// check against (the aperture fields come from the same document).
	if parCorrect {
		srcW, okW := pr.Container.Get(probe.FieldWidth)
		srcH, okH := pr.Container.Get(probe.FieldHeight)
		if !okW || !okH {
			return nil, fmt.Errorf("container probe reports no source dimensions to verify crop %dx%d against", cropW, cropH)
		}
		got := fmt.Sprintf("%dx%d", cropW, cropH)
		want := srcW + "x" + srcH
		if got != want {
			return nil, fmt.Errorf("crop %s derived from clean aperture %s does not match source dimensions %s", got, cleanDims, want)
		}
	}

	if cropW > realW || cropH > realH {
		return nil, fmt.Errorf("crop %dx%d exceeds encoded frame %dx%d", cropW, cropH, realW, realH)
	}

	return &model.CropRect{
		Width:  cropW,
		Height: cropH,
		X:      (realW - cropW) / 2,
		Y:      (realH - cropH) / 2,
	}, nil
}

// correctionFactor is the horizontal scale applied to the tag probe's clean
// aperture width. The production/encoded aperture ratio is authoritative
// when both tags are present; otherwise the resolved pixel aspect is used.
func correctionFactor(pr probe.Result, par float64) float64 {
	trackID, ok := pr.Container.Get(probe.FieldTrackID)
	if !ok {
		return par
	}
	prod, okP := pr.Tags.Get(probe.TrackField(trackID, probe.TagProductionAperture))
	enc, okE := pr.Tags.Get(probe.TrackField(trackID, probe.TagEncodedPixels))
	if !okP || !okE {
		return par
	}
	prodW, _, perr := parseDims(prod)
	encW, _, eerr := parseDims(enc)
	if perr != nil || eerr != nil || encW == 0 {
		return par
	}
	return float64(prodW) / float64(encW)
}

func parseDims(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid dimensions %q", s)
	}
	w, werr := strconv.Atoi(strings.TrimSpace(ws))
	h, herr := strconv.Atoi(strings.TrimSpace(hs))
	if werr != nil || herr != nil {
		return 0, 0, fmt.Errorf("invalid dimensions %q", s)
	}
	return w, h, nil
}

func intField(src probe.Source, field string) (int, error) {
	v, ok := src.Get(field)
	if !ok {
		return 0, fmt.Errorf("stream probe missing %s", field)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("stream probe %s = %q is not a positive integer", field, v)
	}
	return n, nil
}
