package media

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"streambake/internal/model"
)

// DefaultWatermarkPercent is the watermark width as a percentage of the
// output width when the spec omits it.
const DefaultWatermarkPercent = 40

// ParseWatermarkSpec validates a "FILE[:ORIENTATION[:PERCENT]]" string.
// The file must exist; orientation must be one of TL, TR, BL, BR, C.
func ParseWatermarkSpec(raw string) (model.WatermarkSpec, error) {
	if raw == "" {
		return model.WatermarkSpec{}, fmt.Errorf("empty watermark spec")
	}
	parts := strings.SplitN(raw, ":", 3)

	spec := model.WatermarkSpec{
		Path:         parts[0],
		Orientation:  model.OrientBottomRight,
		WidthPercent: DefaultWatermarkPercent,
	}
	if spec.Path == "" {
		return model.WatermarkSpec{}, fmt.Errorf("watermark spec %q: missing file", raw)
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return model.WatermarkSpec{}, fmt.Errorf("watermark file %q: %w", spec.Path, err)
	}

	if len(parts) > 1 && parts[1] != "" {
		o := model.Orientation(strings.ToUpper(parts[1]))
		switch o {
		case model.OrientTopLeft, model.OrientTopRight, model.OrientBottomLeft,
			model.OrientBottomRight, model.OrientCenter:
			spec.Orientation = o
		default:
			return model.WatermarkSpec{}, fmt.Errorf("watermark spec %q: invalid orientation %q (valid: TL|TR|BL|BR|C)", raw, parts[1])
		}
	}

	if len(parts) > 2 && parts[2] != "" {
		pct, err := strconv.Atoi(parts[2])
		if err != nil || pct <= 0 || pct > 100 {
			return model.WatermarkSpec{}, fmt.Errorf("watermark spec %q: invalid width percent %q", raw, parts[2])
		}
		spec.WidthPercent = pct
	}

	return spec, nil
}
