package geometry

import (
	"math"
	"strings"
	"testing"

	"streambake/internal/model"
	"streambake/internal/probe"
)

type fakeSource map[string]string

func (f fakeSource) Get(field string) (string, bool) {
	v, ok := f[field]
	return v, ok
}

func TestRoundToEven(t *testing.T) {
	samples := []float64{0, 0.5, 1, 1.5, 2.7, 3, 359.9, 360.1, 639.99, 640.01, 1079.5, -3.2, -1}
	for _, x := range samples {
		got := RoundToEven(x)
		if got%2 != 0 {
			t.Errorf("RoundToEven(%v) = %d, not even", x, got)
		}
		if math.Abs(float64(got)-x) > 1.5 {
			t.Errorf("RoundToEven(%v) = %d, off by more than 1.5", x, got)
		}
	}
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, -1},
		{-1.5, -2},
		{0.49, 0},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func squareSource(w, h string) probe.Result {
	return probe.Result{
		Container: fakeSource{
			probe.FieldWidth:   w,
			probe.FieldHeight:  h,
			probe.FieldTrackID: "1",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  w,
			probe.FieldStreamHeight: h,
			probe.FieldSAR:          "1:1",
			probe.FieldDAR:          "16:9",
		},
		Tags: fakeSource{},
	}
}

func TestReconcile_NoCropSquarePixels(t *testing.T) {
	geo, err := Reconcile(squareSource("1920", "1080"))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if geo.SquareWidth != 1920 || geo.SquareHeight != 1080 {
		t.Errorf("square dims = %dx%d, want 1920x1080", geo.SquareWidth, geo.SquareHeight)
	}
	if geo.Crop != nil {
		t.Errorf("expected no crop, got %+v", geo.Crop)
	}
	if geo.PixelAspect != 1.0 {
		t.Errorf("PixelAspect = %v, want 1.0", geo.PixelAspect)
	}
	if geo.Interlaced {
		t.Errorf("Interlaced = true, want false")
	}
}

func TestReconcile_DegenerateSARFallsBackToContainer(t *testing.T) {
	pr := probe.Result{
		Container: fakeSource{
			probe.FieldWidth:            "1280",
			probe.FieldHeight:           "720",
			probe.FieldPixelAspectRatio: "1.5",
			probe.FieldTrackID:          "1",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  "1280",
			probe.FieldStreamHeight: "720",
			probe.FieldSAR:          "0:1",
			probe.FieldDAR:          "0:1",
		},
		Tags: fakeSource{},
	}
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if geo.PixelAspect != 1.5 {
		t.Errorf("PixelAspect = %v, want 1.5 (container fallback)", geo.PixelAspect)
	}
	if geo.SquareWidth != 1920 {
		t.Errorf("SquareWidth = %d, want 1920", geo.SquareWidth)
	}
	if geo.SquareHeight != 720 {
		t.Errorf("SquareHeight = %d, want 720 (unchanged)", geo.SquareHeight)
	}
}

func TestReconcile_DegenerateSARNoContainerRatio(t *testing.T) {
	pr := squareSource("1920", "1080")
	pr.Stream.(fakeSource)[probe.FieldSAR] = "0:1"
	pr.Stream.(fakeSource)[probe.FieldDAR] = "0:1"
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if geo.PixelAspect != 1.0 {
		t.Errorf("PixelAspect = %v, want default 1.0", geo.PixelAspect)
	}
}

func TestReconcile_Interlaced(t *testing.T) {
	pr := squareSource("720", "576")
	pr.Container.(fakeSource)[probe.FieldScanType] = "Interlaced"
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if !geo.Interlaced {
		t.Errorf("Interlaced = false, want true")
	}
}

func TestReconcile_TagProbeCrop(t *testing.T) {
	pr := probe.Result{
		Container: fakeSource{
			probe.FieldWidth:   "704",
			probe.FieldHeight:  "480",
			probe.FieldTrackID: "1",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  "720",
			probe.FieldStreamHeight: "480",
			probe.FieldSAR:          "1:1",
			probe.FieldDAR:          "3:2",
		},
		Tags: fakeSource{
			"Track1:CleanApertureDimensions": "704x480",
			"Track1:EncodedPixelsDimensions": "720x480",
		},
	}
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := model.CropRect{Width: 704, Height: 480, X: 8, Y: 0}
	if geo.Crop == nil || *geo.Crop != want {
		t.Errorf("Crop = %+v, want %+v", geo.Crop, want)
	}
}

func TestReconcile_TagProbeMismatchIsFatal(t *testing.T) {
	pr := probe.Result{
		Container: fakeSource{
			probe.FieldWidth:   "720", // disagrees with the derived 704x480 crop
			probe.FieldHeight:  "480",
			probe.FieldTrackID: "1",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  "720",
			probe.FieldStreamHeight: "480",
			probe.FieldSAR:          "1:1",
		},
		Tags: fakeSource{
			"Track1:CleanApertureDimensions": "704x480",
			"Track1:EncodedPixelsDimensions": "720x480",
		},
	}
	_, err := Reconcile(pr)
	if err == nil {
		t.Fatalf("expected fatal reconciliation error")
	}
	// Both compared dimension strings must appear in the message.
	if !strings.Contains(err.Error(), "704x480") || !strings.Contains(err.Error(), "720x480") {
		t.Errorf("error %q should contain both dimension strings", err)
	}
}

func TestReconcile_TagCropEqualDimsNoCrop(t *testing.T) {
	pr := squareSource("1920", "1080")
	pr.Tags.(fakeSource)["Track1:CleanApertureDimensions"] = "1920x1080"
	pr.Tags.(fakeSource)["Track1:EncodedPixelsDimensions"] = "1920x1080"
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if geo.Crop != nil {
		t.Errorf("expected no crop for equal dimensions, got %+v", geo.Crop)
	}
}

func TestReconcile_ContainerFallbackCrop(t *testing.T) {
	// No tag-probe track: aperture fields from mediainfo drive the crop and
	// the width is taken as already final.
	pr := probe.Result{
		Container: fakeSource{
			probe.FieldWidth:               "720",
			probe.FieldHeight:              "480",
			probe.FieldWidthCleanAperture:  "704",
			probe.FieldHeightCleanAperture: "480",
			probe.FieldTrackID:             "1",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  "720",
			probe.FieldStreamHeight: "480",
			probe.FieldSAR:          "1:1",
		},
		Tags: fakeSource{},
	}
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := model.CropRect{Width: 704, Height: 480, X: 8, Y: 0}
	if geo.Crop == nil || *geo.Crop != want {
		t.Errorf("Crop = %+v, want %+v", geo.Crop, want)
	}
}

func TestReconcile_ProductionApertureCorrection(t *testing.T) {
	// Anamorphic source: the production/encoded aperture ratio (675/720)
	// drives the width correction, not the stream SAR.
	pr := probe.Result{
		Container: fakeSource{
			probe.FieldWidth:   "660", // 704 * 675/720
			probe.FieldHeight:  "480",
			probe.FieldTrackID: "2",
		},
		Stream: fakeSource{
			probe.FieldStreamWidth:  "720",
			probe.FieldStreamHeight: "480",
			probe.FieldSAR:          "10:11",
			probe.FieldDAR:          "15:11",
		},
		Tags: fakeSource{
			"Track2:CleanApertureDimensions":      "704x480",
			"Track2:ProductionApertureDimensions": "675x480",
			"Track2:EncodedPixelsDimensions":      "720x480",
		},
	}
	geo, err := Reconcile(pr)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	want := model.CropRect{Width: 660, Height: 480, X: 30, Y: 0}
	if geo.Crop == nil || *geo.Crop != want {
		t.Errorf("Crop = %+v, want %+v", geo.Crop, want)
	}
}

func TestReconcile_MissingStreamDimsIsError(t *testing.T) {
	pr := probe.Result{
		Container: fakeSource{probe.FieldTrackID: "1"},
		Stream:    fakeSource{probe.FieldStreamHeight: "480"},
		Tags:      fakeSource{},
	}
	if _, err := Reconcile(pr); err == nil {
		t.Fatalf("expected error for missing stream width")
	}
}
