package encoder

import (
	"strings"
	"testing"

	"streambake/internal/model"
)

func basePlan() model.RenditionPlan {
	return model.RenditionPlan{
		Width:        1280,
		Height:       720,
		VideoProfile: "high",
		VideoLevel:   "4.1",
		AudioProfile: "aac_low",
		VBitrate:     "1000k",
		VBufsize:     "2000k",
		ABitrate:     "128k",
		TotalBitrate: "1128k",
		Device:       "desktop",
		OutputPath:   "/tmp/out_1128k_desktop.mp4",
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name            string
		plan            model.RenditionPlan
		geo             model.Geometry
		build           BuildOptions
		wantContains    []string
		wantNotContains []string
	}{
		{
			name:  "plain progressive no crop",
			plan:  basePlan(),
			geo:   model.Geometry{SquareWidth: 1920, SquareHeight: 1080},
			build: BuildOptions{Input: "/tmp/in.mov"},
			wantContains: []string{
				"-vf scale=1280:720,setsar=1:1",
				"-map 0:v:0", "-map 0:a:0",
				"-c:v libx264", "-profile:v high", "-level 4.1",
				"-b:v 1000k", "-bufsize 2000k",
				"-c:a aac", "-profile:a aac_low", "-b:a 128k",
				"-force_key_frames chapters",
				"-movflags +faststart",
			},
			wantNotContains: []string{"-filter_complex", "-itsoffset", "-t 30", "crop="},
		},
		{
			name: "interlaced cropped source",
			plan: basePlan(),
			geo: model.Geometry{
				Interlaced: true,
				Crop:       &model.CropRect{Width: 704, Height: 480, X: 8, Y: 0},
			},
			build: BuildOptions{Input: "/tmp/in.mov"},
			wantContains: []string{
				"-vf yadif,crop=704:480:8:0,scale=1280:720,setsar=1:1",
			},
		},
		{
			name: "forced keyframe timecodes",
			plan: basePlan(),
			geo:  model.Geometry{},
			build: BuildOptions{
				Input:     "/tmp/in.mov",
				Keyframes: []string{"00:01:00.000", "00:02:30.500"},
			},
			wantContains: []string{"-force_key_frames chapters,00:01:00.000,00:02:30.500"},
		},
		{
			name: "audio delay dual input mapping",
			plan: basePlan(),
			geo:  model.Geometry{},
			build: BuildOptions{
				Input:      "/tmp/in.mov",
				AudioDelay: 1.5,
			},
			wantContains: []string{
				"-itsoffset 1.5",
				"-map 0:v:0", "-map 1:a:0",
			},
			wantNotContains: []string{"-map 0:a:0"},
		},
		{
			name:  "test mode truncates",
			plan:  basePlan(),
			geo:   model.Geometry{},
			build: BuildOptions{Input: "/tmp/in.mov", Test: true},
			wantContains: []string{
				"-t 30",
			},
		},
		{
			name: "progress pipe",
			plan: basePlan(),
			geo:  model.Geometry{},
			build: BuildOptions{
				Input:    "/tmp/in.mov",
				Progress: true,
			},
			wantContains: []string{"-progress pipe:1 -nostats"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := BuildArgs(tt.plan, tt.geo, tt.build)

			argsStr := strings.Join(args, " ")
			for _, want := range tt.wantContains {
				if !strings.Contains(argsStr, want) {
					t.Errorf("BuildArgs() args missing %q, got: %v", want, args)
				}
			}
			for _, notWant := range tt.wantNotContains {
				if strings.Contains(argsStr, notWant) {
					t.Errorf("BuildArgs() args should not contain %q, got: %v", notWant, args)
				}
			}

			// Verify output path is last arg
			if args[len(args)-1] != tt.plan.OutputPath {
				t.Errorf("BuildArgs() last arg = %v, want %v", args[len(args)-1], tt.plan.OutputPath)
			}
		})
	}
}

func TestBuildArgs_Watermark(t *testing.T) {
	plan := basePlan()
	plan.Width, plan.Height = 640, 360
	geo := model.Geometry{}

	tests := []struct {
		name   string
		wm     model.WatermarkSpec
		delay  float64
		wantFC string
	}{
		{
			name:   "bottom right default width",
			wm:     model.WatermarkSpec{Path: "/tmp/logo.png", Orientation: model.OrientBottomRight, WidthPercent: 40},
			wantFC: "[1:v]scale=256:-1[wm];[0:v]scale=640:360,setsar=1:1[base];[base][wm]overlay=main_w-overlay_w-10:main_h-overlay_h-10[out]",
		},
		{
			name: "center keeps asymmetric formula",
			wm:   model.WatermarkSpec{Path: "/tmp/logo.png", Orientation: model.OrientCenter, WidthPercent: 40},
			// Not a true centering expression; the 10px margin is removed
			// from both axes before halving. Pinned on purpose.
			wantFC: "[1:v]scale=256:-1[wm];[0:v]scale=640:360,setsar=1:1[base];[base][wm]overlay=(main_w-overlay_w-10)/2:(main_h-overlay_h-10)/2[out]",
		},
		{
			name:   "top left",
			wm:     model.WatermarkSpec{Path: "/tmp/logo.png", Orientation: model.OrientTopLeft, WidthPercent: 25},
			wantFC: "[1:v]scale=160:-1[wm];[0:v]scale=640:360,setsar=1:1[base];[base][wm]overlay=10:10[out]",
		},
		{
			name:   "delayed audio shifts watermark input index",
			wm:     model.WatermarkSpec{Path: "/tmp/logo.png", Orientation: model.OrientTopRight, WidthPercent: 40},
			delay:  0.3,
			wantFC: "[2:v]scale=256:-1[wm];[0:v]scale=640:360,setsar=1:1[base];[base][wm]overlay=main_w-overlay_w-10:10[out]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wm := tt.wm
			args := BuildArgs(plan, geo, BuildOptions{
				Input:      "/tmp/in.mov",
				Watermark:  &wm,
				AudioDelay: tt.delay,
			})
			fc := argAfter(t, args, "-filter_complex")
			if fc != tt.wantFC {
				t.Errorf("filter_complex =\n  %s\nwant\n  %s", fc, tt.wantFC)
			}
			if !contains(args, "[out]") {
				t.Errorf("expected -map [out], got: %v", args)
			}
		})
	}
}

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %q not found in %v", flag, args)
	return ""
}

func contains(ss []string, q string) bool {
	for _, s := range ss {
		if s == q {
			return true
		}
	}
	return false
}
