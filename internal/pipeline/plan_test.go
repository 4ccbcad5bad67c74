package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"streambake/internal/model"
)

func sourceGeo() model.Geometry {
	return model.Geometry{
		RealWidth:    1920,
		RealHeight:   1080,
		PixelAspect:  1.0,
		SquareWidth:  1920,
		SquareHeight: 1080,
	}
}

func TestExpandProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     model.EncodingProfile
		geo         model.Geometry
		wantW       int
		wantH       int
		wantVProf   string
		wantVLevel  string
		wantAProf   string
		wantBufsize string
		wantTotal   string
		wantWarn    model.WarningKind
		wantErr     string
	}{
		{
			name: "auto height follows width",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "640xauto",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:   sourceGeo(),
			wantW: 640, wantH: 360,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "2000k", wantTotal: "1128k",
		},
		{
			name: "auto width follows height",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "autox360",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:   sourceGeo(),
			wantW: 640, wantH: 360,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "2000k", wantTotal: "1128k",
		},
		{
			name: "both literal uses the smaller ratio",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "960x360",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:   sourceGeo(),
			wantW: 640, wantH: 360,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "2000k", wantTotal: "1128k",
		},
		{
			name: "mobile device gets constrained tier",
			profile: model.EncodingProfile{
				Device: "Mobile-HLS", Dimensions: "480xauto",
				VBitrate: "500k", ABitrate: "64k",
			},
			geo:   sourceGeo(),
			wantW: 480, wantH: 270,
			wantVProf: "main", wantVLevel: "3.1", wantAProf: "aac_he",
			wantBufsize: "1000k", wantTotal: "564k",
		},
		{
			name: "explicit bufsize kept",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "640xauto",
				VBitrate: "1000k", VBufsize: "1500k", ABitrate: "128k",
			},
			geo:   sourceGeo(),
			wantW: 640, wantH: 360,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "1500k", wantTotal: "1128k",
		},
		{
			name: "upscale warns",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "3840xauto",
				VBitrate: "8000k", ABitrate: "192k",
			},
			geo:   sourceGeo(),
			wantW: 3840, wantH: 2160,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "16000k", wantTotal: "8192k",
			wantWarn: model.WarnUpscale,
		},
		{
			name: "odd source rounds even",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "autox480",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo: model.Geometry{SquareWidth: 654, SquareHeight: 480},
			// 654 * (480/480) = 654 wide, already even; height literal
			wantW: 654, wantH: 480,
			wantVProf: "high", wantVLevel: "4.1", wantAProf: "aac_low",
			wantBufsize: "2000k", wantTotal: "1128k",
		},
		{
			name: "both auto rejected",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "autoxauto",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:     sourceGeo(),
			wantErr: "auto on both axes",
		},
		{
			name: "malformed dimensions rejected",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "640",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:     sourceGeo(),
			wantErr: "want WxH",
		},
		{
			name: "zero axis rejected",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "0x360",
				VBitrate: "1000k", ABitrate: "128k",
			},
			geo:     sourceGeo(),
			wantErr: "positive integer",
		},
		{
			name: "bad bitrate rejected",
			profile: model.EncodingProfile{
				Device: "desktop", Dimensions: "640xauto",
				VBitrate: "fast", ABitrate: "128k",
			},
			geo:     sourceGeo(),
			wantErr: "invalid bitrate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, warnings, err := ExpandProfile(tt.profile, tt.geo, "/out", "clip", "")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ExpandProfile() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExpandProfile() error = %v", err)
			}
			if plan.Width != tt.wantW || plan.Height != tt.wantH {
				t.Errorf("dimensions = %dx%d, want %dx%d", plan.Width, plan.Height, tt.wantW, tt.wantH)
			}
			if plan.VideoProfile != tt.wantVProf || plan.VideoLevel != tt.wantVLevel || plan.AudioProfile != tt.wantAProf {
				t.Errorf("tier = %s/%s/%s, want %s/%s/%s",
					plan.VideoProfile, plan.VideoLevel, plan.AudioProfile,
					tt.wantVProf, tt.wantVLevel, tt.wantAProf)
			}
			if plan.VBufsize != tt.wantBufsize {
				t.Errorf("VBufsize = %s, want %s", plan.VBufsize, tt.wantBufsize)
			}
			if plan.TotalBitrate != tt.wantTotal {
				t.Errorf("TotalBitrate = %s, want %s", plan.TotalBitrate, tt.wantTotal)
			}
			if tt.wantWarn != "" {
				if len(warnings) != 1 || warnings[0].Kind != tt.wantWarn {
					t.Errorf("warnings = %v, want one %s", warnings, tt.wantWarn)
				}
			} else if len(warnings) != 0 {
				t.Errorf("unexpected warnings: %v", warnings)
			}
		})
	}
}

func TestExpandProfile_OutputPath(t *testing.T) {
	geo := sourceGeo()
	p := model.EncodingProfile{
		Device: "desktop", Dimensions: "640xauto",
		VBitrate: "1000k", ABitrate: "128k",
	}

	plan, _, err := ExpandProfile(p, geo, "/media/out", "My Clip", "draft")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/media/out", "My_Clip_1128k_desktop_draft.mp4")
	if plan.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", plan.OutputPath, want)
	}

	// Distinct bitrates must yield distinct paths.
	p2 := p
	p2.VBitrate = "2000k"
	plan2, _, err := ExpandProfile(p2, geo, "/media/out", "My Clip", "draft")
	if err != nil {
		t.Fatal(err)
	}
	if plan2.OutputPath == plan.OutputPath {
		t.Errorf("paths collide: %q", plan.OutputPath)
	}
}

func TestEnabledProfiles(t *testing.T) {
	ps := []model.EncodingProfile{
		{Enabled: true, Device: "a"},
		{Enabled: false, Device: "b"},
		{Enabled: true, Device: "c"},
	}
	got := EnabledProfiles(ps)
	if len(got) != 2 || got[0].Device != "a" || got[1].Device != "c" {
		t.Errorf("EnabledProfiles() = %v", got)
	}
	if EnabledProfiles(nil) != nil {
		t.Error("EnabledProfiles(nil) should be nil")
	}
}
