package bitrate

import "testing"

func TestParseKbps(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{name: "k suffix", in: "1000k", want: 1000},
		{name: "uppercase K", in: "500K", want: 500},
		{name: "bare number", in: "128", want: 128},
		{name: "surrounding space", in: " 64k ", want: 64},
		{name: "empty", in: "", wantErr: true},
		{name: "suffix only", in: "k", wantErr: true},
		{name: "garbage", in: "fastk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKbps(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKbps(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseKbps(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		vbitrate string
		abitrate string
		want     string
		wantErr  bool
	}{
		{name: "1000k+128k", vbitrate: "1000k", abitrate: "128k", want: "1128k"},
		{name: "500k+64k", vbitrate: "500k", abitrate: "64k", want: "564k"},
		{name: "bad video", vbitrate: "x", abitrate: "64k", wantErr: true},
		{name: "bad audio", vbitrate: "500k", abitrate: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Total(tt.vbitrate, tt.abitrate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Total() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Total(%q, %q) = %q, want %q", tt.vbitrate, tt.abitrate, got, tt.want)
			}
		})
	}
}

func TestDefaultBufsize(t *testing.T) {
	got, err := DefaultBufsize("600k")
	if err != nil {
		t.Fatalf("DefaultBufsize error: %v", err)
	}
	if got != "1200k" {
		t.Errorf("DefaultBufsize(600k) = %q, want 1200k", got)
	}
	if _, err := DefaultBufsize("nope"); err == nil {
		t.Errorf("expected error for invalid bitrate")
	}
}
