package utils

import "testing"

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		raw  interface{}
		def  string
		want string
	}{
		{"1920x1080", "", "1080p"},
		{"852*480", "", "480p"},
		{"480*852", "", "480p"},
		{"1080×1920", "", "1080p"},
		{"hd", "", "720p"},
		{"HD", "", "720p"},
		{"fhd", "", "1080p"},
		{"uhd", "", "4k"},
		{"Full HD Quality – 1080p", "", "1080p"},
		{"HD Quality – 720p", "", "720p"},
		{"medium", "", "540p"},
		{"720", "", "720p"},
		{720, "", "720p"},
		{"720p60", "", "720p"},
		{"1080i", "", "1080p"},
		{"3840x2160", "", "4k"},
		{"2560x1440", "", "2k"},
		{"7680x4320", "", "8k"},
		{"unknown-garbage", "720p", "720p"},
		{"", "540p", "540p"},
		{nil, "x", "x"},
		{"99999x99999", "none", "none"},
	}

	for _, tt := range tests {
		if got := NormalizeResolution(tt.raw, tt.def); got != tt.want {
			t.Errorf("NormalizeResolution(%v, %q) = %q, want %q", tt.raw, tt.def, got, tt.want)
		}
	}
}

func TestNormalizeResolutionIdempotent(t *testing.T) {
	labels := []string{"120p", "144p", "240p", "270p", "360p", "432p", "480p", "540p", "576p", "720p", "1080p", "2k", "4k", "8k"}
	for _, l := range labels {
		once := NormalizeResolution(l, "")
		if twice := NormalizeResolution(once, ""); twice != once {
			t.Errorf("NormalizeResolution(%q) = %q, again = %q", l, once, twice)
		}
	}

	// 144 和 576 本身落在 120p、540p 的高度区间内
	folded := map[string]string{"144p": "120p", "576p": "540p", "720p": "720p", "4k": "4k"}
	for in, want := range folded {
		if got := NormalizeResolution(in, ""); got != want {
			t.Errorf("NormalizeResolution(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolutionForHeightBoundaries(t *testing.T) {
	tests := []struct {
		height int
		want   string
	}{
		{0, "120p"}, {160, "120p"}, {161, "144p"}, {202, "144p"}, {203, "240p"},
		{269, "240p"}, {270, "270p"}, {315, "270p"}, {316, "360p"}, {400, "360p"},
		{401, "432p"}, {460, "432p"}, {461, "480p"}, {510, "480p"}, {511, "540p"},
		{600, "540p"}, {601, "576p"}, {630, "576p"}, {631, "720p"}, {900, "720p"},
		{901, "1080p"}, {1200, "1080p"}, {1201, "2k"}, {1800, "2k"}, {1801, "4k"},
		{3240, "4k"}, {3241, "8k"}, {9999, "8k"}, {10000, "-"},
	}
	for _, tt := range tests {
		if got := ResolutionForHeight(tt.height, "-"); got != tt.want {
			t.Errorf("ResolutionForHeight(%d) = %q, want %q", tt.height, got, tt.want)
		}
	}
}

func TestResolutionLabel(t *testing.T) {
	if got := ResolutionLabel(0, 1080); got != "" {
		t.Errorf("ResolutionLabel(0, 1080) = %q, want empty", got)
	}
	if got := ResolutionLabel(1080, 1920); got != "1080p" {
		t.Errorf("ResolutionLabel(1080, 1920) = %q, want 1080p", got)
	}
	if !IsSupportedResolution("2k") || IsSupportedResolution("360p") {
		t.Error("IsSupportedResolution mismatch")
	}
}
