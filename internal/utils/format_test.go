package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "-"},
		{5, "00:05"},
		{65, "01:05"},
		{65.9, "01:05"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
		{36125, "10:02:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(0); got != "-" {
		t.Errorf("FormatTimestamp(0) = %q, want -", got)
	}

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local).Unix()
	if got := FormatTimestamp(ts); got != "2024-01-02 03:04:05" {
		t.Errorf("FormatTimestamp = %q", got)
	}
	if got := FormatMillisTimestamp(ts*1000 + 999); got != "2024-01-02 03:04:05" {
		t.Errorf("FormatMillisTimestamp = %q", got)
	}
}

func TestFormatUploadDate(t *testing.T) {
	if got := FormatUploadDate("20240315"); got != "2024-03-15 00:00:00" {
		t.Errorf("FormatUploadDate = %q", got)
	}
	if got := FormatUploadDate("2024-03-15"); got != "2024-03-15" {
		t.Errorf("非 YYYYMMDD 应原样返回, got %q", got)
	}
	if got := FormatUploadDate(""); got != "" {
		t.Errorf("空值应返回空, got %q", got)
	}
}
