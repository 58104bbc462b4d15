package utils

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)},
		{"2024-01-02 15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local)},
		{"2024年1月2日", time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local)},
		{"2024年1月2日 15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local)},
		{"2025/1/25 下午6:47:05", time.Date(2025, 1, 25, 18, 47, 5, 0, time.Local)},
		{"2025/1/25 上午9:07", time.Date(2025, 1, 25, 9, 7, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		got, ok := ParseDateTime(tt.in)
		if !ok {
			t.Errorf("ParseDateTime(%q) failed", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "   ", "不是日期"} {
		if _, ok := ParseDateTime(bad); ok {
			t.Errorf("ParseDateTime(%q) should fail", bad)
		}
	}
}

func TestIsDateTimeString(t *testing.T) {
	yes := []string{
		"2024年1月1日 12:00:00",
		"2024-01-01",
		"2024-01-01 12:00",
		"2024/1/1 12:00:00",
		"2025/1/25 下午6:47:05",
	}
	for _, s := range yes {
		if !IsDateTimeString(s) {
			t.Errorf("IsDateTimeString(%q) = false, want true", s)
		}
	}

	no := []string{"12:00", "01:02:05", "1700000000", "hello", "-"}
	for _, s := range no {
		if IsDateTimeString(s) {
			t.Errorf("IsDateTimeString(%q) = true, want false", s)
		}
	}
}

func TestIsNumericString(t *testing.T) {
	for _, s := range []string{"0", "123", "-12", "3.14", "7234567890123456789"} {
		if !IsNumericString(s) {
			t.Errorf("IsNumericString(%q) = false", s)
		}
	}
	for _, s := range []string{"", "1,234", "1.2万", "abc", "1e5", ".5"} {
		if IsNumericString(s) {
			t.Errorf("IsNumericString(%q) = true", s)
		}
	}
}
