package utils

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration 将秒数格式化为 HH:MM:SS（不足一小时为 MM:SS），0 返回 "-"
func FormatDuration(seconds float64) string {
	if seconds == 0 || math.IsNaN(seconds) {
		return "-"
	}
	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatTimestamp 将秒级时间戳格式化为本地时间 2006-01-02 15:04:05，0 返回 "-"
func FormatTimestamp(unixSeconds int64) string {
	if unixSeconds == 0 {
		return "-"
	}
	return time.Unix(unixSeconds, 0).Format("2006-01-02 15:04:05")
}

// FormatMillisTimestamp 毫秒级时间戳（快手）
func FormatMillisTimestamp(unixMillis int64) string {
	return FormatTimestamp(unixMillis / 1000)
}

// FormatUploadDate 格式化 YYYYMMDD 形式的上传日期，其他格式原样返回
func FormatUploadDate(uploadDate string) string {
	if uploadDate == "" {
		return ""
	}
	if len(uploadDate) == 8 {
		t, err := time.ParseInLocation("20060102", uploadDate, time.Local)
		if err == nil {
			return FormatTimestamp(t.Unix())
		}
	}
	return uploadDate
}
