package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	cnDatePattern     = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日\s*(.*)$`)
	meridiemPattern   = regexp.MustCompile(`^(\d{4}/\d{1,2}/\d{1,2})\s+(上午|下午)(\d{1,2}):(\d{1,2})(:\d{1,2})?$`)
	isoLikePattern    = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}(\s+\d{1,2}:\d{1,2}(:\d{1,2})?)?$`)
	cnLocalePattern   = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}\s+(上午|下午)?\d{1,2}:\d{1,2}(:\d{1,2})?$`)
	clockOnlyPattern  = regexp.MustCompile(`^\d{1,2}:\d{1,2}(:\d{1,2})?$`)
	numericStrPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseDateTime 解析各种常见日期时间字符串（本地时区）
// 中文日期（2024年1月2日）和 上午/下午 写法先转换为通用格式
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := cnDatePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3]) + " " + m[4])
	}

	if m := meridiemPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[3])
		if m[2] == "下午" && hour < 12 {
			hour += 12
		}
		if m[2] == "上午" && hour == 12 {
			hour = 0
		}
		s = m[1] + " " + pad2(strconv.Itoa(hour)) + ":" + pad2(m[4]) + m[5]
	}

	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsDateTimeString 判断字符串是否像日期时间
func IsDateTimeString(s string) bool {
	if strings.Contains(s, "年") && strings.Contains(s, "月") && strings.Contains(s, "日") {
		return true
	}
	if isoLikePattern.MatchString(s) || cnLocalePattern.MatchString(s) {
		return true
	}
	// 纯时间（12:00）不算日期
	if clockOnlyPattern.MatchString(s) {
		return false
	}
	// 纯数字不按日期处理
	if numericStrPattern.MatchString(s) {
		return false
	}
	_, ok := ParseDateTime(s)
	return ok
}

// IsNumericString 是否是纯数字字符串（可带负号和小数）
func IsNumericString(s string) bool {
	if !numericStrPattern.MatchString(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
