package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SupportedResolutions 表格中固定输出的分辨率列
var SupportedResolutions = []string{"540p", "720p", "1080p", "2k", "4k"}

// IsSupportedResolution 是否是固定输出的分辨率
func IsSupportedResolution(label string) bool {
	for _, r := range SupportedResolutions {
		if r == label {
			return true
		}
	}
	return false
}

var (
	digitsPattern     = regexp.MustCompile(`^\d+$`)
	resolutionPattern = regexp.MustCompile(`(\d+)[x×*](\d+)|(\d+)(p|i)(\d*)`)
)

// 缩写精确匹配
var resolutionShorthand = map[string]string{
	"sd":  "480p",
	"hd":  "720p",
	"fhd": "1080p",
	"2k":  "2k",
	"uhd": "4k",
	"4k":  "4k",
	"8k":  "8k",
}

// 描述包含匹配，按顺序优先
var resolutionContains = []struct {
	token string
	label string
}{
	{"4k", "4k"},
	{"2k", "2k"},
	{"full hd quality", "1080p"},
	{"full hd", "1080p"},
	{"fhd", "1080p"},
	{"hd quality", "720p"},
	{"hd", "720p"},
	{"medium quality", "540p"},
	{"medium", "540p"},
	{"sd quality", "480p"},
	{"sd", "480p"},
}

// 高度区间，闭区间，先匹配者优先
var heightRanges = []struct {
	label    string
	min, max int
}{
	{"120p", 0, 160},
	{"144p", 161, 202},
	{"240p", 203, 269},
	{"270p", 270, 315},
	{"360p", 316, 400},
	{"432p", 401, 460},
	{"480p", 461, 510},
	{"540p", 511, 600},
	{"576p", 601, 630},
	{"720p", 631, 900},
	{"1080p", 901, 1200},
	{"2k", 1200, 1800},
	{"4k", 1801, 3240},
	{"8k", 3241, 9999},
}

// NormalizeResolution 把各种分辨率写法统一为标准标签，无法识别时返回 def
// 支持纯数字（720）、缩写（hd/fhd/4k）、描述（Full HD Quality）、尺寸（1920x1080、480*852）和 720p60
func NormalizeResolution(raw interface{}, def string) string {
	if raw == nil {
		return def
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprint(raw)))
	if s == "" {
		return def
	}

	if digitsPattern.MatchString(s) {
		return s + "p"
	}

	if label, ok := resolutionShorthand[s]; ok {
		return label
	}
	for _, c := range resolutionContains {
		if strings.Contains(s, c.token) {
			return c.label
		}
	}

	m := resolutionPattern.FindStringSubmatch(s)
	if m == nil {
		return def
	}

	var height int
	switch {
	case m[1] != "" && m[2] != "":
		w, _ := strconv.Atoi(m[1])
		h, _ := strconv.Atoi(m[2])
		// 横竖屏都取短边
		height = min(w, h)
	case m[3] != "" && m[4] != "":
		height, _ = strconv.Atoi(m[3])
	default:
		return def
	}

	return ResolutionForHeight(height, def)
}

// ResolutionForHeight 根据高度匹配标准分辨率
func ResolutionForHeight(height int, def string) string {
	for _, r := range heightRanges {
		if r.min <= height && height <= r.max {
			return r.label
		}
	}
	return def
}

// ResolutionLabel 由宽高得到标准分辨率
func ResolutionLabel(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	return NormalizeResolution(fmt.Sprintf("%dx%d", width, height), "")
}
