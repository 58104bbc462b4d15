package service

import (
	"strings"

	"github.com/user/dataminer/internal/model"
)

// 按顺序匹配，先命中先返回
var platformDomains = []struct {
	platform model.Platform
	domains  []string
}{
	{model.PlatformXHS, []string{"xiaohongshu.com", "xhslink.com"}},
	{model.PlatformDouyin, []string{"douyin.com", "v.douyin.com", "iesdouyin.com"}},
	{model.PlatformKuaishou, []string{"kuaishou.com", "kwai.com", "chenzhongtech.com"}},
	{model.PlatformTiktok, []string{"tiktok.com", "vm.tiktok.com"}},
	{model.PlatformYoutube, []string{"youtube.com", "youtu.be"}},
}

var platformNames = map[model.Platform]string{
	model.PlatformXHS:      "小红书",
	model.PlatformDouyin:   "抖音",
	model.PlatformKuaishou: "快手",
	model.PlatformTiktok:   "TikTok",
	model.PlatformYoutube:  "YouTube",
}

// DetectPlatform 根据链接中的域名判断平台，无法识别时默认抖音
func DetectPlatform(rawURL string) model.Platform {
	clean := strings.ToLower(strings.TrimSpace(rawURL))
	for _, entry := range platformDomains {
		for _, d := range entry.domains {
			if strings.Contains(clean, d) {
				return entry.platform
			}
		}
	}
	return model.PlatformDouyin
}

// PlatformName 平台中文名
func PlatformName(p model.Platform) string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return string(p)
}
