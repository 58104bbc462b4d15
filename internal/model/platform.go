package model

// Platform 数据来源平台
type Platform string

const (
	PlatformXHS      Platform = "xhs"
	PlatformDouyin   Platform = "douyin"
	PlatformKuaishou Platform = "kuaishou"
	PlatformTiktok   Platform = "tiktok"
	PlatformYoutube  Platform = "youtube"
)

// AllPlatforms 所有支持的平台（按检测顺序）
var AllPlatforms = []Platform{
	PlatformXHS,
	PlatformDouyin,
	PlatformKuaishou,
	PlatformTiktok,
	PlatformYoutube,
}

// ExtractType 提取类型
type ExtractType string

const (
	ExtractHomepage ExtractType = "homepage" // 主页作品列表
	ExtractDetails  ExtractType = "details"  // 单条作品详情
	ExtractComments ExtractType = "comments" // 评论（可含回复）
)

// DisplayName 提取类型的中文名
func (t ExtractType) DisplayName() string {
	switch t {
	case ExtractHomepage:
		return "主页数据"
	case ExtractDetails:
		return "详情数据"
	case ExtractComments:
		return "评论数据"
	}
	return string(t)
}
