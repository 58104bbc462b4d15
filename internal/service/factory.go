package service

import (
	"errors"
	"fmt"

	"github.com/user/dataminer/internal/model"
)

// ErrUnsupportedCombination 提取类型和平台的组合不受支持
var ErrUnsupportedCombination = errors.New("不支持的提取组合")

// Strategy 具体的提取策略，既能提取也能生成表格名称
type Strategy interface {
	Extractor
	TableNamer
}

type strategyBuilder func(deps Deps, opts ExtractOptions) Strategy

// 支持矩阵，顺序即平台展示顺序
var strategies = map[model.ExtractType][]struct {
	platform model.Platform
	build    strategyBuilder
}{
	model.ExtractHomepage: {
		{model.PlatformXHS, func(d Deps, o ExtractOptions) Strategy { return NewXhsHomepageExtractor(d, o) }},
		{model.PlatformDouyin, func(d Deps, o ExtractOptions) Strategy { return NewDouyinHomepageExtractor(d, o) }},
		{model.PlatformTiktok, func(d Deps, o ExtractOptions) Strategy { return NewTiktokHomepageExtractor(d, o) }},
		{model.PlatformYoutube, func(d Deps, o ExtractOptions) Strategy { return NewYoutubeHomepageExtractor(d, o) }},
	},
	model.ExtractDetails: {
		{model.PlatformXHS, func(d Deps, o ExtractOptions) Strategy { return NewXhsDetailsExtractor(d, o) }},
		{model.PlatformDouyin, func(d Deps, o ExtractOptions) Strategy { return NewDouyinDetailsExtractor(d, o) }},
		{model.PlatformKuaishou, func(d Deps, o ExtractOptions) Strategy { return NewKuaishouDetailsExtractor(d, o) }},
		{model.PlatformTiktok, func(d Deps, o ExtractOptions) Strategy { return NewTiktokDetailsExtractor(d, o) }},
		{model.PlatformYoutube, func(d Deps, o ExtractOptions) Strategy { return NewYoutubeDetailsExtractor(d, o) }},
	},
	model.ExtractComments: {
		{model.PlatformDouyin, func(d Deps, o ExtractOptions) Strategy { return NewDouyinCommentsExtractor(d, o) }},
		{model.PlatformKuaishou, func(d Deps, o ExtractOptions) Strategy { return NewKuaishouCommentsExtractor(d, o) }},
	},
}

var extractTypeOrder = []model.ExtractType{model.ExtractHomepage, model.ExtractDetails, model.ExtractComments}

// Factory 根据提取类型和链接创建提取策略
type Factory struct {
	deps Deps
}

// NewFactory 创建工厂，deps 会传给每个策略
func NewFactory(deps Deps) *Factory {
	return &Factory{deps: deps}
}

// Create 检测平台并创建对应的策略
func (f *Factory) Create(extractType model.ExtractType, url string, opts ExtractOptions) (Strategy, error) {
	list, ok := strategies[extractType]
	if !ok {
		return nil, fmt.Errorf("%w: Unsupported extract type: %s", ErrUnsupportedCombination, extractType)
	}
	platform := DetectPlatform(url)
	for _, s := range list {
		if s.platform == platform {
			return s.build(f.deps, opts), nil
		}
	}
	return nil, fmt.Errorf("%w: Unsupported platform for %s: %s", ErrUnsupportedCombination, extractType, platform)
}

// PlatformSupport 某个提取类型支持的平台
type PlatformSupport struct {
	ExtractType model.ExtractType `json:"extractType"`
	DisplayName string            `json:"displayName"`
	Platforms   []PlatformInfo    `json:"platforms"`
}

// PlatformInfo 平台标识和中文名
type PlatformInfo struct {
	ID   model.Platform `json:"id"`
	Name string         `json:"name"`
}

// SupportMatrix 支持矩阵
func SupportMatrix() []PlatformSupport {
	result := make([]PlatformSupport, 0, len(extractTypeOrder))
	for _, t := range extractTypeOrder {
		item := PlatformSupport{ExtractType: t, DisplayName: t.DisplayName()}
		for _, s := range strategies[t] {
			item.Platforms = append(item.Platforms, PlatformInfo{ID: s.platform, Name: PlatformName(s.platform)})
		}
		result = append(result, item)
	}
	return result
}

// Supports 是否支持该组合
func Supports(extractType model.ExtractType, platform model.Platform) bool {
	for _, s := range strategies[extractType] {
		if s.platform == platform {
			return true
		}
	}
	return false
}
