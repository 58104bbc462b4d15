package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

type ytChannelVideo struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Content         string           `json:"content"`
	URL             string           `json:"url"`
	PublishTime     utils.FlexString `json:"publishTime"`
	LikeCount       utils.FlexInt    `json:"likeCount"`
	CommentCount    utils.FlexInt    `json:"commentCount"`
	ShareCount      utils.FlexInt    `json:"shareCount"`
	ViewCount       utils.FlexInt    `json:"viewCount"`
	Author          string           `json:"author"`
	AuthorAvatar    string           `json:"authorAvatar"`
	ChannelName     string           `json:"channelName"`
	ChannelAvatar   string           `json:"channelAvatar"`
	ChannelID       string           `json:"channelId"`
	Duration        utils.FlexString `json:"duration"`
	Quality         string           `json:"quality"`
	Category        string           `json:"category"`
	Tags            []string         `json:"tags"`
	Subtitles       []string         `json:"subtitles"`
	IsMembersOnly   utils.FlexBool   `json:"isMembersOnly"`
	IsAgeRestricted utils.FlexBool   `json:"isAgeRestricted"`
	SubscriberCount utils.FlexInt    `json:"subscriberCount"`
	TotalViews      utils.FlexInt    `json:"totalViews"`
	VideoCount      utils.FlexInt    `json:"videoCount"`
}

// YoutubeHomepageExtractor YouTube 频道主页，远程接口一次返回全部数据
type YoutubeHomepageExtractor struct {
	baseExtractor
}

// NewYoutubeHomepageExtractor 创建 YouTube 主页提取器
func NewYoutubeHomepageExtractor(deps Deps, opts ExtractOptions) *YoutubeHomepageExtractor {
	return &YoutubeHomepageExtractor{newBase(deps, opts, model.PlatformYoutube, model.ExtractHomepage, "YoutubeHomepage")}
}

// Extract 单次请求，范围和起始日期交给远程接口处理
func (e *YoutubeHomepageExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始提取数据...")

	payload := map[string]interface{}{
		"url":   url,
		"range": e.opts.Range.String(),
	}
	if e.opts.StartDate != "" {
		payload["startDate"] = e.opts.StartDate
	}

	var list []ytChannelVideo
	if err := e.request(ctx, "/homepage/youtube/extract", payload, &list); err != nil {
		if credits, ok := AsInsufficientCredits(err); ok {
			return e.insufficientCredits(credits, nil, 0), nil
		}
		return nil, err
	}

	e.report(90, "正在格式化数据...")
	records := make([]*model.FlatRecord, 0, len(list))
	for i := range list {
		records = append(records, e.format(&list[i]))
	}
	e.report(100, "数据提取完成")
	return e.success(records, fmt.Sprintf("YouTube主页数据提取成功，共获取 %d 条数据", len(records))), nil
}

func (e *YoutubeHomepageExtractor) format(v *ytChannelVideo) *model.FlatRecord {
	desc := v.Description
	if desc == "" {
		desc = v.Content
	}
	author := v.Author
	if author == "" {
		author = v.ChannelName
	}
	avatar := v.AuthorAvatar
	if avatar == "" {
		avatar = v.ChannelAvatar
	}
	published := ""
	if t, ok := utils.ParseDateTime(v.PublishTime.String()); ok {
		published = utils.FormatTimestamp(t.Unix())
	} else if n, ok := v.PublishTime.Scalar().(int64); ok && n > 0 {
		// 数字时间戳按毫秒处理
		published = utils.FormatMillisTimestamp(n)
	}

	rec := model.NewFlatRecord()
	rec.Set("平台", "YouTube")
	rec.Set("标题", v.Title)
	rec.Set("描述", desc)
	rec.Set("链接", v.URL)
	rec.Set("发布时间", published)
	rec.Set("点赞数", v.LikeCount.Int64())
	rec.Set("评论数", v.CommentCount.Int64())
	rec.Set("分享数", v.ShareCount.Int64())
	rec.Set("观看数", v.ViewCount.Int64())
	rec.Set("作者", author)
	rec.Set("作者头像", avatar)
	rec.Set("频道名", v.ChannelName)
	rec.Set("频道ID", v.ChannelID)
	rec.Set("视频时长", v.Duration.String())
	rec.Set("视频质量", v.Quality)
	rec.Set("分类", v.Category)
	rec.Set("标签", strings.Join(v.Tags, ", "))
	rec.Set("字幕语言", strings.Join(v.Subtitles, ", "))
	rec.Set("是否会员专享", v.IsMembersOnly.Bool())
	rec.Set("是否年龄限制", v.IsAgeRestricted.Bool())
	rec.Set("订阅数", v.SubscriberCount.Int64())
	rec.Set("总观看数", v.TotalViews.Int64())
	rec.Set("视频总数", v.VideoCount.Int64())
	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName YouTube主页_作者
func (e *YoutubeHomepageExtractor) TypeDisplayName(records []*model.FlatRecord) string {
	return homepageTableName("YouTube主页", records)
}

type ytVideo struct {
	ID                   utils.FlexString `json:"id"`
	Title                string           `json:"title"`
	FullTitle            string           `json:"fulltitle"`
	Description          string           `json:"description"`
	UploadDate           string           `json:"upload_date"`
	Duration             utils.FlexFloat  `json:"duration"`
	Thumbnail            string           `json:"thumbnail"`
	ChannelID            string           `json:"channel_id"`
	Channel              string           `json:"channel"`
	ChannelURL           string           `json:"channel_url"`
	ChannelFollowerCount utils.FlexInt    `json:"channel_follower_count"`
	Uploader             string           `json:"uploader"`
	UploaderID           string           `json:"uploader_id"`
	UploaderURL          string           `json:"uploader_url"`
	ViewCount            utils.FlexInt    `json:"view_count"`
	LikeCount            utils.FlexInt    `json:"like_count"`
	CommentCount         utils.FlexInt    `json:"comment_count"`
	AverageRating        *float64         `json:"average_rating"`
	AgeLimit             utils.FlexInt    `json:"age_limit"`
	IsLive               utils.FlexBool   `json:"is_live"`
	WasLive              utils.FlexBool   `json:"was_live"`
	WebpageURL           string           `json:"webpage_url"`
	OriginalURL          string           `json:"original_url"`
	Thumbnails           []struct {
		URL    string        `json:"url"`
		Width  utils.FlexInt `json:"width"`
		Height utils.FlexInt `json:"height"`
	} `json:"thumbnails"`
	Subtitles map[string][]struct {
		Ext string `json:"ext"`
		URL string `json:"url"`
	} `json:"subtitles"`
	Formats []struct {
		URL        string        `json:"url"`
		Width      utils.FlexInt `json:"width"`
		Height     utils.FlexInt `json:"height"`
		VCodec     string        `json:"vcodec"`
		FormatNote string        `json:"format_note"`
	} `json:"formats"`
}

// YoutubeDetailsExtractor YouTube 视频详情
type YoutubeDetailsExtractor struct {
	baseExtractor
}

// NewYoutubeDetailsExtractor 创建 YouTube 详情提取器
func NewYoutubeDetailsExtractor(deps Deps, opts ExtractOptions) *YoutubeDetailsExtractor {
	return &YoutubeDetailsExtractor{newBase(deps, opts, model.PlatformYoutube, model.ExtractDetails, "YoutubeDetails")}
}

// Extract 支持多个链接，每行一个
func (e *YoutubeDetailsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return e.extractEach(ctx, url, func(ctx context.Context, u string) (*model.FlatRecord, error) {
		var video *ytVideo
		if err := e.request(ctx, "/youtube/video/info", map[string]interface{}{"url": u}, &video); err != nil {
			return nil, err
		}
		if video == nil {
			return nil, fmt.Errorf("响应中没有视频详情")
		}
		return e.format(video), nil
	})
}

func (e *YoutubeDetailsExtractor) format(v *ytVideo) *model.FlatRecord {
	title := v.Title
	if title == "" {
		title = v.FullTitle
	}
	channel := v.Channel
	if channel == "" {
		channel = v.Uploader
	}
	channelURL := v.ChannelURL
	if channelURL == "" {
		channelURL = v.UploaderURL
	}

	rec := model.NewFlatRecord()
	rec.Set("平台", "YouTube")
	rec.Set("视频ID", v.ID.String())
	rec.Set("标题", title)
	rec.Set("描述", v.Description)
	rec.Set("发布时间", utils.FormatUploadDate(v.UploadDate))
	rec.Set("视频时长", utils.FormatDuration(v.Duration.Float64()))
	rec.Set("视频封面", e.media(v.Thumbnail))

	rec.Set("频道ID", v.ChannelID)
	rec.Set("频道名称", channel)
	rec.Set("频道链接", channelURL)
	rec.Set("频道订阅数", v.ChannelFollowerCount.Int64())
	rec.Set("上传者", v.Uploader)
	rec.Set("上传者ID", v.UploaderID)

	rec.Set("观看数", v.ViewCount.Int64())
	rec.Set("点赞数", v.LikeCount.Int64())
	rec.Set("评论数", v.CommentCount.Int64())
	if v.AverageRating != nil {
		rec.Set("平均评分", *v.AverageRating)
	} else {
		rec.Set("平均评分", nil)
	}

	rec.Set("年龄限制", v.AgeLimit.Int64())
	rec.Set("是否直播", v.IsLive.Bool())
	rec.Set("曾经直播", v.WasLive.Bool())
	rec.Set("网页链接", v.WebpageURL)
	rec.Set("原始链接", v.OriginalURL)
	rec.Set("缩略图信息", e.thumbnails(v))
	rec.Set("字幕信息", e.subtitles(v))

	initResolutionColumns(rec)
	for _, f := range v.Formats {
		if f.VCodec == "" || f.VCodec == "none" || f.FormatNote == "storyboard" || f.URL == "" {
			continue
		}
		setResolution(rec, utils.ResolutionLabel(int(f.Width), int(f.Height)), f.URL)
	}

	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// thumbnails 最多取前 5 个
func (e *YoutubeDetailsExtractor) thumbnails(v *ytVideo) string {
	list := v.Thumbnails
	if len(list) > 5 {
		list = list[:5]
	}
	segments := make([]string, 0, len(list))
	for _, t := range list {
		var details []string
		if t.Width > 0 && t.Height > 0 {
			details = append(details, fmt.Sprintf("尺寸: %dx%d", t.Width, t.Height))
		}
		if t.URL != "" {
			details = append(details, "链接: "+e.media(t.URL))
		}
		segments = append(segments, strings.Join(details, ", "))
	}
	return strings.Join(segments, " | ")
}

// subtitles 按语言排序输出
func (e *YoutubeDetailsExtractor) subtitles(v *ytVideo) string {
	langs := make([]string, 0, len(v.Subtitles))
	for lang := range v.Subtitles {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var segments []string
	for _, lang := range langs {
		for _, s := range v.Subtitles[lang] {
			details := []string{"语言: " + lang}
			if s.Ext != "" {
				details = append(details, "格式: "+strings.ToUpper(s.Ext))
			}
			if s.URL != "" {
				name := fmt.Sprintf("%s_%s.%s", v.ID, lang, s.Ext)
				details = append(details, "链接: "+e.download(s.URL, name))
			}
			segments = append(segments, strings.Join(details, ", "))
		}
	}
	return strings.Join(segments, " | ")
}

// TypeDisplayName YouTube详情
func (e *YoutubeDetailsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "YouTube详情"
}
