package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

type ttStats struct {
	DiggCount    utils.FlexInt `json:"diggCount"`
	CommentCount utils.FlexInt `json:"commentCount"`
	ShareCount   utils.FlexInt `json:"shareCount"`
	PlayCount    utils.FlexInt `json:"playCount"`
	CollectCount utils.FlexInt `json:"collectCount"`
}

type ttAuthorStats struct {
	FollowerCount  utils.FlexInt `json:"followerCount"`
	FollowingCount utils.FlexInt `json:"followingCount"`
	HeartCount     utils.FlexInt `json:"heartCount"`
	VideoCount     utils.FlexInt `json:"videoCount"`
}

type ttSubtitle struct {
	LanguageCodeName string           `json:"LanguageCodeName"`
	Format           string           `json:"Format"`
	Source           string           `json:"Source"`
	Size             utils.FlexString `json:"Size"`
	URL              string           `json:"Url"`
}

type ttItem struct {
	ID           utils.FlexString `json:"id"`
	Desc         string           `json:"desc"`
	CreateTime   utils.FlexInt    `json:"createTime"`
	IsPinnedItem utils.FlexBool   `json:"isPinnedItem"`
	TextLanguage string           `json:"textLanguage"`
	Stats        ttStats          `json:"stats"`
	StatsV2      ttStats          `json:"statsV2"`
	Author       struct {
		ID           utils.FlexString `json:"id"`
		UniqueID     string           `json:"uniqueId"`
		Nickname     string           `json:"nickname"`
		Signature    string           `json:"signature"`
		AvatarThumb  string           `json:"avatarThumb"`
		AvatarLarger string           `json:"avatarLarger"`
	} `json:"author"`
	AuthorStats   ttAuthorStats `json:"authorStats"`
	AuthorStatsV2 ttAuthorStats `json:"authorStatsV2"`
	Video         struct {
		Duration      utils.FlexFloat `json:"duration"`
		Cover         string          `json:"cover"`
		SubtitleInfos []ttSubtitle    `json:"subtitleInfos"`
	} `json:"video"`
	Music struct {
		ID         utils.FlexString `json:"id"`
		Title      string           `json:"title"`
		AuthorName string           `json:"authorName"`
		Duration   utils.FlexFloat  `json:"duration"`
		PlayURL    string           `json:"playUrl"`
	} `json:"music"`
	Challenges []struct {
		Title string `json:"title"`
	} `json:"challenges"`
	TextExtra []struct {
		Type        utils.FlexInt `json:"type"`
		HashtagName string        `json:"hashtagName"`
	} `json:"textExtra"`
}

// firstNonZero stats 为空时退回 statsV2
func firstNonZero(a, b utils.FlexInt) int64 {
	if a != 0 {
		return a.Int64()
	}
	return b.Int64()
}

func (it *ttItem) challengeTitles() []string {
	titles := make([]string, 0, len(it.Challenges))
	for _, c := range it.Challenges {
		if c.Title != "" {
			titles = append(titles, c.Title)
		}
	}
	return titles
}

// TiktokHomepageExtractor TikTok 主页作品
type TiktokHomepageExtractor struct {
	baseExtractor
}

// NewTiktokHomepageExtractor 创建 TikTok 主页提取器
func NewTiktokHomepageExtractor(deps Deps, opts ExtractOptions) *TiktokHomepageExtractor {
	return &TiktokHomepageExtractor{newBase(deps, opts, model.PlatformTiktok, model.ExtractHomepage, "TiktokHomepage")}
}

// Extract 先查询用户 secUid，再以上一页最后一条的 createTime 作为 cursor 翻页
func (e *TiktokHomepageExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始提取数据...")

	var info struct {
		UserInfo struct {
			User struct {
				SecUID   string `json:"secUid"`
				Nickname string `json:"nickname"`
			} `json:"user"`
		} `json:"userInfo"`
	}
	if err := e.request(ctx, "/tiktok/user/info", map[string]interface{}{"url": url}, &info); err != nil {
		if credits, ok := AsInsufficientCredits(err); ok {
			return e.insufficientCredits(credits, nil, 0), nil
		}
		return nil, err
	}
	user := info.UserInfo.User
	if user.SecUID == "" {
		return e.failure("无法获取TikTok用户信息"), nil
	}
	if user.Nickname != "" {
		e.report(5, fmt.Sprintf("正在提取%s的主页数据...", user.Nickname))
	}

	start, hasStart := e.startMillis()
	cursor := ""
	items, pages, err := paginate(ctx, &e.baseExtractor, 90, func(ctx context.Context, pageNo int) (page[ttItem], error) {
		payload := map[string]interface{}{"secUserId": user.SecUID}
		if cursor != "" && pageNo > 1 {
			payload["cursor"] = cursor
		}

		var data struct {
			ItemList        []ttItem       `json:"itemList"`
			HasMorePrevious utils.FlexBool `json:"hasMorePrevious"`
		}
		if err := e.request(ctx, "/tiktok/user/posts", payload, &data); err != nil {
			return page[ttItem]{}, err
		}
		if len(data.ItemList) == 0 {
			return page[ttItem]{}, nil
		}

		p := page[ttItem]{items: data.ItemList, hasMore: data.HasMorePrevious.Bool()}
		if last := data.ItemList[len(data.ItemList)-1]; p.hasMore && last.CreateTime != 0 {
			cursor = fmt.Sprintf("%d", last.CreateTime.Int64())
		}
		if hasStart && ttReachedStart(data.ItemList, start) {
			log.Printf("[TiktokHomepage] 达到时间边界，停止分页")
			p.reached = true
		}
		return p, nil
	})

	if credits, ok := AsInsufficientCredits(err); ok {
		return e.insufficientCredits(credits, e.format(items), pages), nil
	}
	if err != nil {
		return nil, err
	}

	e.report(90, "正在格式化数据...")
	records := e.format(items)
	e.report(100, "数据提取完成")
	return e.success(records, fmt.Sprintf("TikTok主页数据提取成功，共获取 %d 条数据（%d 页）", len(items), pages)), nil
}

// ttReachedStart 最早一条非置顶视频不晚于起始时间
func ttReachedStart(items []ttItem, start int64) bool {
	oldest := int64(0)
	for _, it := range items {
		ct := it.CreateTime.Int64()
		if ct == 0 || it.IsPinnedItem.Bool() {
			continue
		}
		if oldest == 0 || ct < oldest {
			oldest = ct
		}
	}
	return oldest != 0 && oldest*1000 <= start
}

func (e *TiktokHomepageExtractor) format(items []ttItem) []*model.FlatRecord {
	start, hasStart := e.startMillis()
	records := make([]*model.FlatRecord, 0, len(items))

	for i := range items {
		it := &items[i]
		ct := it.CreateTime.Int64()
		if hasStart && ct != 0 && ct*1000 <= start {
			continue
		}

		rec := model.NewFlatRecord()
		rec.Set("平台", "TikTok")
		rec.Set("视频ID", it.ID.String())
		rec.Set("描述", it.Desc)
		rec.Set("链接", fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", it.Author.UniqueID, it.ID))
		rec.Set("发布时间", utils.FormatTimestamp(ct))
		rec.Set("点赞数", firstNonZero(it.Stats.DiggCount, it.StatsV2.DiggCount))
		rec.Set("评论数", firstNonZero(it.Stats.CommentCount, it.StatsV2.CommentCount))
		rec.Set("分享数", firstNonZero(it.Stats.ShareCount, it.StatsV2.ShareCount))
		rec.Set("播放数", firstNonZero(it.Stats.PlayCount, it.StatsV2.PlayCount))
		rec.Set("收藏数", firstNonZero(it.Stats.CollectCount, it.StatsV2.CollectCount))
		rec.Set("作者", it.Author.Nickname)
		rec.Set("作者头像", it.Author.AvatarThumb)
		rec.Set("粉丝数", firstNonZero(it.AuthorStats.FollowerCount, it.AuthorStatsV2.FollowerCount))
		rec.Set("关注数", firstNonZero(it.AuthorStats.FollowingCount, it.AuthorStatsV2.FollowingCount))
		rec.Set("获赞总数", firstNonZero(it.AuthorStats.HeartCount, it.AuthorStatsV2.HeartCount))
		rec.Set("视频数量", firstNonZero(it.AuthorStats.VideoCount, it.AuthorStatsV2.VideoCount))
		duration := ""
		if it.Video.Duration > 0 {
			duration = utils.FormatDuration(it.Video.Duration.Float64())
		}
		rec.Set("视频时长", duration)
		rec.Set("视频封面", it.Video.Cover)
		rec.Set("音乐标题", it.Music.Title)
		rec.Set("音乐作者", it.Music.AuthorName)
		rec.Set("音乐链接", e.media(it.Music.PlayURL))
		rec.Set("话题", strings.Join(e.hashtags(it), ", "))
		rec.Set("语言", it.TextLanguage)
		rec.Set("字幕信息", e.subtitles(it))
		rec.Set(fieldExtractedAt, e.nowMillis())
		records = append(records, rec)
	}
	return records
}

// hashtags challenges 和 textExtra 中的话题，去重
func (e *TiktokHomepageExtractor) hashtags(it *ttItem) []string {
	tags := it.challengeTitles()
	for _, x := range it.TextExtra {
		if x.Type == 1 && x.HashtagName != "" {
			tags = append(tags, x.HashtagName)
		}
	}
	return utils.UniqueStrings(tags)
}

func (e *TiktokHomepageExtractor) subtitles(it *ttItem) string {
	segments := make([]string, 0, len(it.Video.SubtitleInfos))
	for _, s := range it.Video.SubtitleInfos {
		var details []string
		if s.LanguageCodeName != "" {
			details = append(details, "语言: "+s.LanguageCodeName)
		}
		if s.Format != "" {
			details = append(details, "格式: "+s.Format)
		}
		if s.URL != "" {
			name := fmt.Sprintf("%s_%s.%s", it.ID, s.LanguageCodeName, s.Format)
			details = append(details, "链接: "+e.download(s.URL, name))
		}
		segments = append(segments, strings.Join(details, ", "))
	}
	return strings.Join(segments, " | ")
}

// TypeDisplayName TikTok主页_作者
func (e *TiktokHomepageExtractor) TypeDisplayName(records []*model.FlatRecord) string {
	return homepageTableName("TikTok主页", records)
}

// TiktokDetailsExtractor TikTok 视频详情
type TiktokDetailsExtractor struct {
	baseExtractor
}

// NewTiktokDetailsExtractor 创建 TikTok 详情提取器
func NewTiktokDetailsExtractor(deps Deps, opts ExtractOptions) *TiktokDetailsExtractor {
	return &TiktokDetailsExtractor{newBase(deps, opts, model.PlatformTiktok, model.ExtractDetails, "TiktokDetails")}
}

// Extract 支持多个链接，每行一个
func (e *TiktokDetailsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return e.extractEach(ctx, url, func(ctx context.Context, u string) (*model.FlatRecord, error) {
		var data struct {
			ItemInfo struct {
				ItemStruct *ttItem `json:"itemStruct"`
			} `json:"itemInfo"`
		}
		if err := e.request(ctx, "/tiktok/video/detail", map[string]interface{}{"url": u}, &data); err != nil {
			return nil, err
		}
		if data.ItemInfo.ItemStruct == nil {
			return nil, fmt.Errorf("响应中没有视频详情")
		}
		return e.format(data.ItemInfo.ItemStruct), nil
	})
}

func (e *TiktokDetailsExtractor) format(it *ttItem) *model.FlatRecord {
	rec := model.NewFlatRecord()
	rec.Set("平台", "TikTok")
	rec.Set("视频ID", it.ID.String())
	rec.Set("标题", it.Desc)
	rec.Set("发布时间", utils.FormatTimestamp(it.CreateTime.Int64()))
	rec.Set("视频时长", utils.FormatDuration(it.Video.Duration.Float64()))
	rec.Set("视频封面", e.media(it.Video.Cover))

	rec.Set("作者ID", it.Author.ID.String())
	rec.Set("作者昵称", it.Author.Nickname)
	rec.Set("作者唯一ID", it.Author.UniqueID)
	rec.Set("作者头像", e.media(it.Author.AvatarLarger))
	rec.Set("作者签名", it.Author.Signature)
	rec.Set("作者粉丝数", it.AuthorStats.FollowerCount.Int64())
	rec.Set("作者关注数", it.AuthorStats.FollowingCount.Int64())
	rec.Set("作者获赞数", it.AuthorStats.HeartCount.Int64())
	rec.Set("作者视频数", it.AuthorStats.VideoCount.Int64())

	rec.Set("点赞数", firstNonZero(it.Stats.DiggCount, it.StatsV2.DiggCount))
	rec.Set("评论数", firstNonZero(it.Stats.CommentCount, it.StatsV2.CommentCount))
	rec.Set("分享数", firstNonZero(it.Stats.ShareCount, it.StatsV2.ShareCount))
	rec.Set("收藏数", firstNonZero(it.Stats.CollectCount, it.StatsV2.CollectCount))
	rec.Set("播放数", firstNonZero(it.Stats.PlayCount, it.StatsV2.PlayCount))

	rec.Set("音乐ID", it.Music.ID.String())
	rec.Set("音乐标题", it.Music.Title)
	rec.Set("音乐作者", it.Music.AuthorName)
	rec.Set("音乐时长", utils.FormatDuration(it.Music.Duration.Float64()))
	rec.Set("音乐链接", e.media(it.Music.PlayURL))
	rec.Set("话题标签", strings.Join(it.challengeTitles(), ", "))

	segments := make([]string, 0, len(it.Video.SubtitleInfos))
	for _, s := range it.Video.SubtitleInfos {
		var details []string
		if s.LanguageCodeName != "" {
			details = append(details, "语言: "+s.LanguageCodeName)
		}
		if s.Source != "" {
			details = append(details, "来源: "+s.Source)
		}
		if s.Size != "" && s.Size != "0" {
			details = append(details, fmt.Sprintf("大小: %s bytes", s.Size))
		}
		if s.URL != "" {
			name := fmt.Sprintf("%s_%s.%s", it.ID, s.LanguageCodeName, s.Format)
			details = append(details, "链接: "+e.download(s.URL, name))
		}
		segments = append(segments, strings.Join(details, ", "))
	}
	rec.Set("字幕信息", strings.Join(segments, " | "))

	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName TikTok详情
func (e *TiktokDetailsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "TikTok详情"
}
