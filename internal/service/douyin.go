package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

// 抖音接口返回结构

type dyURLList struct {
	URLList []string `json:"url_list"`
}

func (l dyURLList) first() string {
	if len(l.URLList) == 0 {
		return ""
	}
	return l.URLList[0]
}

type dyPlayAddr struct {
	Width   utils.FlexInt `json:"width"`
	Height  utils.FlexInt `json:"height"`
	URLList []string      `json:"url_list"`
}

type dyAuthor struct {
	UID            utils.FlexString `json:"uid"`
	Nickname       string           `json:"nickname"`
	Signature      string           `json:"signature"`
	AvatarThumb    dyURLList        `json:"avatar_thumb"`
	AvatarMedium   dyURLList        `json:"avatar_medium"`
	FollowerCount  utils.FlexInt    `json:"follower_count"`
	FollowingCount utils.FlexInt    `json:"following_count"`
	TotalFavorited utils.FlexInt    `json:"total_favorited"`
}

type dyAweme struct {
	AwemeID    utils.FlexString `json:"aweme_id"`
	Desc       string           `json:"desc"`
	CreateTime utils.FlexInt    `json:"create_time"`
	IsTop      utils.FlexInt    `json:"is_top"`
	Duration   utils.FlexFloat  `json:"duration"`
	Statistics struct {
		DiggCount      utils.FlexInt `json:"digg_count"`
		CommentCount   utils.FlexInt `json:"comment_count"`
		ShareCount     utils.FlexInt `json:"share_count"`
		RecommendCount utils.FlexInt `json:"recommend_count"`
		CollectCount   utils.FlexInt `json:"collect_count"`
	} `json:"statistics"`
	Author dyAuthor `json:"author"`
	Video  struct {
		Duration    utils.FlexFloat `json:"duration"`
		Cover       dyURLList       `json:"cover"`
		OriginCover dyURLList       `json:"origin_cover"`
		BitRate     []struct {
			PlayAddr dyPlayAddr `json:"play_addr"`
		} `json:"bit_rate"`
	} `json:"video"`
	Music struct {
		IDStr    utils.FlexString `json:"id_str"`
		Title    string           `json:"title"`
		Author   string           `json:"author"`
		Duration utils.FlexFloat  `json:"duration"`
		PlayURL  dyURLList        `json:"play_url"`
	} `json:"music"`
	TextExtra []struct {
		HashtagName string `json:"hashtag_name"`
	} `json:"text_extra"`
	VideoTag []struct {
		TagName string `json:"tag_name"`
	} `json:"video_tag"`
}

type dyComment struct {
	CID               utils.FlexString `json:"cid"`
	AwemeID           utils.FlexString `json:"aweme_id"`
	Text              string           `json:"text"`
	CreateTime        utils.FlexInt    `json:"create_time"`
	DiggCount         utils.FlexInt    `json:"digg_count"`
	ReplyCommentTotal utils.FlexInt    `json:"reply_comment_total"`
	IPLabel           string           `json:"ip_label"`
	ReplyToReplyID    utils.FlexString `json:"reply_to_reply_id"`
	User              dyAuthor         `json:"user"`

	replies []dyComment
}

// DouyinHomepageExtractor 抖音主页作品
type DouyinHomepageExtractor struct {
	baseExtractor
}

// NewDouyinHomepageExtractor 创建抖音主页提取器
func NewDouyinHomepageExtractor(deps Deps, opts ExtractOptions) *DouyinHomepageExtractor {
	return &DouyinHomepageExtractor{newBase(deps, opts, model.PlatformDouyin, model.ExtractHomepage, "DouyinHomepage")}
}

// Extract 按 max_cursor 翻页，设置了起始日期时到达边界即停止
func (e *DouyinHomepageExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始抖音主页数据提取...")
	start, hasStart := e.startMillis()

	var maxCursor *int64
	items, pages, err := paginate(ctx, &e.baseExtractor, 90, func(ctx context.Context, pageNo int) (page[dyAweme], error) {
		payload := map[string]interface{}{"url": url}
		if maxCursor != nil {
			payload["maxCursor"] = *maxCursor
		}

		var data struct {
			AwemeList []dyAweme     `json:"aweme_list"`
			HasMore   utils.FlexInt `json:"has_more"`
			MaxCursor utils.FlexInt `json:"max_cursor"`
		}
		if err := e.request(ctx, "/dy/user/videos", payload, &data); err != nil {
			return page[dyAweme]{}, err
		}
		if len(data.AwemeList) == 0 {
			log.Printf("[DouyinHomepage] 没有更多数据，停止分页")
			return page[dyAweme]{}, nil
		}

		p := page[dyAweme]{items: data.AwemeList, hasMore: data.HasMore.Int64() == 1}
		if p.hasMore && data.MaxCursor.Int64() != 0 {
			c := data.MaxCursor.Int64()
			maxCursor = &c
		}
		if hasStart && dyReachedStart(data.AwemeList, start) {
			log.Printf("[DouyinHomepage] 达到时间边界，停止分页")
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
	return e.success(records, fmt.Sprintf("抖音主页数据提取成功，共获取 %d 条数据（%d 页）", len(items), pages)), nil
}

// dyReachedStart 最早一条非置顶作品不晚于起始时间
func dyReachedStart(list []dyAweme, start int64) bool {
	oldest := int64(0)
	for _, a := range list {
		ct := a.CreateTime.Int64()
		if ct == 0 || a.IsTop.Int64() != 0 {
			continue
		}
		if oldest == 0 || ct < oldest {
			oldest = ct
		}
	}
	if oldest == 0 {
		return false
	}
	return oldest*1000 <= start
}

func (e *DouyinHomepageExtractor) format(list []dyAweme) []*model.FlatRecord {
	start, hasStart := e.startMillis()
	records := make([]*model.FlatRecord, 0, len(list))

	for _, a := range list {
		ct := a.CreateTime.Int64()
		if hasStart && ct != 0 && ct*1000 <= start {
			continue
		}

		rec := model.NewFlatRecord()
		rec.Set("平台", "抖音")
		rec.Set("视频ID", a.AwemeID.String())
		rec.Set("描述", a.Desc)
		rec.Set("链接", "https://www.douyin.com/video/"+a.AwemeID.String())
		rec.Set("发布时间", utils.FormatTimestamp(ct))
		rec.Set("点赞数", a.Statistics.DiggCount.Int64())
		rec.Set("评论数", a.Statistics.CommentCount.Int64())
		rec.Set("分享数", a.Statistics.ShareCount.Int64())
		rec.Set("推荐数", a.Statistics.RecommendCount.Int64())
		rec.Set("收藏数", a.Statistics.CollectCount.Int64())
		rec.Set("作者", a.Author.Nickname)
		rec.Set("作者头像", a.Author.AvatarThumb.first())
		duration := ""
		if a.Video.Duration > 0 {
			duration = utils.FormatDuration(a.Video.Duration.Float64() / 1000)
		}
		rec.Set("视频时长", duration)
		rec.Set("视频封面", a.Video.Cover.first())
		rec.Set("音乐标题", a.Music.Title)
		rec.Set("音乐作者", a.Music.Author)
		rec.Set("音乐链接", a.Music.PlayURL.first())

		var topics []string
		for _, t := range a.TextExtra {
			if t.HashtagName != "" {
				topics = append(topics, t.HashtagName)
			}
		}
		rec.Set("话题", strings.Join(topics, ", "))
		var tags []string
		for _, t := range a.VideoTag {
			tags = append(tags, t.TagName)
		}
		rec.Set("标签", strings.Join(tags, ", "))

		initResolutionColumns(rec)
		for _, br := range a.Video.BitRate {
			label := utils.ResolutionLabel(int(br.PlayAddr.Width), int(br.PlayAddr.Height))
			for _, u := range br.PlayAddr.URLList {
				if strings.Contains(u, "www.douyin.com") {
					setResolution(rec, label, u)
					break
				}
			}
		}

		rec.Set(fieldExtractedAt, e.nowMillis())
		records = append(records, rec)
	}
	return records
}

// TypeDisplayName 抖音主页_作者
func (e *DouyinHomepageExtractor) TypeDisplayName(records []*model.FlatRecord) string {
	return homepageTableName("抖音主页", records)
}

// homepageTableName 有作者时带上作者名
func homepageTableName(prefix string, records []*model.FlatRecord) string {
	if len(records) > 0 {
		if author := records[0].GetString("作者"); author != "" {
			return prefix + "_" + author
		}
	}
	return prefix
}

// DouyinDetailsExtractor 抖音作品详情
type DouyinDetailsExtractor struct {
	baseExtractor
}

// NewDouyinDetailsExtractor 创建抖音详情提取器
func NewDouyinDetailsExtractor(deps Deps, opts ExtractOptions) *DouyinDetailsExtractor {
	return &DouyinDetailsExtractor{newBase(deps, opts, model.PlatformDouyin, model.ExtractDetails, "DouyinDetails")}
}

// Extract 支持多个链接，每行一个
func (e *DouyinDetailsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return e.extractEach(ctx, url, func(ctx context.Context, u string) (*model.FlatRecord, error) {
		var data struct {
			AwemeDetail *dyAweme `json:"aweme_detail"`
		}
		if err := e.request(ctx, "/dy/video/info", map[string]interface{}{"url": u}, &data); err != nil {
			return nil, err
		}
		if data.AwemeDetail == nil {
			return nil, fmt.Errorf("响应中没有作品详情")
		}
		return e.format(data.AwemeDetail), nil
	})
}

func (e *DouyinDetailsExtractor) format(a *dyAweme) *model.FlatRecord {
	rec := model.NewFlatRecord()
	rec.Set("平台", "抖音")
	rec.Set("视频ID", a.AwemeID.String())
	rec.Set("标题", a.Desc)
	rec.Set("发布时间", utils.FormatTimestamp(a.CreateTime.Int64()))
	rec.Set("视频时长", utils.FormatDuration(float64(int64(a.Duration.Float64()/1000))))
	rec.Set("视频封面", e.media(a.Video.OriginCover.first()))

	rec.Set("作者ID", a.Author.UID.String())
	rec.Set("作者昵称", a.Author.Nickname)
	rec.Set("作者头像", e.media(a.Author.AvatarThumb.first()))
	rec.Set("作者签名", a.Author.Signature)
	rec.Set("作者粉丝数", a.Author.FollowerCount.Int64())
	rec.Set("作者关注数", a.Author.FollowingCount.Int64())
	rec.Set("作者获赞数", a.Author.TotalFavorited.Int64())

	rec.Set("点赞数", a.Statistics.DiggCount.Int64())
	rec.Set("评论数", a.Statistics.CommentCount.Int64())
	rec.Set("分享数", a.Statistics.ShareCount.Int64())
	rec.Set("收藏数", a.Statistics.CollectCount.Int64())

	rec.Set("音乐标题", a.Music.Title)
	rec.Set("音乐作者", a.Music.Author)
	rec.Set("音乐ID", a.Music.IDStr.String())
	rec.Set("音乐时长", utils.FormatDuration(a.Music.Duration.Float64()))
	rec.Set("音乐链接", e.media(a.Music.PlayURL.first()))

	initResolutionColumns(rec)
	for _, br := range a.Video.BitRate {
		if len(br.PlayAddr.URLList) == 0 {
			continue
		}
		label := utils.ResolutionLabel(int(br.PlayAddr.Width), int(br.PlayAddr.Height))
		setResolution(rec, label, e.media(br.PlayAddr.URLList[0]))
	}

	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName 抖音详情
func (e *DouyinDetailsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "抖音详情"
}

// DouyinCommentsExtractor 抖音评论，可选包含回复
type DouyinCommentsExtractor struct {
	baseExtractor
}

// NewDouyinCommentsExtractor 创建抖音评论提取器
func NewDouyinCommentsExtractor(deps Deps, opts ExtractOptions) *DouyinCommentsExtractor {
	return &DouyinCommentsExtractor{newBase(deps, opts, model.PlatformDouyin, model.ExtractComments, "DouyinComments")}
}

// Extract 按 cursor 翻页，评论按 cid 去重
func (e *DouyinCommentsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始提取评论数据...")

	seen := make(map[string]struct{})
	seenReplies := make(map[string]struct{})
	cursor := ""

	comments, pages, err := paginate(ctx, &e.baseExtractor, 80, func(ctx context.Context, pageNo int) (page[dyComment], error) {
		payload := map[string]interface{}{"url": url}
		if cursor != "" {
			payload["cursor"] = cursor
		}

		var data struct {
			Comments []dyComment      `json:"comments"`
			HasMore  utils.FlexInt    `json:"has_more"`
			Cursor   utils.FlexString `json:"cursor"`
		}
		if err := e.request(ctx, "/dy/video/comments", payload, &data); err != nil {
			return page[dyComment]{}, err
		}
		if len(data.Comments) == 0 {
			log.Printf("[DouyinComments] 没有更多评论数据，停止分页")
			return page[dyComment]{}, nil
		}

		fresh := make([]dyComment, 0, len(data.Comments))
		for _, c := range data.Comments {
			id := c.CID.String()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			fresh = append(fresh, c)
		}

		p := page[dyComment]{items: fresh}
		if data.HasMore.Int64() == 1 && data.Cursor.String() != "" && data.Cursor.String() != "0" {
			cursor = data.Cursor.String()
			p.hasMore = true
		}

		if e.opts.IncludeReplies {
			if err := e.fetchReplies(ctx, p.items, seenReplies); err != nil {
				if _, ok := AsInsufficientCredits(err); ok {
					return p, err
				}
				log.Printf("[DouyinComments] 回复提取失败，继续主评论提取: %v", err)
			}
		}
		return p, nil
	})

	if credits, ok := AsInsufficientCredits(err); ok {
		return e.insufficientCredits(credits, e.format(comments), pages), nil
	}
	if err != nil {
		return nil, err
	}

	e.report(90, "正在格式化数据...")
	records := e.format(comments)
	e.report(100, "评论数据提取完成")
	return e.success(records, fmt.Sprintf("抖音评论数据提取成功，共获取 %d 条评论（%d 页）", len(comments), pages)), nil
}

// fetchReplies 为有回复的评论拉取回复，积分不足时立即返回，其他错误跳过该评论
func (e *DouyinCommentsExtractor) fetchReplies(ctx context.Context, comments []dyComment, seen map[string]struct{}) error {
	for i := range comments {
		c := &comments[i]
		if c.ReplyCommentTotal.Int64() <= 0 {
			continue
		}

		var data struct {
			Comments []dyComment `json:"comments"`
		}
		payload := map[string]interface{}{
			"aweme_id":   c.AwemeID.String(),
			"comment_id": c.CID.String(),
		}
		if err := e.request(ctx, "/dy/comment/replies", payload, &data); err != nil {
			if _, ok := AsInsufficientCredits(err); ok {
				log.Printf("[DouyinComments] 提取回复时积分不足，停止回复提取")
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[DouyinComments] 提取评论 %s 的回复失败: %v", c.CID, err)
			continue
		}

		for _, r := range data.Comments {
			id := r.CID.String()
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			c.replies = append(c.replies, r)
		}

		if err := e.sleep(ctx, e.deps.Pacing.ReplyDelay); err != nil {
			return err
		}
	}
	return nil
}

func (e *DouyinCommentsExtractor) format(comments []dyComment) []*model.FlatRecord {
	records := make([]*model.FlatRecord, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		records = append(records, e.formatComment(c, "主评论", ""))
		if e.opts.IncludeReplies {
			for j := range c.replies {
				records = append(records, e.formatComment(&c.replies[j], "回复", c.CID.String()))
			}
		}
	}
	return records
}

func (e *DouyinCommentsExtractor) formatComment(c *dyComment, kind, parentID string) *model.FlatRecord {
	avatar := c.User.AvatarThumb.first()
	if avatar == "" {
		avatar = c.User.AvatarMedium.first()
	}

	rec := model.NewFlatRecord()
	rec.Set("平台", "抖音")
	rec.Set("评论类型", kind)
	rec.Set("评论ID", c.CID.String())
	rec.Set("父评论ID", parentID)
	rec.Set("视频ID", c.AwemeID.String())
	rec.Set("作者ID", c.User.UID.String())
	rec.Set("作者昵称", c.User.Nickname)
	rec.Set("作者头像", e.media(avatar))
	rec.Set("评论内容", c.Text)
	rec.Set("发布时间", utils.FormatTimestamp(c.CreateTime.Int64()))
	rec.Set("点赞数", c.DiggCount.Int64())
	rec.Set("回复数量", c.ReplyCommentTotal.Int64())
	rec.Set("IP归属地", c.IPLabel)
	rec.Set("回复目标ID", c.ReplyToReplyID.String())
	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName 抖音评论
func (e *DouyinCommentsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "抖音评论"
}
