package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

const ksNoMore = "no_more"

type ksURL struct {
	URL string `json:"url"`
}

func ksFirstURL(list []ksURL) string {
	if len(list) == 0 {
		return ""
	}
	return list[0].URL
}

type ksPhoto struct {
	PhotoID      utils.FlexString `json:"photoId"`
	Caption      string           `json:"caption"`
	Timestamp    utils.FlexInt    `json:"timestamp"`
	Duration     utils.FlexInt    `json:"duration"`
	CoverURLs    []ksURL          `json:"coverUrls"`
	UserID       utils.FlexString `json:"userId"`
	UserName     string           `json:"userName"`
	HeadURLs     []ksURL          `json:"headUrls"`
	UserSex      string           `json:"userSex"`
	Verified     utils.FlexBool   `json:"verified"`
	LikeCount    utils.FlexString `json:"likeCount"`
	CommentCount utils.FlexString `json:"commentCount"`
	ShareCount   utils.FlexString `json:"shareCount"`
	ViewCount    utils.FlexString `json:"viewCount"`
	ForwardCount utils.FlexString `json:"forwardCount"`
	ShareInfo    string           `json:"share_info"`
	SoundTrack   struct {
		ID        utils.FlexString `json:"id"`
		Name      string           `json:"name"`
		Artist    string           `json:"artist"`
		AudioURLs []ksURL          `json:"audioUrls"`
		ImageURLs []ksURL          `json:"imageUrls"`
	} `json:"soundTrack"`
	Manifest struct {
		AdaptationSet []struct {
			Representation []struct {
				URL    string        `json:"url"`
				Width  utils.FlexInt `json:"width"`
				Height utils.FlexInt `json:"height"`
			} `json:"representation"`
		} `json:"adaptationSet"`
	} `json:"manifest"`
}

type ksComment struct {
	CommentID          utils.FlexString `json:"commentId"`
	AuthorID           utils.FlexString `json:"authorId"`
	AuthorName         string           `json:"authorName"`
	HeadURL            string           `json:"headurl"`
	Content            string           `json:"content"`
	Timestamp          utils.FlexInt    `json:"timestamp"`
	LikedCount         utils.FlexString `json:"likedCount"`
	RealLikedCount     utils.FlexString `json:"realLikedCount"`
	AuthorLiked        utils.FlexBool   `json:"authorLiked"`
	ReplyToUserName    string           `json:"replyToUserName"`
	ReplyTo            utils.FlexString `json:"replyTo"`
	SubCommentCount    utils.FlexInt    `json:"subCommentCount"`
	SubCommentsPcursor string           `json:"subCommentsPcursor"`

	replies []ksComment
}

// fetchKuaishouPhoto 查询视频详情
func fetchKuaishouPhoto(ctx context.Context, b *baseExtractor, url string) (*ksPhoto, error) {
	var data struct {
		Photo *ksPhoto `json:"photo"`
	}
	if err := b.request(ctx, "/kuaishou/video/detail", map[string]interface{}{"url": strings.TrimSpace(url)}, &data); err != nil {
		return nil, err
	}
	if data.Photo == nil {
		return nil, fmt.Errorf("视频详情数据结构异常")
	}
	return data.Photo, nil
}

// KuaishouDetailsExtractor 快手视频详情
type KuaishouDetailsExtractor struct {
	baseExtractor
}

// NewKuaishouDetailsExtractor 创建快手详情提取器
func NewKuaishouDetailsExtractor(deps Deps, opts ExtractOptions) *KuaishouDetailsExtractor {
	return &KuaishouDetailsExtractor{newBase(deps, opts, model.PlatformKuaishou, model.ExtractDetails, "KuaishouDetails")}
}

// Extract 支持多个链接，每行一个
func (e *KuaishouDetailsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return e.extractEach(ctx, url, func(ctx context.Context, u string) (*model.FlatRecord, error) {
		photo, err := fetchKuaishouPhoto(ctx, &e.baseExtractor, u)
		if err != nil {
			return nil, err
		}
		return e.format(photo), nil
	})
}

func (e *KuaishouDetailsExtractor) format(p *ksPhoto) *model.FlatRecord {
	rec := model.NewFlatRecord()
	rec.Set("平台", "快手")
	rec.Set("视频ID", p.PhotoID.String())
	rec.Set("标题", p.Caption)
	// 快手的时间戳和时长都是毫秒
	rec.Set("发布时间", utils.FormatMillisTimestamp(p.Timestamp.Int64()))
	rec.Set("视频时长", utils.FormatDuration(float64(p.Duration.Int64()/1000)))
	rec.Set("视频封面", e.media(ksFirstURL(p.CoverURLs)))

	rec.Set("作者ID", p.UserID.String())
	rec.Set("作者昵称", p.UserName)
	rec.Set("作者头像", e.media(ksFirstURL(p.HeadURLs)))
	rec.Set("作者性别", p.UserSex)
	rec.Set("作者认证", p.Verified.Bool())

	rec.Set("点赞数", countOrZero(p.LikeCount))
	rec.Set("评论数", countOrZero(p.CommentCount))
	rec.Set("分享数", countOrZero(p.ShareCount))
	rec.Set("观看数", countOrZero(p.ViewCount))
	rec.Set("转发数", countOrZero(p.ForwardCount))

	rec.Set("音乐名称", p.SoundTrack.Name)
	rec.Set("音乐作者", p.SoundTrack.Artist)
	rec.Set("音乐ID", p.SoundTrack.ID.String())
	rec.Set("音乐链接", e.media(ksFirstURL(p.SoundTrack.AudioURLs)))
	rec.Set("音乐封面", e.media(ksFirstURL(p.SoundTrack.ImageURLs)))

	initResolutionColumns(rec)
	for _, set := range p.Manifest.AdaptationSet {
		for _, r := range set.Representation {
			if r.URL == "" {
				continue
			}
			label := utils.ResolutionLabel(int(r.Width), int(r.Height))
			setResolution(rec, label, e.media(r.URL))
		}
	}

	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName 快手详情
func (e *KuaishouDetailsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "快手详情"
}

// KuaishouCommentsExtractor 快手评论，可选包含回复
type KuaishouCommentsExtractor struct {
	baseExtractor
}

// NewKuaishouCommentsExtractor 创建快手评论提取器
func NewKuaishouCommentsExtractor(deps Deps, opts ExtractOptions) *KuaishouCommentsExtractor {
	return &KuaishouCommentsExtractor{newBase(deps, opts, model.PlatformKuaishou, model.ExtractComments, "KuaishouComments")}
}

// resolveIDs 优先从链接解析 photoId/authorId，不完整时查询视频详情的 share_info
func (e *KuaishouCommentsExtractor) resolveIDs(ctx context.Context, url string) (string, string, error) {
	photoID, authorID := utils.ParseKuaishouVideoURL(url)
	if photoID != "" && authorID != "" {
		return photoID, authorID, nil
	}

	photo, err := fetchKuaishouPhoto(ctx, &e.baseExtractor, url)
	if err != nil {
		if _, ok := AsInsufficientCredits(err); ok {
			return "", "", err
		}
		return "", "", errors.New("获取视频详情失败，无法解析视频信息")
	}
	if photo.ShareInfo == "" {
		return "", "", errors.New("获取视频详情失败，无法解析视频信息")
	}
	photoID, authorID = utils.ParseShareInfo(photo.ShareInfo)
	if photoID == "" || authorID == "" {
		return "", "", errors.New("无法从视频详情中解析出photoId和authorId")
	}
	return photoID, authorID, nil
}

// Extract 按 pcursor 翻页，评论按 commentId 去重
func (e *KuaishouCommentsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始提取评论数据...")

	photoID, authorID, err := e.resolveIDs(ctx, url)
	if err != nil {
		if credits, ok := AsInsufficientCredits(err); ok {
			return e.insufficientCredits(credits, nil, 0), nil
		}
		return e.failure("解析视频URL失败: " + err.Error()), nil
	}

	seen := make(map[string]struct{})
	pcursor := ""
	comments, pages, err := paginate(ctx, &e.baseExtractor, 80, func(ctx context.Context, pageNo int) (page[ksComment], error) {
		payload := map[string]interface{}{"photoId": photoID, "authorId": authorID}
		if pcursor != "" {
			payload["pcursor"] = pcursor
		}

		var data struct {
			Data struct {
				VisionCommentList struct {
					RootComments []ksComment `json:"rootComments"`
					Pcursor      string      `json:"pcursor"`
				} `json:"visionCommentList"`
			} `json:"data"`
		}
		if err := e.request(ctx, "/kuaishou/comments", payload, &data); err != nil {
			return page[ksComment]{}, err
		}
		list := data.Data.VisionCommentList
		if len(list.RootComments) == 0 {
			return page[ksComment]{}, nil
		}

		fresh := make([]ksComment, 0, len(list.RootComments))
		for _, c := range list.RootComments {
			id := c.CommentID.String()
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			fresh = append(fresh, c)
		}

		p := page[ksComment]{items: fresh}
		if list.Pcursor != "" && list.Pcursor != ksNoMore {
			pcursor = list.Pcursor
			p.hasMore = true
		}

		if e.opts.IncludeReplies {
			if err := e.fetchReplies(ctx, p.items, photoID, authorID); err != nil {
				if _, ok := AsInsufficientCredits(err); ok {
					return p, err
				}
				log.Printf("[KuaishouComments] 回复提取失败，继续主评论提取: %v", err)
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
	return e.success(records, fmt.Sprintf("快手评论数据提取成功，共获取 %d 条评论（%d 页）", len(comments), pages)), nil
}

func (e *KuaishouCommentsExtractor) fetchReplies(ctx context.Context, comments []ksComment, photoID, authorID string) error {
	for i := range comments {
		c := &comments[i]
		if c.SubCommentCount.Int64() <= 0 || c.SubCommentsPcursor == "" || c.SubCommentsPcursor == ksNoMore {
			continue
		}

		payload := map[string]interface{}{
			"photoId":       photoID,
			"authorId":      authorID,
			"rootCommentId": c.CommentID.String(),
			"pcursor":       c.SubCommentsPcursor,
		}
		var data struct {
			Data struct {
				VisionSubCommentList struct {
					SubComments []ksComment `json:"subComments"`
				} `json:"visionSubCommentList"`
			} `json:"data"`
		}
		if err := e.request(ctx, "/kuaishou/replies", payload, &data); err != nil {
			if _, ok := AsInsufficientCredits(err); ok {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[KuaishouComments] 提取评论 %s 的回复失败: %v", c.CommentID, err)
			continue
		}
		c.replies = append(c.replies, data.Data.VisionSubCommentList.SubComments...)

		if err := e.sleep(ctx, e.deps.Pacing.ReplyDelay); err != nil {
			return err
		}
	}
	return nil
}

func (e *KuaishouCommentsExtractor) format(comments []ksComment) []*model.FlatRecord {
	records := make([]*model.FlatRecord, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		records = append(records, e.formatComment(c, "主评论", ""))
		if e.opts.IncludeReplies {
			for j := range c.replies {
				records = append(records, e.formatComment(&c.replies[j], "回复", c.CommentID.String()))
			}
		}
	}
	return records
}

func (e *KuaishouCommentsExtractor) formatComment(c *ksComment, kind, parentID string) *model.FlatRecord {
	rec := model.NewFlatRecord()
	rec.Set("平台", "快手")
	rec.Set("评论类型", kind)
	rec.Set("评论ID", c.CommentID.String())
	rec.Set("父评论ID", parentID)
	rec.Set("作者ID", c.AuthorID.String())
	rec.Set("作者昵称", c.AuthorName)
	rec.Set("作者头像", e.media(c.HeadURL))
	rec.Set("评论内容", c.Content)
	rec.Set("发布时间", utils.FormatMillisTimestamp(c.Timestamp.Int64()))
	rec.Set("点赞数", countOrZero(c.LikedCount))
	rec.Set("真实点赞数", countOrZero(c.RealLikedCount))
	rec.Set("作者是否点赞", c.AuthorLiked.Bool())
	rec.Set("回复目标用户", c.ReplyToUserName)
	rec.Set("回复目标ID", c.ReplyTo.String())
	rec.Set("子评论数量", c.SubCommentCount.Int64())
	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName 快手评论
func (e *KuaishouCommentsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "快手评论"
}
