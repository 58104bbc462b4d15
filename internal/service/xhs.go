package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

type xhsStream struct {
	MasterURL string        `json:"master_url"`
	Width     utils.FlexInt `json:"width"`
	Height    utils.FlexInt `json:"height"`
}

type xhsSubtitle struct {
	Language string         `json:"language"`
	Format   *utils.FlexInt `json:"format"`
	URL      string         `json:"url"`
}

type xhsNote struct {
	ID             utils.FlexString `json:"id"`
	Title          string           `json:"title"`
	DisplayTitle   string           `json:"display_title"`
	Desc           string           `json:"desc"`
	ShareURL       string           `json:"share_url"`
	CreateTime     utils.FlexInt    `json:"create_time"`
	Likes          utils.FlexInt    `json:"likes"`
	CommentsCount  utils.FlexInt    `json:"comments_count"`
	ShareCount     utils.FlexInt    `json:"share_count"`
	CollectedCount utils.FlexInt    `json:"collected_count"`
	Type           string           `json:"type"`
	IPLocation     string           `json:"ip_location"`
	Cursor         utils.FlexString `json:"cursor"`
	User           struct {
		Nickname string           `json:"nickname"`
		UserID   utils.FlexString `json:"userid"`
		Images   string           `json:"images"`
	} `json:"user"`
	ImagesList []struct {
		Width        utils.FlexInt `json:"width"`
		Height       utils.FlexInt `json:"height"`
		URLSizeLarge string        `json:"url_size_large"`
	} `json:"images_list"`
	VideoInfoV2 struct {
		Image struct {
			FirstFrame string `json:"first_frame"`
		} `json:"image"`
		Media struct {
			Video struct {
				Duration  utils.FlexFloat          `json:"duration"`
				Subtitles map[string][]xhsSubtitle `json:"subtitles"`
			} `json:"video"`
			Stream struct {
				H264 []xhsStream `json:"h264"`
				H265 []xhsStream `json:"h265"`
				H266 []xhsStream `json:"h266"`
				AV1  []xhsStream `json:"av1"`
			} `json:"stream"`
		} `json:"media"`
	} `json:"video_info_v2"`
}

// XhsHomepageExtractor 小红书主页笔记
type XhsHomepageExtractor struct {
	baseExtractor
}

// NewXhsHomepageExtractor 创建小红书主页提取器
func NewXhsHomepageExtractor(deps Deps, opts ExtractOptions) *XhsHomepageExtractor {
	return &XhsHomepageExtractor{newBase(deps, opts, model.PlatformXHS, model.ExtractHomepage, "XhsHomepage")}
}

// userID 从链接中解析用户ID，分享短链先还原
func (e *XhsHomepageExtractor) userID(ctx context.Context, url string) string {
	if id := utils.ExtractXhsUserID(url); id != "" {
		return id
	}
	if e.deps.Resolver == nil || !strings.Contains(strings.ToLower(url), "xhslink.com") {
		return ""
	}
	resolved, err := e.deps.Resolver.Resolve(ctx, url)
	if err != nil {
		log.Printf("[XhsHomepage] 短链还原失败: %v", err)
		return ""
	}
	return utils.ExtractXhsUserID(resolved)
}

// Extract 以上一页最后一条笔记的 cursor 翻页
func (e *XhsHomepageExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	e.report(0, "开始提取数据...")

	userID := e.userID(ctx, url)
	if userID == "" {
		return e.failure("无法从URL中提取用户ID"), nil
	}

	start, hasStart := e.startMillis()
	lastCursor := ""
	notes, pages, err := paginate(ctx, &e.baseExtractor, 90, func(ctx context.Context, pageNo int) (page[xhsNote], error) {
		payload := map[string]interface{}{"userId": userID}
		if lastCursor != "" && pageNo > 1 {
			payload["lastCursor"] = lastCursor
		}

		var data struct {
			Data struct {
				Notes []xhsNote `json:"notes"`
			} `json:"data"`
		}
		if err := e.request(ctx, "/xhs/user/notes", payload, &data); err != nil {
			return page[xhsNote]{}, err
		}
		list := data.Data.Notes
		if len(list) == 0 {
			return page[xhsNote]{}, nil
		}

		p := page[xhsNote]{items: list}
		if c := list[len(list)-1].Cursor.String(); c != "" {
			lastCursor = c
			p.hasMore = true
		}
		if hasStart && xhsReachedStart(list, start) {
			log.Printf("[XhsHomepage] 达到时间边界，停止分页")
			p.reached = true
		}
		return p, nil
	})

	if credits, ok := AsInsufficientCredits(err); ok {
		return e.insufficientCredits(credits, e.format(notes), pages), nil
	}
	if err != nil {
		return nil, err
	}

	e.report(90, "正在格式化数据...")
	records := e.format(notes)
	e.report(100, "数据提取完成")
	return e.success(records, fmt.Sprintf("小红书主页数据提取成功，共获取 %d 条数据（%d 页）", len(notes), pages)), nil
}

func xhsReachedStart(notes []xhsNote, start int64) bool {
	oldest := int64(0)
	for _, n := range notes {
		ct := n.CreateTime.Int64()
		if ct == 0 {
			continue
		}
		if oldest == 0 || ct < oldest {
			oldest = ct
		}
	}
	return oldest != 0 && oldest*1000 <= start
}

func (e *XhsHomepageExtractor) format(notes []xhsNote) []*model.FlatRecord {
	start, hasStart := e.startMillis()
	records := make([]*model.FlatRecord, 0, len(notes))

	for i := range notes {
		n := &notes[i]
		ct := n.CreateTime.Int64()
		if hasStart && ct != 0 && ct*1000 <= start {
			continue
		}

		title := n.Title
		if title == "" {
			title = n.DisplayTitle
		}
		link := n.ShareURL
		if link == "" {
			link = "https://www.xiaohongshu.com/explore/" + n.ID.String()
		}
		video := n.VideoInfoV2.Media.Video

		rec := model.NewFlatRecord()
		rec.Set("平台", "小红书")
		rec.Set("笔记ID", n.ID.String())
		rec.Set("标题", title)
		rec.Set("描述", n.Desc)
		rec.Set("链接", link)
		rec.Set("发布时间", utils.FormatTimestamp(ct))
		rec.Set("点赞数", n.Likes.Int64())
		rec.Set("评论数", n.CommentsCount.Int64())
		rec.Set("分享数", n.ShareCount.Int64())
		rec.Set("收藏数", n.CollectedCount.Int64())
		rec.Set("作者", n.User.Nickname)
		rec.Set("作者ID", n.User.UserID.String())
		rec.Set("作者头像", e.media(n.User.Images))
		rec.Set("笔记类型", n.Type)
		rec.Set("地理位置", n.IPLocation)
		rec.Set("话题", utils.ExtractXhsTopics(n.Desc))
		rec.Set("图片信息", e.images(n))
		duration := ""
		if video.Duration > 0 {
			duration = utils.FormatDuration(video.Duration.Float64())
		}
		rec.Set("视频时长", duration)
		rec.Set("视频封面", e.media(n.VideoInfoV2.Image.FirstFrame))
		rec.Set("字幕信息", e.subtitles(n.ID.String(), video.Subtitles))

		initResolutionColumns(rec)
		stream := n.VideoInfoV2.Media.Stream
		for _, list := range [][]xhsStream{stream.H264, stream.H265, stream.H266, stream.AV1} {
			for _, s := range list {
				if s.MasterURL == "" {
					continue
				}
				label := utils.ResolutionLabel(int(s.Width), int(s.Height))
				setResolution(rec, label, e.media(s.MasterURL))
			}
		}

		rec.Set(fieldExtractedAt, e.nowMillis())
		records = append(records, rec)
	}
	return records
}

func (e *XhsHomepageExtractor) images(n *xhsNote) string {
	segments := make([]string, 0, len(n.ImagesList))
	for _, img := range n.ImagesList {
		var details []string
		if img.Width > 0 && img.Height > 0 {
			details = append(details, fmt.Sprintf("尺寸: %dx%d", img.Width, img.Height))
		}
		if img.URLSizeLarge != "" {
			details = append(details, "图片链接: "+e.media(img.URLSizeLarge))
		}
		segments = append(segments, strings.Join(details, ", "))
	}
	return strings.Join(segments, " | ")
}

// subtitles 按语言排序输出
func (e *XhsHomepageExtractor) subtitles(noteID string, subs map[string][]xhsSubtitle) string {
	langs := make([]string, 0, len(subs))
	for lang := range subs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var segments []string
	for _, lang := range langs {
		for _, s := range subs[lang] {
			var details []string
			if s.Language != "" {
				details = append(details, "语言: "+s.Language)
			}
			if s.Format != nil {
				format := "Unknown"
				if *s.Format == 0 {
					format = "SRT"
				}
				details = append(details, "格式: "+format)
			}
			if s.URL != "" {
				details = append(details, "链接: "+e.download(s.URL, fmt.Sprintf("%s_%s.srt", noteID, s.Language)))
			}
			segments = append(segments, strings.Join(details, ", "))
		}
	}
	return strings.Join(segments, " | ")
}

// TypeDisplayName 小红书主页_作者
func (e *XhsHomepageExtractor) TypeDisplayName(records []*model.FlatRecord) string {
	return homepageTableName("小红书主页", records)
}

// XhsDetailsExtractor 小红书笔记详情
type XhsDetailsExtractor struct {
	baseExtractor
}

// NewXhsDetailsExtractor 创建小红书详情提取器
func NewXhsDetailsExtractor(deps Deps, opts ExtractOptions) *XhsDetailsExtractor {
	return &XhsDetailsExtractor{newBase(deps, opts, model.PlatformXHS, model.ExtractDetails, "XhsDetails")}
}

type xhsNoteDetail struct {
	NoteID     utils.FlexString `json:"noteId"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	NoteLink   string           `json:"noteLink"`
	CreateDate string           `json:"createDate"`
	NoteType   utils.FlexInt    `json:"noteType"`
	LikeNum    utils.FlexString `json:"likeNum"`
	FavNum     utils.FlexString `json:"favNum"`
	CmtNum     utils.FlexString `json:"cmtNum"`
	Author     struct {
		UserID     utils.FlexString `json:"userId"`
		Nickname   string           `json:"nickname"`
		UserSImage string           `json:"userSImage"`
	} `json:"author"`
	Images []struct {
		Link string `json:"link"`
	} `json:"images"`
	Video struct {
		Link string `json:"link"`
	} `json:"video"`
}

// Extract 支持多个链接，每行一个
func (e *XhsDetailsExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return e.extractEach(ctx, url, func(ctx context.Context, u string) (*model.FlatRecord, error) {
		var note *xhsNoteDetail
		if err := e.request(ctx, "/xhs/note/info/v2", map[string]interface{}{"url": strings.TrimSpace(u)}, &note); err != nil {
			return nil, err
		}
		if note == nil {
			return nil, fmt.Errorf("笔记详情数据结构异常")
		}
		return e.format(note), nil
	})
}

// countOrZero 计数字段可能是 "1.2万" 这样的字符串，原样保留；空值记为 0
func countOrZero(s utils.FlexString) interface{} {
	if strings.TrimSpace(s.String()) == "" {
		return int64(0)
	}
	return s.Scalar()
}

func (e *XhsDetailsExtractor) format(n *xhsNoteDetail) *model.FlatRecord {
	noteType := "普通"
	if n.NoteType == 2 {
		noteType = "视频"
	}

	rec := model.NewFlatRecord()
	rec.Set("平台", "小红书")
	rec.Set("笔记ID", n.NoteID.String())
	rec.Set("标题", n.Title)
	rec.Set("内容", n.Content)
	rec.Set("笔记链接", n.NoteLink)
	rec.Set("发布时间", n.CreateDate)
	rec.Set("笔记类型", noteType)
	rec.Set("作者ID", n.Author.UserID.String())
	rec.Set("作者昵称", n.Author.Nickname)
	rec.Set("作者头像", n.Author.UserSImage)
	rec.Set("点赞数", countOrZero(n.LikeNum))
	rec.Set("收藏数", countOrZero(n.FavNum))
	rec.Set("评论数", countOrZero(n.CmtNum))
	for i, img := range n.Images {
		rec.Set(fmt.Sprintf("图片%d", i+1), img.Link)
	}
	if n.Video.Link != "" {
		rec.Set("视频链接", n.Video.Link)
	}
	rec.Set(fieldExtractedAt, e.nowMillis())
	return rec
}

// TypeDisplayName 小红书详情
func (e *XhsDetailsExtractor) TypeDisplayName([]*model.FlatRecord) string {
	return "小红书详情"
}
