package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/dataminer/internal/utils"
)

// ShortLinkResolver 把分享短链（xhslink.com 等）还原为原始链接
type ShortLinkResolver struct {
	http *utils.HTTPClient
}

// NewShortLinkResolver 创建短链解析器
func NewShortLinkResolver(timeout time.Duration) *ShortLinkResolver {
	return &ShortLinkResolver{http: utils.NewHTTPClient(timeout)}
}

// Resolve 先跟随跳转，跳转后的页面如果带有 og:url 或 canonical 链接则以页面声明为准
func (r *ShortLinkResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.http.Get(ctx, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("请求短链失败: %w", err)
	}
	defer resp.Body.Close()

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	if resp.StatusCode != http.StatusOK {
		return final, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return final, nil
	}

	if og, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok && strings.HasPrefix(og, "http") {
		return strings.TrimSpace(og), nil
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && strings.HasPrefix(canonical, "http") {
		return strings.TrimSpace(canonical), nil
	}
	return final, nil
}
