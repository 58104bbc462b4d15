package handler

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

// 各平台的防盗链 Referer
var platformReferers = map[model.Platform]string{
	model.PlatformDouyin:   "https://www.douyin.com/",
	model.PlatformTiktok:   "https://www.tiktok.com/",
	model.PlatformXHS:      "https://www.xiaohongshu.com/",
	model.PlatformKuaishou: "https://www.kuaishou.com/",
	model.PlatformYoutube:  "https://www.youtube.com/",
}

// 需要透传给客户端的上游响应头
var passthroughHeaders = []string{"Content-Range", "Accept-Ranges", "Last-Modified", "ETag"}

// ProxyMedia 媒体代理，用于图片和视频防盗链
func (h *Handler) ProxyMedia(c *gin.Context) {
	h.proxy(c, "")
}

// ProxyDownload 下载代理，以附件形式返回
func (h *Handler) ProxyDownload(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		filename = "download"
	}
	h.proxy(c, fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
}

func (h *Handler) proxy(c *gin.Context, disposition string) {
	targetURL := c.Query("url")
	if targetURL == "" {
		utils.BadRequest(c, "URL 不能为空")
		return
	}
	if !h.verifySignature(c, targetURL) {
		return
	}

	headers := map[string]string{}
	if referer, ok := platformReferers[model.Platform(c.Query("platform"))]; ok {
		headers["Referer"] = referer
	}
	if ck := c.Query("ck"); ck != "" {
		headers["Cookie"] = ck
	}
	if rng := c.GetHeader("Range"); rng != "" {
		headers["Range"] = rng
	}

	resp, err := h.client.Get(c.Request.Context(), targetURL, headers)
	if err != nil {
		log.Printf("[Proxy] 请求上游失败 %s: %v", targetURL, err)
		utils.Error(c, http.StatusBadGateway, "请求上游失败")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		c.Status(resp.StatusCode)
		return
	}

	extra := map[string]string{"Cache-Control": "public, max-age=3600"}
	for _, k := range passthroughHeaders {
		if v := resp.Header.Get(k); v != "" {
			extra[k] = v
		}
	}
	if disposition != "" {
		extra["Content-Disposition"] = disposition
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, extra)
}

// verifySignature 签名错误返回 403，过期返回 410
func (h *Handler) verifySignature(c *gin.Context, targetURL string) bool {
	signature := c.Query("signature")
	if signature == "" && h.Config.MediaProxyAllowUnsigned {
		return true
	}

	expire, err := strconv.ParseInt(c.Query("expire"), 10, 64)
	if err != nil || signature == "" {
		utils.Forbidden(c, "缺少签名参数")
		return false
	}

	ok, expired := h.Signer.Verify(targetURL, signature, expire)
	if !ok {
		utils.Forbidden(c, "签名无效")
		return false
	}
	if expired {
		utils.Gone(c, "链接已过期")
		return false
	}
	return true
}
