package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// MediaProxyPath 媒体代理路径
	MediaProxyPath = "/api/proxy/media"
	// DownloadProxyPath 下载代理路径
	DownloadProxyPath = "/api/download/proxy"
	// DefaultProxyExpire 代理链接默认有效期（秒）
	DefaultProxyExpire = 60 * 60
)

// 需要走代理的媒体域名（防盗链）
var proxyDomains = []string{
	"tiktok.com",
	"tiktokcdn.com",
	"douyin.com",
	"douyinpic.com",
	"douyinvod.com",
	"xiaohongshu.com",
	"xhscdn.com",
	"youtube.com",
	"googlevideo.com",
}

// ProxySigner 生成和校验带签名的媒体代理链接
type ProxySigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewProxySigner 创建签名器，baseURL 为空时生成相对链接
func NewProxySigner(secret, baseURL string) *ProxySigner {
	return &ProxySigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (p *ProxySigner) WithClock(now func() time.Time) *ProxySigner {
	p.now = now
	return p
}

// Signature HMAC-SHA256(url&&expire) 的十六进制，再做 URL 转义
func (p *ProxySigner) Signature(rawURL string, expire int64) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(rawURL + "&&" + strconv.FormatInt(expire, 10)))
	return url.QueryEscape(hex.EncodeToString(mac.Sum(nil)))
}

// Verify 校验签名和有效期，expired 为 true 表示签名正确但已过期
func (p *ProxySigner) Verify(rawURL, signature string, expire int64) (ok bool, expired bool) {
	expected := p.Signature(rawURL, expire)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return false, false
	}
	if p.now().Unix() > expire {
		return true, true
	}
	return true, false
}

// MediaURL 构建媒体代理链接
func (p *ProxySigner) MediaURL(rawURL string, expireAdd int64, platform, ck, parseURL string) string {
	if expireAdd <= 0 {
		expireAdd = DefaultProxyExpire
	}
	expire := p.now().Unix() + expireAdd

	params := url.Values{}
	params.Set("url", rawURL)
	params.Set("signature", p.Signature(rawURL, expire))
	params.Set("expire", strconv.FormatInt(expire, 10))
	if platform != "" {
		params.Set("platform", platform)
	}
	if ck != "" {
		params.Set("ck", ck)
	}
	if parseURL != "" {
		params.Set("parse_url", parseURL)
	}
	return p.baseURL + MediaProxyPath + "?" + encodeOrdered(params, "url", "signature", "expire", "platform", "ck", "parse_url")
}

// DownloadURL 构建下载代理链接，filename 决定下载文件名
func (p *ProxySigner) DownloadURL(rawURL string, expireAdd int64, platform, ck, filename string) string {
	if expireAdd <= 0 {
		expireAdd = DefaultProxyExpire
	}
	expire := p.now().Unix() + expireAdd

	params := url.Values{}
	params.Set("url", rawURL)
	params.Set("signature", p.Signature(rawURL, expire))
	params.Set("expire", strconv.FormatInt(expire, 10))
	if platform != "" {
		params.Set("platform", platform)
	}
	if ck != "" {
		params.Set("ck", ck)
	}
	if filename != "" {
		params.Set("filename", filename)
	}
	return p.baseURL + DownloadProxyPath + "?" + encodeOrdered(params, "url", "signature", "expire", "platform", "ck", "filename")
}

// NeedsProxy 是否需要代理：非空、不是代理链接且属于防盗链域名
func NeedsProxy(rawURL string) bool {
	if strings.TrimSpace(rawURL) == "" {
		return false
	}
	if strings.Contains(rawURL, MediaProxyPath) {
		return false
	}
	for _, d := range proxyDomains {
		if strings.Contains(rawURL, d) {
			return true
		}
	}
	return false
}

// SmartURL 需要代理时返回代理链接，否则原样返回
func (p *ProxySigner) SmartURL(rawURL, platform string) string {
	if !NeedsProxy(rawURL) {
		return rawURL
	}
	return p.MediaURL(rawURL, DefaultProxyExpire, platform, "", "")
}

// encodeOrdered 按固定顺序编码参数，便于生成稳定的链接
func encodeOrdered(v url.Values, keys ...string) string {
	var b strings.Builder
	for _, k := range keys {
		val, ok := v[k]
		if !ok || len(val) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(val[0]))
	}
	return b.String()
}
