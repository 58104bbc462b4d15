package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	xhsProfilePattern = regexp.MustCompile(`(?i)/user/profile/([a-f0-9]+)`)
	xhsUserIDPattern  = regexp.MustCompile(`(?i)^[a-f0-9]{24}$`)
	xhsTopicPattern   = regexp.MustCompile(`#([^#\[\]]+)\[话题\]#`)
	ksShortVideoPath  = regexp.MustCompile(`/short-video/([^/]+)`)
)

// SplitURLs 按行拆分多个URL，去掉空行
func SplitURLs(raw string) []string {
	var urls []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

// ExtractXhsUserID 从小红书主页链接中提取用户ID，也接受直接传入的24位ID
func ExtractXhsUserID(raw string) string {
	if m := xhsProfilePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if xhsUserIDPattern.MatchString(raw) {
		return raw
	}
	return ""
}

// ExtractXhsTopics 提取笔记描述中的 #话题[话题]# 标签
func ExtractXhsTopics(desc string) string {
	if desc == "" {
		return ""
	}
	matches := xhsTopicPattern.FindAllStringSubmatch(desc, -1)
	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		topics = append(topics, m[1])
	}
	return strings.Join(topics, ", ")
}

// ParseKuaishouVideoURL 从快手视频链接中解析 photoId（路径）和 authorId（查询参数）
func ParseKuaishouVideoURL(raw string) (photoID, authorID string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	if m := ksShortVideoPath.FindStringSubmatch(u.Path); m != nil {
		photoID = m[1]
	}
	authorID = u.Query().Get("authorId")
	return photoID, authorID
}

// ParseShareInfo 解析快手 share_info（查询串格式）中的 photoId 和 userId
func ParseShareInfo(shareInfo string) (photoID, userID string) {
	values, err := url.ParseQuery(shareInfo)
	if err != nil {
		return "", ""
	}
	return values.Get("photoId"), values.Get("userId")
}

// UniqueStrings 去重并保持顺序，忽略空字符串
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
