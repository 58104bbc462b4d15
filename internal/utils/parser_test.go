package utils

import (
	"reflect"
	"testing"
)

func TestSplitURLs(t *testing.T) {
	got := SplitURLs(" https://a.com \n\n\thttps://b.com\r\n")
	want := []string{"https://a.com", "https://b.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitURLs = %v, want %v", got, want)
	}
	if SplitURLs("  \n ") != nil {
		t.Error("blank input should yield nil")
	}
}

func TestExtractXhsUserID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.xiaohongshu.com/user/profile/5b39ce9a11be1012ad37bbc0?xsec=1", "5b39ce9a11be1012ad37bbc0"},
		{"5b39ce9a11be1012ad37bbc0", "5b39ce9a11be1012ad37bbc0"},
		{"https://www.xiaohongshu.com/explore/abc", ""},
		{"xyz", ""},
	}
	for _, tt := range tests {
		if got := ExtractXhsUserID(tt.in); got != tt.want {
			t.Errorf("ExtractXhsUserID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractXhsTopics(t *testing.T) {
	got := ExtractXhsTopics("今天去爬山 #户外[话题]# #周末去哪儿[话题]# #普通标签")
	if got != "户外, 周末去哪儿" {
		t.Errorf("ExtractXhsTopics = %q", got)
	}
	if ExtractXhsTopics("") != "" {
		t.Error("empty desc should yield empty topics")
	}
}

func TestParseKuaishouVideoURL(t *testing.T) {
	photo, author := ParseKuaishouVideoURL("https://www.kuaishou.com/short-video/3xabc123?authorId=3xuser&streamSource=profile")
	if photo != "3xabc123" || author != "3xuser" {
		t.Errorf("got %q %q", photo, author)
	}
	photo, author = ParseKuaishouVideoURL("https://v.kuaishou.com/abcd")
	if photo != "" || author != "" {
		t.Errorf("short link should not parse: %q %q", photo, author)
	}
}

func TestParseShareInfo(t *testing.T) {
	photo, user := ParseShareInfo("userId=3xuser&photoId=3xphoto&timestamp=1")
	if photo != "3xphoto" || user != "3xuser" {
		t.Errorf("got %q %q", photo, user)
	}
}

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{"a", "", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("UniqueStrings = %v", got)
	}
}
