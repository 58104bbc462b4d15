package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/dataminer/internal/model"
)

func TestFactorySupportMatrix(t *testing.T) {
	urls := map[model.Platform]string{
		model.PlatformXHS:      "https://www.xiaohongshu.com/user/profile/5f1234567890abcdef123456",
		model.PlatformDouyin:   "https://www.douyin.com/user/abc",
		model.PlatformKuaishou: "https://www.kuaishou.com/short-video/3x?authorId=3y",
		model.PlatformTiktok:   "https://www.tiktok.com/@someone",
		model.PlatformYoutube:  "https://www.youtube.com/@channel",
	}
	want := map[model.ExtractType][]model.Platform{
		model.ExtractHomepage: {model.PlatformXHS, model.PlatformDouyin, model.PlatformTiktok, model.PlatformYoutube},
		model.ExtractDetails:  {model.PlatformXHS, model.PlatformDouyin, model.PlatformKuaishou, model.PlatformTiktok, model.PlatformYoutube},
		model.ExtractComments: {model.PlatformDouyin, model.PlatformKuaishou},
	}

	f := NewFactory(Deps{})
	for kind, platforms := range want {
		supported := map[model.Platform]bool{}
		for _, p := range platforms {
			supported[p] = true
		}
		for _, p := range model.AllPlatforms {
			s, err := f.Create(kind, urls[p], ExtractOptions{})
			if supported[p] {
				if err != nil || s == nil {
					t.Errorf("Create(%s, %s) failed: %v", kind, p, err)
				}
				continue
			}
			if !errors.Is(err, ErrUnsupportedCombination) {
				t.Errorf("Create(%s, %s) err = %v, want ErrUnsupportedCombination", kind, p, err)
			}
			if Supports(kind, p) {
				t.Errorf("Supports(%s, %s) = true", kind, p)
			}
		}
	}
}

func TestFactoryErrors(t *testing.T) {
	f := NewFactory(Deps{})

	_, err := f.Create("profile", "https://www.douyin.com/user/abc", ExtractOptions{})
	if err == nil || !strings.Contains(err.Error(), "Unsupported extract type: profile") {
		t.Errorf("err = %v", err)
	}

	_, err = f.Create(model.ExtractComments, "https://www.tiktok.com/@x/video/1", ExtractOptions{})
	if err == nil || !strings.Contains(err.Error(), "Unsupported platform for comments: tiktok") {
		t.Errorf("err = %v", err)
	}
}

func TestFactoryBindsExtractType(t *testing.T) {
	f := NewFactory(Deps{})
	s, err := f.Create(model.ExtractDetails, "https://www.youtube.com/watch?v=1", ExtractOptions{ExtractType: model.ExtractHomepage})
	if err != nil {
		t.Fatal(err)
	}
	d, ok := s.(*YoutubeDetailsExtractor)
	if !ok {
		t.Fatalf("strategy = %T", s)
	}
	if d.opts.ExtractType != model.ExtractDetails {
		t.Errorf("ExtractType = %s", d.opts.ExtractType)
	}
	if s.TypeDisplayName(nil) != "YouTube详情" {
		t.Errorf("TypeDisplayName = %q", s.TypeDisplayName(nil))
	}
}

func TestSupportMatrixOrder(t *testing.T) {
	m := SupportMatrix()
	if len(m) != 3 {
		t.Fatalf("len = %d", len(m))
	}
	if m[2].ExtractType != model.ExtractComments || len(m[2].Platforms) != 2 {
		t.Errorf("comments = %+v", m[2])
	}
	if m[0].Platforms[0].Name != "小红书" {
		t.Errorf("first homepage platform = %+v", m[0].Platforms[0])
	}
}
