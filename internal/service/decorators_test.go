package service

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/dataminer/internal/model"
)

type stubExtractor struct {
	calls  atomic.Int32
	result func() *model.ExtractResult
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result(), nil
}

func successResult(values ...interface{}) func() *model.ExtractResult {
	return func() *model.ExtractResult {
		var data []*model.FlatRecord
		for _, v := range values {
			rec := model.NewFlatRecord()
			rec.Set("值", v)
			data = append(data, rec)
		}
		return &model.ExtractResult{Success: true, Data: data, Message: "ok", TotalCount: len(data)}
	}
}

func TestValidatorRejectsBadInput(t *testing.T) {
	cases := []struct {
		name, url, key, want string
	}{
		{"empty url", "  ", "k", "请输入有效的URL"},
		{"empty key", "https://a.com", "", "请输入有效的API Key"},
		{"bad line", "https://a.com\nftp://b.com", "k", "无效的URL格式: ftp://b.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inner := &stubExtractor{result: successResult()}
			d := Chain(inner, WithValidation(tc.key))
			result, err := d.Extract(context.Background(), tc.url)
			if err != nil {
				t.Fatal(err)
			}
			if result.Success || result.Message != tc.want {
				t.Errorf("result = %+v", result)
			}
			if inner.calls.Load() != 0 {
				t.Error("inner extractor should not be called")
			}
		})
	}
}

func TestValidatorCleansRecords(t *testing.T) {
	inner := &stubExtractor{result: successResult("  padded  ", nil, int64(3))}
	result, err := Chain(inner, WithValidation("k")).Extract(context.Background(), "https://a.com")
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Data[0].GetString("值"); got != "padded" {
		t.Errorf("trimmed = %q", got)
	}
	if v, ok := result.Data[1].Get("值"); !ok || v != "" {
		t.Errorf("nil value = %v, %v", v, ok)
	}
	if v, _ := result.Data[2].Get("值"); v != int64(3) {
		t.Errorf("number = %v", v)
	}
}

func TestCacheHitWithinTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewExtractionCache(5 * time.Minute).WithClock(func() time.Time { return now })
	inner := &stubExtractor{result: successResult("a")}
	opts := ExtractOptions{APIKey: "k", Range: model.RangeOf(1), ExtractType: model.ExtractDetails}
	key := CacheKey("https://a.com", opts)

	run := func() *model.ExtractResult {
		r, err := Chain(inner, WithCache(cache, key), WithValidation("k")).Extract(context.Background(), "https://a.com")
		if err != nil {
			t.Fatal(err)
		}
		return r
	}

	first := run()
	if strings.HasSuffix(first.Message, "(来自缓存)") {
		t.Errorf("first call should miss: %q", first.Message)
	}
	second := run()
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if !strings.HasSuffix(second.Message, "(来自缓存)") {
		t.Errorf("second message = %q", second.Message)
	}

	// 缓存中的结果不受调用方修改影响
	second.Data[0].Set("值", "changed")
	if third := run(); third.Data[0].GetString("值") != "a" || strings.Count(third.Message, "来自缓存") != 1 {
		t.Errorf("cached copy was mutated: %+v", third)
	}

	now = now.Add(5 * time.Minute)
	if r := run(); strings.HasSuffix(r.Message, "(来自缓存)") {
		t.Errorf("entry should expire after 5 minutes")
	}
	if inner.calls.Load() != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls.Load())
	}
}

func TestCacheSkipsFailures(t *testing.T) {
	cache := NewExtractionCache(time.Minute)
	inner := &stubExtractor{result: func() *model.ExtractResult {
		return &model.ExtractResult{Success: false, Message: "failed"}
	}}
	d := Chain(inner, WithCache(cache, "key"))
	for i := 0; i < 2; i++ {
		if _, err := d.Extract(context.Background(), "https://a.com"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls.Load() != 2 {
		t.Errorf("failed results should not be cached, calls = %d", inner.calls.Load())
	}
}

func TestCacheKeyIncludesOptions(t *testing.T) {
	base := ExtractOptions{APIKey: "k", Range: model.RangeOf(1), ExtractType: model.ExtractComments}
	withReplies := base
	withReplies.IncludeReplies = true
	all := base
	all.Range = model.RangeAll()

	keys := map[string]bool{
		CacheKey("https://a.com", base):        true,
		CacheKey("https://a.com", withReplies): true,
		CacheKey("https://a.com", all):         true,
		CacheKey("https://b.com", base):        true,
	}
	if len(keys) != 4 {
		t.Errorf("keys collide: %v", keys)
	}
	if got := CacheKey("https://a.com", all); got != "https://a.com_k_all__comments_false" {
		t.Errorf("CacheKey = %q", got)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) DecoratorFunc {
		return func(inner Extractor) Extractor {
			return extractorFunc(func(ctx context.Context, url string) (*model.ExtractResult, error) {
				order = append(order, name)
				return inner.Extract(ctx, url)
			})
		}
	}
	inner := &stubExtractor{result: successResult()}
	if _, err := Chain(inner, mark("outer"), mark("inner")).Extract(context.Background(), "u"); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}

type extractorFunc func(ctx context.Context, url string) (*model.ExtractResult, error)

func (f extractorFunc) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	return f(ctx, url)
}
