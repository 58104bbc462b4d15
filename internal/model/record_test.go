package model

import (
	"strings"
	"testing"
)

func recordWithKeys(keys ...string) *FlatRecord {
	r := NewFlatRecord()
	for _, k := range keys {
		r.Set(k, k)
	}
	return r
}

func TestHomogenizeRecordsSharesKeyOrder(t *testing.T) {
	a := recordWithKeys("图片1", "提取时间")
	b := recordWithKeys("图片1", "图片2", "提取时间")
	c := recordWithKeys("提取时间", "图片2", "图片1")

	HomogenizeRecords([]*FlatRecord{a, b, c})

	want := "图片1,提取时间,图片2"
	for i, r := range []*FlatRecord{a, b, c} {
		if got := strings.Join(r.Keys(), ","); got != want {
			t.Errorf("record %d keys = %s, want %s", i, got, want)
		}
	}
	if v, _ := a.Get("图片2"); v != "" {
		t.Errorf("missing value = %v, want empty string", v)
	}
	if v, _ := c.Get("图片1"); v != "图片1" {
		t.Errorf("reordered value = %v, want 图片1", v)
	}
}

func TestHomogenizeRecordsSingle(t *testing.T) {
	r := recordWithKeys("b", "a")
	HomogenizeRecords([]*FlatRecord{r})
	if got := strings.Join(r.Keys(), ","); got != "b,a" {
		t.Errorf("keys = %s", got)
	}
}
