package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlatRecord 扁平化后的一行数据，保留字段插入顺序
// 值只允许标量：string / int64 / float64 / bool / nil
type FlatRecord struct {
	keys   []string
	values map[string]interface{}
}

// NewFlatRecord 创建空记录
func NewFlatRecord() *FlatRecord {
	return &FlatRecord{values: make(map[string]interface{})}
}

// Set 写入字段，已存在的字段保持原位置
func (r *FlatRecord) Set(key string, value interface{}) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// SetIfEmpty 仅当字段不存在或为空字符串时写入
func (r *FlatRecord) SetIfEmpty(key string, value interface{}) bool {
	if cur, ok := r.values[key]; ok && cur != nil && cur != "" {
		return false
	}
	r.Set(key, value)
	return true
}

// Get 读取字段
func (r *FlatRecord) Get(key string) (interface{}, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetString 读取字符串字段，非字符串返回空
func (r *FlatRecord) GetString(key string) string {
	if s, ok := r.values[key].(string); ok {
		return s
	}
	return ""
}

// Has 是否包含字段
func (r *FlatRecord) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Delete 删除字段
func (r *FlatRecord) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys 按插入顺序返回字段名
func (r *FlatRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len 字段数量
func (r *FlatRecord) Len() int {
	return len(r.keys)
}

// Range 按顺序遍历，fn 返回 false 时停止
func (r *FlatRecord) Range(fn func(key string, value interface{}) bool) {
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Clone 浅拷贝（值均为标量）
func (r *FlatRecord) Clone() *FlatRecord {
	c := &FlatRecord{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]interface{}, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON 按字段顺序输出 JSON 对象
func (r *FlatRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("序列化字段 %s 失败: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 解析 JSON 对象并保留字段顺序
func (r *FlatRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("记录必须是 JSON 对象")
	}

	r.keys = nil
	r.values = make(map[string]interface{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if n, ok := raw.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				raw = i
			} else if f, err := n.Float64(); err == nil {
				raw = f
			}
		}
		r.Set(key, raw)
	}
	_, err = dec.Token()
	return err
}

// HomogenizeRecords 补齐所有记录的字段，使每条记录的字段集合和顺序一致
// 字段顺序按首次出现的顺序，缺失值填充空字符串
func HomogenizeRecords(records []*FlatRecord) {
	if len(records) < 2 {
		return
	}

	var order []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				order = append(order, k)
			}
		}
	}

	for _, rec := range records {
		if sameKeys(rec.keys, order) {
			continue
		}
		values := rec.values
		rec.keys = make([]string, 0, len(order))
		rec.values = make(map[string]interface{}, len(order))
		for _, k := range order {
			if v, ok := values[k]; ok {
				rec.Set(k, v)
			} else {
				rec.Set(k, "")
			}
		}
	}
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
