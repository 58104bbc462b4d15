package utils

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// 远程接口的同一字段在不同平台/版本下可能是数字也可能是字符串，
// 以下类型在解析时统一处理，解析失败不报错而是取零值。

// FlexString 兼容字符串、数字和布尔
type FlexString string

// UnmarshalJSON 实现 json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

func (s FlexString) String() string { return string(s) }

// Scalar 纯数字返回 int64，否则返回原字符串
func (s FlexString) Scalar() interface{} {
	str := strings.TrimSpace(string(s))
	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		return n
	}
	return str
}

// FlexInt 兼容数字和数字字符串
type FlexInt int64

// UnmarshalJSON 实现 json.Unmarshaler
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	str := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		str = strings.TrimSpace(str)
	}
	if str == "true" {
		*n = 1
		return nil
	}
	if i, err := strconv.ParseInt(str, 10, 64); err == nil {
		*n = FlexInt(i)
		return nil
	}
	if f, err := strconv.ParseFloat(str, 64); err == nil {
		*n = FlexInt(int64(f))
	}
	return nil
}

// Int64 取值
func (n FlexInt) Int64() int64 { return int64(n) }

// FlexBool 只有 true 或 "true" 为真，数字、null 等其他值都按 false 处理
type FlexBool bool

// UnmarshalJSON 实现 json.Unmarshaler
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	*b = FlexBool(str == "true")
	return nil
}

// Bool 取值
func (b FlexBool) Bool() bool { return bool(b) }

// FlexFloat 兼容数字和数字字符串的浮点数
type FlexFloat float64

// UnmarshalJSON 实现 json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = 0
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	str := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
		*f = FlexFloat(v)
	}
	return nil
}

// Float64 取值
func (f FlexFloat) Float64() float64 { return float64(f) }
