package utils

import (
	"encoding/json"
	"testing"
)

func TestFlexBool(t *testing.T) {
	tests := map[string]bool{
		`true`:   true,
		`"true"`: true,
		`false`:  false,
		`1`:      false,
		`0`:      false,
		`"yes"`:  false,
		`null`:   false,
	}
	for raw, want := range tests {
		var v struct {
			B FlexBool `json:"b"`
		}
		if err := json.Unmarshal([]byte(`{"b":`+raw+`}`), &v); err != nil {
			t.Errorf("%s: %v", raw, err)
			continue
		}
		if v.B.Bool() != want {
			t.Errorf("%s = %v, want %v", raw, v.B, want)
		}
	}
}

func TestFlexInt(t *testing.T) {
	tests := map[string]int64{`12`: 12, `"34"`: 34, `true`: 1, `1.9`: 1, `"abc"`: 0, `null`: 0}
	for raw, want := range tests {
		var n FlexInt
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			t.Errorf("%s: %v", raw, err)
			continue
		}
		if n.Int64() != want {
			t.Errorf("%s = %d, want %d", raw, n, want)
		}
	}
}
