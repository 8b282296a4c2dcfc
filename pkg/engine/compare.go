package engine

import (
	"cmp"
	"slices"
	"strings"
)

// type ranks: null < bool < number < string < array < object
const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankArray
	rankObject
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case string, []byte:
		return rankString
	case []any:
		return rankArray
	case map[string]any:
		return rankObject
	}
	if _, ok := number(v); ok {
		return rankNumber
	}
	return rankNull
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Compare orders two values for SORT. Values of different types order by
// type; arrays compare element-wise and objects by sorted keys, then by
// values.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case rankNumber:
		x, _ := number(a)
		y, _ := number(b)
		return cmp.Compare(x, y)
	case rankString:
		return strings.Compare(text(a), text(b))
	case rankArray:
		x, y := a.([]any), b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(x), len(y))
	case rankObject:
		x, y := a.(map[string]any), b.(map[string]any)
		kx, ky := sortedKeys(x), sortedKeys(y)
		if c := slices.Compare(kx, ky); c != 0 {
			return c
		}
		for _, k := range kx {
			if c := Compare(x[k], y[k]); c != 0 {
				return c
			}
		}
	}
	return 0
}

func text(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v.(string)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
