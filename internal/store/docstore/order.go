package docstore

import (
	"sort"
	"strings"
	"time"
)

// SortDocuments keeps the documents that carry field and orders them by it.
// Ties fall back to document id so repeated listings are stable.
func SortDocuments(docs []Document, field string, dir Direction) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if v, ok := d.Fields[field]; ok && v != nil {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(out[i].Fields[field], out[j].Fields[field])
		if c == 0 {
			c = strings.Compare(out[i].ID, out[j].ID)
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// compareValues orders values of the same kind; mixed kinds order by kind rank.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	fa, fb := number(a), number(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case bool:
		return 1
	case int, int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	}
	return 5
}

func number(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}
