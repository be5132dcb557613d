package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate rejects field names an adapter cannot safely address.
func (q Query) Validate() error {
	for _, f := range []string{q.OrderBy, q.WhereField} {
		if f != "" && !fieldPattern.MatchString(f) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f)
		}
	}
	if q.Direction != "" && q.Direction != Asc && q.Direction != Desc {
		return fmt.Errorf("invalid direction %q", q.Direction)
	}
	if q.Limit < 0 {
		return fmt.Errorf("invalid limit %d", q.Limit)
	}
	return nil
}

// Apply filters, sorts and truncates docs in memory. docs must already be in
// store order; ties keep it.
func Apply(docs []Document, q Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.WhereField != "" {
			v, ok := d.Fields[q.WhereField]
			if !ok || !Equal(v, q.WhereValue) {
				continue
			}
		}
		out = append(out, d)
	}

	if q.OrderBy != "" {
		// Like Firestore, documents lacking the order field are excluded.
		kept := out[:0]
		for _, d := range out {
			if _, ok := d.Fields[q.OrderBy]; ok {
				kept = append(kept, d)
			}
		}
		out = kept
		sort.SliceStable(out, func(i, j int) bool {
			c := Compare(out[i].Fields[q.OrderBy], out[j].Fields[q.OrderBy])
			if q.Direction == Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Equal reports whether two field values match for an equality filter.
func Equal(a, b any) bool {
	return rank(a) == rank(b) && Compare(a, b) == 0
}

// Compare orders field values the way Firestore does across types:
// null < bool < number < timestamp < string < anything else.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int, int32, int64, float32, float64:
		return rankNumber
	case time.Time:
		return rankTime
	case string:
		return rankString
	default:
		return rankOther
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
