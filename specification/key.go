package specification

import (
	"strconv"
	"strings"
)

// KeySeparator joins the segments of a derived cache key.
const KeySeparator = "::"

const (
	allToken  = "all"
	noneToken = "none"
)

// CacheKey derives a stable key from the structural fields of the Spec:
// filter, skip, take and ordering, in that order, lower-cased. Includes are
// appended only when present so the key of an include-free Spec keeps the
// four-segment form.
//
//	name:contains:"phone"::skip:10::take:10::order:price:desc
func (s Spec[T]) CacheKey() string {
	parts := make([]string, 0, 5)

	if len(s.filter) == 0 {
		parts = append(parts, allToken)
	} else {
		conds := make([]string, len(s.filter))
		for i, c := range s.filter {
			conds[i] = c.String()
		}
		parts = append(parts, strings.Join(conds, "&"))
	}

	skip, take := 0, 0
	if s.paged {
		skip, take = s.skip, s.take
	}
	parts = append(parts, "skip:"+strconv.Itoa(skip), "take:"+strconv.Itoa(take))

	if s.ordered {
		parts = append(parts, "order:"+s.order.String())
	} else {
		parts = append(parts, "order:"+noneToken)
	}

	if len(s.includes) > 0 {
		parts = append(parts, "include:"+strings.Join(s.includes, ","))
	}

	return strings.ToLower(strings.Join(parts, KeySeparator))
}
