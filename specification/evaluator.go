package specification

import (
	"strings"

	"github.com/uptrace/bun"
)

// Apply composes s onto q in a fixed order: filter, ordering, paging,
// includes. Paging always follows ordering so pages are taken from the
// sorted rows. q should be a fresh query bound to a model of type T; the
// returned query is q itself, Spec s is never modified.
func Apply[T any](q *bun.SelectQuery, s Spec[T]) *bun.SelectQuery {
	q = ApplyFilter(q, s)

	if o, ok := s.Order(); ok {
		if o.Direction == Descending {
			q = q.OrderExpr("?TableAlias.? DESC", bun.Ident(o.Field))
		} else {
			q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(o.Field))
		}
	}

	if s.Paged() {
		skip, _ := s.Skip()
		take, _ := s.Take()
		q = q.Offset(skip).Limit(take)
	}

	for _, rel := range s.Includes() {
		q = q.Relation(rel)
	}

	return q
}

// ApplyFilter composes only the conditions of s onto q.
func ApplyFilter[T any](q *bun.SelectQuery, s Spec[T]) *bun.SelectQuery {
	for _, c := range s.Filter() {
		q = applyCondition(q, c)
	}
	return q
}

func applyCondition(q *bun.SelectQuery, c Condition) *bun.SelectQuery {
	col := bun.Ident(c.Field)

	switch c.Op {
	case OpContains:
		pattern := "%" + escapeLike(strings.ToLower(c.Value.(string))) + "%"
		return q.Where("LOWER(?TableAlias.?) LIKE ? ESCAPE '!'", col, pattern)
	case OpEq:
		if str, ok := c.Value.(string); ok {
			return q.Where("LOWER(?TableAlias.?) = ?", col, strings.ToLower(str))
		}
		return q.Where("?TableAlias.? = ?", col, c.Value)
	case OpGt:
		return q.Where("?TableAlias.? > ?", col, c.Value)
	case OpGte:
		return q.Where("?TableAlias.? >= ?", col, c.Value)
	case OpLt:
		return q.Where("?TableAlias.? < ?", col, c.Value)
	case OpLte:
		return q.Where("?TableAlias.? <= ?", col, c.Value)
	}

	// unreachable: New rejects unknown operators
	return q
}

// likeEscaper escapes LIKE wildcards with '!' as the escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
