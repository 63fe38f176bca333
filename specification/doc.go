// Package specification describes "which rows, in what order, how many" as
// immutable data.
//
// # Overview
//
// A Spec[T] carries a conjunction of structured conditions, an optional
// single-field ordering, optional paging and a list of relations to attach.
// The same Spec is used twice: Apply translates it into a bun select query,
// and CacheKey serializes it into a deterministic cache key.
//
//	spec, err := specification.New[catalog.Item](
//		specification.Where(specification.Contains("name", "phone")),
//		specification.OrderByDescending("price"),
//		specification.Paginate(2, 10),
//	)
//
// # Evaluation Order
//
// Apply composes the query in a fixed order:
//
//  1. conditions (WHERE)
//  2. ordering (ORDER BY)
//  3. paging (OFFSET, LIMIT), only when the Spec is paged
//  4. relations (bun Relation)
//
// # Cache Keys
//
// Conditions are plain field/operator/value triples, so two specs built from
// the same inputs always produce the same key, regardless of where or when
// they were created.
package specification
