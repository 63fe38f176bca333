package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog-cache/specification"
)

// BunRepository implements Repository on top of a bun database handle.
type BunRepository[T Entity] struct {
	db bun.IDB
}

// NewBunRepository returns a repository for the table mapped by T's bun tags.
// The table must use "id" as its primary key column.
func NewBunRepository[T Entity](db bun.IDB) *BunRepository[T] {
	return &BunRepository[T]{db: db}
}

func (r *BunRepository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	record := new(T)
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident("id"), id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by id %d: %w", id, err)
	}
	return record, nil
}

func (r *BunRepository[T]) List(ctx context.Context, spec specification.Spec[T]) ([]T, error) {
	records := make([]T, 0)
	q := specification.Apply(r.db.NewSelect().Model(&records), spec)
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return records, nil
}

// Count counts filtered rows and clamps the total to the Spec's page.
func (r *BunRepository[T]) Count(ctx context.Context, spec specification.Spec[T]) (int, error) {
	q := specification.ApplyFilter(r.db.NewSelect().Model((*T)(nil)), spec)
	total, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return clampToPage(total, spec), nil
}

func (r *BunRepository[T]) Add(ctx context.Context, record *T) (*T, error) {
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return record, nil
}

func (r *BunRepository[T]) Update(ctx context.Context, record *T) error {
	id := (*record).Identity()
	if id == 0 {
		return ErrMissingID
	}
	res, err := r.db.NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	return expectRow(res, id)
}

func (r *BunRepository[T]) Delete(ctx context.Context, record *T) error {
	id := (*record).Identity()
	if id == 0 {
		return ErrMissingID
	}
	res, err := r.db.NewDelete().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	return expectRow(res, id)
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func clampToPage[T any](total int, spec specification.Spec[T]) int {
	if !spec.Paged() {
		return total
	}
	skip, _ := spec.Skip()
	take, _ := spec.Take()
	remaining := total - skip
	if remaining < 0 {
		return 0
	}
	if remaining > take {
		return take
	}
	return remaining
}
