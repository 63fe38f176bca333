// Package repository executes specifications against the backing store and
// exposes identity lookup and mutations.
package repository

import (
	"context"
	"errors"

	"github.com/goliatone/go-catalog-cache/specification"
)

var (
	// ErrMissingID is returned when a write needs an id the record does not have yet.
	ErrMissingID = errors.New("repository: record has no assigned id")
	// ErrNotFound is returned when a write targets a row that does not exist.
	ErrNotFound = errors.New("repository: record not found")
)

// Entity is implemented by models with a store-assigned integer identity.
type Entity interface {
	Identity() int64
}

// Repository is the store boundary for entities of type T.
//
// GetByID reports a missing row as a nil record and a nil error. List and
// Count both route through the specification evaluator; Count returns the
// number of rows List would return for the same Spec.
type Repository[T Entity] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, spec specification.Spec[T]) ([]T, error)
	Count(ctx context.Context, spec specification.Spec[T]) (int, error)
	Add(ctx context.Context, record *T) (*T, error)
	Update(ctx context.Context, record *T) error
	Delete(ctx context.Context, record *T) error
}
