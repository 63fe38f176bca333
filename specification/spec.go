package specification

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidPage is returned when paging parameters are out of range.
	ErrInvalidPage = errors.New("specification: invalid page")
	// ErrInvalidCondition is returned for malformed filter conditions.
	ErrInvalidCondition = errors.New("specification: invalid condition")
	// ErrInvalidOrder is returned when an ordering has no field.
	ErrInvalidOrder = errors.New("specification: invalid order")
)

// Direction of a single-field ordering.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Order is a single-field sort descriptor.
type Order struct {
	Field     string
	Direction Direction
}

func (o Order) String() string {
	return o.Field + ":" + o.Direction.String()
}

// Spec describes a filtered, ordered, paged view over entities of type T.
// A Spec is immutable: every field is set by New and accessors hand out
// copies.
type Spec[T any] struct {
	filter   []Condition
	includes []string
	order    Order
	ordered  bool
	skip     int
	take     int
	paged    bool
}

type builder struct {
	filter   []Condition
	includes []string
	order    Order
	ordered  bool
	skip     int
	take     int
	paged    bool
}

// Option configures a Spec during construction.
type Option func(*builder) error

// New builds a Spec from the given options. Options are applied in order,
// so a later ordering replaces an earlier one.
func New[T any](opts ...Option) (Spec[T], error) {
	b := &builder{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil {
			return Spec[T]{}, err
		}
	}

	return Spec[T]{
		filter:   b.filter,
		includes: b.includes,
		order:    b.order,
		ordered:  b.ordered,
		skip:     b.skip,
		take:     b.take,
		paged:    b.paged,
	}, nil
}

// Where adds conditions; all conditions of a Spec must hold.
func Where(conds ...Condition) Option {
	return func(b *builder) error {
		for _, c := range conds {
			if err := c.validate(); err != nil {
				return err
			}
			b.filter = append(b.filter, c)
		}
		return nil
	}
}

// Include eagerly attaches the named relations. Duplicates are ignored.
func Include(relations ...string) Option {
	return func(b *builder) error {
		for _, rel := range relations {
			rel = strings.TrimSpace(rel)
			if rel == "" || containsString(b.includes, rel) {
				continue
			}
			b.includes = append(b.includes, rel)
		}
		return nil
	}
}

// OrderBy sorts ascending on field, clearing any previous ordering.
func OrderBy(field string) Option {
	return orderOption(field, Ascending)
}

// OrderByDescending sorts descending on field, clearing any previous ordering.
func OrderByDescending(field string) Option {
	return orderOption(field, Descending)
}

func orderOption(field string, dir Direction) Option {
	return func(b *builder) error {
		if strings.TrimSpace(field) == "" {
			return ErrInvalidOrder
		}
		b.order = Order{Field: field, Direction: dir}
		b.ordered = true
		return nil
	}
}

// Paginate pages the result with a 1-based page index.
func Paginate(pageIndex, pageSize int) Option {
	return func(b *builder) error {
		if pageIndex <= 0 {
			return fmt.Errorf("%w: page index must be positive, got %d", ErrInvalidPage, pageIndex)
		}
		if pageSize <= 0 {
			return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidPage, pageSize)
		}
		if pageIndex-1 > math.MaxInt/pageSize {
			return fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidPage, pageIndex, pageSize)
		}
		b.skip = (pageIndex - 1) * pageSize
		b.take = pageSize
		b.paged = true
		return nil
	}
}

// SkipTake pages the result with raw offsets.
func SkipTake(skip, take int) Option {
	return func(b *builder) error {
		if skip < 0 || take < 0 {
			return fmt.Errorf("%w: skip and take must be non-negative, got %d/%d", ErrInvalidPage, skip, take)
		}
		b.skip = skip
		b.take = take
		b.paged = true
		return nil
	}
}

// Filter returns a copy of the conditions. An empty result means no filtering.
func (s Spec[T]) Filter() []Condition {
	if len(s.filter) == 0 {
		return nil
	}
	return append([]Condition(nil), s.filter...)
}

// Includes returns a copy of the relation names to attach.
func (s Spec[T]) Includes() []string {
	if len(s.includes) == 0 {
		return nil
	}
	return append([]string(nil), s.includes...)
}

// Order returns the active ordering, if any.
func (s Spec[T]) Order() (Order, bool) {
	return s.order, s.ordered
}

// Skip returns the row offset when the Spec is paged.
func (s Spec[T]) Skip() (int, bool) {
	return s.skip, s.paged
}

// Take returns the row limit when the Spec is paged.
func (s Spec[T]) Take() (int, bool) {
	return s.take, s.paged
}

// Paged reports whether skip and take are set.
func (s Spec[T]) Paged() bool {
	return s.paged
}

// Unpaged returns a copy of s with paging cleared.
func (s Spec[T]) Unpaged() Spec[T] {
	return Spec[T]{
		filter:   s.Filter(),
		includes: s.Includes(),
		order:    s.order,
		ordered:  s.ordered,
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
