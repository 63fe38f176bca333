package catalog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog-cache/specification"
)

// Sort values accepted by NewListSpec. Anything else sorts by name.
const (
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 10

	MaxPageIndex = 100_000
	MaxPageSize  = 100
)

// ListParams are the caller inputs of the paginated item list.
type ListParams struct {
	Search    string `json:"search"`
	PageIndex int    `json:"pageIndex"`
	PageSize  int    `json:"pageSize"`
	Sort      string `json:"sort"`
}

// DefaultListParams returns params for the first page of ten items by name.
func DefaultListParams() ListParams {
	return ListParams{
		PageIndex: DefaultPageIndex,
		PageSize:  DefaultPageSize,
	}
}

// Validate rejects non-positive paging and pages beyond MaxPageIndex or
// larger than MaxPageSize.
func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PageIndex, validation.Required.Error("must be a positive integer"), validation.Min(1), validation.Max(MaxPageIndex)),
		validation.Field(&p.PageSize, validation.Required.Error("must be a positive integer"), validation.Min(1), validation.Max(MaxPageSize)),
	)
}

// NewListSpec builds the paged item list specification: an optional
// case-insensitive name search, exactly one ordering, always paged.
func NewListSpec(p ListParams) (specification.Spec[Item], error) {
	if err := p.Validate(); err != nil {
		return specification.Spec[Item]{}, err
	}

	opts := make([]specification.Option, 0, 3)

	if search := strings.TrimSpace(p.Search); search != "" {
		opts = append(opts, specification.Where(specification.Contains("name", search)))
	}

	switch p.Sort {
	case SortPriceAsc:
		opts = append(opts, specification.OrderBy("price"))
	case SortPriceDesc:
		opts = append(opts, specification.OrderByDescending("price"))
	default:
		opts = append(opts, specification.OrderBy("name"))
	}

	opts = append(opts, specification.Paginate(p.PageIndex, p.PageSize))

	return specification.New[Item](opts...)
}
