package catalog

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// CreateItemRequest is the payload accepted when adding an item.
type CreateItemRequest struct {
	Name        string          `json:"name" msgpack:"name"`
	Description string          `json:"description" msgpack:"description"`
	Price       decimal.Decimal `json:"price" msgpack:"price"`
}

// Validate requires a name and a strictly positive price.
func (r CreateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.Price, validation.By(positivePrice)),
	)
}

// Item converts the request into a new, unsaved item.
func (r CreateItemRequest) Item() Item {
	return Item{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
	}
}

// UpdateItemRequest is the payload accepted when replacing an item.
type UpdateItemRequest struct {
	Name        string          `json:"name" msgpack:"name"`
	Description string          `json:"description" msgpack:"description"`
	Price       decimal.Decimal `json:"price" msgpack:"price"`
}

// Validate requires a name and a non-negative price.
func (r UpdateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
		validation.Field(&r.Price, validation.By(nonNegativePrice)),
	)
}

// Apply copies the business fields onto an existing item, keeping its id.
func (r UpdateItemRequest) Apply(item *Item) {
	item.Name = r.Name
	item.Description = r.Description
	item.Price = r.Price
}

func positivePrice(value any) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal")
	}
	if !price.IsPositive() {
		return errors.New("price must be greater than zero")
	}
	return nil
}

func nonNegativePrice(value any) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal")
	}
	if price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}
