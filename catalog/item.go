package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Item is a catalog entry. ID is assigned by the store on insert.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i" json:"-" msgpack:"-"`

	ID          int64           `bun:"id,pk,autoincrement" json:"id" msgpack:"id"`
	Name        string          `bun:"name,notnull" json:"name" msgpack:"name"`
	Description string          `bun:"description,notnull" json:"description" msgpack:"description"`
	Price       decimal.Decimal `bun:"price,type:decimal(18,2),notnull" json:"price" msgpack:"price"`
}

// Identity returns the store-assigned id, zero before insert.
func (i Item) Identity() int64 {
	return i.ID
}
