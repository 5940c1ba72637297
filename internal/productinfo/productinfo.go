// Package productinfo looks up stock and purchase-limit ceilings for a product.
package productinfo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         *int            `json:"stock,omitempty"`
	PurchaseLimit *int            `json:"purchase_limit,omitempty"`
}

// Lookup fetches one product by id. Missing products yield ErrProductNotFound.
type Lookup interface {
	Product(ctx context.Context, id int64) (*Product, error)
}
