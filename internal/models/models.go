package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

var ErrInvalidItem = errors.New("invalid cart item")

// CartItem is one line of a cart. A cart is every row sharing OwnerID.
type CartItem struct {
	OwnerID     int64           `gorm:"primaryKey;autoIncrement:false"   json:"owner_id"`
	ItemID      int64           `gorm:"primaryKey;autoIncrement:false"   json:"item_id"`
	Description string          `gorm:"type:text"                        json:"description"`
	Quantity    int             `gorm:"not null;check:quantity > 0"      json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime:false"    json:"created_at"`
	LastUpdated time.Time       `gorm:"not null;autoUpdateTime:false"    json:"last_updated"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (c CartItem) String() string {
	return fmt.Sprintf("<CartItem owner_id=%d item_id=%d>", c.OwnerID, c.ItemID)
}

// LineTotal is UnitPrice * Quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Validate checks the invariants every persisted row must satisfy.
func Validate(c *CartItem) error {
	if c == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}
	if c.OwnerID <= 0 {
		return fmt.Errorf("%w: owner_id must be a positive integer", ErrInvalidItem)
	}
	if c.ItemID <= 0 {
		return fmt.Errorf("%w: item_id must be a positive integer", ErrInvalidItem)
	}
	if !utf8.ValidString(c.Description) {
		return fmt.Errorf("%w: description must be a valid string", ErrInvalidItem)
	}
	if c.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: price cannot be less than 0", ErrInvalidItem)
	}
	if !c.UnitPrice.Equal(c.UnitPrice.Truncate(2)) {
		return fmt.Errorf("%w: price cannot have more than 2 decimal places", ErrInvalidItem)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidItem)
	}
	if !c.CreatedAt.IsZero() && !c.LastUpdated.IsZero() && c.LastUpdated.Before(c.CreatedAt) {
		return fmt.Errorf("%w: last_updated cannot be before created_at", ErrInvalidItem)
	}
	return nil
}
