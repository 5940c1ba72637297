package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid() CartItem {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return CartItem{
		OwnerID:     1,
		ItemID:      2,
		Description: "mug",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("4.50"),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CartItem)
		want   string
	}{
		{name: "ok", mutate: func(*CartItem) {}},
		{name: "free item", mutate: func(c *CartItem) { c.UnitPrice = decimal.Zero }},
		{name: "owner", mutate: func(c *CartItem) { c.OwnerID = 0 }, want: "owner_id must be a positive integer"},
		{name: "item", mutate: func(c *CartItem) { c.ItemID = -4 }, want: "item_id must be a positive integer"},
		{name: "description", mutate: func(c *CartItem) { c.Description = string([]byte{0xff}) }, want: "description must be a valid string"},
		{name: "negative price", mutate: func(c *CartItem) { c.UnitPrice = decimal.NewFromInt(-1) }, want: "price cannot be less than 0"},
		{name: "scale", mutate: func(c *CartItem) { c.UnitPrice = decimal.RequireFromString("0.001") }, want: "price cannot have more than 2 decimal places"},
		{name: "quantity", mutate: func(c *CartItem) { c.Quantity = 0 }, want: "quantity must be greater than 0"},
		{name: "timestamps", mutate: func(c *CartItem) { c.LastUpdated = c.CreatedAt.Add(-time.Second) }, want: "last_updated cannot be before created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			it := valid()
			tt.mutate(&it)
			err := Validate(&it)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidItem)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	require.ErrorIs(t, Validate(nil), ErrInvalidItem)
}

func TestCartItem_LineTotal(t *testing.T) {
	t.Parallel()

	it := valid()
	assert.True(t, decimal.RequireFromString("13.50").Equal(it.LineTotal()))
	assert.Equal(t, "<CartItem owner_id=1 item_id=2>", it.String())
}
