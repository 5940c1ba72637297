package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeItemAdded      = "item_added"
	TypeItemUpdated    = "item_updated"
	TypeItemRemoved    = "item_removed"
	TypeCartCleared    = "cart_cleared"
	TypeCartCheckedOut = "cart_checked_out"
)

// CartEvent is the JSON payload written for every cart mutation.
type CartEvent struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	OwnerID    int64            `json:"owner_id"`
	ItemID     int64            `json:"item_id,omitempty"`
	Quantity   int              `json:"quantity,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	CheckoutID string           `json:"checkout_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func New(typ string, ownerID int64) CartEvent {
	return CartEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev CartEvent) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, CartEvent) error { return nil }
func (Nop) Close() error                             { return nil }
