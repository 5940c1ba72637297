package transport

import (
	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	ItemID      int64            `json:"item_id"     validate:"required,gt=0"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"required"`
	Quantity    *int             `json:"quantity"    validate:"omitempty,gt=0"`
}

type AddProductRequest struct {
	ProductID     int64            `json:"product_id" validate:"required,gt=0"`
	Quantity      *int             `json:"quantity"   validate:"omitempty,gt=0"`
	Name          string           `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	Stock         *int             `json:"stock"`
	PurchaseLimit *int             `json:"purchase_limit"`
}

type UpdateItemRequest struct {
	Quantity    *int             `json:"quantity" validate:"required"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

type BulkUpdateItem struct {
	ItemID   int64 `json:"item_id"  validate:"required,gt=0"`
	Quantity *int  `json:"quantity" validate:"required"`
}

type BulkUpdateRequest struct {
	Items []BulkUpdateItem `json:"items" validate:"required,min=1,dive"`
}

// ItemResponse is a line item without its timestamps.
type ItemResponse struct {
	OwnerID     int64           `json:"owner_id"`
	ItemID      int64           `json:"item_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func NewItemResponses(items []models.CartItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			OwnerID:     it.OwnerID,
			ItemID:      it.ItemID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Price:       it.UnitPrice,
		})
	}
	return out
}

// ItemsResponse is one owner's items as listed by the items endpoint.
type ItemsResponse struct {
	OwnerID int64          `json:"owner_id"`
	Items   []ItemResponse `json:"items"`
}

type CheckoutResponse struct {
	Message    string          `json:"message"`
	CheckoutID string          `json:"checkout_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
