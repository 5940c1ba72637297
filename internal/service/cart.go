package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/Skotchmaster/shopcarts/internal/events"
	"github.com/Skotchmaster/shopcarts/internal/filter"
	"github.com/Skotchmaster/shopcarts/internal/logging"
	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/Skotchmaster/shopcarts/internal/productinfo"
	"github.com/Skotchmaster/shopcarts/internal/repo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService struct {
	Repo *repo.GormRepo
	// Products is optional; without it add-product relies on the request body alone.
	Products productinfo.Lookup
	Events   events.Publisher
	Filters  filter.Options
}

// Cart is every line item of one owner.
type Cart struct {
	OwnerID int64             `json:"owner_id"`
	Items   []models.CartItem `json:"items"`
}

type ProductInput struct {
	ProductID     int64
	Quantity      int
	Name          string
	Price         *decimal.Decimal
	Stock         *int
	PurchaseLimit *int
}

type ItemUpdate struct {
	Quantity    int
	Description *string
	Price       *decimal.Decimal
}

type CheckoutResult struct {
	ID      string
	OwnerID int64
	Total   decimal.Decimal
	Items   int
}

// Ceilings bound the quantity of one product in a cart. Nil means unbounded.
type Ceilings struct {
	Stock         *int
	PurchaseLimit *int
}

func (c Ceilings) Check(quantity int) error {
	if c.Stock != nil && *c.Stock < 1 {
		return fail(ErrValidation, "Product is out of stock")
	}
	if c.Stock != nil && quantity > *c.Stock {
		return fail(ErrValidation, "Only %d units are available", *c.Stock)
	}
	if c.PurchaseLimit != nil && quantity > *c.PurchaseLimit {
		return fail(ErrValidation, "Cannot exceed purchase limit of %d", *c.PurchaseLimit)
	}
	return nil
}

func (s *CartService) publish(ctx context.Context, ev events.CartEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "type", ev.Type, "owner_id", ev.OwnerID, "error", err)
	}
}

func checkID(name string, id int64) error {
	if id <= 0 {
		return fail(ErrValidation, "%s must be a positive integer", name)
	}
	return nil
}

// AddItem puts item into its owner's cart. If the item is already there its
// quantity grows by item.Quantity and the stored price is kept.
func (s *CartService) AddItem(ctx context.Context, item models.CartItem) ([]models.CartItem, error) {
	if err := models.Validate(&item); err != nil {
		return nil, classify(err)
	}

	added, _, err := s.Repo.AddQuantity(ctx, item, nil)
	if err != nil {
		return nil, classify(err)
	}

	ev := events.New(events.TypeItemAdded, added.OwnerID)
	ev.ItemID, ev.Quantity = added.ItemID, added.Quantity
	s.publish(ctx, ev)

	return s.Repo.FindByOwner(ctx, item.OwnerID)
}

// AddProduct adds a catalogue product, enforcing stock and purchase-limit
// ceilings on the resulting quantity. Ceilings and price missing from in
// are taken from the product source when one is configured.
func (s *CartService) AddProduct(ctx context.Context, ownerID int64, in ProductInput) ([]models.CartItem, error) {
	if err := checkID("owner_id", ownerID); err != nil {
		return nil, err
	}
	if err := checkID("product_id", in.ProductID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, fail(ErrValidation, "quantity must be greater than 0")
	}

	if s.Products != nil && ((in.Stock == nil && in.PurchaseLimit == nil) || in.Price == nil) {
		p, err := s.Products.Product(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, productinfo.ErrProductNotFound) {
				return nil, &Error{Kind: ErrNotFound, Msg: "Product not found", Cause: err}
			}
			return nil, err
		}
		if in.Stock == nil {
			in.Stock = p.Stock
		}
		if in.PurchaseLimit == nil {
			in.PurchaseLimit = p.PurchaseLimit
		}
		if in.Price == nil {
			in.Price = &p.Price
		}
		if in.Name == "" {
			in.Name = p.Name
		}
	}

	ceil := Ceilings{Stock: in.Stock, PurchaseLimit: in.PurchaseLimit}
	if err := ceil.Check(in.Quantity); err != nil {
		return nil, err
	}

	price := decimal.Zero
	if in.Price != nil {
		price = *in.Price
	}
	seed := models.CartItem{
		OwnerID:     ownerID,
		ItemID:      in.ProductID,
		Description: in.Name,
		Quantity:    in.Quantity,
		UnitPrice:   price,
	}
	added, _, err := s.Repo.AddQuantity(ctx, seed, ceil.Check)
	if err != nil {
		return nil, classify(err)
	}

	ev := events.New(events.TypeItemAdded, ownerID)
	ev.ItemID, ev.Quantity = added.ItemID, added.Quantity
	s.publish(ctx, ev)

	return s.Repo.FindByOwner(ctx, ownerID)
}

// Items returns the owner's cart, 404 when it has no items.
func (s *CartService) Items(ctx context.Context, ownerID int64) ([]models.CartItem, error) {
	if err := checkID("owner_id", ownerID); err != nil {
		return nil, err
	}
	items, err := s.Repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fail(ErrNotFound, "Cart for owner %d not found", ownerID)
	}
	return items, nil
}

func (s *CartService) GetItem(ctx context.Context, ownerID, itemID int64) (*models.CartItem, error) {
	if err := checkID("item_id", itemID); err != nil {
		return nil, err
	}
	if _, err := s.Items(ctx, ownerID); err != nil {
		return nil, err
	}
	item, err := s.Repo.Find(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fail(ErrItemNotFound, "Item %d not found in cart of owner %d", itemID, ownerID)
	}
	return item, nil
}

// UpdateItem sets an item's quantity and optionally its description and
// price. A quantity of 0 removes the item; deleted reports that case.
func (s *CartService) UpdateItem(ctx context.Context, ownerID, itemID int64, upd ItemUpdate) (item *models.CartItem, deleted bool, err error) {
	if err := checkID("owner_id", ownerID); err != nil {
		return nil, false, err
	}
	if err := checkID("item_id", itemID); err != nil {
		return nil, false, err
	}
	if upd.Quantity < 0 {
		return nil, false, fail(ErrValidation, "Quantity cannot be negative")
	}

	current, err := s.Repo.Find(ctx, ownerID, itemID)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, fail(ErrItemNotFound, "Item %d not found in cart of owner %d", itemID, ownerID)
	}

	if upd.Quantity == 0 {
		ok, err := s.Repo.Delete(ctx, ownerID, itemID)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fail(ErrItemNotFound, "Item %d not found in cart of owner %d", itemID, ownerID)
		}
		ev := events.New(events.TypeItemRemoved, ownerID)
		ev.ItemID = itemID
		s.publish(ctx, ev)
		return nil, true, nil
	}

	current.Quantity = upd.Quantity
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.Price != nil {
		current.UnitPrice = *upd.Price
	}
	if err := s.Repo.Update(ctx, current); err != nil {
		return nil, false, classify(err)
	}

	ev := events.New(events.TypeItemUpdated, ownerID)
	ev.ItemID, ev.Quantity = itemID, current.Quantity
	s.publish(ctx, ev)
	return current, false, nil
}

// UpdateCart applies quantity changes to several items at once. Either all
// changes are applied or none.
func (s *CartService) UpdateCart(ctx context.Context, ownerID int64, changes []repo.QuantityChange) ([]models.CartItem, error) {
	if len(changes) == 0 {
		return nil, fail(ErrValidation, "Invalid payload: 'items' must be a non-empty list")
	}
	for _, ch := range changes {
		if err := checkID("item_id", ch.ItemID); err != nil {
			return nil, err
		}
		if ch.Quantity < 0 {
			return nil, fail(ErrValidation, "Quantity cannot be negative")
		}
	}
	if _, err := s.Items(ctx, ownerID); err != nil {
		return nil, err
	}

	if err := s.Repo.SetQuantities(ctx, ownerID, changes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &Error{Kind: ErrItemNotFound, Msg: "Item not found in cart: " + err.Error(), Cause: err}
		}
		return nil, classify(err)
	}

	for _, ch := range changes {
		typ := events.TypeItemUpdated
		if ch.Quantity == 0 {
			typ = events.TypeItemRemoved
		}
		ev := events.New(typ, ownerID)
		ev.ItemID, ev.Quantity = ch.ItemID, ch.Quantity
		s.publish(ctx, ev)
	}

	return s.Repo.FindByOwner(ctx, ownerID)
}

func (s *CartService) RemoveItem(ctx context.Context, ownerID, itemID int64) error {
	if err := checkID("owner_id", ownerID); err != nil {
		return err
	}
	if err := checkID("item_id", itemID); err != nil {
		return err
	}
	ok, err := s.Repo.Delete(ctx, ownerID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return fail(ErrItemNotFound, "Item %d not found in cart of owner %d", itemID, ownerID)
	}

	ev := events.New(events.TypeItemRemoved, ownerID)
	ev.ItemID = itemID
	s.publish(ctx, ev)
	return nil
}

// ClearCart empties the owner's cart. Clearing an empty cart is not an error.
func (s *CartService) ClearCart(ctx context.Context, ownerID int64) error {
	if err := checkID("owner_id", ownerID); err != nil {
		return err
	}
	n, err := s.Repo.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.publish(ctx, events.New(events.TypeCartCleared, ownerID))
	}
	return nil
}

// Checkout totals the owner's cart and consumes it. Reading and deleting the
// rows happen in one transaction holding row locks.
func (s *CartService) Checkout(ctx context.Context, ownerID int64) (*CheckoutResult, error) {
	if err := checkID("owner_id", ownerID); err != nil {
		return nil, err
	}

	res := &CheckoutResult{ID: uuid.NewString(), OwnerID: ownerID}
	_, err := s.Repo.Consume(ctx, ownerID, func(items []models.CartItem) error {
		if len(items) == 0 {
			return fail(ErrEmptyCart, "Cart is empty or not found")
		}
		total := Total(items)
		if total.IsZero() {
			return fail(ErrEmptyCart, "Cart is empty or not found")
		}
		res.Total, res.Items = total, len(items)
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	ev := events.New(events.TypeCartCheckedOut, ownerID)
	ev.CheckoutID = res.ID
	ev.Total = &res.Total
	s.publish(ctx, ev)

	logging.FromContext(ctx).Info("cart_checked_out", "owner_id", ownerID, "checkout_id", res.ID, "total", res.Total.StringFixed(2))
	return res, nil
}

// Total is the sum of price * quantity over items.
func Total(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Search returns the items matching the attribute filters and range
// parameters in values, all combined with AND. ownerID of 0 searches
// every cart.
func (s *CartService) Search(ctx context.Context, ownerID int64, values url.Values) ([]models.CartItem, error) {
	set, err := filter.Extract(values)
	if err != nil {
		return nil, classify(err)
	}
	if ownerID != 0 {
		if err := checkID("owner_id", ownerID); err != nil {
			return nil, err
		}
	}

	preds, err := filter.Build(set, s.Filters)
	if err != nil {
		return nil, classify(err)
	}
	bounds, ok, err := filter.ExtractBounds(values, s.Filters)
	if err != nil {
		return nil, classify(err)
	}
	if ok {
		preds = append(preds, bounds.Predicates()...)
	}

	scopes := filter.Scopes(preds)
	if ownerID != 0 {
		return s.Repo.FindByOwner(ctx, ownerID, scopes...)
	}
	return s.Repo.Query(ctx, scopes...)
}

// GroupByOwner splits items into carts, keeping the order of first appearance.
func GroupByOwner(items []models.CartItem) []Cart {
	carts := []Cart{}
	index := map[int64]int{}
	for _, it := range items {
		i, ok := index[it.OwnerID]
		if !ok {
			i = len(carts)
			index[it.OwnerID] = i
			carts = append(carts, Cart{OwnerID: it.OwnerID})
		}
		carts[i].Items = append(carts[i].Items, it)
	}
	return carts
}

// Ready reports whether the store is reachable.
func (s *CartService) Ready(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}
