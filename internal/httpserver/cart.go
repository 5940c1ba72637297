package httpserver

import (
	"fmt"
	"net/http"

	"github.com/Skotchmaster/shopcarts/internal/logging"
	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/Skotchmaster/shopcarts/internal/repo"
	"github.com/Skotchmaster/shopcarts/internal/service"
	"github.com/Skotchmaster/shopcarts/internal/transport"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

// pathID reads a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).MustInt64(name, &id).BindError(); err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

func bindBody(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.Validate(req)
}

func (h *CartHTTP) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Svc.Ready(ctx); err != nil {
		logging.FromContext(ctx).Error("ready_error", "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.NoContent(http.StatusOK)
}

func (h *CartHTTP) ListCarts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.carts")

	items, err := h.Svc.Search(ctx, 0, c.QueryParams())
	if err != nil {
		return writeError(l, "list_carts_error", err)
	}

	carts := service.GroupByOwner(items)
	l.Info("carts listed", "carts", len(carts))
	return c.JSON(http.StatusOK, carts)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	items, err := h.Svc.Search(ctx, ownerID, c.QueryParams())
	if err != nil {
		return writeError(l, "get_cart_error", err)
	}
	if len(items) == 0 {
		l.Warn("get_cart_error", "status", 404, "reason", "no matching items")
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Cart for owner %d not found", ownerID))
	}

	return c.JSON(http.StatusOK, service.GroupByOwner(items))
}

func (h *CartHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.items")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	items, err := h.Svc.Items(ctx, ownerID)
	if err != nil {
		return writeError(l, "list_items_error", err)
	}

	return c.JSON(http.StatusOK, []transport.ItemsResponse{{
		OwnerID: ownerID,
		Items:   transport.NewItemResponses(items),
	}})
}

func (h *CartHTTP) GetItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.item")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return err
	}

	item, err := h.Svc.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return writeError(l, "get_item_error", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.item")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	var req transport.AddItemRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("add_item_error", "status", 400, "error", err)
		return err
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	items, err := h.Svc.AddItem(ctx, models.CartItem{
		OwnerID:     ownerID,
		ItemID:      req.ItemID,
		Description: req.Description,
		Quantity:    qty,
		UnitPrice:   *req.Price,
	})
	if err != nil {
		return writeError(l, "add_item_error", err)
	}

	l.Info("item added to cart", "item_id", req.ItemID, "quantity", qty)
	return c.JSON(http.StatusCreated, items)
}

func (h *CartHTTP) AddProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.product")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	var req transport.AddProductRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("add_product_error", "status", 400, "error", err)
		return err
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	items, err := h.Svc.AddProduct(ctx, ownerID, service.ProductInput{
		ProductID:     req.ProductID,
		Quantity:      qty,
		Name:          req.Name,
		Price:         req.Price,
		Stock:         req.Stock,
		PurchaseLimit: req.PurchaseLimit,
	})
	if err != nil {
		return writeError(l, "add_product_error", err)
	}

	l.Info("product added to cart", "product_id", req.ProductID, "quantity", qty)
	return c.JSON(http.StatusCreated, items)
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	var req transport.BulkUpdateRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return err
	}

	changes := make([]repo.QuantityChange, 0, len(req.Items))
	for _, it := range req.Items {
		changes = append(changes, repo.QuantityChange{ItemID: it.ItemID, Quantity: *it.Quantity})
	}

	items, err := h.Svc.UpdateCart(ctx, ownerID, changes)
	if err != nil {
		return writeError(l, "update_cart_error", err)
	}

	l.Info("cart updated", "changes", len(changes))
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.item")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return err
	}

	var req transport.UpdateItemRequest
	if err := bindBody(c, &req); err != nil {
		l.Warn("update_item_error", "status", 400, "error", err)
		return err
	}

	item, deleted, err := h.Svc.UpdateItem(ctx, ownerID, itemID, service.ItemUpdate{
		Quantity:    *req.Quantity,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return writeError(l, "update_item_error", err)
	}
	if deleted {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: fmt.Sprintf("Item %d removed from cart", itemID)})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	if err := h.Svc.ClearCart(ctx, ownerID); err != nil {
		return writeError(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.item")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return err
	}

	if err := h.Svc.RemoveItem(ctx, ownerID, itemID); err != nil {
		return writeError(l, "remove_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	ownerID, err := pathID(c, "owner_id")
	if err != nil {
		return err
	}

	res, err := h.Svc.Checkout(ctx, ownerID)
	if err != nil {
		return writeError(l, "checkout_error", err)
	}

	l.Info("checkout_success", "checkout_id", res.ID, "items", res.Items)
	return c.JSON(http.StatusOK, transport.CheckoutResponse{
		Message:    fmt.Sprintf("Cart %d checked out successfully", ownerID),
		CheckoutID: res.ID,
		TotalPrice: res.Total,
	})
}
