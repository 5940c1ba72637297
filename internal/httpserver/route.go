package httpserver

import (
	"net/http"

	middleware "github.com/Skotchmaster/shopcarts/internal/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CartHandler *CartHTTP
	Guard       *middleware.OwnerGuard
	ServiceName string
	Version     string
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewRequestValidator()

	guard := d.Guard
	if guard == nil {
		guard = middleware.NewOwnerGuard(nil)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.CartHandler.Ready)
	e.GET("/info", info(d.ServiceName, d.Version))

	e.GET("/shopcarts", d.CartHandler.ListCarts, guard.RequireAdmin)

	cart := e.Group("/shopcarts/:owner_id")
	cart.Use(guard.RequireOwner)

	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.PUT("", d.CartHandler.UpdateCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/checkout", d.CartHandler.Checkout)

	cart.GET("/items", d.CartHandler.ListItems)
	cart.POST("/items", d.CartHandler.AddProduct)
	cart.GET("/items/:item_id", d.CartHandler.GetItem)
	cart.PUT("/items/:item_id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:item_id", d.CartHandler.RemoveItem)
}

func info(name, version string) echo.HandlerFunc {
	if name == "" {
		name = "shopcarts"
	}
	if version == "" {
		version = "1.0"
	}
	body := map[string]any{
		"name":    name,
		"version": version,
		"paths": map[string]map[string]string{
			"/shopcarts": {
				"GET": "List all carts grouped by owner",
			},
			"/shopcarts/{owner_id}": {
				"GET":    "Get the owner's cart",
				"POST":   "Add an item or increase its quantity",
				"PUT":    "Set quantities of several items",
				"DELETE": "Delete the whole cart",
			},
			"/shopcarts/{owner_id}/items": {
				"GET":  "List the owner's items without timestamps",
				"POST": "Add a product, checking stock and purchase limit",
			},
			"/shopcarts/{owner_id}/items/{item_id}": {
				"GET":    "Get one item",
				"PUT":    "Update one item; quantity 0 removes it",
				"DELETE": "Remove one item",
			},
			"/shopcarts/{owner_id}/checkout": {
				"POST": "Total and empty the cart",
			},
		},
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, body)
	}
}
