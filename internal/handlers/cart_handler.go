package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront-checkout/internal/cart"
	"github.com/imrishuroy/go-storefront-checkout/internal/checkout"
	"github.com/imrishuroy/go-storefront-checkout/internal/pricing"
	"github.com/imrishuroy/go-storefront-checkout/internal/validation"
)

// CartConfig groups dependencies for the cart handlers.
type CartConfig struct {
	Slot    cart.Slot
	Tracker cart.Tracker
	Logger  *zap.Logger
}

type cartView struct {
	CartID    string          `json:"cartId"`
	Items     []cart.LineItem `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  string          `json:"subtotal"`
	Shipping  string          `json:"shipping"`
	Tax       string          `json:"tax"`
	Total     string          `json:"total"`
}

func viewOf(ct *cart.Cart) cartView {
	t := ct.Totals()
	return cartView{
		CartID:    ct.ID(),
		Items:     ct.Items(),
		ItemCount: ct.ItemCount(),
		Subtotal:  pricing.Format(t.Subtotal),
		Shipping:  pricing.Format(t.Shipping),
		Tax:       pricing.Format(t.Tax),
		Total:     pricing.Format(t.Total),
	}
}

// RegisterCartRoutes registers the /carts/:cartId routes. Every request
// loads the cart from its slot, applies one mutation and persists it.
func RegisterCartRoutes(r *gin.Engine, cfg CartConfig) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	v := validation.New()

	load := func(c *gin.Context) *cart.Cart {
		return cart.Load(c.Request.Context(), c.Param("cartId"), cfg.Slot, cfg.Tracker, log)
	}
	respond := func(c *gin.Context, ct *cart.Cart, err error) {
		if err != nil {
			log.Error("cart update failed", zap.String("cart_id", ct.ID()), zap.Error(err))
			writeError(c, http.StatusInternalServerError, checkout.KindInternal, err.Error())
			return
		}
		c.JSON(http.StatusOK, viewOf(ct))
	}

	g := r.Group("/carts/:cartId")

	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, viewOf(load(c)))
	})

	g.POST("/items", func(c *gin.Context) {
		var req validation.AddItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		ct := load(c)
		respond(c, ct, ct.AddItem(c.Request.Context(), req.Product, req.Quantity))
	})

	g.PATCH("/items/:itemId", func(c *gin.Context) {
		var req validation.UpdateQuantityRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		ct := load(c)
		respond(c, ct, ct.UpdateQuantity(c.Request.Context(), c.Param("itemId"), *req.Quantity))
	})

	g.DELETE("/items/:itemId", func(c *gin.Context) {
		ct := load(c)
		respond(c, ct, ct.RemoveItem(c.Request.Context(), c.Param("itemId")))
	})

	g.DELETE("", func(c *gin.Context) {
		ct := load(c)
		respond(c, ct, ct.Clear(c.Request.Context()))
	})
}
