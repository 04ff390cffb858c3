package handlers

import (
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
)

// ── Cart ─────────────────────────────────────────────────────────────────────

// AddToCart puts a visible item from a listed restaurant into the cart
func (h *Handler) AddToCart(c *gin.Context) {
	var req services.AddToCartInput
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.Carts.Add(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Added to cart", "cart": cart})
}

// GetCart returns the caller's cart lines that are not yet ordered
func (h *Handler) GetCart(c *gin.Context) {
	carts, err := h.Carts.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	var total float64
	for _, cart := range carts {
		if cart.Item != nil {
			total += cart.Item.Price * float64(cart.Quantity)
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(carts), "total_price": total, "cart": carts})
}

func (h *Handler) UpdateCart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCartInput
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.Carts.Update(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": cart})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Carts.Remove(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
}

// ── Orders ───────────────────────────────────────────────────────────────────

// PlaceOrder turns a cart line into an order
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderInput
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.Orders.Place(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order placed successfully",
		"order":        order,
		"tracking_url": services.OrderTrackingURL(h.BaseURL, order.ID),
	})
}

// GetMyOrders returns the caller's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListForCustomer(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns a single order of the caller
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetForCustomer(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetMyOrderHistory returns the status trail of one of the customer's orders
func (h *Handler) GetMyOrderHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	changes, err := h.Orders.CustomerHistory(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "history": changes})
}

// GetOrderQRCode renders the tracking link of an order as a PNG
func (h *Handler) GetOrderQRCode(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	png, err := h.Orders.OrderQRCode(c.Request.Context(), middleware.GetActor(c), h.BaseURL, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
