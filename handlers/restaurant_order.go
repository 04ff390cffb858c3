package handlers

import (
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"

	"github.com/gin-gonic/gin"
)

// GetRestaurantOrders returns the orders of one restaurant, optionally by ?status=
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	orders, err := h.Orders.ListForRestaurant(c.Request.Context(), middleware.GetActor(c), id, models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	// dashboard summary
	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

// AcceptOrder moves an order from NotAccepted to Accepted
func (h *Handler) AcceptOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Accept(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order accepted", "order": order})
}

// GetOrderHistory returns the status trail of an order (restaurant staff)
func (h *Handler) GetOrderHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	changes, err := h.Orders.RestaurantHistory(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "history": changes})
}
