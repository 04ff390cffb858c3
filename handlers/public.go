package handlers

import (
	"encoding/json"
	"net/http"

	"restaurant-platform-api/logger"
	"restaurant-platform-api/services"
	"restaurant-platform-api/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListRestaurants returns the approved, open restaurants (public).
// Responses are cached per filter until the next approval or restaurant change.
func (h *Handler) ListRestaurants(c *gin.Context) {
	var filter services.ListingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "reason": err.Error()})
		return
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c)

	lookup, err := h.Listing.Get(ctx, filter.CacheKey())
	if err != nil {
		log.Warn("listing cache read failed", zap.Error(err))
	}
	if lookup.Hit {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", lookup.Body)
		return
	}

	restaurants, err := h.Restaurants.ListListed(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := json.Marshal(gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.Listing.Set(ctx, lookup, body); err != nil {
		log.Warn("listing cache write failed", zap.Error(err))
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GetRestaurant returns a single listed restaurant with its listed branches
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.Restaurants.GetListed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns the visible menu tree of a listed restaurant (public)
func (h *Handler) GetMenu(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	categories, err := h.Menu.PublicMenu(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant_id": id,
		"count":         len(categories),
		"menu":          categories,
	})
}

func transitionsInfo[S ~string](m *statemachine.Machine[S]) []gin.H {
	out := []gin.H{}
	for _, t := range m.Transitions() {
		out = append(out, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	return out
}

// GetStateMachineInfo describes the approval and order workflows
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"approval": gin.H{
			"state_machine":   transitionsInfo(statemachine.Approval),
			"terminal_states": statemachine.Approval.TerminalStates(),
			"description":     "Every restaurant starts PENDING. An admin moves the request to IN_REVIEW and then APPROVED or DECLINED. A declined restaurant can be resubmitted by its owner.",
		},
		"order": gin.H{
			"state_machine":   transitionsInfo(statemachine.Orders),
			"terminal_states": statemachine.Orders.TerminalStates(),
			"description":     "Orders are placed as NotAccepted and the restaurant accepts them.",
		},
	})
}
