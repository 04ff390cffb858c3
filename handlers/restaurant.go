package handlers

import (
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
)

// ── Restaurant Management ────────────────────────────────────────────────────

// CreateRestaurant registers a restaurant and opens its first approval request
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.RegisterRestaurantInput
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Register(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant submitted for approval",
		"restaurant": restaurant,
	})
}

// ListMyRestaurants returns the restaurants the caller owns or manages
func (h *Handler) ListMyRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.ListMine(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetMyRestaurant returns one restaurant with its documents, assets and requests
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.Restaurants.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// UpdateRestaurant patches restaurant details
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateRestaurantInput
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Update(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// DeleteRestaurant soft-deletes a restaurant; its branches become top-level
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Restaurants.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// ── Branches ─────────────────────────────────────────────────────────────────

type SetParentRequest struct {
	ParentRestaurantID *uint `json:"parent_restaurant_id"`
}

// SetParent attaches a restaurant under a parent, or detaches it with null
func (h *Handler) SetParent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SetParentRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.SetParent(c.Request.Context(), middleware.GetActor(c), id, req.ParentRestaurantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parent restaurant updated", "restaurant": restaurant})
}

// ListBranches returns the direct branches of a restaurant
func (h *Handler) ListBranches(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	branches, err := h.Restaurants.ListBranches(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(branches), "branches": branches})
}

// ── Location & Manager ───────────────────────────────────────────────────────

func (h *Handler) SetLocation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.LocationInput
	if !bindJSON(c, &req) {
		return
	}
	location, err := h.Restaurants.SetLocation(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location saved", "location": location})
}

type AssignManagerRequest struct {
	UserID *uint `json:"user_id"`
}

// AssignManager sets the restaurant manager; null clears it
func (h *Handler) AssignManager(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AssignManagerRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.AssignManager(c.Request.Context(), middleware.GetActor(c), id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Manager updated", "restaurant": restaurant})
}

// ── Approval Requests ────────────────────────────────────────────────────────

// ListRequests returns the approval history of a restaurant, newest first
func (h *Handler) ListRequests(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	requests, err := h.Approval.History(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "requests": requests})
}

// ResubmitRequest opens a new request after a decline
func (h *Handler) ResubmitRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	request, err := h.Approval.Resubmit(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant resubmitted for approval", "request": request})
}
