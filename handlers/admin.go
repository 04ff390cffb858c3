package handlers

import (
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"

	"github.com/gin-gonic/gin"
)

type TransitionRequest struct {
	Status models.RequestStatus `json:"status" binding:"required"`
	Reason string               `json:"reason"`
}

// AdminListRequests returns the review queue, optionally filtered by ?status= (admin only)
func (h *Handler) AdminListRequests(c *gin.Context) {
	status := models.RequestStatus(c.Query("status"))
	requests, err := h.Approval.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	summary := map[models.RequestStatus]int{}
	for _, r := range requests {
		summary[r.Status]++
	}
	c.JSON(http.StatusOK, gin.H{
		"request_summary": summary,
		"count":           len(requests),
		"requests":        requests,
	})
}

// AdminTransitionRequest moves a restaurant request through the approval workflow
func (h *Handler) AdminTransitionRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if !bindJSON(c, &req) {
		return
	}

	request, err := h.Approval.Transition(c.Request.Context(), middleware.GetActor(c), id, req.Status, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Request moved to " + string(request.Status),
		"request": request,
	})
}

// AdminRequestChanges returns the audit trail of one request
func (h *Handler) AdminRequestChanges(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	changes, err := h.Approval.Changes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(changes), "changes": changes})
}

// AdminGetAllUsers returns all users (admin only)
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminGetAllRestaurants returns all restaurants, optionally by ?status= (admin only)
func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.ListAll(c.Request.Context(), models.RequestStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}
