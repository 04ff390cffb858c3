package handlers

import (
	"errors"
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name          string          `json:"name" binding:"required"`
	Email         string          `json:"email" binding:"required"`
	Password      string          `json:"password" binding:"required"`
	ContactNumber string          `json:"contact_number"`
	Role          models.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userSummary(u *models.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

// Register creates a new user account. ADMIN accounts are only created by the
// superuser seed.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Role == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "field": "role", "reason": "admin accounts cannot self-register"})
		return
	}

	user, err := h.Users.CreateUser(c.Request.Context(), services.CreateUserInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		ContactNumber: req.ContactNumber,
		Role:          req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.JWT.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    userSummary(user),
	})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.JWT.GenerateToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userSummary(user),
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
