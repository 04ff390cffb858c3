package routes

import (
	"restaurant-platform-api/handlers"
	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	authRequired := h.JWT.AuthRequired()

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Listed restaurants & menus (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)

		// Workflow tables (great for docs/Postman)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Owner / manager routes ─────────────────────────────────────
	owner := r.Group("/api/owner")
	owner.Use(authRequired, middleware.RoleRequired(
		models.RoleOwner, models.RoleManager, models.RoleCustomer, models.RoleAdmin,
	))
	{
		// Restaurant management
		owner.POST("/restaurants", h.CreateRestaurant)
		owner.GET("/restaurants", h.ListMyRestaurants)
		owner.GET("/restaurants/:id", h.GetMyRestaurant)
		owner.PUT("/restaurants/:id", h.UpdateRestaurant)
		owner.DELETE("/restaurants/:id", h.DeleteRestaurant)
		owner.PUT("/restaurants/:id/parent", h.SetParent)
		owner.GET("/restaurants/:id/branches", h.ListBranches)
		owner.PUT("/restaurants/:id/location", h.SetLocation)
		owner.PUT("/restaurants/:id/manager", h.AssignManager)

		// Documents & assets (multipart)
		owner.POST("/restaurants/:id/documents", h.AddDocument)
		owner.GET("/restaurants/:id/documents", h.ListDocuments)
		owner.DELETE("/restaurants/:id/documents/:docId", h.DeleteDocument)
		owner.POST("/restaurants/:id/assets", h.AddAsset)

		// Approval requests
		owner.GET("/restaurants/:id/requests", h.ListRequests)
		owner.POST("/restaurants/:id/requests", h.ResubmitRequest)

		// Menu management
		owner.POST("/restaurants/:id/categories", h.CreateCategory)
		owner.GET("/restaurants/:id/categories", h.ListCategories)
		owner.PUT("/categories/:id", h.UpdateCategory)
		owner.POST("/categories/:id/subcategories", h.CreateSubCategory)
		owner.PUT("/subcategories/:id", h.UpdateSubCategory)
		owner.POST("/subcategories/:id/items", h.AddMenuItem)
		owner.PUT("/items/:id", h.UpdateMenuItem)
		owner.DELETE("/items/:id", h.DeleteMenuItem)

		// Order management
		owner.GET("/restaurants/:id/orders", h.GetRestaurantOrders)
		owner.PUT("/orders/:id/accept", h.AcceptOrder)
		owner.GET("/orders/:id/history", h.GetOrderHistory)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(authRequired, middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/cart", h.AddToCart)
		customer.GET("/cart", h.GetCart)
		customer.PUT("/cart/:id", h.UpdateCart)
		customer.DELETE("/cart/:id", h.RemoveFromCart)

		customer.POST("/orders", h.PlaceOrder)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
		customer.GET("/orders/:id/qrcode", h.GetOrderQRCode)
		customer.GET("/orders/:id/history", h.GetMyOrderHistory)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/requests", h.AdminListRequests)
		admin.PUT("/requests/:id/status", h.AdminTransitionRequest)
		admin.GET("/requests/:id/changes", h.AdminRequestChanges)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.GET("/restaurants", h.AdminGetAllRestaurants)
	}
}
