package handlers

import (
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
)

// ── Menu Management ─────────────────────────────────────────────────────────

func (h *Handler) CreateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MenuNodeInput
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.Menu.CreateCategory(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category added", "category": category})
}

// ListCategories returns the whole menu tree, hidden nodes included
func (h *Handler) ListCategories(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	categories, err := h.Menu.ListCategories(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "categories": categories})
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MenuNodeUpdate
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.Menu.UpdateCategory(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated", "category": category})
}

func (h *Handler) CreateSubCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MenuNodeInput
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.Menu.CreateSubCategory(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Sub-category added", "sub_category": sub})
}

func (h *Handler) UpdateSubCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MenuNodeUpdate
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.Menu.UpdateSubCategory(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sub-category updated", "sub_category": sub})
}

// AddMenuItem adds an item under a sub-category
func (h *Handler) AddMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Menu.CreateItem(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem updates a menu item (only by the owner or manager)
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MenuNodeUpdate
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Menu.UpdateItem(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes an item from the menu
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Menu.DeleteItem(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
