package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/cache"
	"restaurant-platform-api/logger"
	"restaurant-platform-api/middleware"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the JSON API on top of the services.
type Handler struct {
	Users       *services.UserService
	Restaurants *services.RestaurantService
	Approval    *services.ApprovalService
	Documents   *services.DocumentService
	Menu        *services.MenuService
	Carts       *services.CartService
	Orders      *services.OrderService

	JWT     *middleware.JWT
	Listing cache.ListingCache

	// BaseURL prefixes links encoded in order QR codes.
	BaseURL        string
	MaxUploadBytes int64
}

// New builds every service from deps.
func New(deps services.Deps, jwt *middleware.JWT, baseURL string, maxUploadBytes int64) *Handler {
	listing := deps.Listing
	if listing == nil {
		listing = cache.NopListingCache{}
	}
	return &Handler{
		Users:          services.NewUserService(deps),
		Restaurants:    services.NewRestaurantService(deps),
		Approval:       services.NewApprovalService(deps),
		Documents:      services.NewDocumentService(deps),
		Menu:           services.NewMenuService(deps),
		Carts:          services.NewCartService(deps),
		Orders:         services.NewOrderService(deps),
		JWT:            jwt,
		Listing:        listing,
		BaseURL:        baseURL,
		MaxUploadBytes: maxUploadBytes,
	}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindReference, apperr.KindConsistency:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnknown:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// respondError renders service errors. Anything that is not an apperr is logged and
// reported as a 500 without details.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindUnknown {
		body := gin.H{"error": appErr.Kind.String(), "reason": appErr.Reason}
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
		c.JSON(statusFor(appErr.Kind), body)
		return
	}
	logger.FromGin(c).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperr.KindUnknown.String(), "reason": "internal server error"})
}

// bindJSON decodes the body; a malformed body is a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.KindValidation.String(), "reason": err.Error()})
		return false
	}
	return true
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.KindValidation.String(), "field": name, "reason": "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
