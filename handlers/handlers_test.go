package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-platform-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listingBody struct {
	Count       int                       `json:"count"`
	Restaurants []models.PublicRestaurant `json:"restaurants"`
}

func TestOnboardingFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	admin := s.adminToken()

	restaurantID := s.createRestaurant(owner, "Spice Route")

	// not listed until approved; the second read comes from the cache
	w := s.do(http.MethodGet, "/api/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var listing listingBody
	decode(t, w, &listing)
	assert.Zero(t, listing.Count)
	assert.Equal(t, "HIT", s.do(http.MethodGet, "/api/restaurants", "", nil).Header().Get("X-Cache"))

	s.approve(admin, restaurantID)

	w = s.do(http.MethodGet, "/api/restaurants", "", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	decode(t, w, &listing)
	require.Equal(t, 1, listing.Count)
	assert.Equal(t, "Spice Route", listing.Restaurants[0].Name)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d", restaurantID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/owner/restaurants/%d/requests", restaurantID), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Requests []models.RestaurantRequest `json:"requests"`
	}
	decode(t, w, &history)
	require.Len(t, history.Requests, 1)
	assert.Equal(t, models.RequestApproved, history.Requests[0].Status)
}

func TestApprovedRequestIsTerminal(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	admin := s.adminToken()
	restaurantID := s.createRestaurant(owner, "Spice Route")
	requestID := s.pendingRequestID(admin, restaurantID)
	s.approve(admin, restaurantID)

	w := s.moveRequest(admin, requestID, models.RequestDeclined, "changed my mind")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "none (terminal state)")
}

func TestDeclineAndResubmit(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	admin := s.adminToken()
	restaurantID := s.createRestaurant(owner, "Spice Route")
	requestID := s.pendingRequestID(admin, restaurantID)

	w := s.moveRequest(admin, requestID, models.RequestDeclined, "  ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"validation_error","field":"reason","reason":"a reason is required to decline a request"}`, w.Body.String())

	w = s.moveRequest(admin, requestID, models.RequestDeclined, "missing FSSAI license")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/owner/restaurants/%d/requests", restaurantID), owner, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the declined request is no longer the latest one
	w = s.moveRequest(admin, requestID, models.RequestInReview, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEqual(t, requestID, s.pendingRequestID(admin, restaurantID))
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	customer := s.signup("Casey", models.RoleCustomer)
	rider := s.signup("Riley", models.RoleRider)

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{name: "anonymous profile", method: http.MethodGet, path: "/api/profile", wantCode: http.StatusUnauthorized},
		{name: "customer profile", method: http.MethodGet, path: "/api/profile", token: customer, wantCode: http.StatusOK},
		{name: "customer admin queue", method: http.MethodGet, path: "/api/admin/requests", token: customer, wantCode: http.StatusForbidden},
		{name: "rider owner area", method: http.MethodGet, path: "/api/owner/restaurants", token: rider, wantCode: http.StatusForbidden},
		{name: "customer owner area", method: http.MethodGet, path: "/api/owner/restaurants", token: customer, wantCode: http.StatusOK},
		{name: "rider cart", method: http.MethodGet, path: "/api/customer/cart", token: rider, wantCode: http.StatusForbidden},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := s.do(testCase.method, testCase.path, testCase.token, nil)
			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Mallory", "email": "mallory@example.com", "password": "secret123", "role": models.RoleAdmin,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.signup("Olive", models.RoleOwner)

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Olive", "email": "OLIVE@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "olive@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "olive@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role models.UserRole `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleOwner, resp.User.Role)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	stranger := s.signup("Sam", models.RoleOwner)
	restaurantID := s.createRestaurant(owner, "Spice Route")
	child := s.createRestaurant(owner, "Spice Route Branch")

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     any
		wantCode int
		wantKind string
	}{
		{name: "validation", method: http.MethodPost, path: "/api/owner/restaurants", token: owner,
			body: gin.H{"name": "", "contact_number": "1", "food_type": "VEGAN"}, wantCode: http.StatusBadRequest, wantKind: "validation_error"},
		{name: "reference", method: http.MethodPut, path: fmt.Sprintf("/api/owner/restaurants/%d/parent", child), token: owner,
			body: gin.H{"parent_restaurant_id": 9999}, wantCode: http.StatusUnprocessableEntity, wantKind: "reference_error"},
		{name: "consistency", method: http.MethodPut, path: fmt.Sprintf("/api/owner/restaurants/%d/parent", child), token: owner,
			body: gin.H{"parent_restaurant_id": child}, wantCode: http.StatusUnprocessableEntity, wantKind: "consistency_error"},
		{name: "forbidden", method: http.MethodPut, path: fmt.Sprintf("/api/owner/restaurants/%d", restaurantID), token: stranger,
			body: gin.H{"name": "Mine now"}, wantCode: http.StatusForbidden, wantKind: "forbidden"},
		{name: "not found", method: http.MethodGet, path: "/api/owner/restaurants/9999", token: owner,
			wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "bad id", method: http.MethodGet, path: "/api/owner/restaurants/abc", token: owner,
			wantCode: http.StatusBadRequest, wantKind: "validation_error"},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			w := s.do(testCase.method, testCase.path, testCase.token, testCase.body)
			require.Equal(t, testCase.wantCode, w.Code, w.Body.String())
			var resp struct {
				Error string `json:"error"`
			}
			decode(t, w, &resp)
			assert.Equal(t, testCase.wantKind, resp.Error)
		})
	}
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentUploads(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	restaurantID := s.createRestaurant(owner, "Spice Route")
	docsPath := fmt.Sprintf("/api/owner/restaurants/%d/documents", restaurantID)
	assetsPath := fmt.Sprintf("/api/owner/restaurants/%d/assets", restaurantID)

	w := s.send(multipartRequest(t, docsPath, map[string]string{
		"document_type": "FSSAI", "document_number": "12345678901234",
	}, "fssai.jpg", []byte("scan")), owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Document models.RestaurantDocument `json:"document"`
	}
	decode(t, w, &created)
	assert.Equal(t, "restaurant/documents/fssai/fssai.jpg", created.Document.ImagePath)

	w = s.send(multipartRequest(t, docsPath, map[string]string{
		"document_type": "FSSAI", "document_number": "99999999999999",
	}, "", nil), owner)
	assert.Equal(t, http.StatusConflict, w.Code)

	// assets need a file
	w = s.send(multipartRequest(t, assetsPath, map[string]string{"kind": "MENU"}, "", nil), owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.send(multipartRequest(t, assetsPath, map[string]string{"kind": "MENU"}, "menu.jpg", []byte("page")), owner)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// over the 1 MiB limit
	w = s.send(multipartRequest(t, assetsPath, map[string]string{"kind": "LICENSE"}, "license.jpg", bytes.Repeat([]byte("x"), 2<<20)), owner)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = s.do(http.MethodGet, docsPath, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestOrderingFlow(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup("Olive", models.RoleOwner)
	customer := s.signup("Casey", models.RoleCustomer)
	admin := s.adminToken()
	restaurantID := s.createRestaurant(owner, "Chai Point")

	var node struct {
		Category    idBody `json:"category"`
		SubCategory idBody `json:"sub_category"`
		Item        idBody `json:"item"`
	}
	w := s.do(http.MethodPost, fmt.Sprintf("/api/owner/restaurants/%d/categories", restaurantID), owner, gin.H{"name": "Beverages"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &node)
	w = s.do(http.MethodPost, fmt.Sprintf("/api/owner/categories/%d/subcategories", node.Category.ID), owner, gin.H{"name": "Hot"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &node)
	w = s.do(http.MethodPost, fmt.Sprintf("/api/owner/subcategories/%d/items", node.SubCategory.ID), owner, gin.H{"name": "Masala Chai", "price": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &node)

	// menu stays private until approval
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/menu", restaurantID), "", nil).Code)
	s.approve(admin, restaurantID)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/menu", restaurantID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Masala Chai")

	w = s.do(http.MethodPost, "/api/customer/cart", customer, gin.H{"item_id": node.Item.ID, "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cart struct {
		Cart idBody `json:"cart"`
	}
	decode(t, w, &cart)

	w = s.do(http.MethodPost, "/api/customer/orders", customer, gin.H{"cart_id": cart.Cart.ID, "delivery_address": "12 MG Road"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		Order struct {
			ID         uint               `json:"id"`
			Status     models.OrderStatus `json:"status"`
			TotalPrice float64            `json:"total_price"`
		} `json:"order"`
		TrackingURL string `json:"tracking_url"`
	}
	decode(t, w, &placed)
	assert.Equal(t, models.OrderNotAccepted, placed.Order.Status)
	assert.InDelta(t, 120.0, placed.Order.TotalPrice, 0.001)
	assert.Equal(t, fmt.Sprintf("%s/orders/%d", testBaseURL, placed.Order.ID), placed.TrackingURL)

	// a cart line is ordered once
	w = s.do(http.MethodPost, "/api/customer/orders", customer, gin.H{"cart_id": cart.Cart.ID, "delivery_address": "12 MG Road"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/owner/orders/%d/accept", placed.Order.ID), owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), string(models.OrderAccepted))

	w = s.do(http.MethodGet, fmt.Sprintf("/api/customer/orders/%d/qrcode", placed.Order.ID), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	stranger := s.signup("Sam", models.RoleOwner)
	historyTests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{name: "owner", path: "/api/owner/orders/%d/history", token: owner, wantCode: http.StatusOK},
		{name: "admin", path: "/api/owner/orders/%d/history", token: admin, wantCode: http.StatusOK},
		{name: "unrelated owner", path: "/api/owner/orders/%d/history", token: stranger, wantCode: http.StatusForbidden},
		{name: "customer", path: "/api/customer/orders/%d/history", token: customer, wantCode: http.StatusOK},
		{name: "customer on staff route", path: "/api/owner/orders/%d/history", token: customer, wantCode: http.StatusForbidden},
	}
	for _, testCase := range historyTests {
		t.Run("history "+testCase.name, func(t *testing.T) {
			w := s.do(http.MethodGet, fmt.Sprintf(testCase.path, placed.Order.ID), testCase.token, nil)
			require.Equal(t, testCase.wantCode, w.Code, w.Body.String())
			if testCase.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				History []models.StatusChange `json:"history"`
			}
			decode(t, w, &resp)
			require.Len(t, resp.History, 2)
			assert.Equal(t, string(models.OrderAccepted), resp.History[1].ToStatus)
		})
	}
}
