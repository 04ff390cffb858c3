package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"restaurant-platform-api/cache"
	"restaurant-platform-api/config"
	"restaurant-platform-api/filestore"
	"restaurant-platform-api/handlers"
	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"
	"restaurant-platform-api/routes"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBaseURL = "https://eats.example.com"

// memoryListing is an in-process listing cache with the same versioned keys
// as the redis one.
type memoryListing struct {
	mu      sync.Mutex
	version int
	entries map[string][]byte
}

func (m *memoryListing) Get(_ context.Context, query string) (cache.Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("v%d:%s", m.version, query)
	body, ok := m.entries[key]
	return cache.Lookup{Key: key, Body: body, Hit: ok}, nil
}

func (m *memoryListing) Set(_ context.Context, lookup cache.Lookup, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[lookup.Key] = body
	return nil
}

func (m *memoryListing) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	return nil
}

type testServer struct {
	t      *testing.T
	h      *handlers.Handler
	router *gin.Engine
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	deps := services.Deps{
		DB:      newTestDB(t),
		Listing: &memoryListing{entries: map[string][]byte{}},
		Files:   filestore.NewLocalStore(t.TempDir()),
	}
	h := handlers.New(deps, middleware.NewJWT([]byte("test-secret"), time.Hour), testBaseURL, 1<<20)
	r := gin.New()
	routes.SetupRoutes(r, h)
	return &testServer{t: t, h: h, router: r}
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

// signup registers through the public endpoint and returns the issued token.
func (s *testServer) signup(name string, role models.UserRole) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "secret123",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, w, &resp)
	return resp.Token
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	admin, err := s.h.Users.CreateSuperuser(context.Background(), services.CreateUserInput{
		Name: "Root", Email: "root@example.com", Password: "secret123",
	})
	require.NoError(s.t, err)
	token, err := s.h.JWT.GenerateToken(admin)
	require.NoError(s.t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

type idBody struct {
	ID uint `json:"id"`
}

func (s *testServer) createRestaurant(token, name string) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/owner/restaurants", token, gin.H{
		"name":           name,
		"contact_number": "9876543210",
		"cuisine":        "Indian",
		"food_type":      models.FoodVegetarian,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Restaurant idBody `json:"restaurant"`
	}
	decode(s.t, w, &resp)
	return resp.Restaurant.ID
}

func (s *testServer) pendingRequestID(admin string, restaurantID uint) uint {
	s.t.Helper()
	w := s.do(http.MethodGet, "/api/admin/requests?status=PENDING", admin, nil)
	require.Equal(s.t, http.StatusOK, w.Code)
	var resp struct {
		Requests []models.RestaurantRequest `json:"requests"`
	}
	decode(s.t, w, &resp)
	for _, r := range resp.Requests {
		if r.RestaurantID == restaurantID {
			return r.ID
		}
	}
	s.t.Fatalf("no pending request for restaurant %d", restaurantID)
	return 0
}

func (s *testServer) moveRequest(admin string, requestID uint, status models.RequestStatus, reason string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPut, fmt.Sprintf("/api/admin/requests/%d/status", requestID), admin,
		gin.H{"status": status, "reason": reason})
}

func (s *testServer) approve(admin string, restaurantID uint) {
	s.t.Helper()
	id := s.pendingRequestID(admin, restaurantID)
	require.Equal(s.t, http.StatusOK, s.moveRequest(admin, id, models.RequestInReview, "").Code)
	require.Equal(s.t, http.StatusOK, s.moveRequest(admin, id, models.RequestApproved, "").Code)
}
