package services

import (
	"context"
	"fmt"
	"testing"

	"restaurant-platform-api/config"
	"restaurant-platform-api/filestore"
	"restaurant-platform-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

type recorder struct {
	transitions []string
	placed      int
	accepted    int
}

func (r *recorder) RequestTransitioned(to string) { r.transitions = append(r.transitions, to) }
func (r *recorder) OrderPlaced()                  { r.placed++ }
func (r *recorder) OrderAccepted()                { r.accepted++ }

type fixture struct {
	t           *testing.T
	ctx         context.Context
	db          *gorm.DB
	metrics     *recorder
	mediaRoot   string
	users       *UserService
	restaurants *RestaurantService
	approval    *ApprovalService
	documents   *DocumentService
	menu        *MenuService
	carts       *CartService
	orders      *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	root := t.TempDir()
	rec := &recorder{}
	deps := Deps{DB: db, Metrics: rec, Files: filestore.NewLocalStore(root)}

	users := NewUserService(deps)
	users.cost = bcrypt.MinCost
	return &fixture{
		t:           t,
		ctx:         context.Background(),
		db:          db,
		metrics:     rec,
		mediaRoot:   root,
		users:       users,
		restaurants: NewRestaurantService(deps),
		approval:    NewApprovalService(deps),
		documents:   NewDocumentService(deps),
		menu:        NewMenuService(deps),
		carts:       NewCartService(deps),
		orders:      NewOrderService(deps),
	}
}

func (f *fixture) user(role models.UserRole) Actor {
	f.t.Helper()
	u := models.User{
		Name:         string(role) + " user",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(f.t, f.db.Create(&u).Error)
	return Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) register(owner Actor, name string) *models.Restaurant {
	f.t.Helper()
	r, err := f.restaurants.Register(f.ctx, owner, RegisterRestaurantInput{
		Name:          name,
		ContactNumber: "9876543210",
		Cuisine:       "Indian",
		FoodType:      models.FoodBoth,
	})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) latestRequest(restaurantID uint) models.RestaurantRequest {
	f.t.Helper()
	var req models.RestaurantRequest
	require.NoError(f.t, f.db.Where("restaurant_id = ?", restaurantID).Order("id desc").First(&req).Error)
	return req
}

func (f *fixture) approve(admin Actor, restaurantID uint) {
	f.t.Helper()
	req := f.latestRequest(restaurantID)
	_, err := f.approval.Transition(f.ctx, admin, req.ID, models.RequestInReview, "")
	require.NoError(f.t, err)
	_, err = f.approval.Transition(f.ctx, admin, req.ID, models.RequestApproved, "")
	require.NoError(f.t, err)
}

func (f *fixture) reload(id uint) models.Restaurant {
	f.t.Helper()
	var r models.Restaurant
	require.NoError(f.t, f.db.Unscoped().First(&r, id).Error)
	return r
}

// menuItem builds Category > SubCategory > Item with the given statuses.
func (f *fixture) menuItem(owner Actor, restaurantID uint, cat, sub, item models.MenuStatus) *models.Item {
	f.t.Helper()
	c, err := f.menu.CreateCategory(f.ctx, owner, restaurantID, MenuNodeInput{Name: "Beverages", Status: cat})
	require.NoError(f.t, err)
	s, err := f.menu.CreateSubCategory(f.ctx, owner, c.ID, MenuNodeInput{Name: "Cold", Status: sub})
	require.NoError(f.t, err)
	i, err := f.menu.CreateItem(f.ctx, owner, s.ID, ItemInput{MenuNodeInput: MenuNodeInput{Name: "Iced Tea", Status: item}, Price: 120})
	require.NoError(f.t, err)
	return i
}

// openListedRestaurant returns an approved, open restaurant with one visible item.
func (f *fixture) openListedRestaurant() (owner, admin Actor, r *models.Restaurant, item *models.Item) {
	f.t.Helper()
	owner = f.user(models.RoleOwner)
	admin = f.user(models.RoleAdmin)
	r = f.register(owner, "Spice Route")
	f.approve(admin, r.ID)
	item = f.menuItem(owner, r.ID, models.MenuActive, models.MenuActive, models.MenuActive)
	return owner, admin, r, item
}
