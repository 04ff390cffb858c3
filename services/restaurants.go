package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RestaurantService struct {
	Deps
}

func NewRestaurantService(deps Deps) *RestaurantService {
	return &RestaurantService{Deps: deps.withDefaults()}
}

type LocationInput struct {
	Address   string   `json:"address" validate:"required,max=500"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (in LocationInput) check() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return apperr.Validation("latitude", "latitude and longitude must be given together")
	}
	return nil
}

type RegisterRestaurantInput struct {
	Name               string          `json:"name" validate:"required,max=255"`
	ContactNumber      string          `json:"contact_number" validate:"required,max=20"`
	Outlet             models.Outlet   `json:"outlet"`
	Cuisine            string          `json:"cuisine" validate:"max=100"`
	FoodType           models.FoodType `json:"food_type" validate:"required"`
	InvoicingEmail     string          `json:"invoicing_email" validate:"omitempty,email"`
	OwnerName          string          `json:"owner_name" validate:"max=255"`
	OwnerEmail         string          `json:"owner_email" validate:"omitempty,email"`
	IsOpen             *bool           `json:"is_open"`
	LicenseNumber      string          `json:"license_number" validate:"max=50"`
	LicenseExpiresOn   *time.Time      `json:"license_expires_on"`
	BankAccountNumber  string          `json:"bank_account_number" validate:"max=34"`
	BankIFSCCode       string          `json:"bank_ifsc_code" validate:"omitempty,len=11,alphanum"`
	ParentRestaurantID *uint           `json:"parent_restaurant_id"`
	Location           *LocationInput  `json:"location"`
}

func checkEnums(outlet *models.Outlet, food *models.FoodType) error {
	if outlet != nil && *outlet != "" && !outlet.Valid() {
		return apperr.Validation("outlet", fmt.Sprintf("unknown outlet %q", *outlet))
	}
	if food != nil && !food.Valid() {
		return apperr.Validation("food_type", "must be one of VEGETARIAN, NON_VEGETARIAN, BOTH")
	}
	return nil
}

// canRegister lists the roles allowed to onboard a restaurant. A customer becomes an
// owner once the first request is approved.
func canRegister(role models.UserRole) bool {
	switch role {
	case models.RoleOwner, models.RoleCustomer, models.RoleManager, models.RoleAdmin:
		return true
	case models.RoleRider:
		return false
	}
	return false
}

// Register creates a restaurant together with its first PENDING approval request.
func (s *RestaurantService) Register(ctx context.Context, actor Actor, in RegisterRestaurantInput) (*models.Restaurant, error) {
	if !canRegister(actor.Role) {
		return nil, apperr.Forbidden(fmt.Sprintf("role %s cannot register restaurants", actor.Role))
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkEnums(&in.Outlet, &in.FoodType); err != nil {
		return nil, err
	}
	if in.Location != nil {
		if err := in.Location.check(); err != nil {
			return nil, err
		}
	}

	restaurant := models.Restaurant{
		OwnerID:            actor.ID,
		Name:               in.Name,
		ContactNumber:      in.ContactNumber,
		Outlet:             in.Outlet,
		Cuisine:            in.Cuisine,
		FoodType:           in.FoodType,
		InvoicingEmail:     in.InvoicingEmail,
		OwnerName:          in.OwnerName,
		OwnerEmail:         in.OwnerEmail,
		IsOpen:             in.IsOpen == nil || *in.IsOpen,
		LicenseNumber:      in.LicenseNumber,
		LicenseExpiresOn:   in.LicenseExpiresOn,
		BankAccountNumber:  in.BankAccountNumber,
		BankIFSCCode:       strings.ToUpper(in.BankIFSCCode),
		ApprovalStatus:     models.RequestPending,
		ParentRestaurantID: in.ParentRestaurantID,
	}
	restaurant.StampCreated(actor.ID)

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if in.ParentRestaurantID != nil {
			parent, err := loadRestaurant(tx, *in.ParentRestaurantID)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return apperr.Reference("parent_restaurant_id", "parent restaurant does not exist")
				}
				return err
			}
			if err := canOwn(actor, parent); err != nil {
				return err
			}
		}
		if in.Location != nil {
			loc := newLocation(*in.Location, actor.ID)
			if err := tx.Create(&loc).Error; err != nil {
				return fmt.Errorf("create location: %w", err)
			}
			restaurant.LocationID = &loc.ID
			restaurant.Location = &loc
		}
		if err := tx.Omit(clause.Associations).Create(&restaurant).Error; err != nil {
			return fmt.Errorf("create restaurant: %w", err)
		}

		request := models.RestaurantRequest{RestaurantID: restaurant.ID, Status: models.RequestPending}
		request.StampCreated(actor.ID)
		if err := tx.Omit(clause.Associations).Create(&request).Error; err != nil {
			return fmt.Errorf("create restaurant request: %w", err)
		}
		restaurant.Requests = []models.RestaurantRequest{request}
		return recordStatusChange(tx, models.EntityRestaurantRequest, request.ID, "", string(models.RequestPending), actor.ID, "submitted")
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("restaurant registered", zapRestaurant(restaurant.ID), zapActor(actor))
	return &restaurant, nil
}

func newLocation(in LocationInput, actorID uint) models.Location {
	loc := models.Location{Address: strings.TrimSpace(in.Address), Latitude: in.Latitude, Longitude: in.Longitude}
	loc.StampCreated(actorID)
	return loc
}

// UpdateRestaurantInput is a partial update; nil fields are left unchanged.
type UpdateRestaurantInput struct {
	Name              *string          `json:"name" validate:"omitempty,min=1,max=255"`
	ContactNumber     *string          `json:"contact_number" validate:"omitempty,min=1,max=20"`
	Outlet            *models.Outlet   `json:"outlet"`
	Cuisine           *string          `json:"cuisine" validate:"omitempty,max=100"`
	FoodType          *models.FoodType `json:"food_type"`
	InvoicingEmail    *string          `json:"invoicing_email" validate:"omitempty,email"`
	OwnerName         *string          `json:"owner_name" validate:"omitempty,max=255"`
	OwnerEmail        *string          `json:"owner_email" validate:"omitempty,email"`
	IsOpen            *bool            `json:"is_open"`
	LicenseNumber     *string          `json:"license_number" validate:"omitempty,max=50"`
	LicenseExpiresOn  *time.Time       `json:"license_expires_on"`
	BankAccountNumber *string          `json:"bank_account_number" validate:"omitempty,max=34"`
	BankIFSCCode      *string          `json:"bank_ifsc_code" validate:"omitempty,len=11,alphanum"`
}

// normalize trims the text fields; a name or contact number that trims to
// nothing is rejected rather than saved blank.
func (in *UpdateRestaurantInput) normalize() error {
	for _, field := range []**string{
		&in.Name, &in.ContactNumber, &in.Cuisine, &in.InvoicingEmail, &in.OwnerName,
		&in.OwnerEmail, &in.LicenseNumber, &in.BankAccountNumber, &in.BankIFSCCode,
	} {
		if *field != nil {
			trimmed := strings.TrimSpace(**field)
			*field = &trimmed
		}
	}
	if in.Name != nil && *in.Name == "" {
		return apperr.Validation("name", "must not be blank")
	}
	if in.ContactNumber != nil && *in.ContactNumber == "" {
		return apperr.Validation("contact_number", "must not be blank")
	}
	return nil
}

func (in UpdateRestaurantInput) changes() map[string]any {
	updates := map[string]any{}
	set := func(col string, ok bool, v any) {
		if ok {
			updates[col] = v
		}
	}
	set("name", in.Name != nil, deref(in.Name))
	set("contact_number", in.ContactNumber != nil, deref(in.ContactNumber))
	set("cuisine", in.Cuisine != nil, deref(in.Cuisine))
	set("invoicing_email", in.InvoicingEmail != nil, deref(in.InvoicingEmail))
	set("owner_name", in.OwnerName != nil, deref(in.OwnerName))
	set("owner_email", in.OwnerEmail != nil, deref(in.OwnerEmail))
	set("license_number", in.LicenseNumber != nil, deref(in.LicenseNumber))
	set("bank_account_number", in.BankAccountNumber != nil, deref(in.BankAccountNumber))
	set("bank_ifsc_code", in.BankIFSCCode != nil, strings.ToUpper(deref(in.BankIFSCCode)))
	if in.Outlet != nil {
		updates["outlet"] = *in.Outlet
	}
	if in.FoodType != nil {
		updates["food_type"] = *in.FoodType
	}
	if in.IsOpen != nil {
		updates["is_open"] = *in.IsOpen
	}
	if in.LicenseExpiresOn != nil {
		updates["license_expires_on"] = *in.LicenseExpiresOn
	}
	return updates
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Update patches profile fields. Owner, manager or admin.
func (s *RestaurantService) Update(ctx context.Context, actor Actor, id uint, in UpdateRestaurantInput) (*models.Restaurant, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkEnums(in.Outlet, in.FoodType); err != nil {
		return nil, err
	}
	var restaurant *models.Restaurant
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		restaurant, err = loadRestaurant(tx, id)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}
		updates := in.changes()
		if len(updates) == 0 {
			return nil
		}
		updates["updated_by"] = actor.ID
		if err := tx.Model(restaurant).Updates(updates).Error; err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		return tx.First(restaurant, id).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return restaurant, nil
}

// SetParent makes parentID the parent of the restaurant, or clears it when parentID is nil.
// A restaurant can be neither its own parent nor a child of one of its branches.
func (s *RestaurantService) SetParent(ctx context.Context, actor Actor, id uint, parentID *uint) (*models.Restaurant, error) {
	var restaurant *models.Restaurant
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		restaurant, err = loadRestaurant(tx, id)
		if err != nil {
			return err
		}
		if err := canOwn(actor, restaurant); err != nil {
			return err
		}
		if parentID != nil {
			if err := checkParent(tx, actor, id, *parentID); err != nil {
				return err
			}
		}
		var value any
		if parentID != nil {
			value = *parentID
		}
		if err := tx.Model(restaurant).Updates(map[string]any{"parent_restaurant_id": value, "updated_by": actor.ID}).Error; err != nil {
			return fmt.Errorf("set parent: %w", err)
		}
		restaurant.ParentRestaurantID = parentID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return restaurant, nil
}

func checkParent(tx *gorm.DB, actor Actor, id, parentID uint) error {
	if parentID == id {
		return apperr.Consistency("parent_restaurant_id", "a restaurant cannot be its own parent")
	}
	parent, err := loadRestaurant(tx, parentID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Reference("parent_restaurant_id", "parent restaurant does not exist")
		}
		return err
	}
	if err := canOwn(actor, parent); err != nil {
		return err
	}

	seen := map[uint]bool{parent.ID: true}
	next := parent.ParentRestaurantID
	for next != nil {
		if *next == id {
			return apperr.Consistency("parent_restaurant_id", "the proposed parent is a branch of this restaurant")
		}
		if seen[*next] {
			return apperr.Consistency("parent_restaurant_id", "the proposed parent's chain contains a cycle")
		}
		seen[*next] = true

		var ancestor models.Restaurant
		err := tx.Select("id", "parent_restaurant_id").First(&ancestor, *next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("walk parent chain: %w", err)
		}
		next = ancestor.ParentRestaurantID
	}
	return nil
}

// Delete soft-deletes the restaurant. Its branches are detached and stay live.
func (s *RestaurantService) Delete(ctx context.Context, actor Actor, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, id)
		if err != nil {
			return err
		}
		if err := canOwn(actor, restaurant); err != nil {
			return err
		}
		err = tx.Model(&models.Restaurant{}).
			Where("parent_restaurant_id = ?", id).
			Updates(map[string]any{"parent_restaurant_id": nil, "updated_by": actor.ID}).Error
		if err != nil {
			return fmt.Errorf("detach branches: %w", err)
		}
		if err := softDelete(tx, restaurant, actor.ID); err != nil {
			return fmt.Errorf("delete restaurant: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Log.Info("restaurant deleted", zapRestaurant(id), zapActor(actor))
	s.invalidateListing(ctx)
	return nil
}

// SetLocation replaces the restaurant's address and coordinates.
func (s *RestaurantService) SetLocation(ctx context.Context, actor Actor, id uint, in LocationInput) (*models.Location, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	var loc models.Location
	err := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, id)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}
		if restaurant.LocationID != nil {
			err := tx.First(&loc, *restaurant.LocationID).Error
			if err == nil {
				loc.Address = strings.TrimSpace(in.Address)
				loc.Latitude, loc.Longitude = in.Latitude, in.Longitude
				loc.UpdatedByID = models.UserRef(actor.ID)
				return tx.Save(&loc).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load location: %w", err)
			}
		}
		loc = newLocation(in, actor.ID)
		if err := tx.Create(&loc).Error; err != nil {
			return fmt.Errorf("create location: %w", err)
		}
		return tx.Model(restaurant).Updates(map[string]any{"location_id": loc.ID, "updated_by": actor.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &loc, nil
}

// AssignManager sets or clears the restaurant manager. A CUSTOMER account is promoted
// to MANAGER.
func (s *RestaurantService) AssignManager(ctx context.Context, actor Actor, id uint, userID *uint) (*models.Restaurant, error) {
	var restaurant *models.Restaurant
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		restaurant, err = loadRestaurant(tx, id)
		if err != nil {
			return err
		}
		if err := canOwn(actor, restaurant); err != nil {
			return err
		}
		if userID == nil {
			restaurant.ManagerID = nil
			return tx.Model(restaurant).Updates(map[string]any{"manager_id": nil, "updated_by": actor.ID}).Error
		}

		var manager models.User
		if err := tx.First(&manager, *userID).Error; err != nil {
			return missingRef(err, "manager_id", "user")
		}
		if !manager.IsActive {
			return apperr.Validation("manager_id", "user is not active")
		}
		switch manager.Role {
		case models.RoleCustomer:
			err := tx.Model(&manager).Updates(map[string]any{"role": models.RoleManager, "updated_by": actor.ID}).Error
			if err != nil {
				return fmt.Errorf("promote manager: %w", err)
			}
		case models.RoleManager, models.RoleOwner, models.RoleAdmin:
		case models.RoleRider:
			return apperr.Validation("manager_id", "riders cannot manage restaurants")
		}
		restaurant.ManagerID = userID
		return tx.Model(restaurant).Updates(map[string]any{"manager_id": *userID, "updated_by": actor.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

// Get returns the full owner view of a restaurant.
func (s *RestaurantService) Get(ctx context.Context, actor Actor, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.DB.WithContext(ctx).
		Preload("Location").
		Preload("Manager").
		Preload("Documents").
		Preload("Assets").
		Preload("Requests", func(db *gorm.DB) *gorm.DB { return db.Order("id desc") }).
		First(&restaurant, id).Error
	if err != nil {
		return nil, notFound(err, "restaurant")
	}
	if err := canManage(actor, &restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// ListMine returns the restaurants the actor owns or manages.
func (s *RestaurantService) ListMine(ctx context.Context, actor Actor) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? OR manager_id = ?", actor.ID, actor.ID).
		Order("id asc").
		Find(&restaurants).Error
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

func (s *RestaurantService) ListBranches(ctx context.Context, actor Actor, id uint) ([]models.Restaurant, error) {
	db := s.DB.WithContext(ctx)
	restaurant, err := loadRestaurant(db, id)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, restaurant); err != nil {
		return nil, err
	}
	var branches []models.Restaurant
	if err := db.Where("parent_restaurant_id = ?", id).Order("id asc").Find(&branches).Error; err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// ListAll is the admin view, optionally filtered by approval status.
func (s *RestaurantService) ListAll(ctx context.Context, status models.RequestStatus) ([]models.Restaurant, error) {
	q := s.DB.WithContext(ctx).Preload("Owner").Order("id asc")
	if status != "" {
		if !status.Valid() {
			return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", status))
		}
		q = q.Where("approval_status = ?", status)
	}
	var restaurants []models.Restaurant
	if err := q.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

// ListingFilter narrows the public listing.
type ListingFilter struct {
	Cuisine  string          `form:"cuisine"`
	FoodType models.FoodType `form:"food_type"`
	Search   string          `form:"search"`
}

// CacheKey is a stable representation of the filter for the listing cache.
func (f ListingFilter) CacheKey() string {
	return fmt.Sprintf("cuisine=%s&food_type=%s&search=%s",
		strings.ToLower(strings.TrimSpace(f.Cuisine)), f.FoodType, strings.ToLower(strings.TrimSpace(f.Search)))
}

func listed(db *gorm.DB) *gorm.DB {
	return db.Where("approval_status = ? AND is_open = ?", models.RequestApproved, true)
}

// ListListed returns the restaurants customers can see.
func (s *RestaurantService) ListListed(ctx context.Context, f ListingFilter) ([]models.PublicRestaurant, error) {
	q := listed(s.DB.WithContext(ctx)).Preload("Location").Order("name asc")
	if c := strings.TrimSpace(f.Cuisine); c != "" {
		q = q.Where("LOWER(cuisine) = ?", strings.ToLower(c))
	}
	if f.FoodType != "" {
		if !f.FoodType.Valid() {
			return nil, apperr.Validation("food_type", "must be one of VEGETARIAN, NON_VEGETARIAN, BOTH")
		}
		q = q.Where("food_type = ?", f.FoodType)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	var restaurants []models.Restaurant
	if err := q.Find(&restaurants).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	out := make([]models.PublicRestaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, r.Public())
	}
	return out, nil
}

// ListedRestaurant is a listed restaurant with its listed branches.
type ListedRestaurant struct {
	models.PublicRestaurant
	Branches []models.PublicRestaurant `json:"branches"`
}

func (s *RestaurantService) GetListed(ctx context.Context, id uint) (*ListedRestaurant, error) {
	db := s.DB.WithContext(ctx)
	var restaurant models.Restaurant
	if err := listed(db).Preload("Location").First(&restaurant, id).Error; err != nil {
		return nil, notFound(err, "restaurant")
	}
	var branches []models.Restaurant
	if err := listed(db).Where("parent_restaurant_id = ?", id).Order("name asc").Find(&branches).Error; err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	out := &ListedRestaurant{PublicRestaurant: restaurant.Public(), Branches: make([]models.PublicRestaurant, 0, len(branches))}
	for _, b := range branches {
		out.Branches = append(out.Branches, b.Public())
	}
	return out, nil
}
