package services

import (
	"context"
	"fmt"
	"strings"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"gorm.io/gorm"
)

// MenuService manages the Category > SubCategory > Item tree of a restaurant.
type MenuService struct {
	Deps
}

func NewMenuService(deps Deps) *MenuService {
	return &MenuService{Deps: deps.withDefaults()}
}

type MenuNodeInput struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Status      models.MenuStatus `json:"status"`
	Description string            `json:"description" validate:"max=2000"`
	ImagePath   string            `json:"image_path" validate:"max=500"`
}

func (in *MenuNodeInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(*in); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.MenuActive
	}
	return checkMenuStatus(in.Status)
}

func checkMenuStatus(status models.MenuStatus) error {
	if !status.Valid() {
		return apperr.Validation("status", "must be Active or In-Active")
	}
	return nil
}

type ItemInput struct {
	MenuNodeInput
	Price float64 `json:"price" validate:"gte=0"`
}

// MenuNodeUpdate is a partial update of a category, sub-category or item.
type MenuNodeUpdate struct {
	Name        *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Status      *models.MenuStatus `json:"status"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	ImagePath   *string            `json:"image_path" validate:"omitempty,max=500"`
	Price       *float64           `json:"price" validate:"omitempty,gte=0"`
}

func (in MenuNodeUpdate) changes(withImage, withPrice bool) (map[string]any, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name", "must not be blank")
		}
		in.Name = &name
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Status != nil {
		if err := checkMenuStatus(*in.Status); err != nil {
			return nil, err
		}
		updates["status"] = *in.Status
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.ImagePath != nil {
		if !withImage {
			return nil, apperr.Validation("image_path", "sub-categories have no image")
		}
		updates["image_path"] = *in.ImagePath
	}
	if in.Price != nil {
		if !withPrice {
			return nil, apperr.Validation("price", "only items have a price")
		}
		updates["price"] = *in.Price
	}
	return updates, nil
}

// managedRestaurant checks the actor may manage the restaurant owning a menu node.
func managedRestaurant(tx *gorm.DB, actor Actor, restaurantID uint) error {
	restaurant, err := loadRestaurant(tx, restaurantID)
	if err != nil {
		return err
	}
	return canManage(actor, restaurant)
}

func (s *MenuService) CreateCategory(ctx context.Context, actor Actor, restaurantID uint, in MenuNodeInput) (*models.Category, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	category := models.Category{
		RestaurantID: restaurantID,
		Name:         in.Name,
		Status:       in.Status,
		Description:  in.Description,
		ImagePath:    in.ImagePath,
	}
	category.StampCreated(actor.ID)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := managedRestaurant(tx, actor, restaurantID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Reference("restaurant_id", "restaurant does not exist")
			}
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &category, nil
}

func (s *MenuService) UpdateCategory(ctx context.Context, actor Actor, id uint, in MenuNodeUpdate) (*models.Category, error) {
	updates, err := in.changes(true, false)
	if err != nil {
		return nil, err
	}
	var category models.Category
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err, "category")
		}
		if err := managedRestaurant(tx, actor, category.RestaurantID); err != nil {
			return err
		}
		return updateNode(tx, &category, id, updates, actor)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &category, nil
}

func updateNode(tx *gorm.DB, node any, id uint, updates map[string]any, actor Actor) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_by"] = actor.ID
	if err := tx.Model(node).Updates(updates).Error; err != nil {
		return fmt.Errorf("update menu: %w", err)
	}
	return tx.First(node, id).Error
}

func (s *MenuService) CreateSubCategory(ctx context.Context, actor Actor, categoryID uint, in MenuNodeInput) (*models.SubCategory, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.ImagePath != "" {
		return nil, apperr.Validation("image_path", "sub-categories have no image")
	}
	sub := models.SubCategory{
		CategoryID:  categoryID,
		Name:        in.Name,
		Status:      in.Status,
		Description: in.Description,
	}
	sub.StampCreated(actor.ID)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, categoryID).Error; err != nil {
			return missingRef(err, "category_id", "category")
		}
		if err := managedRestaurant(tx, actor, category.RestaurantID); err != nil {
			return err
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("create sub-category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &sub, nil
}

func (s *MenuService) UpdateSubCategory(ctx context.Context, actor Actor, id uint, in MenuNodeUpdate) (*models.SubCategory, error) {
	updates, err := in.changes(false, false)
	if err != nil {
		return nil, err
	}
	var sub models.SubCategory
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&sub, id).Error; err != nil {
			return notFound(err, "sub-category")
		}
		var category models.Category
		if err := tx.First(&category, sub.CategoryID).Error; err != nil {
			return notFound(err, "category")
		}
		if err := managedRestaurant(tx, actor, category.RestaurantID); err != nil {
			return err
		}
		return updateNode(tx, &sub, id, updates, actor)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &sub, nil
}

func (s *MenuService) CreateItem(ctx context.Context, actor Actor, subCategoryID uint, in ItemInput) (*models.Item, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	item := models.Item{
		SubCategoryID: subCategoryID,
		Name:          in.Name,
		Price:         in.Price,
		Status:        in.Status,
		Description:   in.Description,
		ImagePath:     in.ImagePath,
	}
	item.StampCreated(actor.ID)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var sub models.SubCategory
		if err := tx.First(&sub, subCategoryID).Error; err != nil {
			return missingRef(err, "sub_category_id", "sub-category")
		}
		var category models.Category
		if err := tx.First(&category, sub.CategoryID).Error; err != nil {
			return missingRef(err, "sub_category_id", "category")
		}
		if err := managedRestaurant(tx, actor, category.RestaurantID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &item, nil
}

func (s *MenuService) UpdateItem(ctx context.Context, actor Actor, id uint, in MenuNodeUpdate) (*models.Item, error) {
	updates, err := in.changes(true, true)
	if err != nil {
		return nil, err
	}
	var item models.Item
	err = s.tx(ctx, func(tx *gorm.DB) error {
		chain, err := resolveItem(tx, id)
		if err != nil {
			return err
		}
		if err := managedRestaurant(tx, actor, chain.Category.RestaurantID); err != nil {
			return err
		}
		item = chain.Item
		return updateNode(tx, &item, id, updates, actor)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateListing(ctx)
	return &item, nil
}

func (s *MenuService) DeleteItem(ctx context.Context, actor Actor, id uint) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		chain, err := resolveItem(tx, id)
		if err != nil {
			return err
		}
		if err := managedRestaurant(tx, actor, chain.Category.RestaurantID); err != nil {
			return err
		}
		if err := softDelete(tx, &chain.Item, actor.ID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateListing(ctx)
	return nil
}

// ListCategories is the owner view: every category, sub-category and item regardless
// of status.
func (s *MenuService) ListCategories(ctx context.Context, actor Actor, restaurantID uint) ([]models.Category, error) {
	db := s.DB.WithContext(ctx)
	if err := managedRestaurant(db, actor, restaurantID); err != nil {
		return nil, err
	}
	var categories []models.Category
	err := db.Where("restaurant_id = ?", restaurantID).
		Preload("SubCategories").
		Preload("SubCategories.Items").
		Order("id asc").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// PublicMenu returns what customers see: Active categories, their Active sub-categories
// and those sub-categories' Active items, for a listed restaurant only.
func (s *MenuService) PublicMenu(ctx context.Context, restaurantID uint) ([]models.Category, error) {
	db := s.DB.WithContext(ctx)
	var restaurant models.Restaurant
	if err := db.First(&restaurant, restaurantID).Error; err != nil {
		return nil, notFound(err, "restaurant")
	}
	if !restaurant.Listed() {
		return nil, apperr.NotFound("restaurant")
	}
	active := func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ?", models.MenuActive).Order("id asc")
	}
	var categories []models.Category
	err := db.Where("restaurant_id = ? AND status = ?", restaurantID, models.MenuActive).
		Preload("SubCategories", active).
		Preload("SubCategories.Items", active).
		Order("id asc").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	return categories, nil
}

// itemChain is an item with its ancestors.
type itemChain struct {
	Item        models.Item
	SubCategory models.SubCategory
	Category    models.Category
}

func (c itemChain) Visible() bool {
	return models.ItemVisible(c.Item, c.SubCategory, c.Category)
}

func resolveItem(tx *gorm.DB, itemID uint) (*itemChain, error) {
	var chain itemChain
	if err := tx.First(&chain.Item, itemID).Error; err != nil {
		return nil, notFound(err, "item")
	}
	if err := tx.First(&chain.SubCategory, chain.Item.SubCategoryID).Error; err != nil {
		return nil, notFound(err, "sub-category")
	}
	if err := tx.First(&chain.Category, chain.SubCategory.CategoryID).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &chain, nil
}
