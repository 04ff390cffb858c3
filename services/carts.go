package services

import (
	"context"
	"fmt"
	"strings"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartService struct {
	Deps
}

func NewCartService(deps Deps) *CartService {
	return &CartService{Deps: deps.withDefaults()}
}

type AddToCartInput struct {
	ItemID        uint   `json:"item_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gt=0,lte=100"`
	Customization string `json:"customization" validate:"max=500"`
}

// orderable checks an item can be put in a cart or ordered: the item and its ancestors
// are Active and the restaurant is listed.
func orderable(tx *gorm.DB, chain *itemChain) (*models.Restaurant, error) {
	if !chain.Visible() {
		return nil, apperr.Validation("item_id", fmt.Sprintf("%s is not available", chain.Item.Name))
	}
	var restaurant models.Restaurant
	if err := tx.First(&restaurant, chain.Category.RestaurantID).Error; err != nil {
		return nil, missingRef(err, "item_id", "restaurant")
	}
	if !restaurant.Listed() {
		return nil, apperr.Validation("item_id", fmt.Sprintf("%s is not taking orders", restaurant.Name))
	}
	return &restaurant, nil
}

func (s *CartService) Add(ctx context.Context, actor Actor, in AddToCartInput) (*models.Cart, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	cart := models.Cart{
		CustomerID:    actor.ID,
		ItemID:        in.ItemID,
		Quantity:      in.Quantity,
		Customization: strings.TrimSpace(in.Customization),
	}
	cart.StampCreated(actor.ID)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		chain, err := resolveItem(tx, in.ItemID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Reference("item_id", "item does not exist")
			}
			return err
		}
		if _, err := orderable(tx, chain); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&cart).Error; err != nil {
			return fmt.Errorf("create cart: %w", err)
		}
		cart.Item = &chain.Item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

type UpdateCartInput struct {
	Quantity      *int    `json:"quantity" validate:"omitempty,gt=0,lte=100"`
	Customization *string `json:"customization" validate:"omitempty,max=500"`
}

// Update changes an un-ordered cart line. Ordered carts are frozen.
func (s *CartService) Update(ctx context.Context, actor Actor, id uint, in UpdateCartInput) (*models.Cart, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	updates := map[string]any{"updated_by": actor.ID}
	if in.Quantity != nil {
		updates["quantity"] = *in.Quantity
	}
	if in.Customization != nil {
		updates["customization"] = strings.TrimSpace(*in.Customization)
	}
	var cart models.Cart
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.ownCart(tx, actor, id, &cart); err != nil {
			return err
		}
		res := tx.Model(&models.Cart{}).Where("id = ? AND ordered_at IS NULL", id).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update cart: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("cart_id", "cart has already been ordered")
		}
		return tx.First(&cart, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *CartService) Remove(ctx context.Context, actor Actor, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		var cart models.Cart
		if err := s.ownCart(tx, actor, id, &cart); err != nil {
			return err
		}
		if cart.OrderedAt != nil {
			return apperr.Conflict("cart_id", "cart has already been ordered")
		}
		if err := softDelete(tx, &cart, actor.ID); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	})
}

func (s *CartService) ownCart(tx *gorm.DB, actor Actor, id uint, cart *models.Cart) error {
	if err := tx.First(cart, id).Error; err != nil {
		return notFound(err, "cart")
	}
	if cart.CustomerID != actor.ID {
		// other customers' carts do not exist for this caller
		return apperr.NotFound("cart")
	}
	return nil
}

// List returns the actor's un-ordered cart lines with their items.
func (s *CartService) List(ctx context.Context, actor Actor) ([]models.Cart, error) {
	var carts []models.Cart
	err := s.DB.WithContext(ctx).
		Preload("Item").
		Where("customer_id = ? AND ordered_at IS NULL", actor.ID).
		Order("id asc").
		Find(&carts).Error
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	return carts, nil
}
