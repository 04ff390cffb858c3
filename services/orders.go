package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/events"
	"restaurant-platform-api/models"
	"restaurant-platform-api/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderService struct {
	Deps
}

func NewOrderService(deps Deps) *OrderService {
	return &OrderService{Deps: deps.withDefaults()}
}

type PlaceOrderInput struct {
	CartID uint `json:"cart_id" validate:"required"`
	// optional; when given it must be the restaurant the cart's item belongs to
	RestaurantID    *uint  `json:"restaurant_id"`
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
}

// Place turns a cart line into an order. The restaurant is derived from the cart's item;
// the cart is frozen with a guarded update so it can only be ordered once.
func (s *OrderService) Place(ctx context.Context, actor Actor, in PlaceOrderInput) (*models.Order, error) {
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.First(&cart, in.CartID).Error; err != nil || cart.CustomerID != actor.ID {
			if err != nil && !isNotFound(err) {
				return fmt.Errorf("load cart: %w", err)
			}
			return apperr.Reference("cart_id", "cart does not exist")
		}
		if cart.OrderedAt != nil {
			return apperr.Conflict("cart_id", "cart has already been ordered")
		}

		chain, err := resolveItem(tx, cart.ItemID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.Reference("cart_id", "the cart's item no longer exists")
			}
			return err
		}
		restaurantID := chain.Category.RestaurantID
		if in.RestaurantID != nil && *in.RestaurantID != restaurantID {
			return apperr.Consistency("restaurant_id", "does not match the restaurant of the cart's item")
		}
		if _, err := orderable(tx, chain); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Cart{}).
			Where("id = ? AND ordered_at IS NULL", cart.ID).
			Updates(map[string]any{"ordered_at": now, "updated_by": actor.ID})
		if res.Error != nil {
			return fmt.Errorf("freeze cart: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("cart_id", "cart has already been ordered")
		}

		order = models.Order{
			CustomerID:      actor.ID,
			RestaurantID:    restaurantID,
			CartID:          cart.ID,
			Status:          models.OrderNotAccepted,
			UnitPrice:       chain.Item.Price,
			Quantity:        cart.Quantity,
			TotalPrice:      chain.Item.Price * float64(cart.Quantity),
			DeliveryAddress: in.DeliveryAddress,
		}
		order.StampCreated(actor.ID)
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("cart_id", "cart has already been ordered")
			}
			return fmt.Errorf("create order: %w", err)
		}
		return recordStatusChange(tx, models.EntityOrder, order.ID, "", string(models.OrderNotAccepted), actor.ID, "placed")
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.OrderPlaced()
	s.publish(ctx, events.New(events.TypeOrderPlaced, events.RestaurantKey(order.RestaurantID), orderPayload(order)))
	s.Log.Info("order placed", zap.Uint("order_id", order.ID), zapRestaurant(order.RestaurantID), zapActor(actor))
	return &order, nil
}

func orderPayload(o models.Order) events.OrderChanged {
	return events.OrderChanged{
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		CustomerID:   o.CustomerID,
		Status:       string(o.Status),
		TotalPrice:   o.TotalPrice,
	}
}

// Accept moves an order from Not-Accepted to Accepted. Owner, manager or admin.
func (s *OrderService) Accept(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	var order models.Order
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, id).Error; err != nil {
			return notFound(err, "order")
		}
		restaurant, err := loadRestaurant(tx, order.RestaurantID)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}
		from := order.Status
		if err := statemachine.Orders.CanTransition(from, models.OrderAccepted, statemachine.ActorRestaurant); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{
				"status":      models.OrderAccepted,
				"accepted_by": actor.ID,
				"accepted_at": now,
				"updated_by":  actor.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("accept order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("status", fmt.Sprintf("order is no longer %s; reload and retry", from))
		}
		order.Status = models.OrderAccepted
		order.AcceptedByID = models.UserRef(actor.ID)
		order.AcceptedAt = &now
		return recordStatusChange(tx, models.EntityOrder, order.ID, string(from), string(models.OrderAccepted), actor.ID, "")
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.OrderAccepted()
	s.publish(ctx, events.New(events.TypeOrderAccepted, events.RestaurantKey(order.RestaurantID), orderPayload(order)))
	return &order, nil
}

func (s *OrderService) ListForCustomer(ctx context.Context, actor Actor) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Restaurant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Preload("Cart.Item").
		Where("customer_id = ?", actor.ID).
		Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetForCustomer(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Restaurant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "contact_number") }).
		Preload("Cart.Item").
		Where("customer_id = ?", actor.ID).
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order")
	}
	return &order, nil
}

// ListForRestaurant returns a restaurant's orders, optionally filtered by status.
func (s *OrderService) ListForRestaurant(ctx context.Context, actor Actor, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	db := s.DB.WithContext(ctx)
	restaurant, err := loadRestaurant(db, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, restaurant); err != nil {
		return nil, err
	}
	q := db.Preload("Customer").Preload("Cart.Item").Where("restaurant_id = ?", restaurantID).Order("id desc")
	if status != "" {
		if !status.Valid() {
			return nil, apperr.Validation("status", "must be Accepted or Not-Accepted")
		}
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// CustomerHistory returns the status trail of one of the actor's own orders.
func (s *OrderService) CustomerHistory(ctx context.Context, actor Actor, id uint) ([]models.StatusChange, error) {
	if _, err := s.GetForCustomer(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.history(ctx, id)
}

// RestaurantHistory returns the status trail of an order placed with a
// restaurant the actor manages.
func (s *OrderService) RestaurantHistory(ctx context.Context, actor Actor, id uint) ([]models.StatusChange, error) {
	db := s.DB.WithContext(ctx)
	var order models.Order
	if err := db.Select("id", "restaurant_id").First(&order, id).Error; err != nil {
		return nil, notFound(err, "order")
	}
	restaurant, err := loadRestaurant(db, order.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, restaurant); err != nil {
		return nil, err
	}
	return s.history(ctx, id)
}

func (s *OrderService) history(ctx context.Context, id uint) ([]models.StatusChange, error) {
	changes, err := statusHistory(s.DB.WithContext(ctx), models.EntityOrder, id)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	return changes, nil
}
