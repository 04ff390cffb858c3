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

// ApprovalService runs the restaurant onboarding workflow.
type ApprovalService struct {
	Deps
}

func NewApprovalService(deps Deps) *ApprovalService {
	return &ApprovalService{Deps: deps.withDefaults()}
}

// Transition moves a request to status to. Only admins review, only the latest request of
// a restaurant can move, and declining needs a reason. The restaurant's approval status
// follows the request in the same transaction.
func (s *ApprovalService) Transition(ctx context.Context, actor Actor, requestID uint, to models.RequestStatus, reason string) (*models.RestaurantRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins can review restaurant requests")
	}
	if !to.Valid() {
		return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", to))
	}
	reason = strings.TrimSpace(reason)
	if to == models.RequestDeclined && reason == "" {
		return nil, apperr.Validation("reason", "a reason is required to decline a request")
	}

	var (
		request models.RestaurantRequest
		from    models.RequestStatus
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&request, requestID).Error; err != nil {
			return notFound(err, "restaurant request")
		}
		from = request.Status
		latest, err := latestRequest(tx, request.RestaurantID)
		if err != nil {
			return err
		}
		if latest.ID != request.ID {
			return apperr.Conflict("request_id", "only the latest request of a restaurant can change status")
		}
		return s.apply(tx, actor, &request, to, reason)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RequestTransitioned(string(to))
	s.publish(ctx, events.New(events.TypeRequestStatusChanged, events.RestaurantKey(request.RestaurantID), events.RequestStatusChanged{
		RequestID:    request.ID,
		RestaurantID: request.RestaurantID,
		From:         string(from),
		To:           string(to),
		Reason:       request.Reason,
		ChangedBy:    actor.ID,
	}))
	s.invalidateListing(ctx)
	s.Log.Info("restaurant request transitioned",
		zap.Uint("request_id", request.ID),
		zapRestaurant(request.RestaurantID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zapActor(actor))
	return &request, nil
}

// apply writes the transition for a request as loaded by the caller. Both updates are
// guarded by the status the caller saw; if another reviewer moved first nothing matches
// and the transition fails with a conflict.
func (s *ApprovalService) apply(tx *gorm.DB, actor Actor, request *models.RestaurantRequest, to models.RequestStatus, reason string) error {
	from := request.Status
	if err := statemachine.Approval.CanTransition(from, to, statemachine.ActorAdmin); err != nil {
		return err
	}

	var restaurant models.Restaurant
	if err := tx.Select("id", "owner_id").First(&restaurant, request.RestaurantID).Error; err != nil {
		return notFound(err, "restaurant")
	}

	now := time.Now()
	updates := map[string]any{"status": to, "updated_by": actor.ID}
	switch to {
	case models.RequestInReview:
	case models.RequestApproved, models.RequestDeclined:
		updates["reviewed_by"] = actor.ID
		updates["reviewed_at"] = now
		updates["reason"] = reason
	case models.RequestPending:
		return apperr.Validation("status", "requests cannot return to PENDING; resubmit instead")
	}

	res := tx.Model(&models.RestaurantRequest{}).
		Where("id = ? AND status = ?", request.ID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update restaurant request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("status", fmt.Sprintf("request is no longer %s; reload and retry", from))
	}

	res = tx.Model(&models.Restaurant{}).
		Where("id = ? AND approval_status = ?", restaurant.ID, from).
		Updates(map[string]any{"approval_status": to, "updated_by": actor.ID})
	if res.Error != nil {
		return fmt.Errorf("update restaurant approval status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("approval_status", fmt.Sprintf("restaurant is no longer %s; reload and retry", from))
	}

	if to == models.RequestApproved {
		err := tx.Model(&models.User{}).
			Where("id = ? AND role = ?", restaurant.OwnerID, models.RoleCustomer).
			Updates(map[string]any{"role": models.RoleOwner, "updated_by": actor.ID}).Error
		if err != nil {
			return fmt.Errorf("promote owner: %w", err)
		}
	}

	if err := recordStatusChange(tx, models.EntityRestaurantRequest, request.ID, string(from), string(to), actor.ID, reason); err != nil {
		return err
	}

	request.Status = to
	request.UpdatedByID = models.UserRef(actor.ID)
	if to.Terminal() {
		request.Reason = reason
		request.ReviewedByID = models.UserRef(actor.ID)
		request.ReviewedAt = &now
	}
	return nil
}

func latestRequest(tx *gorm.DB, restaurantID uint) (*models.RestaurantRequest, error) {
	var request models.RestaurantRequest
	err := tx.Where("restaurant_id = ?", restaurantID).Order("id desc").First(&request).Error
	if err != nil {
		return nil, notFound(err, "restaurant request")
	}
	return &request, nil
}

// Resubmit opens a new PENDING request for a restaurant whose latest request was declined.
// The declined request is kept as history.
func (s *ApprovalService) Resubmit(ctx context.Context, actor Actor, restaurantID uint) (*models.RestaurantRequest, error) {
	var request models.RestaurantRequest
	err := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, restaurantID)
		if err != nil {
			return err
		}
		if err := canOwn(actor, restaurant); err != nil {
			return err
		}
		latest, err := latestRequest(tx, restaurantID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		if latest != nil && latest.Status != models.RequestDeclined {
			return apperr.Validation("status", fmt.Sprintf("only a declined restaurant can resubmit; latest request is %s", latest.Status))
		}

		res := tx.Model(&models.Restaurant{}).
			Where("id = ? AND approval_status = ?", restaurantID, models.RequestDeclined).
			Updates(map[string]any{"approval_status": models.RequestPending, "updated_by": actor.ID})
		if res.Error != nil {
			return fmt.Errorf("reset approval status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("approval_status", "restaurant is no longer DECLINED; reload and retry")
		}

		request = models.RestaurantRequest{RestaurantID: restaurantID, Status: models.RequestPending}
		request.StampCreated(actor.ID)
		if err := tx.Omit(clause.Associations).Create(&request).Error; err != nil {
			return fmt.Errorf("create restaurant request: %w", err)
		}
		return recordStatusChange(tx, models.EntityRestaurantRequest, request.ID, string(models.RequestDeclined), string(models.RequestPending), actor.ID, "resubmitted")
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.TypeRequestStatusChanged, events.RestaurantKey(restaurantID), events.RequestStatusChanged{
		RequestID:    request.ID,
		RestaurantID: restaurantID,
		From:         string(models.RequestDeclined),
		To:           string(models.RequestPending),
		ChangedBy:    actor.ID,
	}))
	return &request, nil
}

// History lists a restaurant's requests, newest first.
func (s *ApprovalService) History(ctx context.Context, actor Actor, restaurantID uint) ([]models.RestaurantRequest, error) {
	db := s.DB.WithContext(ctx)
	restaurant, err := loadRestaurant(db, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, restaurant); err != nil {
		return nil, err
	}
	var requests []models.RestaurantRequest
	if err := db.Where("restaurant_id = ?", restaurantID).Order("id desc").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list restaurant requests: %w", err)
	}
	return requests, nil
}

// ListByStatus is the admin review queue, oldest first.
func (s *ApprovalService) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.RestaurantRequest, error) {
	q := s.DB.WithContext(ctx).Preload("Restaurant").Order("id asc")
	if status != "" {
		if !status.Valid() {
			return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", status))
		}
		q = q.Where("status = ?", status)
	}
	var requests []models.RestaurantRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list restaurant requests: %w", err)
	}
	return requests, nil
}

// Changes returns the audit trail of one request.
func (s *ApprovalService) Changes(ctx context.Context, requestID uint) ([]models.StatusChange, error) {
	changes, err := statusHistory(s.DB.WithContext(ctx), models.EntityRestaurantRequest, requestID)
	if err != nil {
		return nil, fmt.Errorf("load status changes: %w", err)
	}
	return changes, nil
}
