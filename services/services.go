// Package services holds the restaurant platform's business rules. Every state change runs
// in a gorm transaction; workflow transitions are guarded updates
// (UPDATE ... WHERE status = <expected>) so a concurrent writer loses with a conflict.
package services

import (
	"context"
	"errors"
	"fmt"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/cache"
	"restaurant-platform-api/events"
	"restaurant-platform-api/filestore"
	"restaurant-platform-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uint
	Role models.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Recorder receives domain counters.
type Recorder interface {
	RequestTransitioned(to string)
	OrderPlaced()
	OrderAccepted()
}

type nopRecorder struct{}

func (nopRecorder) RequestTransitioned(string) {}
func (nopRecorder) OrderPlaced()               {}
func (nopRecorder) OrderAccepted()             {}

// Deps are the collaborators shared by all services. Only DB is required.
type Deps struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Events  events.Publisher
	Listing cache.ListingCache
	Metrics Recorder
	Files   filestore.Store
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Listing == nil {
		d.Listing = cache.NopListingCache{}
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	return d
}

func (d Deps) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// publish sends an event after commit. The state change already happened, so a broker
// failure is logged rather than returned.
func (d Deps) publish(ctx context.Context, e events.Event) {
	if err := d.Events.Publish(ctx, e); err != nil {
		d.Log.Warn("event not published", zap.String("type", e.Type), zap.String("key", e.Key), zap.Error(err))
	}
}

func (d Deps) invalidateListing(ctx context.Context) {
	if err := d.Listing.Invalidate(ctx); err != nil {
		d.Log.Warn("listing cache not invalidated", zap.Error(err))
	}
}

// forUpdate adds row locking on databases that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// notFound converts gorm's not-found into an apperr of the given kind.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func missingRef(err error, field, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Reference(field, what+" does not exist")
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func loadRestaurant(tx *gorm.DB, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := forUpdate(tx).First(&r, id).Error; err != nil {
		return nil, notFound(err, "restaurant")
	}
	return &r, nil
}

// canManage: admins, the owner and the assigned manager run day-to-day operations.
func canManage(actor Actor, r *models.Restaurant) error {
	if actor.IsAdmin() || r.OwnerID == actor.ID {
		return nil
	}
	if r.ManagerID != nil && *r.ManagerID == actor.ID {
		return nil
	}
	return apperr.Forbidden("you do not manage this restaurant")
}

// canOwn: structural changes (delete, re-parent, manager, resubmission) need the owner.
func canOwn(actor Actor, r *models.Restaurant) error {
	if actor.IsAdmin() || r.OwnerID == actor.ID {
		return nil
	}
	return apperr.Forbidden("only the restaurant owner can do this")
}

func recordStatusChange(tx *gorm.DB, entity string, id uint, from, to string, by uint, note string) error {
	change := models.StatusChange{
		Entity:     entity,
		EntityID:   id,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  by,
		Note:       note,
	}
	if err := tx.Create(&change).Error; err != nil {
		return fmt.Errorf("record %s status change: %w", entity, err)
	}
	return nil
}

// softDelete stamps deleted_by and soft-deletes the row.
func softDelete(tx *gorm.DB, value any, actorID uint) error {
	if err := tx.Model(value).Update("deleted_by", actorID).Error; err != nil {
		return err
	}
	return tx.Delete(value).Error
}

// statusHistory returns the audit trail for one entity, oldest first.
func statusHistory(db *gorm.DB, entity string, id uint) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	err := db.Where("entity = ? AND entity_id = ?", entity, id).Order("id asc").Find(&changes).Error
	return changes, err
}

func zapRestaurant(id uint) zap.Field { return zap.Uint("restaurant_id", id) }

func zapActor(a Actor) zap.Field { return zap.Uint("actor_id", a.ID) }

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }
