package models

import "time"

// RequestStatus is the approval state of a RestaurantRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestInReview RequestStatus = "IN_REVIEW"
	RequestApproved RequestStatus = "APPROVED"
	RequestDeclined RequestStatus = "DECLINED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestInReview, RequestApproved, RequestDeclined:
		return true
	}
	return false
}

// Terminal reports whether no admin transition leaves s.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestApproved, RequestDeclined:
		return true
	case RequestPending, RequestInReview:
		return false
	}
	return false
}

// RestaurantRequest is one round of the approval workflow. A declined restaurant that
// resubmits gets a new row; old rows are never rewritten.
type RestaurantRequest struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	RestaurantID uint          `json:"restaurant_id" gorm:"not null;index"`
	Restaurant   *Restaurant   `json:"restaurant,omitempty"`
	Status       RequestStatus `json:"status" gorm:"not null;index"`
	Reason       string        `json:"reason" gorm:"type:text"`
	ReviewedByID *uint         `json:"reviewed_by,omitempty" gorm:"column:reviewed_by"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
	AuditFields
}
