package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestItemVisible(t *testing.T) {
	statuses := []MenuStatus{MenuActive, MenuInactive}
	for _, cat := range statuses {
		for _, sub := range statuses {
			for _, item := range statuses {
				want := cat == MenuActive && sub == MenuActive && item == MenuActive
				got := ItemVisible(Item{Status: item}, SubCategory{Status: sub}, Category{Status: cat})
				assert.Equal(t, want, got, "category=%s sub=%s item=%s", cat, sub, item)
			}
		}
	}
}

func TestItemVisible_BeveragesColdIcedTea(t *testing.T) {
	beverages := Category{Name: "Beverages", Status: MenuActive}
	cold := SubCategory{Name: "Cold", Status: MenuInactive}
	icedTea := Item{Name: "Iced Tea", Status: MenuActive}

	assert.False(t, ItemVisible(icedTea, cold, beverages))
}

func TestRestaurantListed(t *testing.T) {
	statuses := []RequestStatus{RequestPending, RequestInReview, RequestApproved, RequestDeclined}
	for _, status := range statuses {
		for _, open := range []bool{true, false} {
			r := Restaurant{ApprovalStatus: status, IsOpen: open}
			assert.Equal(t, status == RequestApproved && open, r.Listed(), "status=%s open=%v", status, open)
		}
	}

	deleted := Restaurant{ApprovalStatus: RequestApproved, IsOpen: true}
	deleted.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	assert.False(t, deleted.Listed())
}

func TestEnumValues(t *testing.T) {
	tests := []struct {
		name  string
		valid func(string) bool
		good  []string
		bad   []string
	}{
		{
			name:  "user role",
			valid: func(s string) bool { return UserRole(s).Valid() },
			good:  []string{"MANAGER", "CUSTOMER", "ADMIN", "OWNER", "RIDER"},
			bad:   []string{"customer", "DRIVER", ""},
		},
		{
			name:  "request status",
			valid: func(s string) bool { return RequestStatus(s).Valid() },
			good:  []string{"PENDING", "IN_REVIEW", "APPROVED", "DECLINED"},
			bad:   []string{"REJECTED", "pending"},
		},
		{
			name:  "food type",
			valid: func(s string) bool { return FoodType(s).Valid() },
			good:  []string{"VEGETARIAN", "NON_VEGETARIAN", "BOTH"},
			bad:   []string{"NON_VEGETAIRAN", "VEGAN"},
		},
		{
			name:  "menu status",
			valid: func(s string) bool { return MenuStatus(s).Valid() },
			good:  []string{"Active", "In-Active"},
			bad:   []string{"ACTIVE", "Inactive"},
		},
		{
			name:  "order status",
			valid: func(s string) bool { return OrderStatus(s).Valid() },
			good:  []string{"Accepted", "Not-Accepted"},
			bad:   []string{"Cancelled"},
		},
		{
			name:  "document type",
			valid: func(s string) bool { return DocumentType(s).Valid() },
			good:  []string{"PAN", "GST", "FSSAI"},
			bad:   []string{"pan", "AADHAAR"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			for _, s := range testCase.good {
				assert.True(t, testCase.valid(s), s)
			}
			for _, s := range testCase.bad {
				assert.False(t, testCase.valid(s), s)
			}
		})
	}
}

func TestOrderStatusJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Order{Status: OrderNotAccepted})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"Not-Accepted"`)

	var decoded Order
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, OrderNotAccepted, decoded.Status)
}

func TestPublicProjectionHidesBanking(t *testing.T) {
	r := Restaurant{ID: 7, Name: "Spice Route", BankAccountNumber: "0001112223", BankIFSCCode: "HDFC0001234"}
	raw, err := json.Marshal(r.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "0001112223")
	assert.NotContains(t, string(raw), "HDFC0001234")
	assert.Contains(t, string(raw), "Spice Route")
}
