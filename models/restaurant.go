package models

import "time"

type FoodType string

const (
	FoodVegetarian    FoodType = "VEGETARIAN"
	FoodNonVegetarian FoodType = "NON_VEGETARIAN"
	FoodBoth          FoodType = "BOTH"
)

func (f FoodType) Valid() bool {
	switch f {
	case FoodVegetarian, FoodNonVegetarian, FoodBoth:
		return true
	}
	return false
}

// Outlet is the kind of venue a restaurant operates as.
type Outlet string

const (
	OutletCornerCafe      Outlet = "Corner Cafe"
	OutletMainStreetDiner Outlet = "Main Street Diner"
	OutletSunnySideGrill  Outlet = "SunnySide Grill"
	OutletRiverSideBistro Outlet = "RiverSide Bistro"
)

func (o Outlet) Valid() bool {
	switch o {
	case OutletCornerCafe, OutletMainStreetDiner, OutletSunnySideGrill, OutletRiverSideBistro:
		return true
	}
	return false
}

// Location is a geocoded address. Latitude and Longitude are both set or both nil.
type Location struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	Address   string   `json:"address" gorm:"not null"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	AuditFields
}

func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

type Restaurant struct {
	ID      uint  `json:"id" gorm:"primaryKey"`
	OwnerID uint  `json:"owner_id" gorm:"not null;index"`
	Owner   *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`

	Name           string   `json:"name" gorm:"not null"`
	ContactNumber  string   `json:"contact_number" gorm:"not null"`
	Outlet         Outlet   `json:"outlet"`
	Cuisine        string   `json:"cuisine"`
	FoodType       FoodType `json:"food_type" gorm:"not null"`
	InvoicingEmail string   `json:"invoicing_email"`
	OwnerName      string   `json:"owner_name"`
	OwnerEmail     string   `json:"owner_email"`
	IsOpen         bool     `json:"is_open"`

	// FSSAI licensing
	LicenseNumber    string     `json:"license_number"`
	LicenseExpiresOn *time.Time `json:"license_expires_on"`

	BankAccountNumber string `json:"bank_account_number"`
	BankIFSCCode      string `json:"bank_ifsc_code" gorm:"size:11"`

	// ApprovalStatus mirrors the status of the latest RestaurantRequest and is
	// written in the same transaction as the request.
	ApprovalStatus RequestStatus `json:"approval_status" gorm:"not null;index"`

	ParentRestaurantID *uint        `json:"parent_restaurant_id" gorm:"index"`
	Branches           []Restaurant `json:"branches,omitempty" gorm:"foreignKey:ParentRestaurantID;constraint:OnDelete:SET NULL"`

	LocationID *uint     `json:"location_id"`
	Location   *Location `json:"location,omitempty" gorm:"constraint:OnDelete:SET NULL"`

	ManagerID *uint `json:"manager_id" gorm:"index"`
	Manager   *User `json:"manager,omitempty" gorm:"foreignKey:ManagerID;constraint:OnDelete:SET NULL"`

	Documents []RestaurantDocument `json:"documents,omitempty"`
	Assets    []Asset              `json:"assets,omitempty"`
	Requests  []RestaurantRequest  `json:"requests,omitempty"`

	AuditFields
}

func (r Restaurant) String() string {
	return r.Name
}

// Listed reports whether customers may see the restaurant.
func (r Restaurant) Listed() bool {
	return r.ApprovalStatus == RequestApproved && r.IsOpen && !r.DeletedAt.Valid
}

// IsBranch reports whether the restaurant belongs to a chain.
func (r Restaurant) IsBranch() bool {
	return r.ParentRestaurantID != nil
}

// PublicRestaurant is the customer-facing projection: no banking or licensing data.
type PublicRestaurant struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	ContactNumber      string    `json:"contact_number"`
	Outlet             Outlet    `json:"outlet"`
	Cuisine            string    `json:"cuisine"`
	FoodType           FoodType  `json:"food_type"`
	IsOpen             bool      `json:"is_open"`
	ParentRestaurantID *uint     `json:"parent_restaurant_id,omitempty"`
	Location           *Location `json:"location,omitempty"`
}

func (r Restaurant) Public() PublicRestaurant {
	return PublicRestaurant{
		ID:                 r.ID,
		Name:               r.Name,
		ContactNumber:      r.ContactNumber,
		Outlet:             r.Outlet,
		Cuisine:            r.Cuisine,
		FoodType:           r.FoodType,
		IsOpen:             r.IsOpen,
		ParentRestaurantID: r.ParentRestaurantID,
		Location:           r.Location,
	}
}
