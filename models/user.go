package models

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleManager  UserRole = "MANAGER"
	RoleCustomer UserRole = "CUSTOMER"
	RoleAdmin    UserRole = "ADMIN"
	RoleOwner    UserRole = "OWNER"
	RoleRider    UserRole = "RIDER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleManager, RoleCustomer, RoleAdmin, RoleOwner, RoleRider:
		return true
	}
	return false
}

type User struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	Name          string   `json:"name" gorm:"not null"`
	Email         string   `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash  string   `json:"-" gorm:"not null"`
	ContactNumber string   `json:"contact_number"`
	Role          UserRole `json:"role" gorm:"not null;index"`
	IsActive      bool     `json:"is_active"`
	IsStaff       bool     `json:"is_staff"`
	IsSuperuser   bool     `json:"is_superuser"`
	AuditFields
}

func (u User) String() string {
	return u.Name
}
