package models

// MenuStatus gates customer visibility of a category, sub-category or item.
type MenuStatus string

const (
	MenuActive   MenuStatus = "Active"
	MenuInactive MenuStatus = "In-Active"
)

func (s MenuStatus) Valid() bool {
	switch s {
	case MenuActive, MenuInactive:
		return true
	}
	return false
}

type Category struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	RestaurantID  uint          `json:"restaurant_id" gorm:"not null;index"`
	Name          string        `json:"name" gorm:"not null"`
	Status        MenuStatus    `json:"status" gorm:"not null"`
	Description   string        `json:"description"`
	ImagePath     string        `json:"image_path"`
	SubCategories []SubCategory `json:"sub_categories,omitempty"`
	AuditFields
}

func (c Category) String() string { return c.Name }

type SubCategory struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	CategoryID  uint       `json:"category_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Status      MenuStatus `json:"status" gorm:"not null"`
	Description string     `json:"description"`
	Items       []Item     `json:"items,omitempty"`
	AuditFields
}

func (s SubCategory) String() string { return s.Name }

type Item struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	SubCategoryID uint       `json:"sub_category_id" gorm:"not null;index"`
	Name          string     `json:"name" gorm:"not null"`
	Price         float64    `json:"price" gorm:"not null"`
	Status        MenuStatus `json:"status" gorm:"not null"`
	Description   string     `json:"description"`
	ImagePath     string     `json:"image_path"`
	AuditFields
}

func (i Item) String() string { return i.Name }

// ItemVisible is the customer visibility gate: the item and both ancestors must be Active.
func ItemVisible(item Item, sub SubCategory, cat Category) bool {
	return item.Status == MenuActive && sub.Status == MenuActive && cat.Status == MenuActive
}
