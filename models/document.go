package models

type DocumentType string

const (
	DocumentPAN   DocumentType = "PAN"
	DocumentGST   DocumentType = "GST"
	DocumentFSSAI DocumentType = "FSSAI"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocumentPAN, DocumentGST, DocumentFSSAI:
		return true
	}
	return false
}

// AssetKind says what an uploaded file is for. It is fixed when the upload is created
// and decides the storage path.
type AssetKind string

const (
	AssetDocument     AssetKind = "DOCUMENT"
	AssetBankPassbook AssetKind = "BANK_PASSBOOK"
	AssetLicense      AssetKind = "LICENSE"
	AssetMenu         AssetKind = "MENU"
)

func (k AssetKind) Valid() bool {
	switch k {
	case AssetDocument, AssetBankPassbook, AssetLicense, AssetMenu:
		return true
	}
	return false
}

// RestaurantDocument is a PAN, GST or FSSAI registration. A restaurant holds at most
// one live document per type.
type RestaurantDocument struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	RestaurantID   uint         `json:"restaurant_id" gorm:"not null;index"`
	DocumentType   DocumentType `json:"document_type" gorm:"not null;index"`
	DocumentNumber string       `json:"document_number" gorm:"not null"`
	ImagePath      string       `json:"image_path"`
	AuditFields
}

func (d RestaurantDocument) String() string {
	return string(d.DocumentType)
}

// Asset is an image attached to a restaurant: bank passbook, license or menu pages.
type Asset struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Kind         AssetKind `json:"kind" gorm:"not null;index"`
	Path         string    `json:"path" gorm:"not null"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	AuditFields
}
