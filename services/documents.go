package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/filestore"
	"restaurant-platform-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type DocumentService struct {
	Deps
}

func NewDocumentService(deps Deps) *DocumentService {
	return &DocumentService{Deps: deps.withDefaults()}
}

type AddDocumentInput struct {
	DocumentType   models.DocumentType `json:"document_type" validate:"required"`
	DocumentNumber string              `json:"document_number" validate:"required,max=50"`
}

// AddDocument stores a PAN, GST or FSSAI document. A restaurant holds one live document
// per type; delete the old one before uploading a replacement.
func (s *DocumentService) AddDocument(ctx context.Context, actor Actor, restaurantID uint, in AddDocumentInput, file *Upload) (*models.RestaurantDocument, error) {
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.DocumentType.Valid() {
		return nil, apperr.Validation("document_type", "must be one of PAN, GST, FSSAI")
	}

	doc := models.RestaurantDocument{
		RestaurantID:   restaurantID,
		DocumentType:   in.DocumentType,
		DocumentNumber: in.DocumentNumber,
	}
	doc.StampCreated(actor.ID)

	err := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, restaurantID)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}

		var count int64
		err = tx.Model(&models.RestaurantDocument{}).
			Where("restaurant_id = ? AND document_type = ?", restaurantID, in.DocumentType).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("check documents: %w", err)
		}
		if count > 0 {
			return apperr.Conflict("document_type", fmt.Sprintf("restaurant already has a %s document", in.DocumentType))
		}

		if file != nil {
			stored, err := s.store(ctx, models.AssetDocument, in.DocumentType, file)
			if err != nil {
				return err
			}
			doc.ImagePath = stored
		}
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, doc.ImagePath)
		return nil, err
	}
	return &doc, nil
}

type AddAssetInput struct {
	Kind models.AssetKind `json:"kind" validate:"required"`
}

// AddAsset attaches a bank passbook, license or menu image to a restaurant.
func (s *DocumentService) AddAsset(ctx context.Context, actor Actor, restaurantID uint, in AddAssetInput, file *Upload) (*models.Asset, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	switch in.Kind {
	case models.AssetBankPassbook, models.AssetLicense, models.AssetMenu:
	case models.AssetDocument:
		return nil, apperr.Validation("kind", "upload PAN, GST and FSSAI files as documents")
	default:
		return nil, apperr.Validation("kind", "must be one of BANK_PASSBOOK, LICENSE, MENU")
	}
	if file == nil {
		return nil, apperr.Validation("file", "a file is required")
	}

	asset := models.Asset{
		RestaurantID: restaurantID,
		Kind:         in.Kind,
		ContentType:  file.ContentType,
	}
	asset.StampCreated(actor.ID)

	err := s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, restaurantID)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}
		counter := &countingReader{r: file.Body}
		stored, err := s.store(ctx, in.Kind, "", &Upload{Filename: file.Filename, Body: counter})
		if err != nil {
			return err
		}
		asset.Path = stored
		asset.OriginalName = file.Filename
		asset.Size = counter.n
		if err := tx.Create(&asset).Error; err != nil {
			return fmt.Errorf("create asset: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, asset.Path)
		return nil, err
	}
	return &asset, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *DocumentService) store(ctx context.Context, kind models.AssetKind, docType models.DocumentType, file *Upload) (string, error) {
	if s.Files == nil {
		return "", errors.New("file storage is not configured")
	}
	rel, err := filestore.UploadPath(kind, docType, file.Filename)
	if err != nil {
		return "", err
	}
	stored, _, err := s.Files.Save(ctx, rel, file.Body)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return stored, nil
}

// discard removes a file written by a transaction that rolled back.
func (s *DocumentService) discard(ctx context.Context, stored string) {
	if stored == "" || s.Files == nil {
		return
	}
	if err := s.Files.Remove(context.WithoutCancel(ctx), stored); err != nil {
		s.Log.Warn("orphaned upload not removed", zap.String("path", stored), zap.Error(err))
	}
}

func (s *DocumentService) ListDocuments(ctx context.Context, actor Actor, restaurantID uint) ([]models.RestaurantDocument, error) {
	db := s.DB.WithContext(ctx)
	restaurant, err := loadRestaurant(db, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, restaurant); err != nil {
		return nil, err
	}
	var docs []models.RestaurantDocument
	if err := db.Where("restaurant_id = ?", restaurantID).Order("document_type asc").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument soft-deletes a document so a replacement can be uploaded. The stored
// image is kept for the audit trail.
func (s *DocumentService) DeleteDocument(ctx context.Context, actor Actor, restaurantID, documentID uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		restaurant, err := loadRestaurant(tx, restaurantID)
		if err != nil {
			return err
		}
		if err := canManage(actor, restaurant); err != nil {
			return err
		}
		var doc models.RestaurantDocument
		if err := tx.Where("restaurant_id = ?", restaurantID).First(&doc, documentID).Error; err != nil {
			return notFound(err, "document")
		}
		if err := softDelete(tx, &doc, actor.ID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	})
}
