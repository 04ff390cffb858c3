package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant-platform-api/apperr"
	"restaurant-platform-api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email, a wrong
// password or an inactive account. Callers should not tell these apart.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	Deps
	cost int
}

func NewUserService(deps Deps) *UserService {
	return &UserService{Deps: deps.withDefaults(), cost: bcrypt.DefaultCost}
}

type CreateUserInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Email         string          `json:"email" validate:"required,email"`
	Password      string          `json:"password" validate:"required,min=6,max=72"`
	ContactNumber string          `json:"contact_number" validate:"max=20"`
	Role          models.UserRole `json:"role"`
}

// NormalizeEmail lower-cases the domain part and trims surrounding space.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// CreateUser registers an active account. Role defaults to CUSTOMER.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return s.create(ctx, in, func(u *models.User) {})
}

// CreateSuperuser creates an ADMIN account with the staff and superuser flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = models.RoleAdmin
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in, func(u *models.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

func (s *UserService) create(ctx context.Context, in CreateUserInput, extra func(*models.User)) (*models.User, error) {
	// bcrypt only reads 72 bytes; max=72 above counts runes
	if len(in.Password) > 72 {
		return nil, apperr.Validation("password", "must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:          in.Name,
		Email:         in.Email,
		PasswordHash:  string(hash),
		ContactNumber: in.ContactNumber,
		Role:          in.Role,
		IsActive:      true,
	}
	extra(&user)

	err = s.tx(ctx, func(tx *gorm.DB) error {
		var count int64
		// soft-deleted accounts still hold the unique index
		if err := tx.Unscoped().Model(&models.User{}).Where("LOWER(email) = LOWER(?)", in.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			return apperr.Conflict("email", "an account with this email already exists")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("email", "an account with this email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureSuperuser creates the superuser unless an account with that email exists.
func (s *UserService) EnsureSuperuser(ctx context.Context, in CreateUserInput) (*models.User, bool, error) {
	var existing models.User
	err := s.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", NormalizeEmail(in.Email)).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up superuser: %w", err)
	}
	user, err := s.CreateSuperuser(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// List returns all users, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	q := s.DB.WithContext(ctx).Order("id asc")
	if role != "" {
		if !role.Valid() {
			return nil, apperr.Validation("role", fmt.Sprintf("unknown role %q", role))
		}
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
