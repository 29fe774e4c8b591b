package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"facegate/internal/model"
)

// ErrInvalidCredentials is returned for a wrong username or password; the
// two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles admin authentication business logic.
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new auth service.
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Authenticate validates admin credentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &admin, nil
}

// CreateAdmin creates a new admin account with a bcrypt-hashed password.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("admin with this username already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		Username:       username,
		HashedPassword: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// GetByUsername loads an admin account.
func (s *AuthService) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// ResetData wipes operators and login logs. Used by the admin reset endpoint
// to recover from a badly desynchronized store; admin accounts survive.
func (s *AuthService) ResetData(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.LoginLog{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Operator{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.SyncState{}).Error
	})
}
