package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"house-swap-app/internal/models"
	"house-swap-app/internal/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
}

// AccountService is the identity store: registration, password checks and
// device tokens.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ? OR username = ?", input.Email, input.Username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAccountExists
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// Authenticate returns ErrBadCredentials for unknown emails and wrong
// passwords alike.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

func (s *AccountService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPushToken stores the device token used for mobile push. An empty token
// unregisters the device.
func (s *AccountService) SetPushToken(ctx context.Context, userID uint, token string) error {
	var value *string
	if token = strings.TrimSpace(token); token != "" {
		value = &token
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("push_token", value)
	if res.Error != nil {
		return fmt.Errorf("failed to update push token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
