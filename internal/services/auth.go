package services

import (
	"errors"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

type AuthService interface {
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	Authenticate(db *gorm.DB, username, password string) (*models.User, error)
}

type AuthServiceImpl struct {
	hasher *PasswordHasher
}

func NewAuthService(hasher *PasswordHasher) *AuthServiceImpl {
	return &AuthServiceImpl{hasher: hasher}
}

// FindByUsername returns nil without error when no such user exists.
func (s *AuthServiceImpl) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown
// username and a wrong password; the two cases must stay
// indistinguishable to the caller.
func (s *AuthServiceImpl) Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	user, err := s.FindByUsername(db, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
