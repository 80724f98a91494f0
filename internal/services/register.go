package services

import (
	"errors"

	"todo-manager/backend/internal/models"

	"gorm.io/gorm"
)

type RegisterService interface {
	RegisterUser(db *gorm.DB, username, password string) (*models.User, error)
}

type RegisterServiceImpl struct {
	hasher *PasswordHasher
}

func NewRegisterService(hasher *PasswordHasher) *RegisterServiceImpl {
	return &RegisterServiceImpl{hasher: hasher}
}

// RegisterUser inserts the new account and lets the unique index on
// username arbitrate duplicates. There is no pre-check query: two
// concurrent registrations race to the same constraint and exactly one
// wins.
func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, username, password string) (*models.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: username,
		Password: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return &user, nil
}
