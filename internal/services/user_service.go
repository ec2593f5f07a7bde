package services

import (
	"errors"
	"fmt"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories/mysql"

	"gorm.io/gorm"
)

// UserService serves the user directory.
type UserService struct {
	userRepo *mysql.UserRepository
}

func NewUserService(userRepo *mysql.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List() ([]models.UserResponse, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, models.NewUserResponse(u))
	}
	return out, nil
}

func (s *UserService) GetProfile(userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	resp := models.NewUserResponse(user)
	return &resp, nil
}
