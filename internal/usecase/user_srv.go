package usecase

import (
	"context"
	"fmt"

	"hostel-booking/internal/data/repository"
	"hostel-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService exposes the signed-in resident's account. Accounts themselves
// are managed by the login service.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		us.log.Warn("Profile requested for missing or inactive user", zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	res := response.UserToResponse(user)
	return &res, nil
}
