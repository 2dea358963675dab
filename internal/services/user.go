package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/repos"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type UserService interface {
	CreateUser(ctx context.Context, userName string) (*types.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
) UserService {
	serviceLog := baseLog.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
	}
}

func (us *userService) CreateUser(ctx context.Context, userName string) (*types.User, error) {
	if userName == "" {
		return nil, fmt.Errorf("user name must not be empty: %w", types.ErrValidation)
	}

	now := time.Now()
	user := &types.User{
		ID:        uuid.New(),
		UserName:  userName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := us.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		us.log.Error("CreateUser failed", "user_name", userName, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}
	us.log.Info("user created", "user_id", user.ID)
	return user, nil
}

func (us *userService) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return us.userRepo.GetByID(ctx, nil, id)
}
