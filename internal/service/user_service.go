package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/validation"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// RegisterInput 注册信息
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,slug"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// reservedUsernames 与路由冲突的用户名
var reservedUsernames = map[string]bool{"me": true, "subscriptions": true}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*Profile, error)
	Get(ctx context.Context, viewerID, userID string) (*Profile, error)
	List(ctx context.Context, viewerID string, page, pageSize int) (*Page[Profile], error)
}

type userService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewUserService(users repository.UserRepository, follows repository.FollowRepository) UserService {
	return &userService{users: users, follows: follows}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if reservedUsernames[strings.ToLower(in.Username)] {
		return nil, apperr.FieldValidation("username", "username %q is reserved", in.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.String("user_id", u.ID))
	p := profileView(u, false)
	return &p, nil
}

func (s *userService) Get(ctx context.Context, viewerID, userID string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	subscribed, err := IsFollowing(ctx, s.follows, viewerID, u.ID)
	if err != nil {
		return nil, fmt.Errorf("check subscription: %w", err)
	}
	p := profileView(u, subscribed)
	return &p, nil
}

func (s *userService) List(ctx context.Context, viewerID string, page, pageSize int) (*Page[Profile], error) {
	users, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	followed, err := s.follows.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("check subscriptions: %w", err)
	}
	out := &Page[Profile]{Count: total, Results: make([]Profile, 0, len(users))}
	for i := range users {
		out.Results = append(out.Results, profileView(&users[i], followed[users[i].ID]))
	}
	return out, nil
}
