package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/metrics"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/validation"
)

// RelationshipService 订阅关系
type RelationshipService interface {
	// Follow recipesLimit <= 0 表示返回作者全部菜谱
	Follow(ctx context.Context, userID, authorID string, recipesLimit int) (*Subscription, error)
	Unfollow(ctx context.Context, userID, authorID string) error
	ListSubscriptions(ctx context.Context, userID string, page, pageSize, recipesLimit int) (*Page[Subscription], error)
	IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error)
}

type relationshipService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	recipes repository.RecipeRepository
}

func NewRelationshipService(users repository.UserRepository, follows repository.FollowRepository, recipes repository.RecipeRepository) RelationshipService {
	return &relationshipService{users: users, follows: follows, recipes: recipes}
}

func (s *relationshipService) Follow(ctx context.Context, userID, authorID string, recipesLimit int) (*Subscription, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := validation.Follow(ctx, userID, authorID, s.follows); err != nil {
		return nil, err
	}
	if err := s.follows.Create(ctx, userID, authorID); err != nil {
		return nil, err
	}
	metrics.RecordMembership("follow", "add")

	subs, err := s.subscriptions(ctx, []model.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (s *relationshipService) Unfollow(ctx context.Context, userID, authorID string) error {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return err
	}
	removed, err := s.follows.Delete(ctx, userID, authorID)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if !removed {
		return apperr.NotExists("you are not subscribed to this author")
	}
	metrics.RecordMembership("follow", "remove")
	return nil
}

func (s *relationshipService) ListSubscriptions(ctx context.Context, userID string, page, pageSize, recipesLimit int) (*Page[Subscription], error) {
	authorIDs, total, err := s.follows.ListAuthors(ctx, userID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	users, err := s.users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	// 保持订阅时间顺序
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]model.User, 0, len(authorIDs))
	for _, id := range authorIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	subs, err := s.subscriptions(ctx, ordered, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &Page[Subscription]{Count: total, Results: subs}, nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error) {
	return IsFollowing(ctx, s.follows, viewerID, authorID)
}

// subscriptions 渲染已订阅作者，is_subscribed 恒为 true
func (s *relationshipService) subscriptions(ctx context.Context, authors []model.User, recipesLimit int) ([]Subscription, error) {
	ids := make([]string, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	latest, err := s.recipes.LatestByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, fmt.Errorf("load author recipes: %w", err)
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count author recipes: %w", err)
	}
	out := make([]Subscription, len(authors))
	for i := range authors {
		a := &authors[i]
		recipes := make([]ShortRecipe, 0, len(latest[a.ID]))
		for j := range latest[a.ID] {
			recipes = append(recipes, shortRecipe(&latest[a.ID][j]))
		}
		out[i] = Subscription{
			Profile:      profileView(a, true),
			Recipes:      recipes,
			RecipesCount: counts[a.ID],
		}
	}
	return out, nil
}
