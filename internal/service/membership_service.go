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

// MembershipService 收藏与购物车的增删，两种集合共用一套逻辑
type MembershipService interface {
	// Toggle add=true 时返回菜谱精简信息；add=false 且无记录时返回 NotExists
	Toggle(ctx context.Context, kind model.MembershipKind, userID, recipeID string, add bool) (*ShortRecipe, error)
}

type membershipService struct {
	members repository.MembershipRepository
	recipes repository.RecipeRepository
}

func NewMembershipService(members repository.MembershipRepository, recipes repository.RecipeRepository) MembershipService {
	return &membershipService{members: members, recipes: recipes}
}

func (s *membershipService) Toggle(ctx context.Context, kind model.MembershipKind, userID, recipeID string, add bool) (*ShortRecipe, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown collection %q", kind)
	}
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if !add {
		removed, err := s.members.Remove(ctx, kind, userID, recipeID)
		if err != nil {
			return nil, fmt.Errorf("remove %s: %w", kind, err)
		}
		if !removed {
			return nil, notMember(kind)
		}
		metrics.RecordMembership(string(kind), "remove")
		return nil, nil
	}

	if err := validation.Membership(ctx, kind, userID, recipeID, s.members); err != nil {
		return nil, err
	}
	added, err := s.members.Add(ctx, kind, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", kind, err)
	}
	// 并发添加时由唯一索引决出胜者
	if !added {
		return nil, validation.AlreadyMember(kind)
	}
	metrics.RecordMembership(string(kind), "add")
	short := shortRecipe(recipe)
	return &short, nil
}

func notMember(kind model.MembershipKind) error {
	if kind == model.KindShoppingCart {
		return apperr.NotExists("recipe is not in the shopping cart")
	}
	return apperr.NotExists("recipe is not in favorites")
}
