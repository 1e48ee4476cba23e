package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/model"
)

// CartRow 购物车中某个菜谱的一行组成，未聚合
type CartRow struct {
	RecipeID        string
	Name            string
	MeasurementUnit string
	Amount          int64
}

// MembershipRepository 收藏与购物车共用的 (kind, user, recipe) 关系
type MembershipRepository interface {
	// Add 返回 false 表示该关系已存在
	Add(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error)
	Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error)
	Exists(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error)
	// Flags 返回 recipeIDs 中属于该集合的菜谱
	Flags(ctx context.Context, kind model.MembershipKind, userID string, recipeIDs []string) (map[string]bool, error)
	CartRows(ctx context.Context, userID string) ([]CartRow, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Add(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error) {
	m := &model.Membership{ID: uuid.New().String(), Kind: kind, UserID: userID, RecipeID: recipeID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) Remove(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("kind = ? AND user_id = ? AND recipe_id = ?", kind, userID, recipeID).
		Delete(&model.Membership{})
	return res.RowsAffected > 0, res.Error
}

func (r *membershipRepository) Exists(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("kind = ? AND user_id = ? AND recipe_id = ?", kind, userID, recipeID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *membershipRepository) Flags(ctx context.Context, kind model.MembershipKind, userID string, recipeIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(recipeIDs))
	if userID == "" || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("kind = ? AND user_id = ? AND recipe_id IN ?", kind, userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *membershipRepository) CartRows(ctx context.Context, userID string) ([]CartRow, error) {
	var rows []CartRow
	err := r.db.WithContext(ctx).
		Table("memberships").
		Select("recipe_ingredients.recipe_id AS recipe_id, ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = memberships.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("memberships.kind = ? AND memberships.user_id = ?", model.KindShoppingCart, userID).
		Scan(&rows).Error
	return rows, err
}
