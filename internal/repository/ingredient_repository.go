package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
)

// IngredientRepository 食材目录
type IngredientRepository interface {
	GetByID(ctx context.Context, id string) (*model.Ingredient, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// Search 名称前缀匹配（忽略大小写），prefix 为空时返回全部
	Search(ctx context.Context, prefix string) ([]model.Ingredient, error)
	// BulkInsert 已存在的 (name, unit) 保持不变，返回新插入的行数
	BulkInsert(ctx context.Context, items []model.Ingredient) (int64, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) GetByID(ctx context.Context, id string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("ingredient %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &ing, nil
}

func (r *ingredientRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&model.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *ingredientRepository) Search(ctx context.Context, prefix string) ([]model.Ingredient, error) {
	q := r.db.WithContext(ctx).Model(&model.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("LOWER(name) LIKE ?", strings.ToLower(prefix)+"%")
	}
	var res []model.Ingredient
	err := q.Order("name ASC, measurement_unit ASC").Find(&res).Error
	return res, err
}

func (r *ingredientRepository) BulkInsert(ctx context.Context, items []model.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}, {Name: "measurement_unit"}}, DoNothing: true}).
		CreateInBatches(&items, 500)
	return res.RowsAffected, res.Error
}
