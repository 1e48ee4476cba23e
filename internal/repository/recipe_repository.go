package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
)

// Composition 一次写入的完整组成：标签集合与有序的食材行
type Composition struct {
	TagIDs []string
	Lines  []CompositionLine
}

type CompositionLine struct {
	IngredientID string
	Amount       int
}

// RecipeFilter 列表过滤条件；ViewerID 为空时忽略收藏/购物车过滤
type RecipeFilter struct {
	AuthorID      string
	TagSlugs      []string
	ViewerID      string
	FavoritedOnly bool
	InCartOnly    bool
}

type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe, comp Composition) error
	// Replace 覆盖基础字段，并整体清空重写标签与食材
	Replace(ctx context.Context, recipe *model.Recipe, comp Composition) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	GetAuthorID(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter RecipeFilter, page, pageSize int) ([]model.Recipe, int64, error)
	// LatestByAuthors 每个作者最新的 limit 个菜谱，limit <= 0 表示全部
	LatestByAuthors(ctx context.Context, authorIDs []string, limit int) (map[string][]model.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepository{db: db} }

// Create 在一个事务内写菜谱、食材行与标签关联，任何一步失败整体回滚
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe, comp Composition) error {
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if recipe.PubDate.IsZero() {
		recipe.PubDate = time.Now()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return writeComposition(tx, recipe.ID, comp)
	})
}

func (r *recipeRepository) Replace(ctx context.Context, recipe *model.Recipe, comp Composition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"image":        recipe.Image,
			"cooking_time": recipe.CookingTime,
			"updated_at":   time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("update recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("recipe %s not found", recipe.ID)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&model.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear ingredients: %w", err)
		}
		return writeComposition(tx, recipe.ID, comp)
	})
}

// writeComposition 在事务内再确认一次引用存在，避免请求期间被删除的食材/标签留下孤儿行
func writeComposition(tx *gorm.DB, recipeID string, comp Composition) error {
	if err := ensureAll(tx, &model.Tag{}, "tag", comp.TagIDs); err != nil {
		return err
	}
	ingredientIDs := make([]string, len(comp.Lines))
	for i, l := range comp.Lines {
		ingredientIDs[i] = l.IngredientID
	}
	if err := ensureAll(tx, &model.Ingredient{}, "ingredient", ingredientIDs); err != nil {
		return err
	}

	if len(comp.TagIDs) > 0 {
		links := make([]model.RecipeTag, len(comp.TagIDs))
		for i, id := range comp.TagIDs {
			links[i] = model.RecipeTag{RecipeID: recipeID, TagID: id}
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("insert recipe tags: %w", err)
		}
	}
	if len(comp.Lines) > 0 {
		rows := make([]model.RecipeIngredient, len(comp.Lines))
		for i, l := range comp.Lines {
			rows[i] = model.RecipeIngredient{
				ID:           uuid.New().String(),
				RecipeID:     recipeID,
				IngredientID: l.IngredientID,
				Amount:       l.Amount,
				Position:     i,
			}
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			if isDuplicate(err) {
				return &apperr.Error{Kind: apperr.KindValidation, Message: "duplicate ingredient in recipe", Field: "ingredients", Err: err}
			}
			return fmt.Errorf("insert recipe ingredients: %w", err)
		}
	}
	return nil
}

func ensureAll(tx *gorm.DB, m interface{}, what string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var found []string
	if err := tx.Model(m).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("lookup %ss: %w", what, err)
	}
	have := make(map[string]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	for _, id := range ids {
		if !have[id] {
			return apperr.NotFound("%s %s not found", what, id)
		}
	}
	return nil
}

// Delete 级联删除食材行、标签关联、收藏与购物车记录
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("recipe %s not found", id)
		}
		return nil
	})
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("recipe %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

func (r *recipeRepository) GetAuthorID(ctx context.Context, id string) (string, error) {
	var authorIDs []string
	if err := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Limit(1).Pluck("author_id", &authorIDs).Error; err != nil {
		return "", fmt.Errorf("get recipe author: %w", err)
	}
	if len(authorIDs) == 0 {
		return "", apperr.NotFound("recipe %s not found", id)
	}
	return authorIDs[0], nil
}

func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter, page, pageSize int) ([]model.Recipe, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Recipe{})
	if filter.AuthorID != "" {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.ViewerID != "" {
		if filter.FavoritedOnly {
			q = q.Where("recipes.id IN (?)", membershipSubquery(r.db, model.KindFavorite, filter.ViewerID))
		}
		if filter.InCartOnly {
			q = q.Where("recipes.id IN (?)", membershipSubquery(r.db, model.KindShoppingCart, filter.ViewerID))
		}
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}
	offset, limit := offsetLimit(page, pageSize)
	var recipes []model.Recipe
	err := q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient").
		Order("recipes.pub_date DESC, recipes.id ASC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, total, nil
}

func membershipSubquery(db *gorm.DB, kind model.MembershipKind, userID string) *gorm.DB {
	return db.Model(&model.Membership{}).Select("recipe_id").Where("kind = ? AND user_id = ?", kind, userID)
}

func (r *recipeRepository) LatestByAuthors(ctx context.Context, authorIDs []string, limit int) (map[string][]model.Recipe, error) {
	out := make(map[string][]model.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var recipes []model.Recipe
	if err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("pub_date DESC, id ASC").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	for _, rec := range recipes {
		if limit > 0 && len(out[rec.AuthorID]) >= limit {
			continue
		}
		out[rec.AuthorID] = append(out[rec.AuthorID], rec)
	}
	return out, nil
}

func (r *recipeRepository) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	type row struct {
		AuthorID string
		Total    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.AuthorID] = rw.Total
	}
	return out, nil
}
