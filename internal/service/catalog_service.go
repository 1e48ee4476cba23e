package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/validation"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// ImportResult 导入统计
type ImportResult struct {
	Read     int   `json:"read"`
	Inserted int64 `json:"inserted"`
}

type ingredientRecord struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

type tagRecord struct {
	Name  string `json:"name" validate:"required,max=150"`
	Color string `json:"color" validate:"required,hexcolor,max=7"`
	Slug  string `json:"slug" validate:"required,max=150,slug"`
}

// CatalogService 标签与食材参考数据
type CatalogService interface {
	SearchIngredients(ctx context.Context, prefix string) ([]IngredientView, error)
	GetIngredient(ctx context.Context, id string) (*IngredientView, error)
	ListTags(ctx context.Context) ([]TagView, error)
	GetTag(ctx context.Context, id string) (*TagView, error)
	// ImportIngredients 读取 JSON 数组 [{name, measurement_unit}]，已存在的组合保持不变
	ImportIngredients(ctx context.Context, r io.Reader) (*ImportResult, error)
	// ImportTags 读取 JSON 数组 [{name, color, slug}]，以 slug 判重
	ImportTags(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type catalogService struct {
	ingredients repository.IngredientRepository
	tags        repository.TagRepository
	cache       *cache.Catalog
}

// NewCatalogService cache 可以为 nil
func NewCatalogService(ingredients repository.IngredientRepository, tags repository.TagRepository, c *cache.Catalog) CatalogService {
	return &catalogService{ingredients: ingredients, tags: tags, cache: c}
}

func (s *catalogService) SearchIngredients(ctx context.Context, prefix string) ([]IngredientView, error) {
	items, err := s.cache.Ingredients(ctx, prefix, func(ctx context.Context) ([]model.Ingredient, error) {
		return s.ingredients.Search(ctx, prefix)
	})
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	out := make([]IngredientView, len(items))
	for i, it := range items {
		out[i] = ingredientView(it)
	}
	return out, nil
}

func (s *catalogService) GetIngredient(ctx context.Context, id string) (*IngredientView, error) {
	ing, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ingredientView(*ing)
	return &v, nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]TagView, error) {
	tags, err := s.cache.Tags(ctx, s.tags.List)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make([]TagView, len(tags))
	for i, t := range tags {
		out[i] = tagView(t)
	}
	return out, nil
}

func (s *catalogService) GetTag(ctx context.Context, id string) (*TagView, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := tagView(*tag)
	return &v, nil
}

func decodeRecords[T any](r io.Reader) ([]T, error) {
	var records []T
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperr.Validation("malformed import file: %v", err)
	}
	for i := range records {
		if err := validation.Struct(records[i]); err != nil {
			return nil, apperr.Validation("record %d: %s", i+1, apperr.Message(err))
		}
	}
	return records, nil
}

func (s *catalogService) ImportIngredients(ctx context.Context, r io.Reader) (*ImportResult, error) {
	records, err := decodeRecords[ingredientRecord](r)
	if err != nil {
		return nil, err
	}
	seen := make(map[[2]string]bool, len(records))
	items := make([]model.Ingredient, 0, len(records))
	for _, rec := range records {
		name, unit := strings.TrimSpace(rec.Name), strings.TrimSpace(rec.MeasurementUnit)
		k := [2]string{name, unit}
		if seen[k] {
			continue
		}
		seen[k] = true
		items = append(items, model.Ingredient{Name: name, MeasurementUnit: unit})
	}
	inserted, err := s.ingredients.BulkInsert(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("import ingredients: %w", err)
	}
	s.invalidate(ctx)
	logger.Info("ingredients imported", zap.Int("read", len(records)), zap.Int64("inserted", inserted))
	return &ImportResult{Read: len(records), Inserted: inserted}, nil
}

func (s *catalogService) ImportTags(ctx context.Context, r io.Reader) (*ImportResult, error) {
	records, err := decodeRecords[tagRecord](r)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(records))
	tags := make([]model.Tag, 0, len(records))
	for _, rec := range records {
		if seen[rec.Slug] {
			continue
		}
		seen[rec.Slug] = true
		tags = append(tags, model.Tag{Name: rec.Name, Color: strings.ToUpper(rec.Color), Slug: rec.Slug})
	}
	inserted, err := s.tags.BulkInsert(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("import tags: %w", err)
	}
	s.invalidate(ctx)
	logger.Info("tags imported", zap.Int("read", len(records)), zap.Int64("inserted", inserted))
	return &ImportResult{Read: len(records), Inserted: inserted}, nil
}

func (s *catalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("invalidate catalog cache failed", zap.Error(err))
	}
}
