package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/imagestore"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/validation"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// RecipeInput 创建与更新共用；更新时必须重新提交完整的标签与食材列表
type RecipeInput struct {
	Name        string                      `json:"name" validate:"required,max=200"`
	Text        string                      `json:"text" validate:"required"`
	CookingTime int                         `json:"cooking_time"`
	Image       string                      `json:"image"`
	Tags        []string                    `json:"tags"`
	Ingredients []validation.IngredientLine `json:"ingredients"`
}

// RecipeQuery 列表过滤条件
type RecipeQuery struct {
	AuthorID         string
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
	Page             int
	Limit            int
}

// RecipeService 菜谱组成存储
type RecipeService interface {
	Create(ctx context.Context, authorID string, in RecipeInput) (*RecipeView, error)
	Update(ctx context.Context, recipeID, callerID string, in RecipeInput) (*RecipeView, error)
	Delete(ctx context.Context, recipeID, callerID string) error
	Get(ctx context.Context, recipeID, viewerID string) (*RecipeView, error)
	List(ctx context.Context, q RecipeQuery, viewerID string) (*Page[RecipeView], error)
}

type recipeService struct {
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	tags        repository.TagRepository
	follows     repository.FollowRepository
	members     repository.MembershipRepository
	images      imagestore.Store
}

func NewRecipeService(recipes repository.RecipeRepository, ingredients repository.IngredientRepository,
	tags repository.TagRepository, follows repository.FollowRepository, members repository.MembershipRepository,
	images imagestore.Store) RecipeService {
	return &recipeService{
		recipes:     recipes,
		ingredients: ingredients,
		tags:        tags,
		follows:     follows,
		members:     members,
		images:      images,
	}
}

// validate 写入前的全部校验，不产生任何副作用
func (s *recipeService) validate(ctx context.Context, in RecipeInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if err := validation.CookingTime(in.CookingTime); err != nil {
		return err
	}
	if err := validation.Image(in.Image); err != nil {
		return err
	}
	if err := validation.Tags(in.Tags); err != nil {
		return err
	}
	if err := validation.References(ctx, "tag", in.Tags, s.tags); err != nil {
		return err
	}
	return validation.Ingredients(ctx, in.Ingredients, s.ingredients)
}

func composition(in RecipeInput) repository.Composition {
	lines := make([]repository.CompositionLine, len(in.Ingredients))
	for i, l := range in.Ingredients {
		lines[i] = repository.CompositionLine{IngredientID: l.IngredientID, Amount: l.Amount}
	}
	return repository.Composition{TagIDs: in.Tags, Lines: lines}
}

func (s *recipeService) saveImage(ctx context.Context, payload string) (string, error) {
	img, err := imagestore.Decode(payload)
	if err != nil {
		return "", err
	}
	ref, err := s.images.Save(ctx, img)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return ref, nil
}

func (s *recipeService) dropImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		logger.Warn("delete recipe image failed", zap.String("image", ref), zap.Error(err))
	}
}

func (s *recipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*RecipeView, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	ref, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       ref,
	}
	if err := s.recipes.Create(ctx, recipe, composition(in)); err != nil {
		s.dropImage(ctx, ref)
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	logger.Info("recipe created", zap.String("recipe_id", recipe.ID), zap.String("author_id", authorID))
	return s.Get(ctx, recipe.ID, authorID)
}

// authorize 只有作者本人可以修改或删除
func (s *recipeService) authorize(ctx context.Context, recipeID, callerID string) (*model.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != callerID {
		return nil, apperr.Forbidden("only the author can change this recipe")
	}
	return recipe, nil
}

func (s *recipeService) Update(ctx context.Context, recipeID, callerID string, in RecipeInput) (*RecipeView, error) {
	current, err := s.authorize(ctx, recipeID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	ref, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	current.Name = in.Name
	current.Text = in.Text
	current.CookingTime = in.CookingTime
	oldImage := current.Image
	current.Image = ref
	if err := s.recipes.Replace(ctx, current, composition(in)); err != nil {
		s.dropImage(ctx, ref)
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	s.dropImage(ctx, oldImage)
	return s.Get(ctx, recipeID, callerID)
}

func (s *recipeService) Delete(ctx context.Context, recipeID, callerID string) error {
	current, err := s.authorize(ctx, recipeID, callerID)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	s.dropImage(ctx, current.Image)
	logger.Info("recipe deleted", zap.String("recipe_id", recipeID))
	return nil
}

func (s *recipeService) Get(ctx context.Context, recipeID, viewerID string) (*RecipeView, error) {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	flags, err := loadViewerFlags(ctx, s.follows, s.members, viewerID, []model.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	view := flags.recipeView(recipe)
	return &view, nil
}

func (s *recipeService) List(ctx context.Context, q RecipeQuery, viewerID string) (*Page[RecipeView], error) {
	filter := repository.RecipeFilter{AuthorID: q.AuthorID, TagSlugs: q.Tags}
	// 匿名访问者的收藏/购物车过滤直接忽略
	if viewerID != "" {
		filter.ViewerID = viewerID
		filter.FavoritedOnly = q.IsFavorited
		filter.InCartOnly = q.IsInShoppingCart
	}
	recipes, total, err := s.recipes.List(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	flags, err := loadViewerFlags(ctx, s.follows, s.members, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	page := &Page[RecipeView]{Count: total, Results: make([]RecipeView, 0, len(recipes))}
	for i := range recipes {
		page.Results = append(page.Results, flags.recipeView(&recipes[i]))
	}
	return page, nil
}
