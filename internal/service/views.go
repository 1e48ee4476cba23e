package service

import (
	"context"
	"fmt"
	"time"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
)

// Profile 用户资料，IsSubscribed 相对当前访问者
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type TagView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientAmount 菜谱中的一行食材
type IngredientAmount struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               string             `json:"id"`
	Author           Profile            `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	Tags             []TagView          `json:"tags"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
	PubDate          time.Time          `json:"pub_date"`
}

// ShortRecipe 收藏、购物车与订阅列表中使用的精简菜谱
type ShortRecipe struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Subscription 订阅的作者及其最新菜谱
type Subscription struct {
	Profile
	Recipes      []ShortRecipe `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// Page 分页结果
type Page[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

func profileView(u *model.User, subscribed bool) Profile {
	if u == nil {
		return Profile{}
	}
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func tagView(t model.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func ingredientView(i model.Ingredient) IngredientView {
	return IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func shortRecipe(r *model.Recipe) ShortRecipe {
	return ShortRecipe{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// IsFollowing 访问者是否订阅了作者；匿名访问者恒为 false
func IsFollowing(ctx context.Context, follows repository.FollowRepository, viewerID, authorID string) (bool, error) {
	if viewerID == "" || viewerID == authorID {
		return false, nil
	}
	return follows.Exists(ctx, viewerID, authorID)
}

// viewerFlags 一次查出访问者对一批菜谱/作者的关系标记
type viewerFlags struct {
	subscribed map[string]bool
	favorited  map[string]bool
	inCart     map[string]bool
}

func loadViewerFlags(ctx context.Context, follows repository.FollowRepository, members repository.MembershipRepository,
	viewerID string, recipes []model.Recipe) (*viewerFlags, error) {
	flags := &viewerFlags{subscribed: map[string]bool{}, favorited: map[string]bool{}, inCart: map[string]bool{}}
	if viewerID == "" || len(recipes) == 0 {
		return flags, nil
	}
	recipeIDs := make([]string, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seen := make(map[string]bool, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if !seen[r.AuthorID] {
			seen[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}
	var err error
	if flags.subscribed, err = follows.FollowedAmong(ctx, viewerID, authorIDs); err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	if flags.favorited, err = members.Flags(ctx, model.KindFavorite, viewerID, recipeIDs); err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if flags.inCart, err = members.Flags(ctx, model.KindShoppingCart, viewerID, recipeIDs); err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	return flags, nil
}

func (f *viewerFlags) recipeView(r *model.Recipe) RecipeView {
	view := RecipeView{
		ID:               r.ID,
		Author:           profileView(r.Author, f.subscribed[r.AuthorID]),
		Ingredients:      make([]IngredientAmount, 0, len(r.Ingredients)),
		Tags:             make([]TagView, 0, len(r.Tags)),
		IsFavorited:      f.favorited[r.ID],
		IsInShoppingCart: f.inCart[r.ID],
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
	for _, ri := range r.Ingredients {
		view.Ingredients = append(view.Ingredients, IngredientAmount{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	for _, t := range r.Tags {
		view.Tags = append(view.Tags, tagView(t))
	}
	return view
}
