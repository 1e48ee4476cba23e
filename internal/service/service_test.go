package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/recipehub/internal/imagestore"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/testutil"
	"github.com/d60-Lab/recipehub/internal/validation"
)

var testPNG = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"))

type env struct {
	db      *gorm.DB
	users   repository.UserRepository
	follows repository.FollowRepository
	members repository.MembershipRepository
	recipes repository.RecipeRepository

	recipeSvc   RecipeService
	relSvc      RelationshipService
	memberSvc   MembershipService
	shoppingSvc ShoppingService
	userSvc     UserService

	images *imagestore.LocalStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	images, err := imagestore.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	e := &env{
		db:      db,
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		members: repository.NewMembershipRepository(db),
		recipes: repository.NewRecipeRepository(db),
		images:  images,
	}
	ingredients := repository.NewIngredientRepository(db)
	tags := repository.NewTagRepository(db)
	e.recipeSvc = NewRecipeService(e.recipes, ingredients, tags, e.follows, e.members, images)
	e.relSvc = NewRelationshipService(e.users, e.follows, e.recipes)
	e.memberSvc = NewMembershipService(e.members, e.recipes)
	e.shoppingSvc = NewShoppingService(e.members)
	e.userSvc = NewUserService(e.users, e.follows)
	return e
}

func (e *env) count(t *testing.T, m interface{}) int64 {
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func recipeInput(name string, tags []string, lines ...validation.IngredientLine) RecipeInput {
	return RecipeInput{
		Name:        name,
		Text:        "Mix everything.",
		CookingTime: 15,
		Image:       testPNG,
		Tags:        tags,
		Ingredients: lines,
	}
}

func line(id string, amount int) validation.IngredientLine {
	return validation.IngredientLine{IngredientID: id, Amount: amount}
}

func (e *env) createRecipe(t *testing.T, author *model.User, in RecipeInput) *RecipeView {
	t.Helper()
	view, err := e.recipeSvc.Create(context.Background(), author.ID, in)
	require.NoError(t, err)
	return view
}
