package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

type recipeFixture struct {
	db          *gorm.DB
	repo        RecipeRepository
	author      *model.User
	salt, sugar *model.Ingredient
	lunch, fast *model.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := testutil.NewDB(t)
	return &recipeFixture{
		db:     db,
		repo:   NewRecipeRepository(db),
		author: testutil.SeedUser(t, db, "chef"),
		salt:   testutil.SeedIngredient(t, db, "Salt", "g"),
		sugar:  testutil.SeedIngredient(t, db, "Sugar", "g"),
		lunch:  testutil.SeedTag(t, db, "Lunch", "lunch"),
		fast:   testutil.SeedTag(t, db, "Fast", "fast"),
	}
}

func (f *recipeFixture) newRecipe(name string) *model.Recipe {
	return &model.Recipe{AuthorID: f.author.ID, Name: name, Image: "/media/recipes/x.png", Text: "mix", CookingTime: 10}
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestRecipeCreateAndGet(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	rec := f.newRecipe("Soup")
	err := f.repo.Create(ctx, rec, Composition{
		TagIDs: []string{f.lunch.ID, f.fast.ID},
		Lines:  []CompositionLine{{f.sugar.ID, 7}, {f.salt.ID, 3}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Name)
	require.NotNil(t, got.Author)
	assert.Equal(t, "chef", got.Author.Username)
	require.Len(t, got.Ingredients, 2)
	// 按提交顺序返回
	assert.Equal(t, "Sugar", got.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 7, got.Ingredients[0].Amount)
	assert.Equal(t, "Salt", got.Ingredients[1].Ingredient.Name)
	assert.Equal(t, 3, got.Ingredients[1].Amount)
	require.Len(t, got.Tags, 2)
	assert.ElementsMatch(t, []string{"lunch", "fast"}, []string{got.Tags[0].Slug, got.Tags[1].Slug})
}

func TestRecipeCreateRollsBackOnMissingIngredient(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	err := f.repo.Create(ctx, f.newRecipe("Ghost"), Composition{
		TagIDs: []string{f.lunch.ID},
		Lines:  []CompositionLine{{f.salt.ID, 1}, {"missing", 2}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Zero(t, countRows(t, f.db, &model.Recipe{}))
	assert.Zero(t, countRows(t, f.db, &model.RecipeIngredient{}))
	assert.Zero(t, countRows(t, f.db, &model.RecipeTag{}))
}

func TestRecipeCreateRejectsDuplicateIngredientAtStorage(t *testing.T) {
	f := newRecipeFixture(t)

	err := f.repo.Create(context.Background(), f.newRecipe("Twice"), Composition{
		TagIDs: []string{f.lunch.ID},
		Lines:  []CompositionLine{{f.salt.ID, 3}, {f.salt.ID, 5}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, countRows(t, f.db, &model.Recipe{}))
	assert.Zero(t, countRows(t, f.db, &model.RecipeIngredient{}))
}

func TestRecipeReplaceClearsAndRewrites(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	rec := f.newRecipe("Soup")
	require.NoError(t, f.repo.Create(ctx, rec, Composition{
		TagIDs: []string{f.lunch.ID, f.fast.ID},
		Lines:  []CompositionLine{{f.salt.ID, 3}, {f.sugar.ID, 7}},
	}))

	rec.Name = "Better soup"
	rec.CookingTime = 20
	require.NoError(t, f.repo.Replace(ctx, rec, Composition{
		TagIDs: []string{f.fast.ID},
		Lines:  []CompositionLine{{f.sugar.ID, 1}},
	}))

	got, err := f.repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Better soup", got.Name)
	assert.Equal(t, 20, got.CookingTime)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, f.fast.ID, got.Tags[0].ID)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, f.sugar.ID, got.Ingredients[0].IngredientID)
	assert.EqualValues(t, 1, countRows(t, f.db, &model.RecipeIngredient{}))
}

func TestRecipeReplaceMissingRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	rec := f.newRecipe("Nope")
	rec.ID = "missing"
	err := f.repo.Replace(context.Background(), rec, Composition{TagIDs: []string{f.lunch.ID}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecipeDeleteCascades(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	fan := testutil.SeedUser(t, f.db, "fan")

	rec := f.newRecipe("Soup")
	require.NoError(t, f.repo.Create(ctx, rec, Composition{
		TagIDs: []string{f.lunch.ID},
		Lines:  []CompositionLine{{f.salt.ID, 3}},
	}))
	members := NewMembershipRepository(f.db)
	_, err := members.Add(ctx, model.KindFavorite, fan.ID, rec.ID)
	require.NoError(t, err)
	_, err = members.Add(ctx, model.KindShoppingCart, fan.ID, rec.ID)
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, rec.ID))
	assert.Zero(t, countRows(t, f.db, &model.Recipe{}))
	assert.Zero(t, countRows(t, f.db, &model.RecipeIngredient{}))
	assert.Zero(t, countRows(t, f.db, &model.RecipeTag{}))
	assert.Zero(t, countRows(t, f.db, &model.Membership{}))

	assert.ErrorIs(t, f.repo.Delete(ctx, rec.ID), apperr.ErrNotFound)
}

func TestRecipeListFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := testutil.SeedUser(t, f.db, "other")
	viewer := testutil.SeedUser(t, f.db, "viewer")

	base := time.Now().Add(-time.Hour)
	mk := func(author *model.User, name string, tag *model.Tag, offset time.Duration) *model.Recipe {
		rec := &model.Recipe{AuthorID: author.ID, Name: name, Image: "i", Text: "t", CookingTime: 5, PubDate: base.Add(offset)}
		require.NoError(t, f.repo.Create(ctx, rec, Composition{
			TagIDs: []string{tag.ID},
			Lines:  []CompositionLine{{f.salt.ID, 1}},
		}))
		return rec
	}
	r1 := mk(f.author, "first", f.lunch, time.Minute)
	r2 := mk(f.author, "second", f.fast, 2*time.Minute)
	r3 := mk(other, "third", f.lunch, 3*time.Minute)

	members := NewMembershipRepository(f.db)
	_, _ = members.Add(ctx, model.KindFavorite, viewer.ID, r1.ID)
	_, _ = members.Add(ctx, model.KindShoppingCart, viewer.ID, r3.ID)

	names := func(rs []model.Recipe) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Name
		}
		return out
	}

	all, total, err := f.repo.List(ctx, RecipeFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"third", "second", "first"}, names(all))

	byAuthor, total, err := f.repo.List(ctx, RecipeFilter{AuthorID: f.author.ID}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"second", "first"}, names(byAuthor))

	byTag, _, err := f.repo.List(ctx, RecipeFilter{TagSlugs: []string{"lunch"}}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first"}, names(byTag))

	anyTag, _, err := f.repo.List(ctx, RecipeFilter{TagSlugs: []string{"lunch", "fast"}}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, anyTag, 3)

	favs, _, err := f.repo.List(ctx, RecipeFilter{ViewerID: viewer.ID, FavoritedOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, names(favs))

	cart, _, err := f.repo.List(ctx, RecipeFilter{ViewerID: viewer.ID, InCartOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"third"}, names(cart))

	// 匿名访问时忽略收藏过滤
	anon, _, err := f.repo.List(ctx, RecipeFilter{FavoritedOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, anon, 3)

	page2, total, err := f.repo.List(ctx, RecipeFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"first"}, names(page2))
	_ = r2
}

func TestRecipeAuthorAggregates(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"a", "b", "c"} {
		rec := f.newRecipe(name)
		rec.PubDate = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.repo.Create(ctx, rec, Composition{TagIDs: []string{f.lunch.ID}, Lines: []CompositionLine{{f.salt.ID, 1}}}))
	}

	counts, err := f.repo.CountByAuthors(ctx, []string{f.author.ID, "nobody"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[f.author.ID])
	assert.Zero(t, counts["nobody"])

	latest, err := f.repo.LatestByAuthors(ctx, []string{f.author.ID}, 2)
	require.NoError(t, err)
	require.Len(t, latest[f.author.ID], 2)
	assert.Equal(t, "c", latest[f.author.ID][0].Name)
	assert.Equal(t, "b", latest[f.author.ID][1].Name)

	unlimited, err := f.repo.LatestByAuthors(ctx, []string{f.author.ID}, 0)
	require.NoError(t, err)
	assert.Len(t, unlimited[f.author.ID], 3)

	authorID, err := f.repo.GetAuthorID(ctx, latest[f.author.ID][0].ID)
	require.NoError(t, err)
	assert.Equal(t, f.author.ID, authorID)
	_, err = f.repo.GetAuthorID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
