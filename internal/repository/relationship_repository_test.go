package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

func TestFollowRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice")
	bob := testutil.SeedUser(t, db, "bob")
	carol := testutil.SeedUser(t, db, "carol")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, alice.ID, carol.ID))

	err := repo.Create(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	ok, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	flags, err := repo.FollowedAmong(ctx, alice.ID, []string{bob.ID, carol.ID, alice.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{bob.ID: true, carol.ID: true}, flags)

	ids, total, err := repo.ListAuthors(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{bob.ID, carol.ID}, ids)

	removed, err := repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRejectsSelfAtStorage(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.SeedUser(t, db, "alice")

	err := NewFollowRepository(db).Create(context.Background(), alice.ID, alice.ID)
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&model.Follow{}).Where("user_id = author_id").Count(&n).Error)
	assert.Zero(t, n)
}

func TestMembershipRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "u")

	added, err := repo.Add(ctx, model.KindFavorite, u.ID, "r1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, model.KindFavorite, u.ID, "r1")
	require.NoError(t, err)
	assert.False(t, added)

	// 两个集合互不影响
	added, err = repo.Add(ctx, model.KindShoppingCart, u.ID, "r1")
	require.NoError(t, err)
	assert.True(t, added)

	ok, err := repo.Exists(ctx, model.KindFavorite, u.ID, "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	flags, err := repo.Flags(ctx, model.KindShoppingCart, u.ID, []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"r1": true}, flags)

	flags, err = repo.Flags(ctx, model.KindShoppingCart, "", []string{"r1"})
	require.NoError(t, err)
	assert.Empty(t, flags)

	removed, err := repo.Remove(ctx, model.KindFavorite, u.ID, "r1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Remove(ctx, model.KindFavorite, u.ID, "r1")
	require.NoError(t, err)
	assert.False(t, removed)

	ok, err = repo.Exists(ctx, model.KindShoppingCart, u.ID, "r1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMembershipCartRows(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	shopper := testutil.SeedUser(t, f.db, "shopper")
	pepper := testutil.SeedIngredient(t, f.db, "Pepper", "g")

	a := f.newRecipe("A")
	require.NoError(t, f.repo.Create(ctx, a, Composition{TagIDs: []string{f.lunch.ID}, Lines: []CompositionLine{{f.salt.ID, 10}, {f.sugar.ID, 5}}}))
	b := f.newRecipe("B")
	require.NoError(t, f.repo.Create(ctx, b, Composition{TagIDs: []string{f.lunch.ID}, Lines: []CompositionLine{{f.salt.ID, 15}, {pepper.ID, 2}}}))
	c := f.newRecipe("C")
	require.NoError(t, f.repo.Create(ctx, c, Composition{TagIDs: []string{f.lunch.ID}, Lines: []CompositionLine{{f.sugar.ID, 100}}}))

	members := NewMembershipRepository(f.db)
	_, _ = members.Add(ctx, model.KindShoppingCart, shopper.ID, a.ID)
	_, _ = members.Add(ctx, model.KindShoppingCart, shopper.ID, b.ID)
	// 收藏不计入购物清单
	_, _ = members.Add(ctx, model.KindFavorite, shopper.ID, c.ID)

	rows, err := members.CartRows(ctx, shopper.ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	var salt int64
	for _, r := range rows {
		if r.Name == "Salt" {
			assert.Equal(t, "g", r.MeasurementUnit)
			salt += r.Amount
		}
	}
	assert.EqualValues(t, 25, salt)

	empty, err := members.CartRows(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
