package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "Cook@Example.com",
		Username:  "cook",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "bon-appetit",
	}
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p, err := e.userSvc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", p.Email)
	assert.False(t, p.IsSubscribed)

	stored, err := e.users.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "bon-appetit", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("bon-appetit")))

	_, err = e.userSvc.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := map[string]func(*RegisterInput){
		"bad email":      func(in *RegisterInput) { in.Email = "not-an-email" },
		"short password": func(in *RegisterInput) { in.Password = "short" },
		"reserved name":  func(in *RegisterInput) { in.Username = "me" },
		"bad username":   func(in *RegisterInput) { in.Username = "two words" },
		"missing name":   func(in *RegisterInput) { in.FirstName = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration()
			mutate(&in)
			_, err := e.userSvc.Register(ctx, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestUserProfileSubscriptionFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	reader := testutil.SeedUser(t, e.db, "reader")
	author := testutil.SeedUser(t, e.db, "author")
	_, err := e.relSvc.Follow(ctx, reader.ID, author.ID, 0)
	require.NoError(t, err)

	p, err := e.userSvc.Get(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, p.IsSubscribed)

	p, err = e.userSvc.Get(ctx, "", author.ID)
	require.NoError(t, err)
	assert.False(t, p.IsSubscribed)

	p, err = e.userSvc.Get(ctx, author.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, p.IsSubscribed)

	_, err = e.userSvc.Get(ctx, "", "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	page, err := e.userSvc.List(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Count)
	for _, prof := range page.Results {
		assert.Equal(t, prof.ID == author.ID, prof.IsSubscribed)
	}
}
