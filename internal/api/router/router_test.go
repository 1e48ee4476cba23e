package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/imagestore"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

const (
	secret = "router-test-secret"
	issuer = "recipehub"
	png    = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	ids    map[string]string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	media := t.TempDir()
	images, err := imagestore.NewLocalStore(media, "/media")
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db)
	members := repository.NewMembershipRepository(db)
	recipes := repository.NewRecipeRepository(db)
	ingredients := repository.NewIngredientRepository(db)
	tags := repository.NewTagRepository(db)

	h := handler.New(handler.Services{
		Recipes:   service.NewRecipeService(recipes, ingredients, tags, follows, members, images),
		Relations: service.NewRelationshipService(users, follows, recipes),
		Members:   service.NewMembershipService(members, recipes),
		Shopping:  service.NewShoppingService(members),
		Users:     service.NewUserService(users, follows),
		Catalog:   service.NewCatalogService(ingredients, tags, nil),
	}, config.PaginationConfig{PageSize: 6, MaxPageSize: 100})

	cfg := &config.Config{
		JWT:       config.JWTConfig{Secret: secret, Issuer: issuer},
		Storage:   config.StorageConfig{Driver: "local", Local: config.LocalStorageConfig{Dir: media, BaseURL: "/media"}},
		RateLimit: config.RateLimitConfig{RPS: 0},
	}

	s := &server{t: t, engine: Setup(Options{Config: cfg, Handler: h}), ids: map[string]string{}}
	s.ids["salt"] = testutil.SeedIngredient(t, db, "Salt", "g").ID
	s.ids["sugar"] = testutil.SeedIngredient(t, db, "Sugar", "g").ID
	s.ids["pepper"] = testutil.SeedIngredient(t, db, "Pepper", "g").ID
	s.ids["lunch"] = testutil.SeedTag(t, db, "Lunch", "lunch").ID
	s.ids["dinner"] = testutil.SeedTag(t, db, "Dinner", "dinner").ID
	return s
}

func token(t *testing.T, userID string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (s *server) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(s.t, userID))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

func (s *server) register(username string) string {
	w := s.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "long-enough-password",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.Profile](s.t, w).ID
}

func (s *server) recipeBody(name string, tags []string, lines ...[2]interface{}) map[string]interface{} {
	ings := make([]map[string]interface{}, 0, len(lines))
	for _, l := range lines {
		ings = append(ings, map[string]interface{}{"id": s.ids[l[0].(string)], "amount": l[1]})
	}
	tagIDs := make([]string, 0, len(tags))
	for _, tg := range tags {
		tagIDs = append(tagIDs, s.ids[tg])
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Stir well.",
		"cooking_time": 20,
		"image":        png,
		"tags":         tagIDs,
		"ingredients":  ings,
	}
}

func (s *server) createRecipe(userID string, body map[string]interface{}) service.RecipeView {
	w := s.do(http.MethodPost, "/api/v1/recipes", userID, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.RecipeView](s.t, w)
}

type page[T any] struct {
	Count   int64 `json:"count"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Results []T   `json:"results"`
}

func TestOpsEndpoints(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)

	w := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipehub_http_requests_total")
}

func TestHealthReportsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "s3"}}
	r := Setup(Options{
		Config:  cfg,
		Handler: handler.New(handler.Services{}, config.PaginationConfig{}),
		Health:  func(context.Context) error { return errors.New("db down") },
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecipeLifecycle(t *testing.T) {
	s := newServer(t)
	chef := s.register("chef")
	guest := s.register("guest")

	rec := s.createRecipe(chef, s.recipeBody("Soup", []string{"lunch", "dinner"},
		[2]interface{}{"salt", 3}, [2]interface{}{"sugar", 7}))
	assert.Equal(t, chef, rec.Author.ID)
	require.Len(t, rec.Ingredients, 2)
	assert.Equal(t, "Salt", rec.Ingredients[0].Name)
	assert.EqualValues(t, 7, rec.Ingredients[1].Amount)
	assert.Len(t, rec.Tags, 2)
	assert.True(t, strings.HasPrefix(rec.Image, "/media/recipes/"))

	img := s.do(http.MethodGet, rec.Image, "", nil)
	assert.Equal(t, http.StatusOK, img.Code)

	w := s.do(http.MethodGet, "/api/v1/recipes/"+rec.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[service.RecipeView](t, w).IsFavorited)

	w = s.do(http.MethodPatch, "/api/v1/recipes/"+rec.ID, guest, s.recipeBody("Mine", []string{"lunch"}, [2]interface{}{"salt", 1}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/recipes/"+rec.ID, chef, s.recipeBody("Better soup", []string{"lunch"}, [2]interface{}{"pepper", 2}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[service.RecipeView](t, w)
	assert.Equal(t, "Better soup", updated.Name)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "Pepper", updated.Ingredients[0].Name)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/api/v1/recipes/"+rec.ID, guest, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/recipes/"+rec.ID, chef, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/recipes/"+rec.ID, "", nil).Code)
}

func TestCreateRecipeErrors(t *testing.T) {
	s := newServer(t)
	chef := s.register("chef")

	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodPost, "/api/v1/recipes", "", s.recipeBody("Soup", []string{"lunch"}, [2]interface{}{"salt", 1})).Code)

	w := s.do(http.MethodPost, "/api/v1/recipes", chef,
		s.recipeBody("Soup", []string{"lunch"}, [2]interface{}{"salt", 3}, [2]interface{}{"salt", 5}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := s.recipeBody("Soup", []string{"lunch"}, [2]interface{}{"salt", 1})
	body["cooking_time"] = 32768
	w = s.do(http.MethodPost, "/api/v1/recipes", chef, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body["cooking_time"] = 32767
	w = s.do(http.MethodPost, "/api/v1/recipes", chef, body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body["ingredients"] = []map[string]interface{}{{"id": "missing", "amount": 1}}
	w = s.do(http.MethodPost, "/api/v1/recipes", chef, body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShoppingCartFlow(t *testing.T) {
	s := newServer(t)
	chef := s.register("chef")
	shopper := s.register("shopper")

	a := s.createRecipe(chef, s.recipeBody("A", []string{"lunch"}, [2]interface{}{"salt", 10}, [2]interface{}{"sugar", 5}))
	b := s.createRecipe(chef, s.recipeBody("B", []string{"dinner"}, [2]interface{}{"salt", 15}, [2]interface{}{"pepper", 2}))

	for _, id := range []string{a.ID, b.ID} {
		w := s.do(http.MethodPost, "/api/v1/recipes/"+id+"/shopping_cart", shopper, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/recipes/"+a.ID+"/shopping_cart", shopper, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/recipes/download_shopping_cart", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Pepper: 2 g\nSalt: 25 g\nSugar: 5 g\n", w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/recipes?is_in_shopping_cart=1", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inCart := decode[page[service.RecipeView]](t, w)
	assert.EqualValues(t, 2, inCart.Count)
	for _, r := range inCart.Results {
		assert.True(t, r.IsInShoppingCart)
	}

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/recipes/"+a.ID+"/shopping_cart", shopper, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/v1/recipes/"+a.ID+"/shopping_cart", shopper, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/recipes/download_shopping_cart", chef, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/recipes/download_shopping_cart", "", nil).Code)
}

func TestFavoritesAndFilters(t *testing.T) {
	s := newServer(t)
	chef := s.register("chef")
	fan := s.register("fan")
	lunch := s.createRecipe(chef, s.recipeBody("Lunch", []string{"lunch"}, [2]interface{}{"salt", 1}))
	s.createRecipe(chef, s.recipeBody("Dinner", []string{"dinner"}, [2]interface{}{"salt", 1}))

	w := s.do(http.MethodPost, "/api/v1/recipes/"+lunch.ID+"/favorite", fan, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	short := decode[service.ShortRecipe](t, w)
	assert.Equal(t, lunch.ID, short.ID)

	w = s.do(http.MethodGet, "/api/v1/recipes?is_favorited=1", fan, nil)
	favs := decode[page[service.RecipeView]](t, w)
	require.Len(t, favs.Results, 1)
	assert.True(t, favs.Results[0].IsFavorited)

	// 匿名访问时忽略收藏过滤
	w = s.do(http.MethodGet, "/api/v1/recipes?is_favorited=1", "", nil)
	assert.EqualValues(t, 2, decode[page[service.RecipeView]](t, w).Count)

	w = s.do(http.MethodGet, "/api/v1/recipes?tags=lunch&tags=dinner&limit=1", "", nil)
	both := decode[page[service.RecipeView]](t, w)
	assert.EqualValues(t, 2, both.Count)
	assert.Len(t, both.Results, 1)
	assert.Equal(t, 1, both.Limit)

	w = s.do(http.MethodGet, "/api/v1/recipes?tags=dinner&author="+chef, "", nil)
	assert.EqualValues(t, 1, decode[page[service.RecipeView]](t, w).Count)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/recipes?page=zero", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/recipes?is_favorited=maybe", fan, nil).Code)
}

func TestSubscriptions(t *testing.T) {
	s := newServer(t)
	reader := s.register("reader")
	author := s.register("author")
	for _, name := range []string{"one", "two", "three"} {
		s.createRecipe(author, s.recipeBody(name, []string{"lunch"}, [2]interface{}{"salt", 1}))
	}

	w := s.do(http.MethodPost, "/api/v1/users/"+author+"/subscribe?recipes_limit=2", reader, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[service.Subscription](t, w)
	assert.True(t, sub.IsSubscribed)
	assert.Len(t, sub.Recipes, 2)
	assert.EqualValues(t, 3, sub.RecipesCount)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/users/"+author+"/subscribe", reader, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/users/"+reader+"/subscribe", reader, nil).Code)

	w = s.do(http.MethodGet, "/api/v1/users/subscriptions?recipes_limit=1", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	subs := decode[page[service.Subscription]](t, w)
	require.Len(t, subs.Results, 1)
	assert.Len(t, subs.Results[0].Recipes, 1)

	w = s.do(http.MethodGet, "/api/v1/users/"+author, reader, nil)
	assert.True(t, decode[service.Profile](t, w).IsSubscribed)
	w = s.do(http.MethodGet, "/api/v1/users/"+author, "", nil)
	assert.False(t, decode[service.Profile](t, w).IsSubscribed)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/users/"+author+"/subscribe", reader, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/v1/users/"+author+"/subscribe", reader, nil).Code)
}

func TestUsersAndCatalog(t *testing.T) {
	s := newServer(t)
	id := s.register("cook")

	w := s.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"email": "cook@example.com", "username": "cook", "first_name": "A", "last_name": "B", "password": "long-enough-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/users/me", id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cook", decode[service.Profile](t, w).Username)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/users/me", "", nil).Code)

	w = s.do(http.MethodGet, "/api/v1/users", "", nil)
	assert.EqualValues(t, 1, decode[page[service.Profile]](t, w).Count)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/users/nobody", "", nil).Code)

	w = s.do(http.MethodGet, "/api/v1/ingredients?name=s", "", nil)
	items := decode[[]service.IngredientView](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, "Salt", items[0].Name)

	w = s.do(http.MethodGet, "/api/v1/ingredients/"+s.ids["pepper"], "", nil)
	assert.Equal(t, "Pepper", decode[service.IngredientView](t, w).Name)

	w = s.do(http.MethodGet, "/api/v1/tags", "", nil)
	assert.Len(t, decode[[]service.TagView](t, w), 2)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/tags/missing", "", nil).Code)
}
