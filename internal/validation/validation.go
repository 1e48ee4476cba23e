// Package validation holds the pre-write checks shared by the recipe store and
// the relationship ledger. Every function is free of side effects and reports
// failures as *apperr.Error values.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/recipehub/internal/apperr"
	"github.com/d60-Lab/recipehub/internal/model"
)

// IngredientLine 菜谱中的一行 (食材, 数量)
type IngredientLine struct {
	IngredientID string `json:"id" validate:"required"`
	Amount       int    `json:"amount" validate:"min=1,max=32767"`
}

// ExistenceChecker 返回 ids 中实际存在的那部分
type ExistenceChecker interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// FollowLedger 判断订阅关系是否存在
type FollowLedger interface {
	Exists(ctx context.Context, userID, authorID string) (bool, error)
}

// MembershipLedger 判断 (user, recipe) 是否已在某个集合中
type MembershipLedger interface {
	Exists(ctx context.Context, kind model.MembershipKind, userID, recipeID string) (bool, error)
}

var (
	validate  = newValidator()
	slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	return v
}

// Struct 按 validate 标签校验，首个失败字段转成 ValidationError
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := verrs[0]
	return apperr.FieldValidation(fe.Field(), "%s", describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must contain at least %s items", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color like #E26C2D", fe.Field())
	case "slug":
		return fmt.Sprintf("%s may only contain letters, digits, '-' and '_'", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Tags 标签不能为空，也不能重复
func Tags(ids []string) error {
	if len(ids) == 0 {
		return apperr.FieldValidation("tags", "tags required")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return apperr.FieldValidation("tags", "duplicate tags")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Ingredients 校验组成行：非空、不重复、数量在界内，且每个食材都存在于目录中
func Ingredients(ctx context.Context, lines []IngredientLine, catalog ExistenceChecker) error {
	if len(lines) == 0 {
		return apperr.FieldValidation("ingredients", "ingredients required")
	}
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.IngredientID == "" {
			return apperr.FieldValidation("ingredients", "ingredient id is required")
		}
		if _, ok := seen[line.IngredientID]; ok {
			return apperr.FieldValidation("ingredients", "ingredient %s is listed more than once", line.IngredientID)
		}
		seen[line.IngredientID] = struct{}{}
		if line.Amount < model.MinAmount || line.Amount > model.MaxAmount {
			return apperr.FieldValidation("ingredients",
				"amount of ingredient %s must be between %d and %d", line.IngredientID, model.MinAmount, model.MaxAmount)
		}
		ids = append(ids, line.IngredientID)
	}

	return References(ctx, "ingredient", ids, catalog)
}

// References 每个 id 都必须存在，否则返回 NotFound 并指明第一个缺失的 id
func References(ctx context.Context, what string, ids []string, checker ExistenceChecker) error {
	if len(ids) == 0 {
		return nil
	}
	existing, err := checker.ExistingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup %ss: %w", what, err)
	}
	for _, id := range ids {
		if !existing[id] {
			return apperr.NotFound("%s %s not found", what, id)
		}
	}
	return nil
}

// Image 图片必填
func Image(image string) error {
	if strings.TrimSpace(image) == "" {
		return apperr.FieldValidation("image", "image required")
	}
	return nil
}

// CookingTime 烹饪时间 [1, 32767] 分钟
func CookingTime(minutes int) error {
	if minutes < model.MinCookingTime || minutes > model.MaxCookingTime {
		return apperr.FieldValidation("cooking_time",
			"cooking_time must be between %d and %d", model.MinCookingTime, model.MaxCookingTime)
	}
	return nil
}

// Follow 不能订阅自己，也不能重复订阅
func Follow(ctx context.Context, userID, authorID string, ledger FollowLedger) error {
	if userID == authorID {
		return apperr.Validation("you cannot subscribe to yourself")
	}
	exists, err := ledger.Exists(ctx, userID, authorID)
	if err != nil {
		return fmt.Errorf("lookup follow: %w", err)
	}
	if exists {
		return apperr.Conflict("already subscribed to this author")
	}
	return nil
}

// Membership 同一集合内 (user, recipe) 只能出现一次
func Membership(ctx context.Context, kind model.MembershipKind, userID, recipeID string, ledger MembershipLedger) error {
	if !kind.Valid() {
		return apperr.Validation("unknown collection %q", kind)
	}
	exists, err := ledger.Exists(ctx, kind, userID, recipeID)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", kind, err)
	}
	if exists {
		return AlreadyMember(kind)
	}
	return nil
}

// AlreadyMember 重复加入集合时的错误
func AlreadyMember(kind model.MembershipKind) error {
	if kind == model.KindShoppingCart {
		return apperr.Conflict("recipe is already in the shopping cart")
	}
	return apperr.Conflict("recipe is already in favorites")
}
