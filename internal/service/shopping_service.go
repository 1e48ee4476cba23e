package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/recipehub/internal/metrics"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/shopping"
)

// Report 聚合后的购物清单
type Report struct {
	Lines []shopping.Line
	Text  string
}

// ShoppingService 购物清单聚合
type ShoppingService interface {
	BuildReport(ctx context.Context, userID string) (*Report, error)
}

type shoppingService struct {
	members repository.MembershipRepository
}

func NewShoppingService(members repository.MembershipRepository) ShoppingService {
	return &shoppingService{members: members}
}

// BuildReport 把购物车内所有菜谱的食材按 (名称, 单位) 合并求和；购物车为空时返回空清单
func (s *shoppingService) BuildReport(ctx context.Context, userID string) (*Report, error) {
	rows, err := s.members.CartRows(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items := make([]shopping.Item, len(rows))
	for i, r := range rows {
		items[i] = shopping.Item{Name: r.Name, Unit: r.MeasurementUnit, Amount: r.Amount}
	}
	lines := shopping.Aggregate(items)
	metrics.ObserveReport(len(lines))
	return &Report{Lines: lines, Text: shopping.Render(lines)}, nil
}
