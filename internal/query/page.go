package query

import (
	"context"
	"fmt"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

type Page[T any] struct {
	PageIndex    int   `json:"pageIndex"`
	PageSize     int   `json:"pageSize"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
	Data         []T   `json:"data"`
}

// Source is the storage side of pagination.
type Source interface {
	CountOrders(ctx context.Context, c Criteria) (int64, error)
	ListOrders(ctx context.Context, c Criteria, limit, offset int) ([]models.PurchaseOrder, error)
}

// Paginate counts the matching orders and then fetches a single page of them.
// A page past the end yields no data but still reports the totals.
func Paginate(ctx context.Context, src Source, c Criteria, pageIndex, pageSize int) (Page[models.PurchaseOrder], error) {
	if pageIndex < 1 {
		pageIndex = DefaultPageIndex
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total, err := src.CountOrders(ctx, c)
	if err != nil {
		return Page[models.PurchaseOrder]{}, fmt.Errorf("count orders: %w", err)
	}

	page := Page[models.PurchaseOrder]{
		PageIndex:    pageIndex,
		PageSize:     pageSize,
		TotalRecords: total,
		TotalPages:   TotalPages(total, pageSize),
		Data:         []models.PurchaseOrder{},
	}

	offset := (pageIndex - 1) * pageSize
	if int64(offset) >= total {
		return page, nil
	}

	orders, err := src.ListOrders(ctx, c, pageSize, offset)
	if err != nil {
		return Page[models.PurchaseOrder]{}, fmt.Errorf("list orders: %w", err)
	}
	if orders != nil {
		page.Data = orders
	}
	return page, nil
}

func TotalPages(total int64, pageSize int) int64 {
	if pageSize < 1 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		pages++
	}
	return pages
}
