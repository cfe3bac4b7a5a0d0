package storage

import (
	"context"
	"errors"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Storage persists users and their purchase orders.
// Insert and update calls report the number of rows they affected.
type Storage interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	InsertUser(ctx context.Context, user models.User) (int64, error)

	FindOrderByID(ctx context.Context, id string) (*models.PurchaseOrder, error)
	FindOrderByIDAndOwner(ctx context.Context, id, owner string) (*models.PurchaseOrder, error)
	InsertOrder(ctx context.Context, order models.PurchaseOrder) (int64, error)
	UpdateOrder(ctx context.Context, order models.PurchaseOrder) (int64, error)
	CountOrders(ctx context.Context, c query.Criteria) (int64, error)
	ListOrders(ctx context.Context, c query.Criteria, limit, offset int) ([]models.PurchaseOrder, error)

	Close()
}
