package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
)

// MemoryStorage keeps everything in process memory. It backs tests and
// local runs without a database.
type MemoryStorage struct {
	mu     sync.RWMutex
	users  map[string]models.User
	orders map[string]models.PurchaseOrder
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:  make(map[string]models.User),
		orders: make(map[string]models.PurchaseOrder),
	}
}

func userKey(username string) string {
	return strings.ToLower(username)
}

func (s *MemoryStorage) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userKey(username)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStorage) UserExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userKey(username)]
	return ok, nil
}

func (s *MemoryStorage) InsertUser(_ context.Context, user models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey(user.Username)
	if _, ok := s.users[key]; ok {
		return 0, ErrUsernameTaken
	}
	s.users[key] = user
	return 1, nil
}

func (s *MemoryStorage) FindOrderByID(_ context.Context, id string) (*models.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order = cloneOrder(order)
	return &order, nil
}

func (s *MemoryStorage) FindOrderByIDAndOwner(_ context.Context, id, owner string) (*models.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok || order.Username != owner {
		return nil, ErrNotFound
	}
	order = cloneOrder(order)
	return &order, nil
}

func (s *MemoryStorage) InsertOrder(_ context.Context, order models.PurchaseOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.ID]; ok {
		return 0, nil
	}
	s.orders[order.ID] = cloneOrder(order)
	return 1, nil
}

func (s *MemoryStorage) UpdateOrder(_ context.Context, order models.PurchaseOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.orders[order.ID]
	if !ok || existing.Username != order.Username {
		return 0, nil
	}
	s.orders[order.ID] = cloneOrder(order)
	return 1, nil
}

func (s *MemoryStorage) CountOrders(_ context.Context, c query.Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, order := range s.orders {
		if c.Matches(order) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) ListOrders(_ context.Context, c query.Criteria, limit, offset int) ([]models.PurchaseOrder, error) {
	s.mu.RLock()
	matched := make([]models.PurchaseOrder, 0)
	for _, order := range s.orders {
		if c.Matches(order) {
			matched = append(matched, cloneOrder(order))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return c.Less(matched[i], matched[j]) })

	if offset >= len(matched) {
		return []models.PurchaseOrder{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *MemoryStorage) Close() {}

func cloneOrder(o models.PurchaseOrder) models.PurchaseOrder {
	o.LineItems = append([]models.LineItem(nil), o.LineItems...)
	if o.UpdatedAt != nil {
		updated := *o.UpdatedAt
		o.UpdatedAt = &updated
	}
	return o
}
