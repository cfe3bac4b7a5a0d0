package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/lifecycle"
	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
	"github.com/MarkMiraclee/purchaseorder/internal/rules"
	"github.com/MarkMiraclee/purchaseorder/internal/storage"
)

const msgOrderNotFound = "Purchase order not found"

func orderFields(caller models.UserContext, req models.PurchaseOrderRequest) logrus.Fields {
	return logrus.Fields{
		"username":   caller.Username,
		"order_name": req.Name,
		"status":     req.Status,
		"line_items": len(req.LineItems),
	}
}

func (s *Service) CreateOrder(ctx context.Context, caller models.UserContext, req models.PurchaseOrderRequest) Response[*models.PurchaseOrder] {
	return run(s, "create-order", orderFields(caller, req), http.StatusCreated, "Purchase order created successfully",
		func() (*models.PurchaseOrder, error) {
			if err := s.checkRequest(req); err != nil {
				return nil, err
			}

			now := s.now()
			if lifecycle.RequiresQuotaCheck(req) {
				if err := s.checkQuota(ctx, caller, now, 1); err != nil {
					return nil, err
				}
			}

			order := lifecycle.NewOrder(s.newID(), caller, req, now)
			rows, err := s.storage.InsertOrder(ctx, order)
			if err != nil {
				return nil, fmt.Errorf("insert order: %w", err)
			}
			if rows < 1 {
				return nil, dependencyFailure(errors.New("insert order affected no rows"))
			}
			return &order, nil
		})
}

// GetOrder returns the order only to its owner. Foreign orders look missing.
func (s *Service) GetOrder(ctx context.Context, caller models.UserContext, id string) Response[*models.PurchaseOrder] {
	fields := logrus.Fields{"username": caller.Username, "order_id": id}

	return run(s, "get-order", fields, http.StatusOK, "Retrieved successfully", func() (*models.PurchaseOrder, error) {
		return s.findOwnedOrder(ctx, caller, id)
	})
}

func (s *Service) ListOrders(ctx context.Context, caller models.UserContext, f query.Filter) Response[*query.Page[models.PurchaseOrder]] {
	f = f.Normalize()
	fields := logrus.Fields{
		"username":   caller.Username,
		"page_index": f.PageIndex,
		"page_size":  f.PageSize,
		"sort_order": f.SortOrder,
	}

	return run(s, "list-orders", fields, http.StatusOK, "Retrieved successfully", func() (*query.Page[models.PurchaseOrder], error) {
		page, err := query.Paginate(ctx, s.storage, f.Criteria(caller.Username), f.PageIndex, f.PageSize)
		if err != nil {
			return nil, err
		}
		return &page, nil
	})
}

// UpdateOrder merges req into the caller's order according to the policy
// for the order's current status.
func (s *Service) UpdateOrder(ctx context.Context, caller models.UserContext, id string, req models.PurchaseOrderRequest) Response[*models.PurchaseOrder] {
	fields := orderFields(caller, req)
	fields["order_id"] = id

	return run(s, "update-order", fields, http.StatusOK, "Purchase order updated successfully",
		func() (*models.PurchaseOrder, error) {
			if err := s.checkRequest(req); err != nil {
				return nil, err
			}

			order, err := s.findOwnedOrder(ctx, caller, id)
			if err != nil {
				return nil, err
			}

			now := s.now()
			if lifecycle.RequiresQuotaCheck(req) {
				if err := s.checkQuota(ctx, caller, now, newSubmissions(*order)); err != nil {
					return nil, err
				}
			}

			strategy := lifecycle.PolicyFor(order.Status)
			fields["merge_strategy"] = strategy.Name()
			strategy.Apply(order, req, now)

			rows, err := s.storage.UpdateOrder(ctx, *order)
			if err != nil {
				return nil, fmt.Errorf("update order: %w", err)
			}
			if rows < 1 {
				return nil, dependencyFailure(errors.New("update order affected no rows"))
			}
			s.entry("update-order", fields).Debug("purchase order updated")
			return order, nil
		})
}

// checkRequest runs the structural checks and then the ordered rule chain.
func (s *Service) checkRequest(req models.PurchaseOrderRequest) error {
	if v := rules.ValidateShape(req); v != nil {
		return fromViolation(v)
	}
	if v := rules.Validate(req, s.limits); v != nil {
		return fromViolation(v)
	}
	return nil
}

// checkQuota counts the caller's orders submitted in today's window and adds
// pending, the submissions the current request would contribute.
func (s *Service) checkQuota(ctx context.Context, caller models.UserContext, now time.Time, pending int) error {
	from, to := lifecycle.QuotaWindow(now)
	count, err := s.storage.CountOrders(ctx, query.Criteria{
		Owner:  caller.Username,
		Status: models.StatusSubmitted,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		return fmt.Errorf("count submitted orders: %w", err)
	}
	if v := rules.CheckQuota(int(count)+pending, s.limits); v != nil {
		return fromViolation(v)
	}
	return nil
}

// newSubmissions is the number of submissions an update to Submitted adds.
// An order that is already Submitted was charged when it was submitted.
func newSubmissions(order models.PurchaseOrder) int {
	if order.Status == models.StatusSubmitted {
		return 0
	}
	return 1
}

func (s *Service) findOwnedOrder(ctx context.Context, caller models.UserContext, id string) (*models.PurchaseOrder, error) {
	order, err := s.storage.FindOrderByIDAndOwner(ctx, id, caller.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fail(KindNotFound, msgOrderNotFound)
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}
