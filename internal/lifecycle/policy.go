// Package lifecycle decides how an update request is merged into an existing
// purchase order depending on the order's current status.
package lifecycle

import (
	"time"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

// MergeStrategy is the effective update behaviour for an order status.
type MergeStrategy interface {
	Name() string
	Apply(order *models.PurchaseOrder, req models.PurchaseOrderRequest, now time.Time)
}

type fullRewrite struct{}

func (fullRewrite) Name() string { return "full-rewrite" }

func (fullRewrite) Apply(order *models.PurchaseOrder, req models.PurchaseOrderRequest, now time.Time) {
	order.Name = req.Name
	order.Status = req.Status
	order.LineItems = append([]models.LineItem(nil), req.LineItems...)
	order.TotalAmount = models.SumLineItems(order.LineItems)
	order.UpdatedAt = &now
}

// nameAndStatusOnly leaves line items and total frozen.
type nameAndStatusOnly struct{}

func (nameAndStatusOnly) Name() string { return "name-and-status-only" }

func (nameAndStatusOnly) Apply(order *models.PurchaseOrder, req models.PurchaseOrderRequest, now time.Time) {
	order.Name = req.Name
	order.Status = req.Status
	order.UpdatedAt = &now
}

var (
	FullRewrite       MergeStrategy = fullRewrite{}
	NameAndStatusOnly MergeStrategy = nameAndStatusOnly{}
)

// PolicyFor returns the merge strategy for an order currently in status.
// Every status other than Draft is treated as frozen.
func PolicyFor(current models.Status) MergeStrategy {
	if current == models.StatusDraft {
		return FullRewrite
	}
	return NameAndStatusOnly
}

// RequiresQuotaCheck reports whether the request moves an order to Submitted.
func RequiresQuotaCheck(req models.PurchaseOrderRequest) bool {
	return req.Status == models.StatusSubmitted
}

// QuotaWindow returns the inclusive bounds of the UTC calendar day containing now.
func QuotaWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}

// NewOrder builds a fresh order owned by owner from a validated request.
func NewOrder(id string, owner models.UserContext, req models.PurchaseOrderRequest, now time.Time) models.PurchaseOrder {
	items := append([]models.LineItem(nil), req.LineItems...)
	return models.PurchaseOrder{
		ID:          id,
		Username:    owner.Username,
		Name:        req.Name,
		Status:      req.Status,
		LineItems:   items,
		TotalAmount: models.SumLineItems(items),
		CreatedAt:   now.UTC(),
	}
}
