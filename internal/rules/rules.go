// Package rules holds the purchase order quota and validation predicates.
package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

type Limits struct {
	MaxLineItemsPerOrder     int
	MaxTotalLineItemAmount   decimal.Decimal
	MaxSubmittedOrdersPerDay int
}

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
)

// Violation is the first rule a request failed.
type Violation struct {
	Rule    string
	Kind    Kind
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

func HasNoLineItems(req models.PurchaseOrderRequest) bool {
	return len(req.LineItems) == 0
}

func ExceedsLineItemCount(req models.PurchaseOrderRequest, limit int) bool {
	return len(req.LineItems) > limit
}

func ExceedsTotalAmount(req models.PurchaseOrderRequest, limit decimal.Decimal) bool {
	return models.SumLineItems(req.LineItems).GreaterThan(limit)
}

func ExceedsDailySubmissionQuota(countSubmittedToday, limit int) bool {
	return countSubmittedToday > limit
}

type check struct {
	name  string
	kind  Kind
	fails func(req models.PurchaseOrderRequest, l Limits) bool
	msg   func(l Limits) string
}

// requestChecks run in this exact order; the first failure is reported.
var requestChecks = []check{
	{
		name:  "line-items-empty",
		kind:  KindValidation,
		fails: func(req models.PurchaseOrderRequest, _ Limits) bool { return HasNoLineItems(req) },
		msg:   func(Limits) string { return "You must provide at least 1 line item" },
	},
	{
		name: "line-item-count-exceeded",
		kind: KindValidation,
		fails: func(req models.PurchaseOrderRequest, l Limits) bool {
			return ExceedsLineItemCount(req, l.MaxLineItemsPerOrder)
		},
		msg: func(l Limits) string {
			return fmt.Sprintf("You cannot submit more than %d line items per purchase order!", l.MaxLineItemsPerOrder)
		},
	},
	{
		name: "total-amount-exceeded",
		kind: KindValidation,
		fails: func(req models.PurchaseOrderRequest, l Limits) bool {
			return ExceedsTotalAmount(req, l.MaxTotalLineItemAmount)
		},
		msg: func(l Limits) string {
			return fmt.Sprintf("Your total amount for line items must not exceed %s", l.MaxTotalLineItemAmount)
		},
	},
}

// Validate runs the request rules in order and returns the first violation.
func Validate(req models.PurchaseOrderRequest, l Limits) *Violation {
	for _, c := range requestChecks {
		if c.fails(req, l) {
			return &Violation{Rule: c.name, Kind: c.kind, Message: c.msg(l)}
		}
	}
	return nil
}

// CheckQuota is the last rule in the chain. It is separate from Validate
// because the count comes from storage. The count includes the submission
// being decided.
func CheckQuota(countSubmittedToday int, l Limits) *Violation {
	if !ExceedsDailySubmissionQuota(countSubmittedToday, l.MaxSubmittedOrdersPerDay) {
		return nil
	}
	return &Violation{
		Rule:    "daily-quota-exceeded",
		Kind:    KindConflict,
		Message: fmt.Sprintf("You have reached your limit of %d submitted purchase order per day!", l.MaxSubmittedOrdersPerDay),
	}
}

// ValidateShape checks the request fields before any rule is evaluated.
func ValidateShape(req models.PurchaseOrderRequest) *Violation {
	invalid := func(msg string) *Violation {
		return &Violation{Rule: "shape", Kind: KindValidation, Message: msg}
	}

	if strings.TrimSpace(req.Name) == "" {
		return invalid("Name is required")
	}
	if req.Status == "" {
		return invalid("Status is required")
	}
	if !req.Status.IsRequestable() {
		return invalid(fmt.Sprintf("Status must be one of %s, %s", models.StatusDraft, models.StatusSubmitted))
	}
	for i, li := range req.LineItems {
		if strings.TrimSpace(li.Name) == "" {
			return invalid(fmt.Sprintf("Line item %d must have a name", i+1))
		}
		if li.Amount.IsNegative() {
			return invalid(fmt.Sprintf("Line item %d must not have a negative amount", i+1))
		}
	}
	return nil
}
