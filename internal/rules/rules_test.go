package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

func requestWithItems(amounts ...string) models.PurchaseOrderRequest {
	req := models.PurchaseOrderRequest{Name: "Cameras", Status: models.StatusDraft}
	for _, a := range amounts {
		req.LineItems = append(req.LineItems, models.LineItem{Name: "item", Amount: decimal.RequireFromString(a)})
	}
	return req
}

func repeat(n int, amount string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = amount
	}
	return out
}

func TestHasNoLineItems(t *testing.T) {
	assert.True(t, HasNoLineItems(requestWithItems()))
	assert.False(t, HasNoLineItems(requestWithItems("10", "10")))
}

func TestExceedsLineItemCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		limit int
		want  bool
	}{
		{name: "below limit", count: 5, limit: 10, want: false},
		{name: "at limit", count: 10, limit: 10, want: false},
		{name: "one over", count: 11, limit: 10, want: true},
		{name: "far over", count: 25, limit: 10, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithItems(repeat(tt.count, "10")...)
			assert.Equal(t, tt.want, ExceedsLineItemCount(req, tt.limit))
		})
	}
}

func TestExceedsTotalAmount(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		limit string
		want  bool
	}{
		{name: "over", items: []string{"1500"}, limit: "1000", want: true},
		{name: "equal", items: []string{"1000"}, limit: "1000", want: false},
		{name: "one cent over", items: []string{"1000.01"}, limit: "1000", want: true},
		{name: "decimal sum equal", items: []string{"0.1", "0.2"}, limit: "0.3", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithItems(tt.items...)
			assert.Equal(t, tt.want, ExceedsTotalAmount(req, decimal.RequireFromString(tt.limit)))
		})
	}
}

func TestExceedsDailySubmissionQuota(t *testing.T) {
	assert.False(t, ExceedsDailySubmissionQuota(4, 5))
	assert.False(t, ExceedsDailySubmissionQuota(5, 5))
	assert.True(t, ExceedsDailySubmissionQuota(10, 5))
}

func TestValidate_Order(t *testing.T) {
	limits := Limits{
		MaxLineItemsPerOrder:     2,
		MaxTotalLineItemAmount:   decimal.NewFromInt(100),
		MaxSubmittedOrdersPerDay: 1,
	}

	tests := []struct {
		name     string
		req      models.PurchaseOrderRequest
		wantRule string
	}{
		{name: "empty", req: requestWithItems(), wantRule: "line-items-empty"},
		{name: "count and amount both exceeded reports count", req: requestWithItems("90", "90", "90"), wantRule: "line-item-count-exceeded"},
		{name: "amount", req: requestWithItems("60", "41"), wantRule: "total-amount-exceeded"},
		{name: "valid", req: requestWithItems("50", "50")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.req, limits)
			if tt.wantRule == "" {
				assert.Nil(t, v)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, tt.wantRule, v.Rule)
			assert.Equal(t, KindValidation, v.Kind)
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	limits := Limits{MaxLineItemsPerOrder: 1, MaxTotalLineItemAmount: decimal.NewFromInt(1000)}

	v := Validate(requestWithItems("1", "1"), limits)
	require.NotNil(t, v)
	assert.Equal(t, "You cannot submit more than 1 line items per purchase order!", v.Message)

	v = Validate(requestWithItems("1000.5"), limits)
	require.NotNil(t, v)
	assert.Equal(t, "Your total amount for line items must not exceed 1000", v.Message)
}

func TestCheckQuota(t *testing.T) {
	limits := Limits{MaxSubmittedOrdersPerDay: 1}

	assert.Nil(t, CheckQuota(1, limits))

	v := CheckQuota(2, limits)
	require.NotNil(t, v)
	assert.Equal(t, KindConflict, v.Kind)
	assert.Equal(t, "You have reached your limit of 1 submitted purchase order per day!", v.Message)
}

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name    string
		req     models.PurchaseOrderRequest
		wantErr bool
	}{
		{name: "ok", req: requestWithItems("1")},
		{name: "missing name", req: models.PurchaseOrderRequest{Status: models.StatusDraft}, wantErr: true},
		{name: "missing status", req: models.PurchaseOrderRequest{Name: "x"}, wantErr: true},
		{name: "unknown status", req: models.PurchaseOrderRequest{Name: "x", Status: "New"}, wantErr: true},
		{name: "external status", req: models.PurchaseOrderRequest{Name: "x", Status: models.StatusRejected}, wantErr: true},
		{name: "negative amount", req: requestWithItems("-1"), wantErr: true},
		{
			name: "unnamed item",
			req: models.PurchaseOrderRequest{
				Name: "x", Status: models.StatusSubmitted,
				LineItems: []models.LineItem{{Amount: decimal.NewFromInt(1)}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateShape(tt.req)
			if tt.wantErr {
				require.NotNil(t, v)
				assert.Equal(t, KindValidation, v.Kind)
			} else {
				assert.Nil(t, v)
			}
		})
	}
}
