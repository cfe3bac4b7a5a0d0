package lifecycle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

func item(name string, amount int64) models.LineItem {
	return models.LineItem{Name: name, Amount: decimal.NewFromInt(amount)}
}

func existingOrder(status models.Status) models.PurchaseOrder {
	items := []models.LineItem{item("A", 100)}
	return models.PurchaseOrder{
		ID:          "po-1",
		Username:    "paul",
		Name:        "Cameras",
		Status:      status,
		LineItems:   items,
		TotalAmount: models.SumLineItems(items),
		CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		status models.Status
		want   MergeStrategy
	}{
		{status: models.StatusDraft, want: FullRewrite},
		{status: models.StatusSubmitted, want: NameAndStatusOnly},
		{status: models.StatusApproved, want: NameAndStatusOnly},
		{status: models.StatusRejected, want: NameAndStatusOnly},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want.Name(), PolicyFor(tt.status).Name())
		})
	}
}

func TestApply_DraftRewritesEverything(t *testing.T) {
	order := existingOrder(models.StatusDraft)
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	req := models.PurchaseOrderRequest{
		Name:      "Lenses",
		Status:    models.StatusSubmitted,
		LineItems: []models.LineItem{item("A", 100), item("B", 250)},
	}

	PolicyFor(order.Status).Apply(&order, req, now)

	assert.Equal(t, "Lenses", order.Name)
	assert.Equal(t, models.StatusSubmitted, order.Status)
	assert.Len(t, order.LineItems, 2)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(350)))
	require.NotNil(t, order.UpdatedAt)
	assert.Equal(t, now, *order.UpdatedAt)
}

func TestApply_SubmittedKeepsLineItems(t *testing.T) {
	order := existingOrder(models.StatusSubmitted)
	req := models.PurchaseOrderRequest{
		Name:      "Renamed",
		Status:    models.StatusDraft,
		LineItems: []models.LineItem{item("A", 100), item("B", 250)},
	}

	PolicyFor(order.Status).Apply(&order, req, time.Now())

	assert.Equal(t, "Renamed", order.Name)
	assert.Equal(t, models.StatusDraft, order.Status)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "A", order.LineItems[0].Name)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(100)))
}

func TestApply_DoesNotAliasRequestSlice(t *testing.T) {
	order := existingOrder(models.StatusDraft)
	req := models.PurchaseOrderRequest{Name: "x", Status: models.StatusDraft, LineItems: []models.LineItem{item("A", 1)}}

	FullRewrite.Apply(&order, req, time.Now())
	req.LineItems[0].Name = "mutated"

	assert.Equal(t, "A", order.LineItems[0].Name)
}

func TestRequiresQuotaCheck(t *testing.T) {
	assert.True(t, RequiresQuotaCheck(models.PurchaseOrderRequest{Status: models.StatusSubmitted}))
	assert.False(t, RequiresQuotaCheck(models.PurchaseOrderRequest{Status: models.StatusDraft}))
}

func TestQuotaWindow(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 01:30 at UTC+3 is still the previous UTC day.
	now := time.Date(2024, 3, 2, 1, 30, 0, 0, loc)

	from, to := QuotaWindow(now)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC), to)
}

func TestNewOrder(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	owner := models.UserContext{ID: "u1", Username: "paul"}
	req := models.PurchaseOrderRequest{
		Name:      "Cameras",
		Status:    models.StatusDraft,
		LineItems: []models.LineItem{item("A", 10), item("B", 5)},
	}

	order := NewOrder("po-1", owner, req, now)

	assert.Equal(t, "paul", order.Username)
	assert.Equal(t, models.StatusDraft, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, now, order.CreatedAt)
	assert.Nil(t, order.UpdatedAt)
}
