package query

import (
	"strings"
	"time"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 10

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter is the caller supplied list request.
type Filter struct {
	Name      string
	Status    models.Status
	StartDate *time.Time
	EndDate   *time.Time
	SortOrder string
	PageIndex int
	PageSize  int
}

func (f Filter) Normalize() Filter {
	if f.PageIndex < 1 {
		f.PageIndex = DefaultPageIndex
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	return f
}

// Criteria scopes the filter to the orders of owner.
func (f Filter) Criteria(owner string) Criteria {
	return Criteria{
		Owner:      owner,
		Name:       strings.TrimSpace(f.Name),
		Status:     f.Status,
		From:       f.StartDate,
		To:         f.EndDate,
		Descending: f.SortOrder == SortDesc,
	}
}

// Criteria is a conjunction of optional predicates over purchase orders.
// Zero values mean "no constraint".
type Criteria struct {
	Owner      string
	Name       string
	Status     models.Status
	From       *time.Time
	To         *time.Time
	Descending bool
}

func (c Criteria) Matches(o models.PurchaseOrder) bool {
	if c.Owner != "" && o.Username != c.Owner {
		return false
	}
	if c.Name != "" && !strings.Contains(strings.ToLower(o.Name), strings.ToLower(c.Name)) {
		return false
	}
	if c.Status != "" && o.Status != c.Status {
		return false
	}
	if c.From != nil && o.CreatedAt.Before(*c.From) {
		return false
	}
	if c.To != nil && o.CreatedAt.After(*c.To) {
		return false
	}
	return true
}

// Less orders by creation time with the id as tie-breaker, honouring Descending.
func (c Criteria) Less(a, b models.PurchaseOrder) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if c.Descending {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if c.Descending {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}
