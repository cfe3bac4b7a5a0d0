package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

type sliceSource struct {
	orders   []models.PurchaseOrder
	listHits int
	countErr error
}

func (s *sliceSource) CountOrders(_ context.Context, c Criteria) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	var n int64
	for _, o := range s.orders {
		if c.Matches(o) {
			n++
		}
	}
	return n, nil
}

func (s *sliceSource) ListOrders(_ context.Context, c Criteria, limit, offset int) ([]models.PurchaseOrder, error) {
	s.listHits++
	var out []models.PurchaseOrder
	for _, o := range s.orders {
		if c.Matches(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return c.Less(out[i], out[j]) })
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func seed(n int, owner string) []models.PurchaseOrder {
	orders := make([]models.PurchaseOrder, 0, n)
	for i := 0; i < n; i++ {
		status := models.StatusDraft
		if i%2 == 0 {
			status = models.StatusSubmitted
		}
		orders = append(orders, models.PurchaseOrder{
			ID:        fmt.Sprintf("po-%02d", i),
			Username:  owner,
			Name:      fmt.Sprintf("Order %02d", i),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return orders
}

func ptr(t time.Time) *time.Time { return &t }

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{
			name: "defaults",
			in:   Filter{},
			want: Filter{PageIndex: 1, PageSize: 10, SortOrder: SortDesc},
		},
		{
			name: "negative values",
			in:   Filter{PageIndex: -3, PageSize: 0, SortOrder: "ASC"},
			want: Filter{PageIndex: 1, PageSize: 10, SortOrder: SortAsc},
		},
		{
			name: "kept as given",
			in:   Filter{PageIndex: 2, PageSize: 25, SortOrder: "desc"},
			want: Filter{PageIndex: 2, PageSize: 25, SortOrder: SortDesc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestFilter_CriteriaDirection(t *testing.T) {
	assert.True(t, Filter{SortOrder: "desc"}.Criteria("paul").Descending)
	assert.False(t, Filter{SortOrder: "asc"}.Criteria("paul").Descending)
	assert.False(t, Filter{SortOrder: "anything"}.Criteria("paul").Descending)
}

func TestCriteria_Matches(t *testing.T) {
	order := models.PurchaseOrder{
		ID:        "po-1",
		Username:  "paul",
		Name:      "Office Chairs",
		Status:    models.StatusDraft,
		CreatedAt: base,
	}

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{name: "empty criteria", c: Criteria{}, want: true},
		{name: "owner", c: Criteria{Owner: "paul"}, want: true},
		{name: "other owner", c: Criteria{Owner: "mary"}, want: false},
		{name: "name substring any case", c: Criteria{Name: "chair"}, want: true},
		{name: "name mismatch", c: Criteria{Name: "desk"}, want: false},
		{name: "status", c: Criteria{Status: models.StatusDraft}, want: true},
		{name: "status mismatch", c: Criteria{Status: models.StatusSubmitted}, want: false},
		{name: "from inclusive", c: Criteria{From: ptr(base)}, want: true},
		{name: "from after", c: Criteria{From: ptr(base.Add(time.Second))}, want: false},
		{name: "to inclusive", c: Criteria{To: ptr(base)}, want: true},
		{name: "to before", c: Criteria{To: ptr(base.Add(-time.Second))}, want: false},
		{name: "to independent of from", c: Criteria{From: ptr(base.Add(-time.Hour)), To: ptr(base.Add(time.Hour))}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Matches(order))
		})
	}
}

func TestCriteria_LessTieBreaksByID(t *testing.T) {
	a := models.PurchaseOrder{ID: "a", CreatedAt: base}
	b := models.PurchaseOrder{ID: "b", CreatedAt: base}

	assert.True(t, Criteria{}.Less(a, b))
	assert.False(t, Criteria{}.Less(b, a))
	assert.True(t, Criteria{Descending: true}.Less(b, a))
}

func TestPaginate(t *testing.T) {
	src := &sliceSource{orders: seed(25, "paul")}
	ctx := context.Background()
	c := Criteria{Owner: "paul", Descending: true}

	tests := []struct {
		name      string
		pageIndex int
		wantLen   int
		wantFirst string
	}{
		{name: "first page", pageIndex: 1, wantLen: 10, wantFirst: "po-24"},
		{name: "second page", pageIndex: 2, wantLen: 10, wantFirst: "po-14"},
		{name: "last partial page", pageIndex: 3, wantLen: 5, wantFirst: "po-04"},
		{name: "beyond last page", pageIndex: 4, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := Paginate(ctx, src, c, tt.pageIndex, 10)
			require.NoError(t, err)

			assert.Equal(t, tt.pageIndex, page.PageIndex)
			assert.Equal(t, 10, page.PageSize)
			assert.EqualValues(t, 25, page.TotalRecords)
			assert.EqualValues(t, 3, page.TotalPages)
			require.Len(t, page.Data, tt.wantLen)
			assert.NotNil(t, page.Data)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page.Data[0].ID)
			}
		})
	}
}

func TestPaginate_FilterAndAscending(t *testing.T) {
	orders := append(seed(6, "paul"), seed(4, "mary")...)
	src := &sliceSource{orders: orders}

	c := Filter{Status: models.StatusSubmitted, SortOrder: "asc"}.Normalize().Criteria("paul")
	page, err := Paginate(context.Background(), src, c, 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Data, 3)
	assert.EqualValues(t, 3, page.TotalRecords)
	assert.EqualValues(t, 1, page.TotalPages)
	assert.Equal(t, []string{"po-00", "po-02", "po-04"}, []string{page.Data[0].ID, page.Data[1].ID, page.Data[2].ID})
	for _, o := range page.Data {
		assert.Equal(t, "paul", o.Username)
	}
}

func TestPaginate_EmptyResult(t *testing.T) {
	src := &sliceSource{}
	page, err := Paginate(context.Background(), src, Criteria{Owner: "nobody"}, 1, 10)
	require.NoError(t, err)

	assert.Empty(t, page.Data)
	assert.EqualValues(t, 0, page.TotalRecords)
	assert.EqualValues(t, 0, page.TotalPages)
	assert.Zero(t, src.listHits)
}

func TestPaginate_CountError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Paginate(context.Background(), &sliceSource{countErr: boom}, Criteria{}, 1, 10)
	assert.ErrorIs(t, err, boom)
}

func TestTotalPages(t *testing.T) {
	assert.EqualValues(t, 0, TotalPages(0, 10))
	assert.EqualValues(t, 1, TotalPages(10, 10))
	assert.EqualValues(t, 2, TotalPages(11, 10))
	assert.EqualValues(t, 0, TotalPages(5, 0))
}
