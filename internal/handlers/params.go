package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
)

const dateLayout = "2006-01-02"

func parseFilter(v url.Values) (query.Filter, error) {
	f := query.Filter{
		Name:      strings.TrimSpace(v.Get("name")),
		SortOrder: v.Get("sortOrder"),
	}

	if s := strings.TrimSpace(v.Get("status")); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			return query.Filter{}, err
		}
		f.Status = status
	}

	var err error
	if f.StartDate, err = parseDate(v.Get("startDate"), false); err != nil {
		return query.Filter{}, fmt.Errorf("invalid startDate: %w", err)
	}
	if f.EndDate, err = parseDate(v.Get("endDate"), true); err != nil {
		return query.Filter{}, fmt.Errorf("invalid endDate: %w", err)
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return query.Filter{}, fmt.Errorf("endDate must not be before startDate")
	}

	if f.PageIndex, err = parseInt(v.Get("pageIndex")); err != nil {
		return query.Filter{}, fmt.Errorf("invalid pageIndex: %w", err)
	}
	if f.PageSize, err = parseInt(v.Get("pageSize")); err != nil {
		return query.Filter{}, fmt.Errorf("invalid pageSize: %w", err)
	}

	return f, nil
}

func parseStatus(s string) (models.Status, error) {
	for _, status := range []models.Status{
		models.StatusDraft, models.StatusSubmitted, models.StatusRejected, models.StatusApproved,
	} {
		if strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("expected %s or RFC 3339, got %q", dateLayout, s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
