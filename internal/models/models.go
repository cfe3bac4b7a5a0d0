package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSubmitted Status = "Submitted"
	StatusRejected  Status = "Rejected"
	StatusApproved  Status = "Approved"
)

// IsRequestable reports whether a client may set the status directly.
func (s Status) IsRequestable() bool {
	return s == StatusDraft || s == StatusSubmitted
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserContext is the caller identity decoded from a bearer token.
type UserContext struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Context() UserContext {
	return UserContext{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

type LineItem struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type PurchaseOrder struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	LineItems   []LineItem      `json:"lineItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// SumLineItems returns the total of all line item amounts.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Amount)
	}
	return total
}

type PurchaseOrderRequest struct {
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	LineItems []LineItem `json:"lineItems"`
}

type CreateUserRequest struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string      `json:"token"`
	Expiry int64       `json:"expiry"`
	User   UserContext `json:"user"`
}
