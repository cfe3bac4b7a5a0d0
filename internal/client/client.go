// Package client is a typed HTTP client for the purchase order API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
	"github.com/MarkMiraclee/purchaseorder/internal/service"
)

const requestTimeout = 10 * time.Second

type Client struct {
	address string
	log     *logrus.Logger
	client  *resty.Client
}

func NewClient(address string, log *logrus.Logger) *Client {
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	address = strings.TrimRight(address, "/")
	if log == nil {
		log = logrus.New()
	}

	c := &Client{
		address: address,
		log:     log,
		client: resty.New().
			SetBaseURL(address).
			SetTimeout(requestTimeout).
			SetHeader("Accept", "application/json"),
	}
	c.client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.WithFields(logrus.Fields{
			"method":   resp.Request.Method,
			"url":      resp.Request.URL,
			"status":   resp.StatusCode(),
			"duration": resp.Time(),
		}).Debug("api call completed")
		return nil
	})
	return c
}

// Token returns the Authorization header value used for protected calls.
func (c *Client) Token() string {
	return c.client.Header.Get("Authorization")
}

// SetToken stores a bearer token as returned by Login.
func (c *Client) SetToken(token string) {
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	c.client.SetHeader("Authorization", token)
}

func (c *Client) Register(ctx context.Context, req models.CreateUserRequest) (service.Response[*models.UserContext], error) {
	return send[*models.UserContext](ctx, c, http.MethodPost, "/api/auth/register", req, nil)
}

// Login authenticates and, on success, keeps the token for later calls.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (service.Response[*models.LoginResponse], error) {
	resp, err := send[*models.LoginResponse](ctx, c, http.MethodPost, "/api/auth/login", req, nil)
	if err != nil {
		return resp, err
	}
	if resp.Succeeded() && resp.Data != nil {
		c.SetToken(resp.Data.Token)
	}
	return resp, nil
}

func (c *Client) Profile(ctx context.Context) (service.Response[*models.UserContext], error) {
	return send[*models.UserContext](ctx, c, http.MethodGet, "/api/user/profile", nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, req models.PurchaseOrderRequest) (service.Response[*models.PurchaseOrder], error) {
	return send[*models.PurchaseOrder](ctx, c, http.MethodPost, "/api/purchase-orders", req, nil)
}

func (c *Client) GetOrder(ctx context.Context, id string) (service.Response[*models.PurchaseOrder], error) {
	return send[*models.PurchaseOrder](ctx, c, http.MethodGet, "/api/purchase-orders/"+id, nil, nil)
}

func (c *Client) UpdateOrder(ctx context.Context, id string, req models.PurchaseOrderRequest) (service.Response[*models.PurchaseOrder], error) {
	return send[*models.PurchaseOrder](ctx, c, http.MethodPut, "/api/purchase-orders/"+id, req, nil)
}

func (c *Client) ListOrders(ctx context.Context, f query.Filter) (service.Response[*query.Page[models.PurchaseOrder]], error) {
	return send[*query.Page[models.PurchaseOrder]](ctx, c, http.MethodGet, "/api/purchase-orders", nil, filterParams(f))
}

func filterParams(f query.Filter) map[string]string {
	params := map[string]string{}
	if f.Name != "" {
		params["name"] = f.Name
	}
	if f.Status != "" {
		params["status"] = string(f.Status)
	}
	if f.StartDate != nil {
		params["startDate"] = f.StartDate.UTC().Format(time.RFC3339Nano)
	}
	if f.EndDate != nil {
		params["endDate"] = f.EndDate.UTC().Format(time.RFC3339Nano)
	}
	if f.SortOrder != "" {
		params["sortOrder"] = f.SortOrder
	}
	if f.PageIndex > 0 {
		params["pageIndex"] = strconv.Itoa(f.PageIndex)
	}
	if f.PageSize > 0 {
		params["pageSize"] = strconv.Itoa(f.PageSize)
	}
	return params
}

// send performs the call and decodes the response envelope. The returned
// error only reports transport failures; API failures are in the envelope.
func send[T any](ctx context.Context, c *Client, method, path string, body any, params map[string]string) (service.Response[T], error) {
	var out service.Response[T]

	req := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Errorf("failed to call %s %s%s: %v", method, c.address, path, err)
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out.Code == 0 {
		out.Code = resp.StatusCode()
	}
	return out, nil
}
