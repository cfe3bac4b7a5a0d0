package handlers

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/middlewares"
	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/service"
)

const msgInvalidRequest = "invalid request format"

type API struct {
	service *service.Service
	codec   *auth.Codec
	log     *logrus.Logger
}

func NewAPI(svc *service.Service, codec *auth.Codec, log *logrus.Logger) *API {
	return &API{
		service: svc,
		codec:   codec,
		log:     log,
	}
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	resp := a.service.Register(r.Context(), req)
	if resp.Succeeded() && resp.Data != nil {
		w.Header().Set("Location", "/api/user/profile")
	}
	writeResponse(a, w, resp)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	resp := a.service.Authenticate(r.Context(), req)
	if resp.Succeeded() && resp.Data != nil {
		w.Header().Set("Authorization", resp.Data.Token)
	}
	writeResponse(a, w, resp)
}

func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.caller(w, r)
	if !ok {
		return
	}
	writeResponse(a, w, a.service.Profile(r.Context(), user))
}

func (a *API) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := a.caller(w, r)
	if !ok {
		return
	}

	var req models.PurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	resp := a.service.CreateOrder(r.Context(), user, req)
	if resp.Succeeded() && resp.Data != nil {
		w.Header().Set("Location", path.Join(r.URL.Path, resp.Data.ID))
	}
	writeResponse(a, w, resp)
}

func (a *API) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := a.caller(w, r)
	if !ok {
		return
	}
	writeResponse(a, w, a.service.GetOrder(r.Context(), user, chi.URLParam(r, "id")))
}

func (a *API) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := a.caller(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResponse(a, w, a.service.ListOrders(r.Context(), user, filter))
}

func (a *API) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := a.caller(w, r)
	if !ok {
		return
	}

	var req models.PurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	writeResponse(a, w, a.service.UpdateOrder(r.Context(), user, chi.URLParam(r, "id"), req))
}

// caller is only empty when a route is mounted without the Auth middleware.
func (a *API) caller(w http.ResponseWriter, r *http.Request) (models.UserContext, bool) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		a.writeError(w, http.StatusUnauthorized, "unauthorized")
		return models.UserContext{}, false
	}
	return user, true
}

func (a *API) writeError(w http.ResponseWriter, code int, msg string) {
	writeResponse(a, w, service.Response[any]{Code: code, Message: msg})
}

func writeResponse[T any](a *API, w http.ResponseWriter, resp service.Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		a.log.Errorf("failed to encode response: %v", err)
	}
}
