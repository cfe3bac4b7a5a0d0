package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MarkMiraclee/purchaseorder/internal/middlewares"
)

func NewRouter(api *API) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middlewares.Logger(api.log))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", api.Register)
		r.Post("/auth/login", api.Login)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Auth(api.codec, api.log))

			r.Get("/user/profile", api.Profile)

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Post("/", api.CreateOrder)
				r.Get("/", api.ListOrders)
				r.Get("/{id}", api.GetOrder)
				r.Put("/{id}", api.UpdateOrder)
			})
		})
	})
	return r
}
