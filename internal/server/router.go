package server

import (
	"net/http"

	"canteen/internal/auth"
	menucontroller "canteen/internal/menu/controller"
	ordercontroller "canteen/internal/order/controller"
	"canteen/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(
	orderCtrl *ordercontroller.OrderController,
	menuCtrl *menucontroller.MenuController,
	wsCtrl *realtime.Controller,
	verifier *auth.Verifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/menu", func(r chi.Router) {
			r.Get("/", menuCtrl.List)
			r.Get("/{id}", menuCtrl.Get)
		})

		r.Route("/orders", func(r chi.Router) {
			// Tracking is deliberately unauthenticated so a reconnecting
			// client can resynchronize with nothing but its order number.
			r.Get("/track", orderCtrl.TrackLatest)
			r.Get("/track/{token}", orderCtrl.Track)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require(verifier))

				r.Post("/", orderCtrl.Create)
				r.Get("/my", orderCtrl.ListMine)
				r.Patch("/{id}/cancel", orderCtrl.Cancel)
				r.Get("/{id}", orderCtrl.Get)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
					r.Get("/", orderCtrl.List)
					r.Patch("/{id}/status", orderCtrl.UpdateStatus)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleAdmin))
					r.Delete("/{id}", orderCtrl.Archive)
				})
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(verifier))
		r.Get("/ws", wsCtrl.HandleSocket)
	})

	return r
}
