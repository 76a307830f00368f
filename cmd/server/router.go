package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/notifyd/internal/api"
	apiMiddleware "github.com/phrazzld/notifyd/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	httpMetrics := apiMiddleware.NewHTTPMetrics(app.registry)

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Handler)

	notificationHandler := api.NewNotificationHandler(app.dispatcher)
	recipientHandler := api.NewRecipientHandler(app.recipients)

	r.Route("/api", func(r chi.Router) {
		if app.jwtService != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(app.jwtService).Authenticate)
		}

		r.Post("/notifications", notificationHandler.CreateNotification)
		r.Get("/notifications/{id}", notificationHandler.GetNotification)

		r.Post("/recipients", recipientHandler.CreateRecipient)
		r.Get("/recipients/{id}", recipientHandler.GetRecipient)
		r.Delete("/recipients/{id}", recipientHandler.DeleteRecipient)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}
