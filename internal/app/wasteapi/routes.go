package wasteapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	accountshandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/accounts"
	authhandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/auth"
	dashboardhandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/dashboard"
	mapviewhandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/mapview"
	specialhandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/special"
	wastehandler "github.com/magabrotheeeer/waste-collection/internal/http/handlers/waste"
	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

// Deps сервисы, из которых собираются обработчики
type Deps struct {
	Auth interface {
		authhandler.Service
		middlewarectx.Authenticator
	}
	Waste    wastehandler.Service
	Special  specialhandler.Service
	Accounts accountshandler.Service
	MapView  mapviewhandler.Service
	Stats    dashboardhandler.Service
	Sessions *middlewarectx.SessionStore
	Metrics  *metrics.Metrics
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware(routePattern))
	}

	auth := authhandler.New(logger, deps.Auth, deps.Sessions)
	waste := wastehandler.New(logger, deps.Waste)
	special := specialhandler.New(logger, deps.Special)
	accounts := accountshandler.New(logger, deps.Accounts)
	mapView := mapviewhandler.New(logger, deps.MapView)
	dashboard := dashboardhandler.New(logger, deps.Stats)

	jwt := middlewarectx.JWTMiddleware(deps.Auth, deps.Sessions, logger)
	collector := middlewarectx.RequireRole(logger, models.RoleCollector)
	staff := middlewarectx.RequireRole(logger, models.RoleCollector, models.RoleAdmin)
	admin := middlewarectx.RequireRole(logger, models.RoleAdmin)
	scanLimit := middlewarectx.RateLimitMiddleware(logger, 10, 20)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.With(middlewarectx.RateLimitMiddleware(logger, 5, 10)).Post("/auth/login", auth.Login)
		r.Post("/auth/logout", auth.Logout)
		r.Post("/auth/register/step1", auth.RegisterStep1)
		r.Post("/auth/register/step2", auth.RegisterStep2)

		r.Group(func(r chi.Router) {
			r.Use(jwt)

			r.Get("/auth/check", auth.Check)
			r.Put("/auth/profile", auth.UpdateProfile)
			r.With(staff).Get("/auth/waste-accounts", accounts.List)
			r.With(admin).Post("/auth/waste-accounts/randomize", accounts.Randomize)
			r.Get("/auth/waste-accounts/{accountID}", accounts.Get)
			r.Get("/auth/waste-accounts/{accountID}/qr", accounts.QRCode)
			r.With(collector).Post("/auth/waste-accounts/{accountID}/collect", accounts.Collect)

			r.Get("/waste/wastes", waste.List)
			r.Post("/waste/wastes", waste.Create)
			r.With(collector, scanLimit).Post("/waste/scan-qr", waste.ScanQR)
			r.Put("/waste/{id}", waste.Update)
			r.Delete("/waste/{id}", waste.Delete)
			r.With(collector).Put("/waste/{id}/status", waste.UpdateStatus)

			r.Post("/special-collection/calculate-fee", special.CalculateFee)
			r.Post("/special-collection/schedule", special.Schedule)
			r.Get("/special-collection/my", special.My)
			r.With(collector, scanLimit).Post("/special-collection/scan-qr", special.ScanQR)
			r.Get("/special-collection/{id}/qr", special.QRCode)
			r.Post("/special-collection/{id}/pay", special.Pay)
			r.Post("/special-collection/{id}/cancel", special.Cancel)
			r.Post("/special-collection/{id}/reschedule", special.Reschedule)

			r.With(staff).Get("/map/markers", mapView.Markers)
			r.With(admin).Get("/dashboard/admin", dashboard.Admin)
			r.With(collector).Get("/dashboard/collector", dashboard.Collector)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
