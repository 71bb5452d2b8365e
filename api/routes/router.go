package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/codcrm-backend/api/controllers"
	"github.com/angelmondragon/codcrm-backend/api/middleware"
	"github.com/angelmondragon/codcrm-backend/internal/auth"
	"github.com/angelmondragon/codcrm-backend/internal/blacklist"
	"github.com/angelmondragon/codcrm-backend/internal/bordereaux"
	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/internal/finance"
	"github.com/angelmondragon/codcrm-backend/internal/leads"
	"github.com/angelmondragon/codcrm-backend/internal/orders"
	"github.com/angelmondragon/codcrm-backend/internal/shipping"
	"github.com/angelmondragon/codcrm-backend/internal/users"
	"github.com/angelmondragon/codcrm-backend/pkg/config"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
	"github.com/angelmondragon/codcrm-backend/pkg/metrics"
	"github.com/angelmondragon/codcrm-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the router mounts.
// Redis-backed fields are nil when redis is disabled.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	RateLimiter redis.RateLimiter
	Idempotency redis.IdempotencyStore
	Metrics     *metrics.Recorder

	Auth       auth.Service
	Users      users.Service
	Leads      leads.Service
	Blacklist  blacklist.Service
	Catalog    catalog.Service
	Orders     orders.Service
	Shipping   shipping.Service
	Bordereaux bordereaux.Service
	Finance    finance.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Metrics(deps.Metrics),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.LoginPolicy(cfg.HTTP), deps.RateLimiter, logg)).
			Post("/auth/login", controllers.AuthLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Users, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, cfg.HTTP.IdempotencyTTL, logg))

			r.Get("/auth/me", controllers.AuthMe(deps.Users, logg))

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleManager))
				r.Get("/", controllers.UserList(deps.Users, logg))
				r.Post("/", controllers.UserCreate(deps.Users, logg))
				r.Get("/{id}", controllers.UserGet(deps.Users, logg))
				r.Patch("/{id}", controllers.UserUpdate(deps.Users, logg))
				r.Post("/{id}/deactivate", controllers.UserDeactivate(deps.Users, logg))
				r.Delete("/{id}", controllers.UserDelete(deps.Users, logg))
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", controllers.LeadList(deps.Leads, logg))
				r.Post("/", controllers.LeadCreate(deps.Leads, logg))
				r.Get("/{id}", controllers.LeadGet(deps.Leads, logg))
				r.Patch("/{id}", controllers.LeadUpdate(deps.Leads, logg))
				r.Post("/{id}/transition", controllers.LeadTransition(deps.Leads, logg))
				r.Post("/{id}/reopen", controllers.LeadReopen(deps.Leads, logg))
				r.Post("/{id}/notes", controllers.LeadAddNote(deps.Leads, logg))
				r.Post("/{id}/calls", controllers.LeadLogCall(deps.Leads, logg))
				r.Get("/{id}/history", controllers.LeadHistory(deps.Leads, logg))
			})

			r.Route("/blacklist", func(r chi.Router) {
				r.Get("/", controllers.BlacklistList(deps.Blacklist, logg))
				r.Post("/", controllers.BlacklistAdd(deps.Blacklist, logg))
				r.Get("/check", controllers.BlacklistCheck(deps.Blacklist, logg))
				r.Delete("/{id}", controllers.BlacklistRemove(deps.Blacklist, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.CategoryList(deps.Catalog, logg))
				r.Post("/", controllers.CategoryCreate(deps.Catalog, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Catalog, logg))
				r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
				r.Get("/{id}", controllers.ProductGet(deps.Catalog, logg))
				r.Patch("/{id}", controllers.ProductUpdate(deps.Catalog, logg))
				r.Post("/{id}/variants", controllers.VariantCreate(deps.Catalog, logg))
				r.Post("/{id}/stock", controllers.StockMove(deps.Catalog, logg))
				r.Get("/{id}/stock", controllers.StockMovements(deps.Catalog, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Post("/", controllers.OrderCreate(deps.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))
				r.Patch("/{id}", controllers.OrderUpdate(deps.Orders, logg))
				r.Post("/{id}/items", controllers.OrderAddItem(deps.Orders, logg))
				r.Patch("/{id}/items/{itemId}", controllers.OrderUpdateItem(deps.Orders, logg))
				r.Delete("/{id}/items/{itemId}", controllers.OrderRemoveItem(deps.Orders, logg))
				r.Post("/{id}/transition", controllers.OrderTransition(deps.Orders, logg))
				r.Post("/{id}/recompute", controllers.OrderRecompute(deps.Orders, logg))
			})

			r.Route("/couriers", func(r chi.Router) {
				r.Get("/", controllers.CourierList(deps.Shipping, logg))
				r.Post("/", controllers.CourierCreate(deps.Shipping, logg))
				r.Get("/{id}", controllers.CourierGet(deps.Shipping, logg))
				r.Patch("/{id}", controllers.CourierUpdate(deps.Shipping, logg))
				r.Get("/{id}/stats", controllers.CourierStats(deps.Shipping, logg))
			})

			r.Route("/shipments", func(r chi.Router) {
				r.Get("/", controllers.ShipmentList(deps.Shipping, logg))
				r.Post("/", controllers.ShipmentCreate(deps.Shipping, logg))
				r.Get("/{id}", controllers.ShipmentGet(deps.Shipping, logg))
				r.Delete("/{id}", controllers.ShipmentDelete(deps.Shipping, logg))
				r.Post("/{id}/transition", controllers.ShipmentTransition(deps.Shipping, logg))
				r.Post("/{id}/tracking", controllers.ShipmentTrack(deps.Shipping, logg))
			})

			r.Route("/bordereaux", func(r chi.Router) {
				r.Get("/", controllers.BordereauList(deps.Bordereaux, logg))
				r.Post("/", controllers.BordereauCreate(deps.Bordereaux, logg))
				r.Get("/{id}", controllers.BordereauGet(deps.Bordereaux, logg))
				r.Post("/{id}/shipments", controllers.BordereauAddShipments(deps.Bordereaux, logg))
				r.Delete("/{id}/shipments/{shipmentId}", controllers.BordereauRemoveShipment(deps.Bordereaux, logg))
				r.Post("/{id}/transition", controllers.BordereauTransition(deps.Bordereaux, logg))
				r.Post("/{id}/recompute", controllers.BordereauRecompute(deps.Bordereaux, logg))
				r.Get("/{id}/manifest.xlsx", controllers.BordereauManifest(deps.Bordereaux, logg))
			})

			r.Route("/finance", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleManager, enums.UserRoleMarketing))
				r.Get("/transactions", controllers.TransactionList(deps.Finance, logg))
				r.Post("/transactions", controllers.TransactionCreate(deps.Finance, logg))
				r.Get("/ad-spend", controllers.AdSpendList(deps.Finance, logg))
				r.Post("/ad-spend", controllers.AdSpendCreate(deps.Finance, logg))
				r.Put("/ad-spend", controllers.AdSpendUpsert(deps.Finance, logg))
				r.Get("/settings", controllers.SettingsGet(deps.Finance, logg))
				r.Patch("/settings", controllers.SettingsUpdate(deps.Finance, logg))
				r.Get("/summary", controllers.FinanceSummary(deps.Finance, logg))
			})
		})
	})

	return r
}
