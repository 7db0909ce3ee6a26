package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/partsdeskhq/partsdesk-backend/api/controllers"
	escalationcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/escalations"
	leadcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/leads"
	ordercontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/orders"
	refundcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/refunds"
	reportcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/reports"
	webhookcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/webhooks"
	yardcontrollers "github.com/partsdeskhq/partsdesk-backend/api/controllers/yards"
	"github.com/partsdeskhq/partsdesk-backend/api/middleware"
	"github.com/partsdeskhq/partsdesk-backend/internal/auth"
	"github.com/partsdeskhq/partsdesk-backend/internal/escalations"
	"github.com/partsdeskhq/partsdesk-backend/internal/leads"
	"github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/internal/refunds"
	"github.com/partsdeskhq/partsdesk-backend/internal/reports"
	"github.com/partsdeskhq/partsdesk-backend/internal/yards"
	"github.com/partsdeskhq/partsdesk-backend/pkg/auth/session"
	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type leadSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type stripeSigner interface {
	SigningSecret() string
}

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Redis   *redis.Client
	Session sessionManager

	HealthChecks map[string]controllers.Pinger

	AuthService        auth.Service
	OrdersService      orders.Service
	YardsService       yards.Service
	RefundsService     refunds.Service
	EscalationsService escalations.Service
	ReportsService     reports.Service
	LeadsService       leads.Service

	// LeadIngestor backs the Gmail push fallback; nil disables the route.
	LeadIngestor leadSweeper

	StripeClient       stripeSigner
	StripeWebhook      webhookcontrollers.StripeWebhookService
	StripeWebhookGuard interface {
		CheckAndMark(ctx context.Context, eventID string) (bool, error)
		Delete(ctx context.Context, eventID string) error
	}
}

// NewRouter assembles the chi router for the dashboard API.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.RateLimitPolicy{
		Name:   "login",
		Window: time.Minute,
		Limit:  10,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthChecks))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.StripeWebhookGuard, logg))
		if deps.LeadIngestor != nil {
			r.Post("/gmail", webhookcontrollers.GmailPush(deps.LeadIngestor, logg))
		}
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Session, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Session, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.OrdersService, logg))
			r.Post("/", ordercontrollers.Create(deps.OrdersService, logg))

			r.Route("/{orderNo}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(deps.OrdersService, logg))
				r.Put("/status", ordercontrollers.UpdateStatus(deps.OrdersService, logg))
				r.Put("/refund", ordercontrollers.CustomerRefund(deps.OrdersService, logg))
				r.Put("/dispute", ordercontrollers.Dispute(deps.OrdersService, logg))
				r.Post("/cancel-shipment", yardcontrollers.CancelShipment(deps.YardsService, logg))

				r.Route("/yards", func(r chi.Router) {
					r.Post("/", yardcontrollers.Attach(deps.YardsService, logg))

					r.Route("/{yardPos}", func(r chi.Router) {
						r.Put("/status", yardcontrollers.UpdateStatus(deps.YardsService, logg))
						r.Post("/void-label", yardcontrollers.VoidLabel(deps.YardsService, logg))
						r.Patch("/payment-status", yardcontrollers.PaymentStatus(deps.YardsService, logg))
						r.Post("/po-email", yardcontrollers.SendPO(deps.YardsService, logg))

						r.Patch("/refund-status", refundcontrollers.SetStatus(deps.RefundsService, logg))
						r.Post("/refund-checkbox", refundcontrollers.ToggleCheckbox(deps.RefundsService, logg))
						r.Post("/refund-email", refundcontrollers.SendEmail(deps.RefundsService, logg))

						r.Put("/escalation", escalationcontrollers.Save(deps.EscalationsService, logg))
						r.Post("/escalation/email/{leg}", escalationcontrollers.SendEmail(deps.EscalationsService, logg))
						r.Post("/escalation/void/{leg}", escalationcontrollers.VoidLeg(deps.EscalationsService, logg))
					})
				})
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", reportcontrollers.Sales(deps.ReportsService, logg))
			r.Get("/refunds", reportcontrollers.Refunds(deps.ReportsService, logg))
			r.Get("/monthly-gp", reportcontrollers.MonthlyGrossProfit(deps.ReportsService, logg))
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", leadcontrollers.List(deps.LeadsService, logg))

			r.Route("/{leadId}", func(r chi.Router) {
				r.Get("/", leadcontrollers.Detail(deps.LeadsService, logg))
				r.Post("/claim", leadcontrollers.Claim(deps.LeadsService, logg))
				r.Post("/release", leadcontrollers.Release(deps.LeadsService, logg))
				r.Post("/close", leadcontrollers.Close(deps.LeadsService, logg))
				r.Post("/labels", leadcontrollers.AddLabel(deps.LeadsService, logg))
				r.Delete("/labels/{label}", leadcontrollers.RemoveLabel(deps.LeadsService, logg))
				r.Post("/comments", leadcontrollers.AddComment(deps.LeadsService, logg))
			})
		})
	})

	return r
}
