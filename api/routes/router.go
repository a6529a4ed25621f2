package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmgatehq/farmgate-backend/api/controllers"
	"github.com/farmgatehq/farmgate-backend/api/middleware"
	"github.com/farmgatehq/farmgate-backend/internal/authn"
	"github.com/farmgatehq/farmgate-backend/internal/disputes"
	"github.com/farmgatehq/farmgate-backend/internal/listings"
	"github.com/farmgatehq/farmgate-backend/internal/logistics"
	"github.com/farmgatehq/farmgate-backend/internal/market"
	"github.com/farmgatehq/farmgate-backend/internal/messages"
	"github.com/farmgatehq/farmgate-backend/internal/negotiations"
	"github.com/farmgatehq/farmgate-backend/internal/orders"
	"github.com/farmgatehq/farmgate-backend/internal/payments"
	"github.com/farmgatehq/farmgate-backend/internal/products"
	"github.com/farmgatehq/farmgate-backend/internal/profiles"
	"github.com/farmgatehq/farmgate-backend/internal/provenance"
	"github.com/farmgatehq/farmgate-backend/internal/reviews"
	"github.com/farmgatehq/farmgate-backend/internal/tasks"
	"github.com/farmgatehq/farmgate-backend/internal/trust"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
	"github.com/farmgatehq/farmgate-backend/pkg/metrics"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth         authn.Service
	Profiles     profiles.Service
	Products     products.Service
	Listings     listings.Service
	Orders       orders.Service
	Payments     payments.Service
	Tasks        tasks.Service
	Negotiations negotiations.Service
	Reviews      reviews.Service
	Trust        trust.Service
	Logistics    logistics.Service
	Messages     messages.Service
	Disputes     disputes.Service
	Provenance   provenance.Service
	Market       market.Service
}

// NewRouter builds the full HTTP surface: health and metrics endpoints,
// the public marketplace feed, and the authenticated API.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	requestMetrics *metrics.RequestMetrics,
	gatherer prometheus.Gatherer,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(requestMetrics),
		middleware.Timeout(cfg.App.RequestTimeout),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(svcs.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	// Unauthenticated marketplace surface: buyers can browse before they
	// hold an account.
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/listings", controllers.ListingBrowse(svcs.Listings, logg))
		r.Get("/listings/{id}", controllers.ListingGet(svcs.Listings, logg))
		r.Get("/listings/{id}/reviews", controllers.ReviewByListing(svcs.Reviews, logg))
		r.Get("/listings/{id}/trace", controllers.ProvenanceTrace(svcs.Provenance, logg))
		r.Get("/products", controllers.ProductSearch(svcs.Products, logg))
		r.Get("/products/{id}", controllers.ProductGet(svcs.Products, logg))
		r.Get("/farmers/verified", controllers.ProfileVerifiedFarmers(svcs.Profiles, logg))
		r.Get("/market/{category}", controllers.MarketSnapshot(svcs.Market, logg))
		r.Get("/market/grade", controllers.MarketGrade(svcs.Market, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", controllers.ProfileMe(svcs.Profiles, logg))
			r.Get("/{id}", controllers.ProfileGet(svcs.Profiles, logg))
			r.Patch("/{id}", controllers.ProfileUpdate(svcs.Profiles, logg))
			r.Put("/{id}/verification", controllers.ProfileSetVerification(svcs.Profiles, logg))
			r.Get("/role/{role}", controllers.ProfileListByRole(svcs.Profiles, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Delete("/{id}", controllers.ProductDelete(svcs.Products, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.ListingCreate(svcs.Listings, logg))
			r.Get("/farmer/{farmerID}", controllers.ListingByFarmer(svcs.Listings, logg))
			r.Patch("/{id}", controllers.ListingUpdate(svcs.Listings, logg))
			r.Put("/{id}/status", controllers.ListingUpdateStatus(svcs.Listings, logg))
			r.Post("/{id}/adjust", controllers.ListingAdjustQuantity(svcs.Listings, logg))
			r.Delete("/{id}", controllers.ListingDelete(svcs.Listings, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/mine", controllers.OrderListMine(svcs.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(svcs.Orders, logg))
			r.Put("/{id}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
			r.Post("/{id}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			r.Get("/{id}/payment", controllers.PaymentByOrder(svcs.Payments, logg))
			r.Get("/{id}/shipment", controllers.ShipmentByOrder(svcs.Logistics, logg))
			r.Get("/{id}/disputes", controllers.DisputeByOrder(svcs.Disputes, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentRecord(svcs.Payments, logg))
			r.Post("/{id}/succeed", controllers.PaymentMarkSucceeded(svcs.Payments, logg))
			r.Post("/{id}/fail", controllers.PaymentMarkFailed(svcs.Payments, logg))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", controllers.TaskCreate(svcs.Tasks, logg))
			r.Get("/", controllers.TaskList(svcs.Tasks, logg))
			r.Patch("/{id}", controllers.TaskUpdate(svcs.Tasks, logg))
			r.Put("/{id}/status", controllers.TaskUpdateStatus(svcs.Tasks, logg))
			r.Delete("/{id}", controllers.TaskDelete(svcs.Tasks, logg))
		})

		r.Route("/negotiations", func(r chi.Router) {
			r.Post("/", controllers.NegotiationOpen(svcs.Negotiations, logg))
			r.Get("/listing/{listingID}", controllers.NegotiationByListing(svcs.Negotiations, logg))
			r.Post("/{id}/accept", controllers.NegotiationAccept(svcs.Negotiations, logg))
			r.Post("/{id}/reject", controllers.NegotiationReject(svcs.Negotiations, logg))
			r.Post("/{id}/counter", controllers.NegotiationCounter(svcs.Negotiations, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.ReviewCreate(svcs.Reviews, logg))
			r.Delete("/{id}", controllers.ReviewDelete(svcs.Reviews, logg))
		})

		r.Route("/certifications", func(r chi.Router) {
			r.Post("/", controllers.CertificationSubmit(svcs.Trust, logg))
			r.Get("/farmer/{farmerID}", controllers.CertificationByFarmer(svcs.Trust, logg))
			r.Get("/expiring", controllers.CertificationExpiring(svcs.Trust, logg))
			r.Put("/{id}/verify", controllers.CertificationVerify(svcs.Trust, logg))
		})

		r.Route("/quality-reports", func(r chi.Router) {
			r.Post("/", controllers.QualityReportFile(svcs.Trust, logg))
			r.Get("/listing/{listingID}", controllers.QualityReportByListing(svcs.Trust, logg))
			r.Post("/{id}/attach", controllers.QualityReportAttach(svcs.Trust, logg))
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.ShipmentCreate(svcs.Logistics, logg))
			r.Get("/{id}", controllers.ShipmentGet(svcs.Logistics, logg))
			r.Put("/{id}/status", controllers.ShipmentUpdateStatus(svcs.Logistics, logg))
			r.Post("/readings", controllers.ColdChainRecord(svcs.Logistics, logg))
			r.Get("/{id}/breaches", controllers.ColdChainBreaches(svcs.Logistics, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/{retailerID}", controllers.InventoryList(svcs.Logistics, logg))
			r.Post("/{retailerID}/adjust", controllers.InventoryAdjust(svcs.Logistics, logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", controllers.MessageSend(svcs.Messages, logg))
			r.Get("/unread", controllers.MessageUnreadCount(svcs.Messages, logg))
			r.Get("/with/{profileID}", controllers.MessageConversation(svcs.Messages, logg))
			r.Put("/{id}/read", controllers.MessageMarkRead(svcs.Messages, logg))
		})

		r.Route("/disputes", func(r chi.Router) {
			r.Post("/", controllers.DisputeRaise(svcs.Disputes, logg))
			r.Get("/open", controllers.DisputeListOpen(svcs.Disputes, logg))
			r.Post("/{id}/review", controllers.DisputeBeginReview(svcs.Disputes, logg))
			r.Post("/{id}/settle", controllers.DisputeSettle(svcs.Disputes, logg))
		})

		r.Route("/provenance", func(r chi.Router) {
			r.Post("/register", controllers.ProvenanceRegister(svcs.Provenance, logg))
			r.Post("/transfer", controllers.ProvenanceTransfer(svcs.Provenance, logg))
			r.Get("/listing/{listingID}", controllers.ProvenanceReferences(svcs.Provenance, logg))
		})
	})

	return r
}
