package router

import (
	"net/http"

	"github.com/senyabanana/hay-exchange/internal/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Handlers - обработчики, которые подключаются к маршрутам.
type Handlers struct {
	Listings       *handlers.ListingHandler
	Negotiations   *handlers.NegotiationHandler
	PurchaseOrders *handlers.PurchaseOrderHandler
	Deliveries     *handlers.DeliveryHandler
}

func InitRoutes(h Handlers, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type",
			handlers.HeaderUserID, handlers.HeaderOrganizationID, handlers.HeaderRole},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlers.PingHandler)

		r.Group(func(r chi.Router) {
			r.Use(handlers.Identity)

			r.Route("/listings", func(r chi.Router) {
				r.Post("/", h.Listings.CreateListing)
				r.Get("/", h.Listings.GetListings)
				r.Get("/{listingId}", h.Listings.GetListing)
				r.Post("/{listingId}/offers", h.Listings.CreateOffer)
				r.Post("/{listingId}/accept", h.Listings.AcceptAtPrice)
			})

			r.Route("/negotiations", func(r chi.Router) {
				r.Get("/", h.Negotiations.GetNegotiations)
				r.Get("/{negotiationId}/thread", h.Negotiations.GetThread)
				r.Post("/{negotiationId}/counter", h.Negotiations.Counter)
				r.Post("/{negotiationId}/accept", h.Negotiations.Accept)
				r.Post("/{negotiationId}/reject", h.Negotiations.Reject)
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Get("/", h.PurchaseOrders.GetPurchaseOrders)
				r.Get("/{poId}", h.PurchaseOrders.GetPurchaseOrder)
				r.Put("/{poId}/terms", h.PurchaseOrders.UpdateTerms)
				r.Post("/{poId}/sign", h.PurchaseOrders.Sign)
				r.Post("/{poId}/close", h.PurchaseOrders.Close)
				r.Put("/{poId}/center", h.PurchaseOrders.SetCenter)
				r.Get("/{poId}/signatures", h.PurchaseOrders.GetSignatures)
				r.Get("/{poId}/audit", h.PurchaseOrders.GetAuditLog)
				r.Post("/{poId}/loads", h.Deliveries.LogDelivery)
				r.Get("/{poId}/loads", h.Deliveries.GetLoads)
				r.Get("/{poId}/delivery-summary", h.Deliveries.GetDeliverySummary)
			})

			r.Route("/loads", func(r chi.Router) {
				r.Patch("/{loadId}", h.Deliveries.EditLoad)
				r.Get("/{loadId}/edits", h.Deliveries.GetLoadEdits)
				r.Get("/{loadId}/audit", h.PurchaseOrders.GetLoadAuditLog)
			})
		})
	})

	return r
}
