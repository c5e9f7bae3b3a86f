package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/hay-exchange/internal/models"
	"github.com/senyabanana/hay-exchange/internal/services"
	"github.com/senyabanana/hay-exchange/internal/utils"

	"github.com/go-chi/chi/v5"
)

// ListingHandler - структура для обработки HTTP-запросов по стогам.
type ListingHandler struct {
	Service       *services.ListingService
	Negotiations  *services.NegotiationService
	PurchaseOrder *services.PurchaseOrderService
	Logger        *log.Logger
	Timeout       time.Duration
}

// NewListingHandler создаёт новый экземпляр ListingHandler.
func NewListingHandler(service *services.ListingService, negotiations *services.NegotiationService, purchaseOrders *services.PurchaseOrderService, logger *log.Logger, timeout time.Duration) *ListingHandler {
	return &ListingHandler{
		Service:       service,
		Negotiations:  negotiations,
		PurchaseOrder: purchaseOrders,
		Logger:        logger,
		Timeout:       timeout,
	}
}

// CreateListing обрабатывает запросы для создания стога.
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.ListingRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	listing, err := h.Service.CreateListing(ctx, req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "create listing", err, "failed to create listing")
		return
	}
	if err = utils.SendJSON(w, http.StatusCreated, listing); err != nil {
		h.Logger.Println(err)
	}
}

// GetListings обрабатывает запросы для получения списка стогов.
func (h *ListingHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	statuses := r.URL.Query()["status"]
	organizationID := r.URL.Query().Get("organizationId")

	listings, err := h.Service.FetchListings(ctx, statuses, organizationID, limit, offset, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch listings", err, "failed to fetch listings")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, listings); err != nil {
		h.Logger.Println(err)
	}
}

// GetListing обрабатывает запросы для получения стога.
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	listing, err := h.Service.GetListing(ctx, chi.URLParam(r, "listingId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "get listing", err, "failed to get listing")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, listing); err != nil {
		h.Logger.Println(err)
	}
}

// CreateOffer обрабатывает запросы для создания предложения по стогу.
func (h *ListingHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.OfferRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	offer, err := h.Negotiations.CreateOffer(ctx, chi.URLParam(r, "listingId"), req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "create offer", err, "failed to create offer")
		return
	}
	if err = utils.SendJSON(w, http.StatusCreated, offer); err != nil {
		h.Logger.Println(err)
	}
}

// AcceptAtPrice обрабатывает запросы на покупку стога по выставленной цене.
func (h *ListingHandler) AcceptAtPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.SignRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	po, err := h.PurchaseOrder.AcceptListingAtPrice(ctx, chi.URLParam(r, "listingId"), req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "accept listing at price", err, "failed to accept listing")
		return
	}
	if err = utils.SendJSON(w, http.StatusCreated, po); err != nil {
		h.Logger.Println(err)
	}
}
