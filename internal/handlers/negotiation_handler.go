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

// NegotiationHandler - структура для обработки HTTP-запросов по переговорам.
type NegotiationHandler struct {
	Service *services.NegotiationService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewNegotiationHandler создаёт новый экземпляр NegotiationHandler.
func NewNegotiationHandler(service *services.NegotiationService, logger *log.Logger, timeout time.Duration) *NegotiationHandler {
	return &NegotiationHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetNegotiations обрабатывает запросы для получения веток переговоров организации.
func (h *NegotiationHandler) GetNegotiations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	negotiations, err := h.Service.FetchNegotiations(ctx, limit, offset, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch negotiations", err, "failed to fetch negotiations")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, negotiations); err != nil {
		h.Logger.Println(err)
	}
}

// GetThread обрабатывает запросы для получения ветки переговоров.
func (h *NegotiationHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	thread, err := h.Service.GetThread(ctx, chi.URLParam(r, "negotiationId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "get thread", err, "failed to get negotiation thread")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, thread); err != nil {
		h.Logger.Println(err)
	}
}

// Counter обрабатывает запросы для встречного предложения.
func (h *NegotiationHandler) Counter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.OfferRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	counter, err := h.Service.Counter(ctx, chi.URLParam(r, "negotiationId"), req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "counter offer", err, "failed to counter offer")
		return
	}
	if err = utils.SendJSON(w, http.StatusCreated, counter); err != nil {
		h.Logger.Println(err)
	}
}

// Accept обрабатывает запросы для принятия предложения.
func (h *NegotiationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	acceptance, err := h.Service.Accept(ctx, chi.URLParam(r, "negotiationId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "accept offer", err, "failed to accept offer")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, acceptance); err != nil {
		h.Logger.Println(err)
	}
}

// Reject обрабатывает запросы для отклонения предложения.
func (h *NegotiationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	negotiation, err := h.Service.Reject(ctx, chi.URLParam(r, "negotiationId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "reject offer", err, "failed to reject offer")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, negotiation); err != nil {
		h.Logger.Println(err)
	}
}
