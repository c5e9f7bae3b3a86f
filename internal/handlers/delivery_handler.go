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

// DeliveryHandler - структура для обработки HTTP-запросов по поставкам.
type DeliveryHandler struct {
	Service *services.DeliveryService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewDeliveryHandler создаёт новый экземпляр DeliveryHandler.
func NewDeliveryHandler(service *services.DeliveryService, logger *log.Logger, timeout time.Duration) *DeliveryHandler {
	return &DeliveryHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// LogDelivery обрабатывает запросы для регистрации поставки.
func (h *DeliveryHandler) LogDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.LoadRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	load, err := h.Service.LogDelivery(ctx, chi.URLParam(r, "poId"), req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "log delivery", err, "failed to log delivery")
		return
	}
	if err = utils.SendJSON(w, http.StatusCreated, load); err != nil {
		h.Logger.Println(err)
	}
}

// GetLoads обрабатывает запросы для получения поставок по заказу.
func (h *DeliveryHandler) GetLoads(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	loads, err := h.Service.FetchLoads(ctx, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch loads", err, "failed to fetch loads")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, loads); err != nil {
		h.Logger.Println(err)
	}
}

// GetDeliverySummary обрабатывает запросы для сверки поставок по заказу.
func (h *DeliveryHandler) GetDeliverySummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	summary, err := h.Service.GetDeliverySummary(ctx, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "delivery summary", err, "failed to get delivery summary")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, summary); err != nil {
		h.Logger.Println(err)
	}
}

// EditLoad обрабатывает запросы для исправления поставки.
func (h *DeliveryHandler) EditLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var upd models.LoadUpdate
	if err := decodeBody(r, &upd); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	load, err := h.Service.EditLoad(ctx, chi.URLParam(r, "loadId"), upd, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "edit load", err, "failed to edit load")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, load); err != nil {
		h.Logger.Println(err)
	}
}

// GetLoadEdits обрабатывает запросы для получения истории изменений поставки.
func (h *DeliveryHandler) GetLoadEdits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	edits, err := h.Service.FetchLoadEdits(ctx, chi.URLParam(r, "loadId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch load edits", err, "failed to fetch load edits")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, edits); err != nil {
		h.Logger.Println(err)
	}
}
