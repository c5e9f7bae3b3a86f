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

// PurchaseOrderHandler - структура для обработки HTTP-запросов по заказам.
type PurchaseOrderHandler struct {
	Service *services.PurchaseOrderService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewPurchaseOrderHandler создаёт новый экземпляр PurchaseOrderHandler.
func NewPurchaseOrderHandler(service *services.PurchaseOrderService, logger *log.Logger, timeout time.Duration) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetPurchaseOrders обрабатывает запросы для получения списка заказов организации.
func (h *PurchaseOrderHandler) GetPurchaseOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limit, offset, err := utils.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	orders, err := h.Service.FetchPurchaseOrders(ctx, r.URL.Query().Get("status"), limit, offset, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch purchase orders", err, "failed to fetch purchase orders")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, orders); err != nil {
		h.Logger.Println(err)
	}
}

// GetPurchaseOrder обрабатывает запросы для получения заказа.
func (h *PurchaseOrderHandler) GetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	po, err := h.Service.GetPurchaseOrder(ctx, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "get purchase order", err, "failed to get purchase order")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, po); err != nil {
		h.Logger.Println(err)
	}
}

// UpdateTerms обрабатывает запросы для изменения условий заказа.
func (h *PurchaseOrderHandler) UpdateTerms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var upd models.TermsUpdate
	if err := decodeBody(r, &upd); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	po, err := h.Service.UpdateTerms(ctx, chi.URLParam(r, "poId"), upd, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "update terms", err, "failed to update terms")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, po); err != nil {
		h.Logger.Println(err)
	}
}

// Sign обрабатывает запросы для подписи заказа.
func (h *PurchaseOrderHandler) Sign(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.SignRequest
	if err := decodeBody(r, &req); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	po, err := h.Service.Sign(ctx, chi.URLParam(r, "poId"), req, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "sign purchase order", err, "failed to sign purchase order")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, po); err != nil {
		h.Logger.Println(err)
	}
}

// Close обрабатывает запросы для закрытия заказа.
func (h *PurchaseOrderHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	po, err := h.Service.Close(ctx, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "close purchase order", err, "failed to close purchase order")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, po); err != nil {
		h.Logger.Println(err)
	}
}

// SetCenter обрабатывает запросы для назначения центра и класса сена.
func (h *PurchaseOrderHandler) SetCenter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var upd models.CenterUpdate
	if err := decodeBody(r, &upd); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	po, err := h.Service.SetCenter(ctx, chi.URLParam(r, "poId"), upd, ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "set center", err, "failed to set center")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, po); err != nil {
		h.Logger.Println(err)
	}
}

// GetSignatures обрабатывает запросы для получения подписей заказа.
func (h *PurchaseOrderHandler) GetSignatures(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	signatures, err := h.Service.GetSignatures(ctx, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "get signatures", err, "failed to get signatures")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, signatures); err != nil {
		h.Logger.Println(err)
	}
}

// GetAuditLog обрабатывает запросы для получения журнала аудита заказа.
func (h *PurchaseOrderHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	entries, err := h.Service.FetchAuditLog(ctx, models.PurchaseOrderEntity, chi.URLParam(r, "poId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch audit log", err, "failed to fetch audit log")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, entries); err != nil {
		h.Logger.Println(err)
	}
}

// GetLoadAuditLog обрабатывает запросы для получения журнала аудита поставки.
func (h *PurchaseOrderHandler) GetLoadAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	entries, err := h.Service.FetchAuditLog(ctx, models.LoadEntity, chi.URLParam(r, "loadId"), ActorFromContext(ctx))
	if err != nil {
		utils.SendServiceError(w, h.Logger, "fetch load audit log", err, "failed to fetch audit log")
		return
	}
	if err = utils.SendJSON(w, http.StatusOK, entries); err != nil {
		h.Logger.Println(err)
	}
}
