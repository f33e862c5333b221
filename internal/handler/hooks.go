package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/switzbillz/switzbillz/internal/shop"
)

// PaymentOptionsHandler lists the checkout payment options of the module
// GET /hooks/payment-options
func (h *Handler) PaymentOptionsHandler(w http.ResponseWriter, r *http.Request) {
	options := h.module.PaymentOptions(r.Context())

	if len(options) > 0 {
		info, err := h.module.PaymentInfo(r.Context())
		if err != nil {
			h.jsonError(w, "Failed to load settings: "+err.Error(), http.StatusInternalServerError)
			return
		}
		html, err := h.renderFragment("payment_infos.html", info)
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		for i := range options {
			options[i].AdditionalInformation = html
		}
	}

	h.writeJSON(w, http.StatusOK, options)
}

// OrderHookRequest identifies the order of a hook call
type OrderHookRequest struct {
	OrderID      int64 `json:"id_order"`
	OrderStateID int64 `json:"id_order_state"`
}

// ValidateOrderHandler runs after the shop validated an order
// POST /hooks/validate-order
func (h *Handler) ValidateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req OrderHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID <= 0 {
		h.jsonError(w, "Invalid request: id_order is required", http.StatusBadRequest)
		return
	}

	if err := h.module.OnValidateOrder(r.Context(), req.OrderID); err != nil {
		log.Printf("[Hook] validate-order %d failed: %v", req.OrderID, err)
		h.jsonError(w, "Failed to process order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// OrderStatusUpdateHandler runs when an order changes state
// POST /hooks/order-status-update
func (h *Handler) OrderStatusUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req OrderHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID <= 0 || req.OrderStateID <= 0 {
		h.jsonError(w, "Invalid request: id_order and id_order_state are required", http.StatusBadRequest)
		return
	}

	if err := h.module.OnOrderStatusUpdate(r.Context(), req.OrderID, req.OrderStateID); err != nil {
		log.Printf("[Hook] order-status-update %d failed: %v", req.OrderID, err)
		h.jsonError(w, "Failed to process order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// EmailSendBeforeRequest describes an email the shop is about to send
type EmailSendBeforeRequest struct {
	Template     string            `json:"template"`
	TemplateVars map[string]string `json:"templateVars"`
}

// EmailSendBeforeHandler returns the attachments to add to an outgoing email
// POST /hooks/email-send-before
func (h *Handler) EmailSendBeforeHandler(w http.ResponseWriter, r *http.Request) {
	var req EmailSendBeforeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	attachments, err := h.module.OnEmailSendBefore(r.Context(), req.Template, req.TemplateVars)
	if err != nil {
		log.Printf("[Hook] email-send-before failed: %v", err)
		h.jsonError(w, "Failed to attach QR bill: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if attachments == nil {
		attachments = []shop.FileAttachment{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"fileAttachment": attachments})
}

// OrderDetailHandler renders the QR bill download block of the order page
// GET /hooks/order-detail?id_order=
func (h *Handler) OrderDetailHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("id_order"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	detail, err := h.module.OrderDetail(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeFragment(w, "order_detail.html", detail)
}

// OrderGridDefinitionHandler adds the QR bill action to the back office order grid
// POST /hooks/order-grid-definition
func (h *Handler) OrderGridDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	var def shop.GridDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		h.jsonError(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.module.ModifyOrderGrid(r.Context(), &def); err != nil {
		if errors.Is(err, shop.ErrColumnNotFound) {
			h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, def)
}
