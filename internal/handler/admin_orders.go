package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/shop"
)

// AdminOrdersHandler lists the latest QR bill orders
// GET /admin/orders
func (h *Handler) AdminOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if parsed, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && parsed > 0 {
		limit = parsed
	}

	orders, err := h.queries.ListRecentOrders(r.Context(), db.ListRecentOrdersParams{
		Module: shop.ModuleName,
		Limit:  limit,
	})
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":  "QR Bill Orders",
		"User":   h.auth.GetUser(r),
		"Orders": orders,
		"Limit":  limit,
	}

	h.render(w, "admin_orders.html", data)
}

// AdminOrderQRBillHandler downloads the invoice and QR bill of an order
// GET /admin/orders/{orderId}/qr-bill
func (h *Handler) AdminOrderQRBillHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	doc, err := h.documents.GeneratePDF(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, billing.ErrNoInvoice),
			errors.Is(err, billing.ErrInvalidReferenceType),
			errors.Is(err, billing.ErrInvalidCountryCode):
			http.Error(w, billing.Message(err), http.StatusUnprocessableEntity)
		case errors.Is(err, qrbill.ErrInvalidBill):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Printf("[QRBill] Failed to generate QR bill for order %d: %v", orderID, err)
			http.Error(w, "Failed to generate QR bill: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writePDF(w, doc.Filename, doc.Content)
}
