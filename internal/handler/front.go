package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
	"github.com/switzbillz/switzbillz/internal/shop"
)

// ValidationHandler turns the posted cart into an order and sends the
// customer on to the confirmation page
// POST /module/switzbillz/validation
func (h *Handler) ValidationHandler(w http.ResponseWriter, r *http.Request) {
	var cart shop.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		log.Printf("[Hook] Invalid cart payload: %v", err)
		cart = shop.Cart{}
	}

	result := h.module.Validate(r.Context(), cart)

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		h.writeJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
}

// PreviewHandler renders the QR bill of the submitted settings with sample
// order data
// POST /module/switzbillz/preview
func (h *Handler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	user := h.auth.GetUser(r)
	if user == nil {
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.auth.IsAdmin(user) {
		h.jsonError(w, "Forbidden - admin access required", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.jsonError(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !r.Form.Has("ajax") {
		h.jsonError(w, "Invalid request: ajax parameter missing", http.StatusBadRequest)
		return
	}

	html, violations, err := previewBill(settings.FromForm(r.PostForm))
	switch {
	case err != nil:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "error",
			"message": billing.Message(err),
		})
	case len(violations) > 0:
		messages := make([]string, len(violations))
		for i, v := range violations {
			messages[i] = v.Message
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "error",
			"errors": messages,
		})
	default:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "success",
			"qrCodeHtml": html,
		})
	}
}

// previewBill builds the sample bill for s. Validation failures are returned
// as violations, everything else as an error.
func previewBill(s *settings.Settings) (string, []qrbill.Violation, error) {
	bill, err := billing.BuildPreview(s)
	if err != nil {
		return "", nil, err
	}

	if violations := bill.Violations(); len(violations) > 0 {
		return "", violations, nil
	}

	html, err := qrbill.PaymentPartHTML(bill, qrbill.LangEN)
	if err != nil {
		return "", nil, err
	}
	return html, nil, nil
}

// DownloadQRBillHandler sends the QR bill of an order to its customer
// GET /module/switzbillz/downloadQrBill?orderId=&token=
func (h *Handler) DownloadQRBillHandler(w http.ResponseWriter, r *http.Request) {
	home := strings.TrimRight(h.config.ShopBaseURL, "/") + "/index.php"

	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	if _, err := h.signer.VerifyOrder(r.URL.Query().Get("token"), orderID); err != nil {
		log.Printf("[QRBill] Rejected download of order %d: %v", orderID, err)
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	order, err := h.module.Order(r.Context(), orderID)
	if err != nil || order.Module != shop.ModuleName {
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	doc, err := h.documents.GeneratePDF(r.Context(), orderID)
	if err != nil {
		log.Printf("[QRBill] Failed to generate QR bill for order %d: %v", orderID, err)
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	h.writePDF(w, invoice.QRFilename(orderID), doc.Content)
}

// PaymentReturnHandler renders the confirmation shown after checkout
// GET /module/switzbillz/payment-return?id_order=
func (h *Handler) PaymentReturnHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("id_order"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	data, err := h.module.PaymentReturn(r.Context(), orderID)
	if errors.Is(err, shop.ErrOrderNotFound) {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeFragment(w, "payment_return.html", data)
}
