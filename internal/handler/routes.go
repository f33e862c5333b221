package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the front office, hook and back office routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HomeHandler)

	// Customer facing controllers
	r.Route("/module/switzbillz", func(r chi.Router) {
		r.Post("/validation", h.ValidationHandler)
		r.Post("/preview", h.PreviewHandler)
		r.Get("/downloadQrBill", h.DownloadQRBillHandler)
		r.Get("/payment-return", h.PaymentReturnHandler)
	})

	// Hooks called by the shop
	r.Route("/hooks", func(r chi.Router) {
		r.Get("/payment-options", h.PaymentOptionsHandler)
		r.Post("/validate-order", h.ValidateOrderHandler)
		r.Post("/order-status-update", h.OrderStatusUpdateHandler)
		r.Post("/email-send-before", h.EmailSendBeforeHandler)
		r.Get("/order-detail", h.OrderDetailHandler)
		r.Post("/order-grid-definition", h.OrderGridDefinitionHandler)
	})

	// Back office (requires the admin role)
	r.Route("/admin", func(r chi.Router) {
		r.Get("/settings", h.RequireAdmin(h.AdminSettingsHandler))
		r.Post("/settings", h.RequireAdmin(h.AdminSettingsHandler))
		r.Post("/install", h.RequireAdmin(h.AdminInstallHandler))
		r.Post("/uninstall", h.RequireAdmin(h.AdminUninstallHandler))
		r.Get("/orders", h.RequireAdmin(h.AdminOrdersHandler))
		r.Get("/orders/{orderId}/qr-bill", h.RequireAdmin(h.AdminOrderQRBillHandler))
		r.Get("/logs", h.RequireAdmin(h.AdminLogsHandler))
	})
}
