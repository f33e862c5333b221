package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/switzbillz/switzbillz/internal/db"
)

// AdminLogsHandler shows system logs with filtering
// GET /admin/logs
func (h *Handler) AdminLogsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Get filter parameters
	subsystem := r.URL.Query().Get("subsystem")
	level := r.URL.Query().Get("level")
	orderIDStr := r.URL.Query().Get("order_id")
	limitStr := r.URL.Query().Get("limit")

	var orderID int64
	if orderIDStr != "" {
		if parsed, err := strconv.ParseInt(orderIDStr, 10, 64); err == nil {
			orderID = parsed
		}
	}

	// Parse limit (default 100)
	limit := int64(100)
	if limitStr != "" {
		if parsed, err := strconv.ParseInt(limitStr, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	logs, err := h.queries.ListLogsFiltered(ctx, db.ListLogsFilteredParams{
		Subsystem: subsystem,
		Level:     level,
		OrderID:   orderID,
		Limit:     limit,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Database error: %v", err), http.StatusInternalServerError)
		return
	}

	// Filter dropdowns fall back to empty lists
	subsystems, err := h.queries.GetDistinctSubsystems(ctx)
	if err != nil {
		subsystems = []string{}
	}

	levels, err := h.queries.GetDistinctLevels(ctx)
	if err != nil {
		levels = []string{}
	}

	data := map[string]interface{}{
		"Title":      "System Logs",
		"User":       h.auth.GetUser(r),
		"Logs":       logs,
		"Subsystems": subsystems,
		"Levels":     levels,
		"Subsystem":  subsystem,
		"Level":      level,
		"OrderID":    orderIDStr,
		"Limit":      limit,
	}

	h.render(w, "admin_logs.html", data)
}
