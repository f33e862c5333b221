package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/switzbillz/switzbillz/internal/auth"
	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/settings"
)

// AdminSettingsHandler shows and saves the module configuration form
// GET /admin/settings
// POST /admin/settings
func (h *Handler) AdminSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user := h.auth.GetUser(r)
	ctx := r.Context()

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		s := settings.FromForm(r.PostForm)

		// Saving runs the same checks as the preview button
		_, violations, err := previewBill(s)
		if err != nil || len(violations) > 0 {
			var errs []string
			if err != nil {
				errs = append(errs, billing.Message(err))
			}
			for _, v := range violations {
				errs = append(errs, v.String())
			}
			h.renderStatus(w, http.StatusUnprocessableEntity, "admin_settings.html", h.settingsPageData(r, user, s, errs))
			return
		}

		if err := s.Save(ctx, h.queries); err != nil {
			http.Error(w, "Failed to save settings", http.StatusInternalServerError)
			return
		}

		log.Printf("[Module] Settings updated by %s", user.Email)
		h.queries.CreateLog(ctx, db.CreateLogParams{
			Subsystem: "admin",
			Level:     "info",
			Message:   fmt.Sprintf("Settings updated by %s", user.Email),
			Metadata: db.Metadata(map[string]interface{}{
				"admin":          user.Email,
				"reference_type": s.ReferenceType,
				"fingerprint":    s.Fingerprint(),
			}),
		})

		http.Redirect(w, r, "/admin/settings?success=1", http.StatusSeeOther)
		return
	}

	s, err := settings.Load(ctx, h.queries)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	h.render(w, "admin_settings.html", h.settingsPageData(r, user, s, nil))
}

func (h *Handler) settingsPageData(r *http.Request, user *auth.User, s *settings.Settings, errs []string) map[string]interface{} {
	query := r.URL.Query()
	return map[string]interface{}{
		"Title":                 "SwitzBillz Settings",
		"User":                  user,
		"Settings":              s,
		"Active":                h.module.Active(r.Context()),
		"Countries":             settings.Countries,
		"AdditionalInfoOptions": settings.AdditionalInfoOptions,
		"ReferenceTypeOptions":  settings.ReferenceTypeOptions,
		"Errors":                errs,
		"Success":               query.Get("success") == "1",
		"Installed":             query.Get("installed") == "1",
		"Uninstalled":           query.Get("uninstalled") == "1",
	}
}

// AdminInstallHandler installs the module order state
// POST /admin/install
func (h *Handler) AdminInstallHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.module.Install(r.Context()); err != nil {
		http.Error(w, "Failed to install module: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/settings?installed=1", http.StatusSeeOther)
}

// AdminUninstallHandler removes the module order state
// POST /admin/uninstall
func (h *Handler) AdminUninstallHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.module.Uninstall(r.Context()); err != nil {
		http.Error(w, "Failed to uninstall module: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin/settings?uninstalled=1", http.StatusSeeOther)
}
