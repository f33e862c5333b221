package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"github.com/switzbillz/switzbillz/internal/auth"
	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/links"
	"github.com/switzbillz/switzbillz/internal/shop"
)

// Authenticator resolves the back office user of a request
type Authenticator interface {
	GetUser(r *http.Request) *auth.User
	IsAdmin(user *auth.User) bool
}

// Documents generates order documents
type Documents interface {
	GeneratePDF(ctx context.Context, orderID int64) (*invoice.Document, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	auth      Authenticator
	queries   *db.Queries
	module    *shop.Module
	documents Documents
	signer    *links.Signer
	config    *config.Config
}

// New creates a new Handler instance
func New(authenticator Authenticator, module *shop.Module, documents Documents, signer *links.Signer, cfg *config.Config) *Handler {
	return &Handler{
		auth:      authenticator,
		queries:   module.Queries(),
		module:    module,
		documents: documents,
		signer:    signer,
		config:    cfg,
	}
}

// HomeHandler sends visitors to the back office
func (h *Handler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/settings", http.StatusTemporaryRedirect)
}

// RequireAdmin wraps a handler so that only users with the admin role reach it
func (h *Handler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.auth.GetUser(r)
		if user == nil {
			http.Redirect(w, r, "/auth/login", http.StatusTemporaryRedirect)
			return
		}
		if !h.auth.IsAdmin(user) {
			http.Error(w, "Forbidden - admin access required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (h *Handler) templatePath(name string) string {
	return filepath.Join(h.config.WebRoot, "templates", name)
}

// render is a helper to render templates
func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	h.renderStatus(w, http.StatusOK, name, data)
}

func (h *Handler) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	// Parse templates fresh each time to avoid name conflicts
	tmpl, err := template.ParseFiles(
		h.templatePath("layout.html"),
		h.templatePath(name),
	)
	if err != nil {
		http.Error(w, fmt.Sprintf("Template parse error: %v", err), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		http.Error(w, fmt.Sprintf("Template execution error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderFragment renders a hook template that the shop embeds into its own pages.
func (h *Handler) renderFragment(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFiles(h.templatePath(filepath.Join("hook", name)))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (h *Handler) writeFragment(w http.ResponseWriter, name string, data interface{}) {
	html, err := h.renderFragment(name, data)
	if err != nil {
		log.Printf("[Hook] %v", err)
		http.Error(w, "Failed to render fragment", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (h *Handler) writePDF(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	w.Write(content)
}
