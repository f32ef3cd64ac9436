package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/httpkit"
)

// ListTemplates returns the template catalog.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.templates.List()
	if err != nil {
		h.log.LogError(r.Context(), "failed to list templates", err)
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"templates": list})
}

// GetTemplate returns one template, defaults included.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.templates.Get(chi.URLParam(r, "templateId"))
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, 200, tpl)
}
