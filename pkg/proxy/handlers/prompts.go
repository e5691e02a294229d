package handlers

import (
	"net/http"

	"hohl-rocks/relay/pkg/proxy"
)

type promptsResponse struct {
	OK    bool     `json:"ok"`
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// PromptsHandler serves GET /api/prompts.
type PromptsHandler struct {
	Catalog PromptCatalog
}

// NewPromptsHandler creates a prompts handler.
func NewPromptsHandler(catalog PromptCatalog) *PromptsHandler {
	return &PromptsHandler{Catalog: catalog}
}

// ServeHTTP implements http.Handler.
func (h *PromptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ids := h.Catalog.IDs()
	_ = proxy.WriteJSON(w, http.StatusOK, promptsResponse{OK: true, Count: len(ids), IDs: ids})
}
