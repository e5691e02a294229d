package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"hohl-rocks/relay/pkg/proxy"
	"hohl-rocks/relay/pkg/replicate"
)

type predictionResponse struct {
	OK     bool            `json:"ok"`
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  any             `json:"error,omitempty"`
}

// ReplicateHandler serves POST /api/replicate. It blocks until the
// prediction finished or the poll budget is spent.
type ReplicateHandler struct {
	Client Predictor

	MaxBodyBytes int64
}

// NewReplicateHandler creates a replicate handler.
func NewReplicateHandler(client Predictor) *ReplicateHandler {
	return &ReplicateHandler{Client: client}
}

// ServeHTTP implements http.Handler.
func (h *ReplicateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil || !h.Client.Configured() {
		proxy.WriteHandledError(w, r, replicate.ErrNotConfigured)
		return
	}

	var in replicate.Input
	if err := proxy.DecodeJSON(w, r, h.MaxBodyBytes, &in); err != nil {
		proxy.WriteHandledError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Version) == "" {
		proxy.WriteHandledError(w, r, &proxy.RequestError{Code: proxy.CodeInvalidBody, Message: "version is required"})
		return
	}

	pred, err := h.Client.Run(r.Context(), in)
	if err != nil {
		proxy.WriteHandledError(w, r, err)
		return
	}

	_ = proxy.WriteJSON(w, http.StatusOK, predictionResponse{
		OK:     pred.Status == replicate.StatusSucceeded,
		ID:     pred.ID,
		Status: pred.Status,
		Output: pred.Output,
		Error:  pred.Error,
	})
}
