package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/proxy"
)

// runUsage is the body of GET /run.
type runUsage struct {
	OK     bool   `json:"ok"`
	Method string `json:"method"`
	Usage  string `json:"usage"`
}

const usageText = "POST /api/run { promptId|id, rawPrompt?, userInput|input.text, conversationHistory|thread? }"

// RunHandler serves POST /run and /api/run: it resolves the system prompt,
// starts a relay call and writes its fragments as an event stream.
type RunHandler struct {
	Relay   Streamer
	Prompts PromptCatalog

	// Temperature and MaxOutputTokens are sent upstream. A nil temperature
	// or a zero token limit takes the request default.
	Temperature     *float64
	MaxOutputTokens int

	// MaxBodyBytes limits the JSON body.
	MaxBodyBytes int64
}

// NewRunHandler creates a run handler.
func NewRunHandler(relay Streamer, catalog PromptCatalog) *RunHandler {
	return &RunHandler{Relay: relay, Prompts: catalog}
}

// ServeHTTP implements http.Handler.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		_ = proxy.WriteJSON(w, http.StatusOK, runUsage{OK: true, Method: http.MethodPost, Usage: usageText})
	case http.MethodPost:
		h.stream(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		_ = proxy.WriteError(w, http.StatusMethodNotAllowed, proxy.CodeMethod)
	}
}

// Request builds the generation request for body. A non-empty rawPrompt
// replaces the catalog prompt.
func (h *RunHandler) Request(body *proxy.RunRequest) *providers.GenerationRequest {
	system := body.RawPrompt
	if strings.TrimSpace(system) == "" {
		system = h.Prompts.SystemPrompt(body.Prompt())
	}

	req := providers.NewGenerationRequest(system, body.UserText(), body.History())
	if h.Temperature != nil {
		req.Temperature = providers.Float64(*h.Temperature)
	}
	if h.MaxOutputTokens > 0 {
		req.MaxOutputTokens = h.MaxOutputTokens
	}
	return req
}

func (h *RunHandler) stream(w http.ResponseWriter, r *http.Request) {
	var body proxy.RunRequest
	if err := proxy.DecodeJSON(w, r, h.MaxBodyBytes, &body); err != nil {
		proxy.WriteHandledError(w, r, err)
		return
	}

	// Cancelling ctx is the only way to stop the relay early.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	startTime := time.Now()
	slog.InfoContext(ctx, "processing run request",
		"prompt_id", body.Prompt(),
		"raw_prompt", body.RawPrompt != "",
		"history", len(body.History()),
	)

	fragments := h.Relay.Stream(ctx, h.Request(&body))
	sse := proxy.NewSSEWriter(w)

	sent := 0
	for frag := range fragments {
		if err := sse.WriteFragment(frag); err != nil {
			slog.WarnContext(ctx, "client went away during streaming",
				"fragments_sent", sent,
				"error", err,
			)
			cancel()
			for range fragments {
			}
			return
		}
		sent++
	}

	slog.DebugContext(ctx, "run stream closed",
		"records_sent", sent,
		"total_latency_ms", time.Since(startTime).Milliseconds(),
	)
}
