package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"hohl-rocks/relay/pkg/proxy"
	"hohl-rocks/relay/pkg/search/tavily"
)

const (
	researchResults = 5
	snippetRunes    = 600

	researchSystem = "Du bist ein Recherche-Assistent. Fasse die folgenden Quellen knapp und sachlich auf Deutsch zusammen. " +
		"Beantworte die Frage, nenne Unsicherheiten und erfinde keine Fakten."
)

type researchRequest struct {
	Q string `json:"q"`
}

type researchResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ResearchHandler serves POST /api/research. With search and a provider
// configured the answer is a summary of live search results; otherwise a
// labelled demo answer is returned.
type ResearchHandler struct {
	Search    Searcher
	Completer Completer

	MaxBodyBytes int64
}

// NewResearchHandler creates a research handler. search may be nil.
func NewResearchHandler(search Searcher, completer Completer) *ResearchHandler {
	return &ResearchHandler{Search: search, Completer: completer}
}

// DemoAnswer is the answer given without live search.
func DemoAnswer(q string) string {
	return "(Demo) Zusammenfassung für: " + q
}

// ServeHTTP implements http.Handler.
func (h *ResearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body researchRequest
	if err := proxy.DecodeJSON(w, r, h.MaxBodyBytes, &body); err != nil {
		proxy.WriteHandledError(w, r, err)
		return
	}

	q := strings.TrimSpace(body.Q)
	if q == "" {
		_ = proxy.WriteError(w, http.StatusBadRequest, proxy.CodeMissingQuery)
		return
	}

	demo := researchResponse{Answer: DemoAnswer(q), Sources: []string{}}
	if h.Search == nil || !h.Search.Configured() || h.Completer == nil || !h.Completer.Available() {
		_ = proxy.WriteJSON(w, http.StatusOK, demo)
		return
	}

	ctx := r.Context()
	results, err := h.Search.Search(ctx, tavily.Query{
		Query:       q,
		MaxResults:  researchResults,
		SearchDepth: "advanced",
	})
	if err != nil || len(results) == 0 {
		slog.WarnContext(ctx, "research search failed, answering with demo",
			"results", len(results),
			"error", err,
		)
		_ = proxy.WriteJSON(w, http.StatusOK, demo)
		return
	}

	answer, err := h.Completer.Complete(ctx, researchPrompt(q, results), researchSystem)
	if err != nil {
		proxy.WriteHandledError(w, r, err)
		return
	}

	sources := make([]string, 0, len(results))
	for _, res := range results {
		if res.URL != "" {
			sources = append(sources, res.URL)
		}
	}
	_ = proxy.WriteJSON(w, http.StatusOK, researchResponse{Answer: answer, Sources: sources})
}

// researchPrompt lists the numbered sources below the question.
func researchPrompt(q string, results []tavily.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frage: %s\n\nQuellen:\n", q)
	for i, res := range results {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, res.Title, res.URL, truncate(res.Content, snippetRunes))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
