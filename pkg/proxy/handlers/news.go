package handlers

import (
	"net/http"
	"time"

	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/proxy"
)

type newsResponse struct {
	OK    bool        `json:"ok"`
	Items []news.Item `json:"items"`
}

type dailyResponse struct {
	Items []news.Item `json:"items"`
	At    int64       `json:"at"`
}

// NewsHandler serves the news and daily lists.
type NewsHandler struct {
	Source NewsSource
	now    func() time.Time
}

// NewNewsHandler creates a news handler.
func NewNewsHandler(source NewsSource) *NewsHandler {
	return &NewsHandler{Source: source, now: time.Now}
}

// News serves GET /api/news.
func (h *NewsHandler) News(w http.ResponseWriter, r *http.Request) {
	_ = proxy.WriteJSON(w, http.StatusOK, newsResponse{OK: true, Items: h.Source.News(r.Context())})
}

// Daily serves GET /api/daily. at is the response time in epoch
// milliseconds.
func (h *NewsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	_ = proxy.WriteJSON(w, http.StatusOK, dailyResponse{
		Items: h.Source.Daily(r.Context()),
		At:    h.now().UnixMilli(),
	})
}
