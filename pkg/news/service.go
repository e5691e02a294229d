package news

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hohl-rocks/relay/pkg/cache"
	"hohl-rocks/relay/pkg/search/tavily"
	"hohl-rocks/relay/pkg/telemetry/metrics"
)

// Searcher is the subset of *tavily.Client the package needs.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, q tavily.Query) ([]tavily.Result, error)
}

const (
	newsQuery  = "Künstliche Intelligenz News Sicherheit Funktionen ChatGPT Claude deutsch"
	dailyQuery = "KI Tipps Sicherheit praktische neue Funktionen ChatGPT Claude deutsch"

	newsFetch  = 18
	newsLimit  = 12
	dailyFetch = 12
	dailyLimit = 8
	recentDays = 7

	keyNews  = "news"
	keyDaily = "daily"
)

var errNoResults = errors.New("news: no usable results")

// Service produces the news and daily lists.
type Service struct {
	search Searcher
	cache  *cache.TTL[[]Item]
	logger *slog.Logger
}

// NewService creates a service caching lists for ttl. search and m may be
// nil.
func NewService(search Searcher, ttl time.Duration, m *metrics.Collector) *Service {
	return &Service{
		search: search,
		cache:  cache.New[[]Item](cache.Config{Name: "news", TTL: ttl}, m),
		logger: slog.Default().With("component", "news"),
	}
}

// News returns up to twelve recent AI headlines from DACH outlets.
func (s *Service) News(ctx context.Context) []Item {
	items, err := s.cache.GetOrLoad(ctx, keyNews, func(ctx context.Context) ([]Item, error) {
		results, err := s.fetch(ctx, tavily.Query{
			Query:          newsQuery,
			MaxResults:     newsFetch,
			Days:           recentDays,
			IncludeDomains: DACHDomains,
		})
		if err != nil {
			return nil, err
		}

		var items []Item
		for _, r := range results {
			if !fromDACH(r.URL) {
				continue
			}
			items = append(items, Item{Title: r.Title, URL: r.URL})
			if len(items) == newsLimit {
				break
			}
		}
		if len(items) == 0 {
			return nil, errNoResults
		}
		return items, nil
	})
	if err != nil {
		s.logFallback(ctx, keyNews, err)
		return clone(StaticNews)
	}
	return clone(items)
}

// Daily returns up to eight practical AI tips.
func (s *Service) Daily(ctx context.Context) []Item {
	items, err := s.cache.GetOrLoad(ctx, keyDaily, func(ctx context.Context) ([]Item, error) {
		results, err := s.fetch(ctx, tavily.Query{
			Query:          dailyQuery,
			MaxResults:     dailyFetch,
			Days:           recentDays,
			IncludeDomains: DACHDomains,
		})
		if err != nil {
			return nil, err
		}

		items := make([]Item, 0, dailyLimit)
		for _, r := range results[:min(len(results), dailyLimit)] {
			items = append(items, Item{Title: r.Title, URL: r.URL})
		}
		if len(items) == 0 {
			return nil, errNoResults
		}
		return items, nil
	})
	if err != nil {
		s.logFallback(ctx, keyDaily, err)
		return clone(StaticDaily)
	}
	return clone(items)
}

func (s *Service) fetch(ctx context.Context, q tavily.Query) ([]tavily.Result, error) {
	if s.search == nil || !s.search.Configured() {
		return nil, tavily.ErrNoAPIKey
	}
	return s.search.Search(ctx, q)
}

func (s *Service) logFallback(ctx context.Context, list string, err error) {
	if errors.Is(err, tavily.ErrNoAPIKey) {
		s.logger.DebugContext(ctx, "serving static list", "list", list)
		return
	}
	s.logger.WarnContext(ctx, "serving static list", "list", list, "error", err)
}

func fromDACH(url string) bool {
	for _, d := range DACHDomains {
		if strings.Contains(url, d) {
			return true
		}
	}
	return false
}
