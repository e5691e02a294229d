package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"

	"hohl-rocks/relay/pkg/search/tavily"
	"hohl-rocks/relay/pkg/telemetry/metrics"
)

// Regions accepted by the ingest job.
const (
	RegionDACH = "dach"
	RegionEU   = "eu"
	RegionAll  = "all"
)

const (
	ingestFetch = 12
	ingestLimit = 20
)

var aiActTerms = []string{"eu ai act", "ai act", "ki-gesetz", "ki verordnung", "ai-verordnung", "eu-ki-gesetz"}

// SnapshotItem is one headline in a snapshot file.
type SnapshotItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	Published string `json:"published,omitempty"`
}

// Snapshot is the JSON document written by an ingest run.
type Snapshot struct {
	ID     string         `json:"id"`
	TS     time.Time      `json:"ts"`
	Region string         `json:"region"`
	Items  []SnapshotItem `json:"items"`
}

// RunResult summarizes one ingest run.
type RunResult struct {
	Items int
	Path  string
}

// Ingester fetches AI-Act headlines and writes them as snapshot files.
type Ingester struct {
	search  Searcher
	region  string
	outDir  string
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

// NewIngester creates an ingester writing to outDir. search and m may be
// nil.
func NewIngester(search Searcher, region, outDir string, m *metrics.Collector) *Ingester {
	if region == "" {
		region = RegionDACH
	}
	return &Ingester{
		search:  search,
		region:  region,
		outDir:  outDir,
		metrics: m,
		logger:  slog.Default().With("component", "news.ingest"),
		now:     time.Now,
	}
}

// BuildQuery returns the Tavily query for region.
func BuildQuery(region string) string {
	const base = `("EU AI Act" OR "AI Act" OR KI-Verordnung OR EU-KI-Gesetz OR KI-Gesetz)`
	switch region {
	case RegionEU:
		return base + " AND (site:europa.eu OR site:ec.europa.eu OR site:eur-lex.europa.eu)"
	case RegionDACH:
		return base + " AND (site:de OR site:at OR site:ch)"
	}
	return base + " AND (site:de OR site:at OR site:ch OR site:europa.eu OR site:ec.europa.eu)"
}

// FilterAIAct keeps results whose title or content mentions the AI Act,
// drops untitled and repeated titles and caps the list at twenty.
func FilterAIAct(results []tavily.Result) []tavily.Result {
	seen := make(map[string]struct{})
	var out []tavily.Result
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Content)
		if !containsAny(text, aiActTerms) {
			continue
		}

		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		out = append(out, r)
		if len(out) == ingestLimit {
			break
		}
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// RunOnce performs one ingest and writes the snapshot. Without an API key
// or when the search fails an empty snapshot is written; only filesystem
// errors are returned.
func (in *Ingester) RunOnce(ctx context.Context) (RunResult, error) {
	start := in.now()
	snap := Snapshot{
		ID:     uuid.NewString(),
		TS:     start.UTC(),
		Region: in.region,
		Items:  []SnapshotItem{},
	}

	status := "ok"
	switch {
	case in.search == nil || !in.search.Configured():
		in.logger.InfoContext(ctx, "no tavily key, writing empty snapshot")
		status = "skipped"

	default:
		results, err := in.search.Search(ctx, tavily.Query{
			Query:       BuildQuery(in.region),
			SearchDepth: "advanced",
			MaxResults:  ingestFetch,
		})
		if err != nil {
			in.logger.ErrorContext(ctx, "ingest fetch failed", "region", in.region, "error", err)
			status = "fetch_error"
			break
		}
		for _, r := range FilterAIAct(results) {
			snap.Items = append(snap.Items, SnapshotItem{
				Title:     strings.TrimSpace(r.Title),
				URL:       r.URL,
				Snippet:   snippetMarkdown(r.Content),
				Published: r.PublishedDate,
			})
		}
	}

	path, err := in.write(snap)
	if err != nil {
		in.metrics.RecordIngestRun("write_error", 0, in.now().Sub(start))
		return RunResult{}, err
	}

	in.metrics.RecordIngestRun(status, len(snap.Items), in.now().Sub(start))
	in.logger.InfoContext(ctx, "snapshot saved",
		"path", path,
		"items", len(snap.Items),
		"region", in.region,
	)
	return RunResult{Items: len(snap.Items), Path: path}, nil
}

func (in *Ingester) write(snap Snapshot) (string, error) {
	if err := os.MkdirAll(in.outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name := fmt.Sprintf("news-%s-%s.json", snap.Region, snap.TS.Format("20060102T150405Z"))
	path := filepath.Join(in.outDir, name)

	// Readers never see a partial snapshot.
	tmp, err := os.CreateTemp(in.outDir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := errors.Join(tmp.Close(), os.Rename(tmp.Name(), path)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return path, nil
}

// snippetMarkdown converts HTML in a search snippet to markdown. Plain text
// and unconvertible input are returned trimmed.
func snippetMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "<") {
		return content
	}
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(md)
}
