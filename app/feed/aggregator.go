package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Aggregator fetches every configured source concurrently, parses each
// one, and merges the results into a single list sorted by recency.
// A failing source contributes zero items and never aborts the run.
type Aggregator struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string

	mu       sync.Mutex
	statuses map[string]SourceStatus
}

// SourceStatus is the outcome of the most recent fetch of one source,
// kept for the management API. It never reaches user-facing responses.
type SourceStatus struct {
	URL        string        `json:"url"`
	Title      string        `json:"title"`
	Items      int           `json:"items"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	FetchedAt  time.Time     `json:"fetched_at"`
}

func NewAggregator(httpClient *http.Client, userAgent string) *Aggregator {
	return &Aggregator{
		httpClient: httpClient,
		parser:     NewParser(),
		userAgent:  userAgent,
		statuses:   make(map[string]SourceStatus),
	}
}

// Run fans out one fetch per source, waits for all of them to settle,
// merges the per-source item lists and sorts the result by publish
// date descending. Items without a date sort last, and the sort is
// stable, so the output depends only on the input data and never on
// fetch completion timing. When maxItems is positive the merged list
// is truncated to the maxItems most recent entries.
func (a *Aggregator) Run(ctx context.Context, sources []Source, maxItems int) []Item {
	results := make([][]Item, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(slot int, src Source) {
			defer wg.Done()
			results[slot] = a.fetchSource(ctx, src)
		}(i, source)
	}
	wg.Wait()

	merged := make([]Item, 0)
	for _, items := range results {
		merged = append(merged, items...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return itemTime(merged[i]).After(itemTime(merged[j]))
	})

	if maxItems > 0 && len(merged) > maxItems {
		merged = merged[:maxItems]
	}

	return merged
}

// fetchSource fetches and parses one source. Every failure mode is
// isolated here: it is recorded, logged, and converted into an empty
// item list.
func (a *Aggregator) fetchSource(ctx context.Context, source Source) []Item {
	start := time.Now()

	status := SourceStatus{
		URL:       source.URL,
		Title:     source.Title,
		FetchedAt: start,
	}

	raw, statusCode, err := a.fetch(ctx, source.URL)
	status.StatusCode = statusCode
	if err != nil {
		status.Error = err.Error()
		status.Duration = time.Since(start)
		a.recordStatus(status)

		slog.Warn("Source fetch failed", "source", source.Title, "url", source.URL, "error", err)
		return nil
	}

	items := a.parser.Run(raw, source.URL, source.Title)

	status.Items = len(items)
	status.Duration = time.Since(start)
	a.recordStatus(status)

	slog.Debug("Source fetched", "source", source.Title, "items", len(items), "duration", status.Duration.String())
	return items
}

func (a *Aggregator) fetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), resp.StatusCode, nil
}

func (a *Aggregator) recordStatus(status SourceStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses[status.URL] = status
}

// Status returns the last recorded fetch outcome for the given source
// URL, if any.
func (a *Aggregator) Status(url string) (SourceStatus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	status, ok := a.statuses[url]
	return status, ok
}

// itemTime treats a missing publish date as the oldest possible
// timestamp, so undated items sort after all dated ones.
func itemTime(item Item) time.Time {
	if item.PublishedAt == nil {
		return time.Time{}
	}
	return *item.PublishedAt
}
