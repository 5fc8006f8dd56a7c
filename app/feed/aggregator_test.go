package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func rssWithItems(items ...string) string {
	doc := `<rss version="2.0"><channel><title>T</title>`
	for _, item := range items {
		doc += "<item>" + item + "</item>"
	}
	return doc + `</channel></rss>`
}

func TestAggregatorMergeAndSort(t *testing.T) {
	serverA := feedServer(t, rssWithItems(
		`<title>Old A</title><pubDate>Mon, 03 Jul 2023 08:00:00 GMT</pubDate>`,
		`<title>New A</title><pubDate>Mon, 03 Jul 2023 12:00:00 GMT</pubDate>`,
	))
	serverB := feedServer(t, rssWithItems(
		`<title>Mid B</title><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>`,
		`<title>Undated B</title>`,
	))

	aggregator := NewAggregator(http.DefaultClient, "test-agent")
	items := aggregator.Run(context.Background(), []Source{
		{URL: serverA.URL, Title: "A"},
		{URL: serverB.URL, Title: "B"},
	}, 0)

	require.Len(t, items, 4)
	assert.Equal(t, "New A", items[0].Title)
	assert.Equal(t, "Mid B", items[1].Title)
	assert.Equal(t, "Old A", items[2].Title)
	assert.Equal(t, "Undated B", items[3].Title, "undated items sort last")

	for i := 0; i < len(items)-1; i++ {
		assert.False(t, itemTime(items[i]).Before(itemTime(items[i+1])),
			"items must be sorted non-increasing by pubDate")
	}
}

func TestAggregatorStableTieBreak(t *testing.T) {
	serverA := feedServer(t, rssWithItems(
		`<title>Tie 1</title><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>`,
		`<title>Tie 2</title><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>`,
	))
	serverB := feedServer(t, rssWithItems(
		`<title>Tie 3</title><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>`,
	))

	aggregator := NewAggregator(http.DefaultClient, "test-agent")

	// Equal timestamps keep input order: source order first, document
	// order within a source. Repeat to shake out timing dependence.
	for i := 0; i < 5; i++ {
		items := aggregator.Run(context.Background(), []Source{
			{URL: serverA.URL, Title: "A"},
			{URL: serverB.URL, Title: "B"},
		}, 0)

		require.Len(t, items, 3)
		assert.Equal(t, "Tie 1", items[0].Title)
		assert.Equal(t, "Tie 2", items[1].Title)
		assert.Equal(t, "Tie 3", items[2].Title)
	}
}

func TestAggregatorTruncation(t *testing.T) {
	server := feedServer(t, rssWithItems(
		`<title>1</title><pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>`,
		`<title>2</title><pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>`,
		`<title>3</title><pubDate>Mon, 03 Jul 2023 12:00:00 GMT</pubDate>`,
	))

	aggregator := NewAggregator(http.DefaultClient, "test-agent")
	items := aggregator.Run(context.Background(), []Source{{URL: server.URL, Title: "S"}}, 2)

	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].Title, "truncation keeps the most recent items")
	assert.Equal(t, "2", items[1].Title)

	// a limit larger than the merged list is a no-op
	items = aggregator.Run(context.Background(), []Source{{URL: server.URL, Title: "S"}}, 50)
	assert.Len(t, items, 3)
}

func TestAggregatorFaultIsolation(t *testing.T) {
	healthy1 := feedServer(t, rssWithItems(`<title>From healthy 1</title>`))
	healthy2 := feedServer(t, rssWithItems(`<title>From healthy 2</title>`, `<title>Another</title>`))
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	aggregator := NewAggregator(http.DefaultClient, "test-agent")
	items := aggregator.Run(context.Background(), []Source{
		{URL: healthy1.URL, Title: "H1"},
		{URL: broken.URL, Title: "Broken"},
		{URL: healthy2.URL, Title: "H2"},
	}, 0)

	assert.Len(t, items, 3, "a failing source contributes zero items without aborting the run")

	status, ok := aggregator.Status(broken.URL)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status.StatusCode)
	assert.NotEmpty(t, status.Error)

	status, ok = aggregator.Status(healthy2.URL)
	require.True(t, ok)
	assert.Empty(t, status.Error)
	assert.Equal(t, 2, status.Items)
}

func TestAggregatorUnreachableSource(t *testing.T) {
	aggregator := NewAggregator(http.DefaultClient, "test-agent")
	items := aggregator.Run(context.Background(), []Source{
		{URL: "http://127.0.0.1:1/feed.xml", Title: "Nope"},
	}, 0)

	assert.Empty(t, items)
}

func TestAggregatorUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, rssWithItems(`<title>X</title>`))
	}))
	t.Cleanup(server.Close)

	aggregator := NewAggregator(http.DefaultClient, "feedfuse-tests/1.0")
	aggregator.Run(context.Background(), []Source{{URL: server.URL, Title: "S"}}, 0)

	assert.Equal(t, "feedfuse-tests/1.0", gotAgent)
}
