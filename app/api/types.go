package api

import (
	"context"

	"github.com/feedfuse/feedfuse/app/feed"
)

type AggregatorInterface interface {
	Run(ctx context.Context, sources []feed.Source, maxItems int) []feed.Item
	Status(url string) (feed.SourceStatus, bool)
}

var _ AggregatorInterface = (*feed.Aggregator)(nil)

type Handler struct {
	configCache *feed.ConfigCache
	aggregator  AggregatorInterface
}
