package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedfuse/feedfuse/app/cfg"
	"github.com/feedfuse/feedfuse/app/feed"
)

// cacheControl matches the aggregation freshness we are willing to
// promise downstream caches.
const cacheControl = "public, max-age=900"

func NewHandler(configCache *feed.ConfigCache, aggregator AggregatorInterface) *Handler {
	return &Handler{
		configCache: configCache,
		aggregator:  aggregator,
	}
}

func (h *Handler) GetRSS(c *gin.Context) {
	config, err := h.configCache.Get()
	if err != nil {
		slog.Error("Configuration unavailable", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := h.aggregator.Run(c.Request.Context(), config.Sources, config.Settings.MaxItems)

	builder := feed.NewBuilder(config.Channel)
	builder.Add(items...)

	c.Header("Cache-Control", cacheControl)
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(builder.Build()))
}

func (h *Handler) GetItems(c *gin.Context) {
	config, err := h.configCache.Get()
	if err != nil {
		slog.Error("Configuration unavailable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation unavailable"})
		return
	}

	maxItems := config.Settings.MaxItems
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		if maxItems == 0 || limit < maxItems {
			maxItems = limit
		}
	}

	items := h.aggregator.Run(c.Request.Context(), config.Sources, maxItems)

	c.Header("Cache-Control", cacheControl)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *Handler) GetIndex(c *gin.Context) {
	config, err := h.configCache.Get()
	if err != nil {
		slog.Error("Configuration unavailable", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	items := h.aggregator.Run(c.Request.Context(), config.Sources, config.Settings.MaxItems)

	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"Title":       config.Channel.Title,
		"Description": config.Channel.Description,
		"Items":       itemViews(items),
	})
}

func (h *Handler) GetWidget(c *gin.Context) {
	config, err := h.configCache.Get()
	if err != nil {
		slog.Error("Configuration unavailable", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	// The widget stays small so it can be embedded in a sidebar.
	maxItems := 10
	if config.Settings.MaxItems > 0 && config.Settings.MaxItems < maxItems {
		maxItems = config.Settings.MaxItems
	}

	items := h.aggregator.Run(c.Request.Context(), config.Sources, maxItems)

	c.Header("Cache-Control", cacheControl)
	c.HTML(http.StatusOK, "widget.tmpl", gin.H{
		"Title": config.Channel.Title,
		"Link":  config.Channel.Link,
		"Items": itemViews(items),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
		"sources":   h.configCache.GetSourceCount(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListSources(c *gin.Context) {
	config, err := h.configCache.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Configuration unavailable"})
		return
	}

	sources := make([]map[string]interface{}, 0, len(config.Sources))
	for _, source := range config.Sources {
		sourceInfo := map[string]interface{}{
			"url":   source.URL,
			"title": source.Title,
		}

		if status, ok := h.aggregator.Status(source.URL); ok {
			sourceInfo["last_fetch"] = status
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIReloadSources(c *gin.Context) {
	config, err := h.configCache.Reload()
	if err != nil {
		slog.Error("Error reloading configuration", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded successfully",
		"channel": config.Channel.Title,
		"sources": len(config.Sources),
	})
}

type itemView struct {
	Title  string
	Link   string
	Source string
	Date   string
}

func itemViews(items []feed.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		view := itemView{
			Title: item.Title,
			Link:  item.Link,
		}
		if item.Source != nil {
			view.Source = item.Source.Title
		}
		if item.PublishedAt != nil {
			view.Date = item.PublishedAt.In(time.Local).Format("2 Jan 2006 15:04")
		}
		views = append(views, view)
	}
	return views
}
