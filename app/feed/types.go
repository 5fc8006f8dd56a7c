package feed

import (
	"time"
)

// Feed item types

// Item is the canonical normalized record every parsed feed entry
// converges to, regardless of the source dialect.
type Item struct {
	Title       string      `json:"title"`
	Link        string      `json:"link"`
	Description string      `json:"description"`
	Author      string      `json:"author,omitempty"`
	Category    string      `json:"category,omitempty"`
	Comments    string      `json:"comments,omitempty"`
	Enclosure   *Enclosure  `json:"enclosure,omitempty"`
	GUID        string      `json:"guid,omitempty"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	Source      *ItemSource `json:"source,omitempty"`
}

// Enclosure is a single media attachment (RSS 2.0 allows one per item).
type Enclosure struct {
	URL    string `json:"url"`
	Length int64  `json:"length"`
	Type   string `json:"type"`
}

// ItemSource attributes an item back to the feed it was aggregated from.
type ItemSource struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Configuration types

type Config struct {
	Channel  Channel        `yaml:"channel"`
	Settings ConfigSettings `yaml:"settings"`
	Sources  []Source       `yaml:"sources"`
}

// Channel carries the channel-level metadata of the generated feed.
// Title, Link and Description are required; everything else is an
// optional passthrough field emitted as-is.
type Channel struct {
	Title          string        `yaml:"title"`
	Link           string        `yaml:"link"`
	Description    string        `yaml:"description"`
	Language       string        `yaml:"language"`
	Copyright      string        `yaml:"copyright"`
	ManagingEditor string        `yaml:"managing_editor"`
	WebMaster      string        `yaml:"web_master"`
	PubDate        string        `yaml:"pub_date"`
	LastBuildDate  string        `yaml:"last_build_date"`
	Category       string        `yaml:"category"`
	Generator      string        `yaml:"generator"`
	Docs           string        `yaml:"docs"`
	TTL            string        `yaml:"ttl"`
	Image          *ChannelImage `yaml:"image"`
}

type ChannelImage struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Width       string `yaml:"width"`
	Height      string `yaml:"height"`
	Description string `yaml:"description"`
}

// Source identifies one upstream feed to aggregate. Title is mandatory
// so items can carry attribution back to their origin.
type Source struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
}

type ConfigSettings struct {
	MaxItems int `yaml:"max_items"`
}
