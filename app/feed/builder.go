package feed

import (
	"bytes"
	"cmp"
	"strconv"
	"strings"
	"time"
)

// DefaultGenerator is emitted as the channel generator when the
// configuration does not provide one.
const DefaultGenerator = "feedfuse"

// rfc822Layout is the RSS 2.0 date shape; dates are always rendered in
// UTC with a literal GMT suffix for reader interoperability.
const rfc822Layout = "Mon, 02 Jan 2006 15:04:05"

// Builder accumulates an ordered sequence of items against one channel
// configuration and serializes the result as an RSS 2.0 document.
type Builder struct {
	channel Channel
	items   []Item
}

func NewBuilder(channel Channel) *Builder {
	return &Builder{channel: channel}
}

func (b *Builder) Add(items ...Item) {
	b.items = append(b.items, items...)
}

// Build produces the complete RSS 2.0 XML document. Descriptions are
// wrapped in CDATA verbatim so embedded HTML survives unmodified;
// every other field goes through five-entity escaping.
func (b *Builder) Build() string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	ch := b.channel
	writeElement(&buf, "title", ch.Title, 4)
	writeElement(&buf, "link", ch.Link, 4)
	writeElement(&buf, "description", ch.Description, 4)

	if ch.Language != "" {
		writeElement(&buf, "language", ch.Language, 4)
	}
	if ch.Copyright != "" {
		writeElement(&buf, "copyright", ch.Copyright, 4)
	}
	if ch.ManagingEditor != "" {
		writeElement(&buf, "managingEditor", ch.ManagingEditor, 4)
	}
	if ch.WebMaster != "" {
		writeElement(&buf, "webMaster", ch.WebMaster, 4)
	}
	if ch.PubDate != "" {
		writeElement(&buf, "pubDate", ch.PubDate, 4)
	}
	if ch.LastBuildDate != "" {
		writeElement(&buf, "lastBuildDate", ch.LastBuildDate, 4)
	}
	if ch.Category != "" {
		writeElement(&buf, "category", ch.Category, 4)
	}
	writeElement(&buf, "generator", cmp.Or(ch.Generator, DefaultGenerator), 4)
	if ch.Docs != "" {
		writeElement(&buf, "docs", ch.Docs, 4)
	}
	if ch.TTL != "" {
		writeElement(&buf, "ttl", ch.TTL, 4)
	}

	if ch.Image != nil {
		buf.WriteString("    <image>\n")
		writeElement(&buf, "url", ch.Image.URL, 6)
		writeElement(&buf, "title", ch.Image.Title, 6)
		writeElement(&buf, "link", ch.Image.Link, 6)
		if ch.Image.Width != "" {
			writeElement(&buf, "width", ch.Image.Width, 6)
		}
		if ch.Image.Height != "" {
			writeElement(&buf, "height", ch.Image.Height, 6)
		}
		if ch.Image.Description != "" {
			writeElement(&buf, "description", ch.Image.Description, 6)
		}
		buf.WriteString("    </image>\n")
	}

	buf.WriteString(`    <atom:link href="` + escapeText(ch.Link+"/rss") + `" rel="self" type="application/rss+xml" />`)
	buf.WriteString("\n")

	for _, item := range b.items {
		writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	writeElement(buf, "title", item.Title, 6)
	writeElement(buf, "link", item.Link, 6)

	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(item.Description)
	buf.WriteString("]]></description>\n")

	if item.Author != "" {
		writeElement(buf, "author", item.Author, 6)
	}
	if item.Category != "" {
		writeElement(buf, "category", item.Category, 6)
	}
	if item.Comments != "" {
		writeElement(buf, "comments", item.Comments, 6)
	}

	if item.Enclosure != nil {
		buf.WriteString(`      <enclosure url="`)
		buf.WriteString(escapeText(item.Enclosure.URL))
		buf.WriteString(`" length="`)
		buf.WriteString(strconv.FormatInt(item.Enclosure.Length, 10))
		buf.WriteString(`" type="`)
		buf.WriteString(escapeText(item.Enclosure.Type))
		buf.WriteString("\" />\n")
	}

	// An explicit guid is an opaque identifier; otherwise the link
	// stands in, flagged as a permalink. Readers rely on the flag for
	// dedup semantics.
	if item.GUID != "" {
		buf.WriteString(`      <guid isPermaLink="false">`)
		buf.WriteString(escapeText(item.GUID))
		buf.WriteString("</guid>\n")
	} else {
		buf.WriteString(`      <guid isPermaLink="true">`)
		buf.WriteString(escapeText(item.Link))
		buf.WriteString("</guid>\n")
	}

	if item.PublishedAt != nil {
		writeElement(buf, "pubDate", formatDate(*item.PublishedAt), 6)
	}

	if item.Source != nil {
		buf.WriteString(`      <source url="`)
		buf.WriteString(escapeText(item.Source.URL))
		buf.WriteString(`">`)
		buf.WriteString(escapeText(item.Source.Title))
		buf.WriteString("</source>\n")
	}

	buf.WriteString("    </item>\n")
}

func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	buf.WriteString(escapeText(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// entityEncoder replaces the five XML metacharacters. The single-pass
// replacer never rescans its own output, so ampersands cannot be
// double-escaped.
var entityEncoder = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeText(s string) string {
	return entityEncoder.Replace(s)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(rfc822Layout) + " GMT"
}
