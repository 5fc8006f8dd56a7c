package feed

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
)

// Parser extracts normalized items from raw RSS 2.0 or Atom feed text.
// Extraction is heuristic pattern matching, not XML grammar parsing:
// lenient on real-world feeds, and it never fails — anything that
// cannot be located degrades to a missing field or an empty item list.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

const untitled = "Untitled"

const atomNamespace = "http://www.w3.org/2005/Atom"

var (
	itemRe     = regexp.MustCompile(`(?is)<item(?:\s[^>]*)?>(.*?)</item>`)
	entryRe    = regexp.MustCompile(`(?is)<entry(?:\s[^>]*)?>(.*?)</entry>`)
	atomFeedRe = regexp.MustCompile(`(?i)<feed[\s>]`)
	hrefRe     = regexp.MustCompile(`(?is)<link[^>]*href=["']([^"']*)["']`)
)

var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
)

// Run parses raw feed text from the given source and returns the
// normalized items. The dialect is detected heuristically: a document
// with a feed container element and an Atom namespace declaration goes
// through the Atom path, everything else is treated as RSS 2.0.
// When sourceTitle is non-empty every item carries source attribution.
func (p *Parser) Run(raw, sourceURL, sourceTitle string) []Item {
	if atomFeedRe.MatchString(raw) && strings.Contains(raw, atomNamespace) {
		return p.parseAtom(raw, sourceURL, sourceTitle)
	}
	return p.parseRSS(raw, sourceURL, sourceTitle)
}

func (p *Parser) parseRSS(raw, sourceURL, sourceTitle string) []Item {
	blocks := itemRe.FindAllStringSubmatch(raw, -1)

	items := make([]Item, 0, len(blocks))
	for _, block := range blocks {
		span := block[1]

		item := Item{
			Title: untitled,
			Link:  "",
		}

		if title, ok := tagContent(span, "title"); ok && title != "" {
			item.Title = title
		}
		if link, ok := tagContent(span, "link"); ok {
			item.Link = link
		}

		if desc, ok := cdataContent(span, "description"); ok {
			item.Description = desc
		} else if desc, ok := tagContent(span, "description"); ok {
			item.Description = desc
		}

		if author, ok := tagContent(span, "author"); ok {
			item.Author = author
		} else if creator, ok := tagContent(span, "dc:creator"); ok {
			item.Author = creator
		}

		if category, ok := tagContent(span, "category"); ok {
			item.Category = category
		}
		if guid, ok := tagContent(span, "guid"); ok {
			item.GUID = guid
		}

		if date, ok := tagContent(span, "pubDate"); ok {
			item.PublishedAt = parseDate(date)
		} else if date, ok := tagContent(span, "dc:date"); ok {
			item.PublishedAt = parseDate(date)
		}

		if sourceTitle != "" {
			item.Source = &ItemSource{URL: sourceURL, Title: sourceTitle}
		}

		items = append(items, item)
	}

	return items
}

func (p *Parser) parseAtom(raw, sourceURL, sourceTitle string) []Item {
	blocks := entryRe.FindAllStringSubmatch(raw, -1)

	items := make([]Item, 0, len(blocks))
	for _, block := range blocks {
		span := block[1]

		item := Item{
			Title: untitled,
			Link:  "",
		}

		if title, ok := tagContent(span, "title"); ok && title != "" {
			item.Title = title
		}

		// Atom links are empty elements carrying the URL in an href
		// attribute, unlike RSS where the URL is the tag content.
		if m := hrefRe.FindStringSubmatch(span); m != nil {
			item.Link = strings.TrimSpace(m[1])
		}

		if content, ok := cdataContent(span, "content"); ok {
			item.Description = content
		} else if content, ok := tagContent(span, "content"); ok {
			item.Description = content
		} else if summary, ok := cdataContent(span, "summary"); ok {
			item.Description = summary
		} else if summary, ok := tagContent(span, "summary"); ok {
			item.Description = summary
		}

		if author, ok := tagContent(span, "author"); ok {
			if name, ok := tagContent(author, "name"); ok {
				item.Author = name
			}
		}

		if category, ok := tagContent(span, "category"); ok {
			item.Category = category
		}
		if id, ok := tagContent(span, "id"); ok {
			item.GUID = id
		}

		if date, ok := tagContent(span, "published"); ok {
			item.PublishedAt = parseDate(date)
		} else if date, ok := tagContent(span, "updated"); ok {
			item.PublishedAt = parseDate(date)
		}

		if sourceTitle != "" {
			item.Source = &ItemSource{URL: sourceURL, Title: sourceTitle}
		}

		items = append(items, item)
	}

	return items
}

// tagContent looks up the first <tag ...>content</tag> span
// case-insensitively and returns its inner text, trimmed and with the
// five standard XML entities decoded. When the tag name carries no
// namespace prefix a second pass allows any prefix before the local
// name. The boolean reports whether a match was found.
func tagContent(block, tag string) (string, bool) {
	if m := tagRe(regexp.QuoteMeta(tag)).FindStringSubmatch(block); m != nil {
		return entityDecoder.Replace(strings.TrimSpace(m[1])), true
	}

	if !strings.Contains(tag, ":") {
		if m := tagRe(`[a-z0-9]+:` + regexp.QuoteMeta(tag)).FindStringSubmatch(block); m != nil {
			return entityDecoder.Replace(strings.TrimSpace(m[1])), true
		}
	}

	return "", false
}

// cdataContent looks up <tag ...><![CDATA[content]]></tag> and returns
// the trimmed inner text verbatim. CDATA content is literal, so no
// entity decoding is applied.
func cdataContent(block, tag string) (string, bool) {
	if m := cdataRe(regexp.QuoteMeta(tag)).FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

var (
	reMu    sync.Mutex
	reCache = make(map[string]*regexp.Regexp)
)

func tagRe(tag string) *regexp.Regexp {
	return cachedRe(`(?is)<` + tag + `(?:\s[^>]*)?>(.*?)</` + tag + `>`)
}

func cdataRe(tag string) *regexp.Regexp {
	return cachedRe(`(?is)<` + tag + `(?:\s[^>]*)?>\s*<!\[CDATA\[(.*?)\]\]>\s*</` + tag + `>`)
}

func cachedRe(expr string) *regexp.Regexp {
	reMu.Lock()
	defer reMu.Unlock()

	if re, ok := reCache[expr]; ok {
		return re
	}
	re := regexp.MustCompile(expr)
	reCache[expr] = re
	return re
}

// parseDate parses lenient real-world date strings. Unparseable input
// yields nil, which sorts as the oldest possible timestamp downstream.
func parseDate(s string) *time.Time {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}
