package source

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"newshub/internal/model"
)

const (
	// maxItems caps how many entries of one feed are taken per cycle.
	// Feeds are assumed ordered newest-first by the publisher.
	maxItems = 10

	fetchTimeout = 10 * time.Second
)

type RSSSource struct {
	URL        string
	sourceID   int64
	sourceName string

	parser *gofeed.Parser
}

func (s RSSSource) ID() int64 {
	return s.sourceID
}

func (s RSSSource) Name() string {
	return s.sourceName
}

func NewRSSSourceFromModel(m model.Source) RSSSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}

	return RSSSource{
		URL:        m.FeedURL,
		sourceID:   m.ID,
		sourceName: m.Name,
		parser:     parser,
	}
}

// Fetch retrieves and parses the feed document. It tolerates both
// RSS 2.0 and Atom. Entries without a link are dropped, they cannot be
// deduplicated. At most maxItems entries are returned.
func (s RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.URL, ctx)

	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, maxItems)

	for _, entry := range feed.Items {
		if len(items) >= maxItems {
			break
		}

		if entry.Link == "" {
			continue
		}

		items = append(items, model.Item{
			Title:      entry.Title,
			Summary:    entry.Description,
			Content:    itemContent(entry),
			Link:       entry.Link,
			ImageURL:   itemImage(entry),
			Date:       itemDate(entry),
			SourceName: s.sourceName,
		})
	}

	return items, nil
}

func itemContent(entry *gofeed.Item) string {
	if entry.Content != "" {
		return entry.Content
	}

	return entry.Description
}

// itemImage returns the first image URL found among the entry's media
// attachments, or an empty string.
func itemImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}

	for _, enclosure := range entry.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image") {
			return enclosure.URL
		}
	}

	if media, ok := entry.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if strings.HasPrefix(content.Attrs["type"], "image") {
				return content.Attrs["url"]
			}
		}
	}

	return ""
}

func itemDate(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}

	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}

	if entry.Published != "" {
		if parsed, err := dateparse.ParseAny(entry.Published); err == nil {
			return parsed.UTC()
		}
	}

	return time.Time{}
}
