package fetcher

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/samber/lo"

	"newshub/internal/category"
	"newshub/internal/model"
	"newshub/internal/source"
	"newshub/internal/storage"
)

// Storage limits applied at ingestion. The wide content bound caps
// storage growth from adversarial or malformed feeds.
const (
	titleLimit   = 500
	summaryLimit = 1000
	contentLimit = 5000
	urlLimit     = 500
)

type ArticleStorage interface {
	Store(ctx context.Context, article model.Article) error
	ExistingLinks(ctx context.Context, links []string) ([]string, error)
}

type SourceProvider interface {
	ActiveSources(ctx context.Context) ([]model.Source, error)
	MarkFetched(ctx context.Context, id int64, at time.Time) error
}

type Source interface {
	ID() int64
	Name() string

	Fetch(ctx context.Context) ([]model.Item, error)
}

// Fetcher periodically ingests every active source: fetch, classify,
// deduplicate, persist.
type Fetcher struct {
	articles ArticleStorage
	sources  SourceProvider

	fetchInterval time.Duration
}

func New(articles ArticleStorage, sources SourceProvider, fetchInterval time.Duration) *Fetcher {
	return &Fetcher{
		articles:      articles,
		sources:       sources,
		fetchInterval: fetchInterval,
	}
}

// Run drives ingestion on a fixed interval until the context is
// cancelled. A failed cycle is logged and retried on the next tick.
func (f *Fetcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.fetchInterval)
	defer ticker.Stop()

	if err := f.Fetch(ctx); err != nil {
		log.Printf("ERROR: fetch cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.Fetch(ctx); err != nil {
				log.Printf("ERROR: fetch cycle failed: %v", err)
			}
		}
	}
}

// Fetch runs one ingestion cycle over every active source. Sources are
// ingested concurrently; a failing source never stops the others.
func (f *Fetcher) Fetch(ctx context.Context) error {
	sources, err := f.sources.ActiveSources(ctx)

	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)

		rssSource := source.NewRSSSourceFromModel(src)

		go func(source Source) {
			defer wg.Done()

			saved, err := f.Ingest(ctx, source)

			if err != nil {
				log.Printf("ERROR: ingest %s failed: %v", source.Name(), err)
				return
			}

			log.Printf("ingested %s: %d new articles", source.Name(), saved)

			if err := f.sources.MarkFetched(ctx, source.ID(), time.Now().UTC()); err != nil {
				log.Printf("ERROR: mark fetched %s failed: %v", source.Name(), err)
			}
		}(rssSource)
	}

	wg.Wait()

	return nil
}

// Ingest runs the pipeline for one source and returns how many articles
// were actually persisted. A failed fetch soft-fails to zero saved; only
// a storage outage during deduplication is returned as an error.
func (f *Fetcher) Ingest(ctx context.Context, src Source) (int, error) {
	items, err := src.Fetch(ctx)

	if err != nil {
		log.Printf("ERROR: fetch %s failed: %v", src.Name(), err)
		return 0, nil
	}

	fresh, err := f.dedupe(ctx, items)

	if err != nil {
		return 0, err
	}

	saved := 0

	for _, item := range fresh {
		article := model.Article{
			SourceID:    src.ID(),
			Title:       truncate(item.Title, titleLimit),
			Summary:     truncate(item.Summary, summaryLimit),
			Content:     truncate(item.Content, contentLimit),
			SourceURL:   truncate(item.Link, urlLimit),
			ImageURL:    truncate(item.ImageURL, urlLimit),
			Category:    category.Classify(item.Title, item.Summary),
			PublishedAt: item.Date.UTC(),
		}

		storeErr := f.articles.Store(ctx, article)

		if errors.Is(storeErr, storage.ErrArticleExists) {
			// раса с параллельным циклом; не считаем сохранённой
			continue
		}

		if storeErr != nil {
			log.Printf("ERROR: store article %s failed: %v", article.SourceURL, storeErr)
			continue
		}

		saved++
	}

	return saved, nil
}

// dedupe collapses within-batch duplicates to their first occurrence and
// removes candidates already stored, using a single batched existence
// query instead of one query per item.
func (f *Fetcher) dedupe(ctx context.Context, items []model.Item) ([]model.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}

	unique := lo.UniqBy(items, func(item model.Item) string { return item.Link })

	links := lo.Map(unique, func(item model.Item, _ int) string { return item.Link })

	existing, err := f.articles.ExistingLinks(ctx, links)

	if err != nil {
		return nil, err
	}

	known := lo.SliceToMap(existing, func(link string) (string, struct{}) { return link, struct{}{} })

	return lo.Filter(unique, func(item model.Item, _ int) bool {
		_, ok := known[item.Link]
		return !ok
	}), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)

	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
