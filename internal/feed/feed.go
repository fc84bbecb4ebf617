package feed

import (
	"context"

	"github.com/samber/lo"

	"newshub/internal/model"
)

const (
	// preferredThreshold marks a category as preferred when the user's
	// weight for it is strictly above this value.
	preferredThreshold = 0.3

	DefaultLimit = 20
)

type ArticleProvider interface {
	Unread(ctx context.Context, excludeIDs []int64, categories []model.Category, limit int) ([]model.Article, error)
}

type PreferenceProvider interface {
	ListForUser(ctx context.Context, userID int64) ([]model.Preference, error)
}

type HistoryProvider interface {
	ReadArticleIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Ranker builds per-user personalized feeds out of stored articles,
// declared preferences and read history.
type Ranker struct {
	articles    ArticleProvider
	preferences PreferenceProvider
	history     HistoryProvider
}

func NewRanker(articles ArticleProvider, preferences PreferenceProvider, history HistoryProvider) *Ranker {
	return &Ranker{
		articles:    articles,
		preferences: preferences,
		history:     history,
	}
}

// PersonalizedFeed returns up to limit unread articles for the user,
// newest first. When the user has preferred categories the first tier is
// restricted to them; too few preferred matches are backfilled with
// unread articles of any category, again newest first. The result never
// contains a read article or a duplicate id.
func (r *Ranker) PersonalizedFeed(ctx context.Context, userID int64, limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	preferences, err := r.preferences.ListForUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	preferred := lo.FilterMap(preferences, func(p model.Preference, _ int) (model.Category, bool) {
		return p.Category, p.Weight > preferredThreshold
	})

	readIDs, err := r.history.ReadArticleIDs(ctx, userID)

	if err != nil {
		return nil, err
	}

	articles, err := r.articles.Unread(ctx, readIDs, preferred, limit)

	if err != nil {
		return nil, err
	}

	if len(articles) < limit {
		exclude := append(
			lo.Map(articles, func(a model.Article, _ int) int64 { return a.ID }),
			readIDs...,
		)

		general, err := r.articles.Unread(ctx, exclude, nil, limit-len(articles))

		if err != nil {
			return nil, err
		}

		articles = append(articles, general...)
	}

	return articles, nil
}

// ArticleView is an article projected with the viewer's read state.
type ArticleView struct {
	model.Article

	IsRead bool
}

// WithReadFlags combines articles with a set of read ids into read-only
// view models, leaving the article records themselves untouched.
func WithReadFlags(articles []model.Article, readIDs []int64) []ArticleView {
	read := lo.SliceToMap(readIDs, func(id int64) (int64, struct{}) { return id, struct{}{} })

	return lo.Map(articles, func(a model.Article, _ int) ArticleView {
		_, isRead := read[a.ID]

		return ArticleView{
			Article: a,
			IsRead:  isRead,
		}
	})
}
