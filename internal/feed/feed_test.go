package feed

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/internal/model"
)

type fakeArticles struct {
	articles []model.Article
}

func (f *fakeArticles) Unread(_ context.Context, excludeIDs []int64, categories []model.Category, limit int) ([]model.Article, error) {
	excluded := make(map[int64]struct{})
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	wanted := make(map[model.Category]struct{})
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	var result []model.Article
	for _, a := range f.articles {
		if _, ok := excluded[a.ID]; ok {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[a.Category]; !ok {
				continue
			}
		}
		result = append(result, a)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PublishedAt.After(result[j].PublishedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

type fakePreferences struct {
	prefs []model.Preference
}

func (f *fakePreferences) ListForUser(context.Context, int64) ([]model.Preference, error) {
	return f.prefs, nil
}

type fakeHistory struct {
	read []int64
}

func (f *fakeHistory) ReadArticleIDs(context.Context, int64) ([]int64, error) {
	return f.read, nil
}

func article(id int64, cat model.Category, age time.Duration) model.Article {
	return model.Article{
		ID:          id,
		Title:       fmt.Sprintf("article %d", id),
		SourceURL:   fmt.Sprintf("https://e.com/%d", id),
		Category:    cat,
		PublishedAt: time.Now().Add(-age),
	}
}

func prefs(weights map[model.Category]float64) []model.Preference {
	var result []model.Preference
	for _, cat := range model.Categories {
		w, ok := weights[cat]
		if !ok {
			continue
		}
		result = append(result, model.Preference{UserID: 1, Category: cat, Weight: w})
	}

	return result
}

func TestPersonalizedFeedExcludesReadArticles(t *testing.T) {
	articles := &fakeArticles{articles: []model.Article{
		article(1, model.CategoryTechnology, time.Hour),
		article(2, model.CategoryTechnology, 2*time.Hour),
	}}

	ranker := NewRanker(articles,
		&fakePreferences{prefs: prefs(map[model.Category]float64{model.CategoryTechnology: 0.9})},
		&fakeHistory{read: []int64{1}},
	)

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestPersonalizedFeedPreferredCategoryOnly(t *testing.T) {
	var all []model.Article
	for i := 0; i < 10; i++ {
		all = append(all, article(int64(i+1), model.CategoryTechnology, time.Duration(i)*time.Hour))
		all = append(all, article(int64(i+100), model.CategorySports, time.Duration(i)*time.Minute))
	}

	ranker := NewRanker(&fakeArticles{articles: all},
		&fakePreferences{prefs: prefs(map[model.Category]float64{
			model.CategoryTechnology: 0.8,
			model.CategorySports:     0.1,
		})},
		&fakeHistory{},
	)

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)

	for i, a := range got {
		assert.Equal(t, model.CategoryTechnology, a.Category)
		// пять самых свежих технологических, по убыванию свежести
		assert.Equal(t, int64(i+1), a.ID)
	}
}

func TestPersonalizedFeedBackfillsWithGeneralContent(t *testing.T) {
	var all []model.Article
	for i := 0; i < 3; i++ {
		all = append(all, article(int64(i+1), model.CategoryScience, time.Duration(i)*time.Minute))
	}
	for i := 0; i < 30; i++ {
		all = append(all, article(int64(i+10), model.CategoryBusiness, time.Duration(i+100)*time.Minute))
	}

	ranker := NewRanker(&fakeArticles{articles: all},
		&fakePreferences{prefs: prefs(map[model.Category]float64{model.CategoryScience: 0.9})},
		&fakeHistory{},
	)

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, got, 20)

	// первый ярус — предпочтительная категория
	for i := 0; i < 3; i++ {
		assert.Equal(t, model.CategoryScience, got[i].Category)
	}

	// добивка — по убыванию свежести, без дублей
	seen := make(map[int64]struct{})
	for _, a := range got {
		_, dup := seen[a.ID]
		assert.False(t, dup, "duplicate id %d", a.ID)
		seen[a.ID] = struct{}{}
	}

	for i := 3; i < len(got)-1; i++ {
		assert.Equal(t, model.CategoryBusiness, got[i].Category)
		assert.True(t, !got[i].PublishedAt.Before(got[i+1].PublishedAt))
	}
}

func TestPersonalizedFeedBackfillExcludesReadArticles(t *testing.T) {
	all := []model.Article{
		article(1, model.CategoryScience, time.Minute),
		article(2, model.CategoryBusiness, 2*time.Minute),
		article(3, model.CategoryBusiness, 3*time.Minute),
	}

	ranker := NewRanker(&fakeArticles{articles: all},
		&fakePreferences{prefs: prefs(map[model.Category]float64{model.CategoryScience: 0.9})},
		&fakeHistory{read: []int64{2}},
	)

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestPersonalizedFeedNoPreferencesMeansAllCategories(t *testing.T) {
	all := []model.Article{
		article(1, model.CategoryPolitics, time.Minute),
		article(2, model.CategoryHealth, 2*time.Minute),
	}

	ranker := NewRanker(&fakeArticles{articles: all}, &fakePreferences{}, &fakeHistory{})

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPersonalizedFeedThresholdIsStrict(t *testing.T) {
	all := []model.Article{
		article(1, model.CategoryPolitics, time.Minute),
		article(2, model.CategoryHealth, 2*time.Minute),
	}

	// вес ровно 0.3 не делает категорию предпочтительной
	ranker := NewRanker(&fakeArticles{articles: all},
		&fakePreferences{prefs: prefs(map[model.Category]float64{model.CategoryPolitics: 0.3})},
		&fakeHistory{},
	)

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPersonalizedFeedDefaultLimit(t *testing.T) {
	var all []model.Article
	for i := 0; i < 40; i++ {
		all = append(all, article(int64(i+1), model.CategoryGeneral, time.Duration(i)*time.Minute))
	}

	ranker := NewRanker(&fakeArticles{articles: all}, &fakePreferences{}, &fakeHistory{})

	got, err := ranker.PersonalizedFeed(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultLimit)
}

func TestWithReadFlags(t *testing.T) {
	articles := []model.Article{
		article(1, model.CategoryGeneral, time.Minute),
		article(2, model.CategoryGeneral, 2*time.Minute),
	}

	views := WithReadFlags(articles, []int64{2})

	require.Len(t, views, 2)
	assert.False(t, views[0].IsRead)
	assert.True(t, views[1].IsRead)

	// исходные записи не мутируются, это чистая проекция
	assert.Equal(t, "article 1", articles[0].Title)
}
