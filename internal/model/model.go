package model

import (
	"time"
)

// Category is a topic category assigned to articles and preferences.
type Category string

const (
	CategoryPolitics      Category = "POLITICS"
	CategoryTechnology    Category = "TECHNOLOGY"
	CategorySports        Category = "SPORTS"
	CategoryBusiness      Category = "BUSINESS"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryScience       Category = "SCIENCE"
	CategoryHealth        Category = "HEALTH"
	CategoryGeneral       Category = "GENERAL"
)

// Categories lists every category in canonical order. Classification
// tie-breaks and default preference seeding depend on this order.
var Categories = []Category{
	CategoryPolitics,
	CategoryTechnology,
	CategorySports,
	CategoryBusiness,
	CategoryEntertainment,
	CategoryScience,
	CategoryHealth,
	CategoryGeneral,
}

// Item is a parsed feed entry, not yet deduplicated or persisted.
type Item struct {
	Title      string
	Summary    string
	Content    string
	Link       string
	ImageURL   string
	Date       time.Time // время публикации в источнике; нулевое, если фид не отдал дату
	SourceName string
}

type Source struct {
	ID        int64
	Name      string
	FeedURL   string
	Category  Category
	Language  string
	Active    bool
	LastFetch time.Time
	CreatedAt time.Time
}

type Article struct {
	ID          int64
	SourceID    int64
	Title       string
	Summary     string
	Content     string
	SourceURL   string
	ImageURL    string
	Category    Category
	PublishedAt time.Time // время публикации в источнике
	CreatedAt   time.Time
}

type Preference struct {
	UserID    int64
	Category  Category
	Weight    float64
	UpdatedAt time.Time
}

type ReadHistory struct {
	UserID          int64
	ArticleID       int64
	ReadAt          time.Time
	ReadTimeSeconds int
}
