package category

import (
	"strings"

	"newshub/internal/model"
)

// keywords maps each category to its fixed keyword list. The table is
// an immutable static configuration; keywords are matched as lowercase
// substrings of title+summary. Keyword language follows the language of
// the seeded sources.
var keywords = map[model.Category][]string{
	model.CategoryPolitics:      {"выборы", "президент", "правительство", "политика", "путин", "депутат"},
	model.CategoryTechnology:    {"технология", "искусственный интеллект", "стартап", "гаджет", "программирование", "it", "смартфон"},
	model.CategorySports:        {"футбол", "хоккей", "соревнование", "олимпиада", "спортсмен", "чемпионат"},
	model.CategoryBusiness:      {"бизнес", "экономика", "рынок", "акции", "компания", "финансы"},
	model.CategoryEntertainment: {"кино", "сериал", "музыка", "знаменитость", "концерт"},
	model.CategoryScience:       {"наука", "исследование", "открытие", "ученый", "космос"},
	model.CategoryHealth:        {"здоровье", "медицина", "врач", "лекарство", "болезнь"},
}

// Classify maps an article's text to a topic category by keyword scoring.
// Each keyword present in the lowercased title+summary adds one point to
// its category. The strictly highest score wins; on a tie the first
// category in canonical order that reached the maximum wins. A zero score
// across the board yields GENERAL. Pure and deterministic.
func Classify(title, summary string) model.Category {
	text := strings.ToLower(title + " " + summary)

	best := model.CategoryGeneral
	bestScore := 0

	for _, cat := range model.Categories {
		score := 0

		for _, keyword := range keywords[cat] {
			if strings.Contains(text, keyword) {
				score++
			}
		}

		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	return best
}
