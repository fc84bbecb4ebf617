package notifier

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"newshub/internal/model"
)

// summaryLimit keeps digest messages inside Telegram's caption budget.
const summaryLimit = 500

type ArticleProvider interface {
	AllNotNotified(ctx context.Context, since time.Time, limit uint64) ([]model.Article, error)
	MarkNotified(ctx context.Context, id int64) error
}

// Notifier posts freshly ingested articles to a digest channel, oldest
// un-notified first, one per interval.
type Notifier struct {
	articles         ArticleProvider
	bot              *tgbotapi.BotAPI
	sendInterval     time.Duration
	lookupTimeWindow time.Duration
	channelID        int64
}

func New(articleProvider ArticleProvider, bot *tgbotapi.BotAPI,
	sendInterval time.Duration, lookupTimeWindow time.Duration, channelID int64) *Notifier {

	return &Notifier{
		articles:         articleProvider,
		bot:              bot,
		sendInterval:     sendInterval,
		lookupTimeWindow: lookupTimeWindow,
		channelID:        channelID,
	}
}

func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.sendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.SelectAndSendArticle(ctx); err != nil {
				log.Printf("ERROR: send digest failed: %v", err)
			}
		}
	}
}

// GetSummary returns a readable plain-text summary of the article. The
// stored summary is preferred; when the feed supplied none the article
// page itself is fetched and reduced with readability.
func (n *Notifier) GetSummary(article model.Article) (string, error) {
	if article.Summary != "" {
		parsed, err := readability.FromReader(strings.NewReader(article.Summary), nil)

		if err != nil {
			return "", err
		}

		return clip(parsed.TextContent), nil
	}

	resp, err := http.Get(article.SourceURL)

	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	parsed, err := readability.FromReader(resp.Body, nil)

	if err != nil {
		return "", err
	}

	return clip(parsed.TextContent), nil
}

func (n *Notifier) SelectAndSendArticle(ctx context.Context) error {
	articles, err := n.articles.AllNotNotified(ctx, time.Now().Add(-n.lookupTimeWindow), 1)

	if err != nil {
		return err
	}

	if len(articles) == 0 {
		return nil
	}

	article := articles[0]

	summary, summaryErr := n.GetSummary(article)

	if summaryErr != nil {
		return summaryErr
	}

	sendErr := n.SendArticle(article, summary)

	if sendErr != nil {
		return sendErr
	}

	return n.articles.MarkNotified(ctx, article.ID)
}

func (n *Notifier) SendArticle(article model.Article, summary string) error {
	const msgFormat = "*%s*\n%s\n\n%s"

	msg := tgbotapi.NewMessage(n.channelID, fmt.Sprintf(
		msgFormat,
		EscapeForMarkdown(article.Title),
		EscapeForMarkdown(summary),
		EscapeForMarkdown(article.SourceURL),
	))
	msg.ParseMode = "MarkdownV2"

	_, err := n.bot.Send(msg)
	if err != nil {
		return err
	}

	return nil
}

func clip(s string) string {
	s = strings.TrimSpace(s)

	runes := []rune(s)
	if len(runes) <= summaryLimit {
		return s
	}

	return string(runes[:summaryLimit]) + "…"
}

var (
	replacer = strings.NewReplacer(
		"-", "\\-",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
)

func EscapeForMarkdown(src string) string {
	return replacer.Replace(src)
}
