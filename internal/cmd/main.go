package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"newshub/internal/config"
	"newshub/internal/feed"
	"newshub/internal/fetcher"
	"newshub/internal/notifier"
	"newshub/internal/source"
	"newshub/internal/storage"
)

type ViewFunc func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error

// ViewCmdStart seeds default category preferences for the user on first
// contact.
func ViewCmdStart(preferences *storage.PreferencePostgresStorage) ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		userID := update.Message.From.ID

		if err := preferences.EnsureDefaults(ctx, userID); err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(update.FromChat().ID,
			"Привет! Команда /feed покажет персональную ленту, /read <id> отметит статью прочитанной.")

		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}

// ViewCmdFeed sends the user's personalized feed.
func ViewCmdFeed(ranker *feed.Ranker, history *storage.HistoryPostgresStorage, limit int) ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		userID := update.Message.From.ID

		articles, err := ranker.PersonalizedFeed(ctx, userID, limit)

		if err != nil {
			return err
		}

		if len(articles) == 0 {
			_, err := bot.Send(tgbotapi.NewMessage(update.FromChat().ID, "Свежих статей пока нет."))
			return err
		}

		readIDs, err := history.ReadArticleIDs(ctx, userID)

		if err != nil {
			return err
		}

		var b strings.Builder

		for _, view := range feed.WithReadFlags(articles, readIDs) {
			fmt.Fprintf(&b, "%d. [%s] %s\n%s\n", view.ID, view.Category, view.Title, view.SourceURL)
		}

		if _, err := bot.Send(tgbotapi.NewMessage(update.FromChat().ID, b.String())); err != nil {
			return err
		}

		return nil
	}
}

// ViewCmdRead records the article from the command argument as read.
func ViewCmdRead(history *storage.HistoryPostgresStorage) ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		arg := strings.TrimSpace(update.Message.CommandArguments())

		articleID, err := strconv.ParseInt(arg, 10, 64)

		if err != nil {
			_, sendErr := bot.Send(tgbotapi.NewMessage(update.FromChat().ID, "Использование: /read <id статьи>"))
			return sendErr
		}

		inserted, err := history.MarkRead(ctx, update.Message.From.ID, articleID, 0)

		if err != nil {
			return err
		}

		text := "Статья отмечена как прочитанная."
		if !inserted {
			text = "Статья уже была отмечена как прочитанная."
		}

		if _, err := bot.Send(tgbotapi.NewMessage(update.FromChat().ID, text)); err != nil {
			return err
		}

		return nil
	}
}

type Bot struct {
	api      *tgbotapi.BotAPI
	cmdViews map[string]ViewFunc
}

func New(api *tgbotapi.BotAPI) *Bot {
	return &Bot{api: api}
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	if b.cmdViews == nil {
		b.cmdViews = make(map[string]ViewFunc)
	}

	b.cmdViews[cmd] = view
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// перехватываем панику в FuncView
	defer func() {
		p := recover()

		if p != nil {
			log.Println("ERROR: panic in ViewFunc recovered")
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	command := update.Message.Command()

	view, ok := b.cmdViews[command]

	if !ok {
		return
	}

	viewErr := view(ctx, b.api, update)

	if viewErr != nil {
		log.Printf("ERROR: execute view %s fail: %v", command, viewErr)

		_, sendErr := b.api.Send(tgbotapi.NewMessage(update.Message.Chat.ID, "Internal error"))

		if sendErr != nil {
			log.Printf("ERROR: failed to send error message")
		}
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			updateCtx, updateCancel := context.WithTimeout(context.Background(), 5*time.Minute)
			b.handleUpdate(updateCtx, update)
			updateCancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func seedSources(ctx context.Context, path string, sources *storage.SourcePostgresStorage) error {
	seeds, err := source.LoadSeed(path)

	if err != nil {
		return err
	}

	for _, seed := range seeds {
		if err := sources.Add(ctx, seed); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	db, err := sqlx.Connect("postgres", config.Get().DatabaseDSN)
	if err != nil {
		log.Printf("ERROR: failed to connect to db %v", err)
		return
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := storage.InitSchema(ctx, db); err != nil {
		log.Printf("ERROR: failed to init schema %v", err)
		return
	}

	var (
		articleStorage    = storage.NewArticleStorage(db)
		sourceStorage     = storage.NewSourceStorage(db)
		preferenceStorage = storage.NewPreferenceStorage(db)
		historyStorage    = storage.NewHistoryStorage(db)
		ranker            = feed.NewRanker(articleStorage, preferenceStorage, historyStorage)
		fetcher           = fetcher.New(
			articleStorage,
			sourceStorage,
			config.Get().FetchInterval,
		)
	)

	if err := seedSources(ctx, config.Get().SourcesFile, sourceStorage); err != nil {
		log.Printf("ERROR: failed to seed sources: %v", err)
	}

	go func(ctx context.Context) {
		if err := fetcher.Run(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Println("ERROR: failed to run fetcher")
				return
			}

			log.Println("Fetcher has stopped")
		}
	}(ctx)

	if config.Get().TelegramBotToken == "" {
		log.Println("No telegram token configured, running ingestion only")
		<-ctx.Done()
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(config.Get().TelegramBotToken)
	if err != nil {
		log.Println("ERROR: failed to create botAPI")
		return
	}

	if config.Get().TelegramChannelID != 0 {
		digest := notifier.New(
			articleStorage,
			botAPI,
			config.Get().NotificationInterval,
			2*config.Get().FetchInterval,
			config.Get().TelegramChannelID,
		)

		go func(ctx context.Context) {
			if err := digest.Run(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Println("ERROR: failed to run notifier")
					return
				}

				log.Println("Notifier has stopped")
			}
		}(ctx)
	}

	bot := New(botAPI)
	bot.RegisterCmdView("start", ViewCmdStart(preferenceStorage))
	bot.RegisterCmdView("feed", ViewCmdFeed(ranker, historyStorage, config.Get().FeedLimit))
	bot.RegisterCmdView("read", ViewCmdRead(historyStorage))

	if err := bot.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Println("ERROR: failed to run bot")
			return
		}

		log.Println("Bot has stopped")
	}
}
