package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/wordmemo/internal/ai"
	"github.com/example/wordmemo/internal/bot"
	"github.com/example/wordmemo/internal/config"
	"github.com/example/wordmemo/internal/database"
	"github.com/example/wordmemo/internal/events"
	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/internal/practice"
	"github.com/example/wordmemo/internal/scheduler"
	sr "github.com/example/wordmemo/internal/spaced_repetition"
	"github.com/example/wordmemo/internal/transfer"
	"github.com/example/wordmemo/internal/vocabulary"
	"github.com/example/wordmemo/pkg/models"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	words := database.NewWordRepository(db)
	settings := database.NewSettingsRepository(db)
	questionCache := database.NewQuestionCacheRepository(db, cfg.Practice.CacheSize)
	records := database.NewPracticeRecordRepository(db)

	bus := events.NewBus(logg)
	bus.Subscribe(events.ListenerFunc(func(ctx context.Context, evt *events.VocabularyUpdated) error {
		if evt.Reason != events.ReasonDeleted {
			return nil
		}
		for _, w := range evt.Words {
			if err := questionCache.RemoveWord(ctx, w); err != nil {
				return err
			}
		}
		return nil
	}))
	if cfg.Redis.Addr != "" {
		redisPub, err := events.NewRedisPublisher(ctx, cfg.Redis.Addr, cfg.Redis.Channel, logg)
		if err != nil {
			logg.Warn("redis unavailable, vocabulary updates stay in-process", "error", err)
		} else {
			defer redisPub.Close()
			bus.Subscribe(redisPub)
		}
	}

	policy, err := sr.ParseDecayPolicy(cfg.Scheduler.DecayPolicy)
	if err != nil {
		logg.Fatal("invalid decay policy", "error", err)
	}

	vocabOpts := []vocabulary.Option{
		vocabulary.WithDecayPolicy(policy),
		vocabulary.WithPracticeLimit(cfg.Practice.MaxWords),
	}
	var generator practice.QuestionGenerator = ai.Disabled{}
	if client, err := ai.New(cfg.LLM, logg); err != nil {
		logg.Warn("language model disabled, words are stored without explanations", "error", err)
	} else {
		vocabOpts = append(vocabOpts, vocabulary.WithExplainer(client))
		generator = client
	}

	vocab := vocabulary.NewService(words, bus, logg, vocabOpts...)
	manager := practice.NewManager(vocab, generator, logg,
		practice.WithQuestionType(models.QuestionType(cfg.Practice.QuestionType)),
		practice.WithQuestionCache(questionCache),
		practice.WithRecordStore(records),
	)
	transferService := transfer.NewService(words, bus, logg)

	owners, err := cfg.Telegram.Owners()
	if err != nil {
		logg.Fatal("invalid telegram owner ids", "error", err)
	}

	var notifier scheduler.Notifier
	var tgBot *bot.Bot
	if cfg.Telegram.Token != "" {
		tgBot, err = bot.New(bot.Config{Token: cfg.Telegram.Token, Owners: owners}, bot.Deps{
			Vocabulary: vocab,
			Practice:   manager,
			Transfer:   transferService,
			Stats:      records,
			Settings:   settings,
			Questions:  questionCache,
		}, logg)
		if err != nil {
			logg.Fatal("failed to create bot", "error", err)
		}
		bus.Subscribe(tgBot)
		notifier = tgBot
	} else {
		logg.Warn("telegram token not set, running the scheduler only")
	}

	sched := scheduler.New(scheduler.Config{
		DecayInterval:    cfg.Scheduler.DecayInterval,
		ReminderInterval: cfg.Scheduler.ReminderInterval,
		Owners:           owners,
	}, vocab, settings, notifier, logg)
	if err := sched.Start(); err != nil {
		logg.Fatal("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	if tgBot != nil {
		go func() {
			if err := tgBot.Start(ctx); err != nil {
				logg.Error("bot error", "error", err)
				stop()
			}
		}()
	}

	count, err := words.Count(ctx)
	if err != nil {
		logg.Warn("failed to count words", "error", err)
	}
	logg.Info("word memo started",
		"database", cfg.Database.Driver,
		"words", count,
		"decay_policy", string(policy))
	<-ctx.Done()
	logg.Info("shutting down")
}
