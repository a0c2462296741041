// Package bot is the Telegram front-end: practice sessions, review feedback,
// word capture, statistics and vocabulary transfer.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/example/wordmemo/internal/events"
	"github.com/example/wordmemo/internal/logger"
	"github.com/example/wordmemo/internal/practice"
	"github.com/example/wordmemo/internal/transfer"
	"github.com/example/wordmemo/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Vocabulary is the word service used by the bot
type Vocabulary interface {
	AddWord(ctx context.Context, raw, source string) (models.Word, error)
	Get(ctx context.Context, key string) (models.Word, error)
	All(ctx context.Context) ([]models.Word, error)
	DeleteWord(ctx context.Context, key string) error
	MarkRemembered(ctx context.Context, key string) (models.Word, error)
	MarkNotRemembered(ctx context.Context, key string) (models.Word, error)
	MarkSeen(ctx context.Context, keys ...string) ([]string, error)
	ReviewQueue(ctx context.Context) ([]models.Word, error)
}

// PracticeManager runs practice sessions per user
type PracticeManager interface {
	Start(ctx context.Context, owner int64) (practice.Snapshot, error)
	Current(owner int64) (practice.Snapshot, error)
	SubmitAnswer(ctx context.Context, owner int64, answer string) (practice.AnswerResult, error)
	SubmitChoice(ctx context.Context, owner int64, questionID string, option int) (practice.AnswerResult, error)
	NextQuestion(owner int64) (practice.Snapshot, error)
	Exit(owner int64) bool
	Regenerate(ctx context.Context, owner int64) (practice.Snapshot, error)
}

// Transfer imports and exports vocabularies
type Transfer interface {
	ExportYAML(ctx context.Context, w io.Writer) (int, error)
	ExportExcel(ctx context.Context, w io.Writer) (int, error)
	ImportYAML(ctx context.Context, content []byte, strategy transfer.Strategy) (*transfer.ImportResult, error)
	ImportSpreadsheet(ctx context.Context, r io.Reader, name string, strategy transfer.Strategy) (*transfer.ImportResult, error)
}

// StatsSource summarizes practice history
type StatsSource interface {
	Stats(ctx context.Context) (models.PracticeStats, error)
	ForWord(ctx context.Context, word string) ([]models.PracticeRecord, error)
}

// QuestionSource returns the cached practice questions of a word
type QuestionSource interface {
	ForWord(ctx context.Context, word string) ([]models.PracticeQuestion, error)
}

// SettingsStore persists user settings
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
}

// telegramAPI is the subset of *tgbotapi.BotAPI the handlers use
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Deps are the services the bot drives
type Deps struct {
	Vocabulary Vocabulary
	Practice   PracticeManager
	Transfer   Transfer
	Stats      StatsSource
	Settings   SettingsStore
	Questions  QuestionSource
}

// userState represents a pending multi-step action
type userState struct {
	action   string
	strategy transfer.Strategy
}

const actionAwaitingImport = "awaiting_import"

// Bot represents the Telegram bot application
type Bot struct {
	api        telegramAPI
	botAPI     *tgbotapi.BotAPI
	cfg        Config
	deps       Deps
	owners     map[int64]bool
	httpClient *http.Client
	log        *logger.Logger

	mu         sync.Mutex
	userStates map[int64]userState
}

// New creates a new bot instance and authorizes it with Telegram
func New(cfg Config, deps Deps, log *logger.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	b := newBot(botAPI, cfg, deps, log)
	b.botAPI = botAPI
	b.log.Info("authorized on account", "username", botAPI.Self.UserName)
	return b, nil
}

func newBot(api telegramAPI, cfg Config, deps Deps, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = defaults.UpdateTimeout
	}
	if cfg.MaxDueShown <= 0 {
		cfg.MaxDueShown = defaults.MaxDueShown
	}

	owners := make(map[int64]bool, len(cfg.Owners))
	for _, id := range cfg.Owners {
		owners[id] = true
	}
	if len(owners) == 0 {
		log.Warn("no telegram owners configured, the bot accepts every user")
	}

	return &Bot{
		api:        api,
		cfg:        cfg,
		deps:       deps,
		owners:     owners,
		httpClient: &http.Client{},
		log:        log.With("component", "bot"),
		userStates: make(map[int64]userState),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return fmt.Errorf("bot is not connected to telegram")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.UpdateTimeout
	updates := b.botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// isOwner checks if a user may use the bot
func (b *Bot) isOwner(userID int64) bool {
	return len(b.owners) == 0 || b.owners[userID]
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = b.HandleMessage(ctx, update.Message)
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}

	msg := tgbotapi.NewMessage(userID, fmt.Sprintf("⏰ You have %d %s to review! Press Start Practice to begin.", count, wordForm))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	if err := b.sendMessage(msg); err != nil {
		return err
	}
	b.log.Info("reminder sent", "user", userID, "count", count)
	return nil
}

// HandleVocabularyUpdated tells the owners which words faded during a decay sweep
func (b *Bot) HandleVocabularyUpdated(ctx context.Context, evt *events.VocabularyUpdated) error {
	if evt.Reason != events.ReasonDecay || len(evt.Words) == 0 {
		return nil
	}

	text := fmt.Sprintf("📉 %d word(s) faded from memory and moved down a level:\n%s",
		len(evt.Words), strings.Join(evt.Words, ", "))

	var firstErr error
	for owner := range b.owners {
		msg := tgbotapi.NewMessage(owner, text)
		if err := b.sendMessage(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Start Practice", CallbackData: callbackStartPractice},
			{Text: "📅 Due Words", CallbackData: callbackShowDue},
		},
		{
			{Text: "📊 Statistics", CallbackData: callbackShowStats},
			{Text: "📤 Export", CallbackData: callbackExportYAML},
		},
	}
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) setState(userID int64, s userState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userStates[userID] = s
}

func (b *Bot) takeState(userID int64) (userState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.userStates[userID]
	delete(b.userStates, userID)
	return s, ok
}
