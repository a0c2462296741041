package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/example/wordmemo/internal/database"
	"github.com/example/wordmemo/internal/transfer"
	"github.com/example/wordmemo/internal/vocabulary"
	"github.com/example/wordmemo/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data
const (
	callbackMainMenu      = "main_menu"
	callbackStartPractice = "start_practice"
	callbackShowDue       = "show_due"
	callbackShowStats     = "show_stats"
	callbackExportYAML    = "export_yaml"
	callbackExportExcel   = "export_excel"
	callbackNext          = "practice_next"
	callbackExit          = "practice_exit"
	callbackRegenerate    = "practice_regen"

	prefixAnswer     = "answer_"
	prefixRemembered = "remembered_"
	prefixForgot     = "forgot_"
	prefixDelete     = "delete_"
)

const maxImportSize = 5 << 20

// cached questions listed on a word card
const maxCachedShown = 3

const helpText = `📚 Word Memo

/add <word> [source] - capture a word
/word <word> - show a word
/delete <word> - remove a word
/seen <words...> - mark words as seen
/practice - start a practice session
/due - words due for review
/stats - your statistics
/export [yaml|excel] - download the vocabulary
/import [skip|overwrite|merge] - upload a YAML, Excel or CSV file
/reminders [on|off] - review reminders
/menu - main menu`

// HandleMessage handles commands, answers to fill questions and uploaded files
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	if !b.isOwner(message.From.ID) {
		return b.sendMessage(tgbotapi.NewMessage(message.Chat.ID, "⛔ This bot is private."))
	}

	if message.IsCommand() {
		return b.HandleCommand(ctx, message)
	}

	if message.Document != nil {
		if state, ok := b.takeState(message.From.ID); ok && state.action == actionAwaitingImport {
			return b.handleImportFile(ctx, message, state.strategy)
		}
		return b.reply(message.Chat.ID, "Use /import before sending a file.")
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}

	// free text answers the current fill question
	if snap, err := b.deps.Practice.Current(message.From.ID); err == nil && !snap.Answered && snap.Question.Type == models.QuestionFill {
		return b.submitAnswer(ctx, message.Chat.ID, message.From.ID, text)
	}
	return b.reply(message.Chat.ID, "Unknown command. Use /menu to show the main menu.")
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	args := strings.Fields(message.CommandArguments())

	switch message.Command() {
	case "start", "menu":
		return b.reply(chatID, "Main Menu - choose an option:")
	case "help":
		return b.reply(chatID, helpText)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "word":
		return b.handleShowWord(ctx, chatID, args)
	case "delete":
		if len(args) == 0 {
			return b.reply(chatID, "Usage: /delete <word>")
		}
		return b.handleDelete(ctx, chatID, args[0])
	case "seen":
		return b.handleSeen(ctx, chatID, args)
	case "practice":
		return b.startPractice(ctx, chatID, userID)
	case "due":
		return b.handleDue(ctx, chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	case "export":
		format := "yaml"
		if len(args) > 0 {
			format = strings.ToLower(args[0])
		}
		return b.handleExport(ctx, chatID, format)
	case "import":
		return b.handleImportCommand(chatID, userID, args)
	case "reminders":
		return b.handleReminders(ctx, chatID, args)
	default:
		return b.reply(chatID, "Unknown command. Use /menu to show the main menu.")
	}
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	if !b.isOwner(userID) {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "⛔ This bot is private."))
	}

	data := callback.Data
	switch data {
	case callbackMainMenu:
		return b.reply(chatID, "Main Menu - choose an option:")
	case callbackStartPractice:
		return b.startPractice(ctx, chatID, userID)
	case callbackShowDue:
		return b.handleDue(ctx, chatID)
	case callbackShowStats:
		return b.handleStats(ctx, chatID)
	case callbackExportYAML:
		return b.handleExport(ctx, chatID, "yaml")
	case callbackExportExcel:
		return b.handleExport(ctx, chatID, "excel")
	case callbackNext:
		return b.nextQuestion(chatID, userID)
	case callbackExit:
		return b.exitPractice(chatID, userID)
	case callbackRegenerate:
		return b.regenerateQuestion(ctx, chatID, userID)
	}

	switch {
	case strings.HasPrefix(data, prefixAnswer):
		return b.handleChoice(ctx, chatID, userID, strings.TrimPrefix(data, prefixAnswer))
	case strings.HasPrefix(data, prefixRemembered):
		return b.handleFeedback(ctx, chatID, strings.TrimPrefix(data, prefixRemembered), true)
	case strings.HasPrefix(data, prefixForgot):
		return b.handleFeedback(ctx, chatID, strings.TrimPrefix(data, prefixForgot), false)
	case strings.HasPrefix(data, prefixDelete):
		return b.handleDelete(ctx, chatID, strings.TrimPrefix(data, prefixDelete))
	default:
		return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Unknown action"))
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		return b.reply(chatID, "Usage: /add <word> [source]")
	}
	source := ""
	if len(args) > 1 {
		source = args[1]
	}

	w, err := b.deps.Vocabulary.AddWord(ctx, args[0], source)
	switch {
	case errors.Is(err, vocabulary.ErrInvalidWord):
		return b.reply(chatID, "❌ That does not look like an English word.")
	case errors.Is(err, vocabulary.ErrWordExists):
		return b.reply(chatID, "ℹ️ This word is already in your vocabulary.")
	case errors.Is(err, vocabulary.ErrWordPending):
		return b.reply(chatID, "⏳ This word is being added already.")
	case err != nil:
		return b.reply(chatID, "❌ Failed to add word: "+err.Error())
	}

	msg := tgbotapi.NewMessage(chatID, "✅ Added\n\n"+formatWord(w))
	msg.ReplyMarkup = createKeyboard(wordButtons(w.Word))
	return b.sendMessage(msg)
}

func (b *Bot) handleShowWord(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		return b.reply(chatID, "Usage: /word <word>")
	}
	w, err := b.deps.Vocabulary.Get(ctx, args[0])
	if errors.Is(err, database.ErrWordNotFound) {
		return b.reply(chatID, "Word not found.")
	}
	if err != nil {
		return err
	}

	text := formatWord(w)
	if b.deps.Stats != nil {
		records, err := b.deps.Stats.ForWord(ctx, w.Word)
		if err != nil {
			b.log.Warn("failed to load practice history", "word", w.Word, "error", err)
		} else if len(records) > 0 {
			text += "\n" + formatHistory(records)
		}
	}
	if b.deps.Questions != nil {
		questions, err := b.deps.Questions.ForWord(ctx, w.Word)
		if err != nil {
			b.log.Warn("failed to load cached questions", "word", w.Word, "error", err)
		} else if len(questions) > 0 {
			text += "\n\n" + formatCachedQuestions(questions, maxCachedShown)
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(wordButtons(w.Word))
	return b.sendMessage(msg)
}

func wordButtons(word string) [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "✅ Remembered", CallbackData: prefixRemembered + word},
			{Text: "🔁 Not yet", CallbackData: prefixForgot + word},
		},
		{
			{Text: "🗑 Delete", CallbackData: prefixDelete + word},
			{Text: "« Menu", CallbackData: callbackMainMenu},
		},
	}
}

func (b *Bot) handleFeedback(ctx context.Context, chatID int64, word string, remembered bool) error {
	var w models.Word
	var err error
	if remembered {
		w, err = b.deps.Vocabulary.MarkRemembered(ctx, word)
	} else {
		w, err = b.deps.Vocabulary.MarkNotRemembered(ctx, word)
	}
	if errors.Is(err, database.ErrWordNotFound) {
		return b.reply(chatID, "Word not found.")
	}
	if err != nil {
		return err
	}

	return b.reply(chatID, fmt.Sprintf("👍 %s: %s, next review %s",
		w.Word, w.MemoryState.Level, formatTime(w.MemoryState.NextReviewDate)))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, word string) error {
	err := b.deps.Vocabulary.DeleteWord(ctx, word)
	if errors.Is(err, database.ErrWordNotFound) {
		return b.reply(chatID, "Word not found.")
	}
	if err != nil {
		return err
	}
	return b.reply(chatID, "🗑 Deleted "+word)
}

func (b *Bot) handleSeen(ctx context.Context, chatID int64, words []string) error {
	if len(words) == 0 {
		return b.reply(chatID, "Usage: /seen <word> [word...]")
	}
	seen, err := b.deps.Vocabulary.MarkSeen(ctx, words...)
	if err != nil {
		return err
	}
	return b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf("👀 Marked %d of %d word(s) as seen.", len(seen), len(words))))
}

func (b *Bot) handleDue(ctx context.Context, chatID int64) error {
	due, err := b.deps.Vocabulary.ReviewQueue(ctx)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return b.reply(chatID, "🎉 Nothing to review right now.")
	}

	shown := due
	if len(shown) > b.cfg.MaxDueShown {
		shown = shown[:b.cfg.MaxDueShown]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %d word(s) due for review:\n", len(due))
	buttons := make([][]MenuButton, 0, len(shown)+1)
	for _, w := range shown {
		fmt.Fprintf(&sb, "\n• %s (%s)", w.Word, w.MemoryState.Level)
		buttons = append(buttons, []MenuButton{
			{Text: "✅ " + w.Word, CallbackData: prefixRemembered + w.Word},
			{Text: "🔁 " + w.Word, CallbackData: prefixForgot + w.Word},
		})
	}
	if len(due) > len(shown) {
		fmt.Fprintf(&sb, "\n… and %d more", len(due)-len(shown))
	}
	buttons = append(buttons, []MenuButton{{Text: "🎯 Start Practice", CallbackData: callbackStartPractice}})

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createKeyboard(buttons)
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	words, err := b.deps.Vocabulary.All(ctx)
	if err != nil {
		return err
	}
	due, err := b.deps.Vocabulary.ReviewQueue(ctx)
	if err != nil {
		return err
	}

	var stats models.PracticeStats
	if b.deps.Stats != nil {
		if stats, err = b.deps.Stats.Stats(ctx); err != nil {
			return err
		}
	}

	return b.reply(chatID, formatStats(words, len(due), stats))
}

func (b *Bot) handleReminders(ctx context.Context, chatID int64, args []string) error {
	if b.deps.Settings == nil {
		return b.reply(chatID, "Settings are not available.")
	}
	settings, err := b.deps.Settings.Get(ctx)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return b.reply(chatID, "🔔 Review reminders are "+onOff(settings.Display.ShowReviewReminder)+".")
	}

	switch strings.ToLower(args[0]) {
	case "on":
		settings.Display.ShowReviewReminder = true
	case "off":
		settings.Display.ShowReviewReminder = false
	default:
		return b.reply(chatID, "Usage: /reminders [on|off]")
	}
	if err := b.deps.Settings.Save(ctx, settings); err != nil {
		return err
	}
	return b.reply(chatID, "🔔 Review reminders turned "+onOff(settings.Display.ShowReviewReminder)+".")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, format string) error {
	var buf bytes.Buffer
	var name string
	var count int
	var err error

	switch format {
	case "yaml", "yml":
		count, err = b.deps.Transfer.ExportYAML(ctx, &buf)
		name = fmt.Sprintf("word-memo-export-%dwords.yaml", count)
	case "excel", "xlsx":
		count, err = b.deps.Transfer.ExportExcel(ctx, &buf)
		name = fmt.Sprintf("word-memo-export-%dwords.xlsx", count)
	default:
		return b.reply(chatID, "Usage: /export [yaml|excel]")
	}
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("📤 %d word(s) exported", count)
	return b.sendMessage(doc)
}

func (b *Bot) handleImportCommand(chatID, userID int64, args []string) error {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	strategy, err := transfer.ParseStrategy(raw)
	if err != nil {
		return b.reply(chatID, "Usage: /import [skip|overwrite|merge]")
	}

	b.setState(userID, userState{action: actionAwaitingImport, strategy: strategy})
	return b.sendMessage(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("📥 Send a .yaml, .xlsx or .csv file. Existing words: %s.", strategy)))
}

func (b *Bot) handleImportFile(ctx context.Context, message *tgbotapi.Message, strategy transfer.Strategy) error {
	chatID := message.Chat.ID
	doc := message.Document
	if doc.FileSize > maxImportSize {
		return b.reply(chatID, "❌ File is too large.")
	}

	content, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		return err
	}

	var result *transfer.ImportResult
	switch strings.ToLower(filepath.Ext(doc.FileName)) {
	case ".yaml", ".yml", ".txt":
		result, err = b.deps.Transfer.ImportYAML(ctx, content, strategy)
	case ".xlsx", ".csv":
		result, err = b.deps.Transfer.ImportSpreadsheet(ctx, bytes.NewReader(content), doc.FileName, strategy)
	default:
		return b.reply(chatID, "❌ Unsupported file type.")
	}
	if err != nil {
		return b.reply(chatID, "❌ Import failed: "+err.Error())
	}

	return b.reply(chatID, formatImportResult(result))
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
}
