package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/wordmemo/internal/practice"
	"github.com/example/wordmemo/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) startPractice(ctx context.Context, chatID, userID int64) error {
	if err := b.sendMessage(tgbotapi.NewMessage(chatID, "⏳ Preparing questions...")); err != nil {
		b.log.Warn("failed to send progress message", "error", err)
	}

	snap, err := b.deps.Practice.Start(ctx, userID)
	if errors.Is(err, practice.ErrNoWordsAvailable) {
		return b.reply(chatID, "🎉 No words to practice right now. Add some words with /add.")
	}
	if err != nil {
		// the collaborator's message is shown as is
		return b.reply(chatID, "❌ "+err.Error())
	}
	return b.sendQuestion(chatID, snap)
}

func (b *Bot) sendQuestion(chatID int64, snap practice.Snapshot) error {
	q := snap.Question
	text := fmt.Sprintf("❓ Question %d/%d\n\n%s", snap.Index+1, snap.Total, q.Question)

	var buttons [][]MenuButton
	if q.Type == models.QuestionChoice {
		for i, opt := range q.Options {
			buttons = append(buttons, []MenuButton{{Text: opt, CallbackData: answerData(q.ID, i)}})
		}
	} else {
		text += "\n\n✍️ Type the missing word."
	}
	buttons = append(buttons, []MenuButton{
		{Text: "🔄 Another question", CallbackData: callbackRegenerate},
		{Text: "🚪 Exit", CallbackData: callbackExit},
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(buttons)
	return b.sendMessage(msg)
}

// answerData ties an option button to the question it was sent with
func answerData(questionID string, option int) string {
	return prefixAnswer + questionID + "_" + strconv.Itoa(option)
}

func parseAnswerData(data string) (string, int, error) {
	sep := strings.LastIndex(data, "_")
	if sep <= 0 {
		return "", 0, fmt.Errorf("malformed answer callback %q", data)
	}
	option, err := strconv.Atoi(data[sep+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid option index in callback data: %w", err)
	}
	return data[:sep], option, nil
}

func (b *Bot) handleChoice(ctx context.Context, chatID, userID int64, data string) error {
	questionID, option, err := parseAnswerData(data)
	if err != nil {
		return err
	}
	result, err := b.deps.Practice.SubmitChoice(ctx, userID, questionID, option)
	return b.sendResult(chatID, userID, result, err)
}

func (b *Bot) submitAnswer(ctx context.Context, chatID, userID int64, answer string) error {
	result, err := b.deps.Practice.SubmitAnswer(ctx, userID, answer)
	return b.sendResult(chatID, userID, result, err)
}

func (b *Bot) sendResult(chatID, userID int64, result practice.AnswerResult, err error) error {
	switch {
	case errors.Is(err, practice.ErrDataConsistencyRisk):
		// the result is still valid, only the stored progress is missing
		b.log.Error("practice answer not persisted", "user", userID, "word", result.Word, "error", err)
	case errors.Is(err, practice.ErrNoSession):
		return b.reply(chatID, "No active practice session.")
	case errors.Is(err, practice.ErrStaleQuestion):
		return b.reply(chatID, "⚠️ This button belongs to an earlier question.")
	case errors.Is(err, practice.ErrInvalidTransition):
		return b.reply(chatID, "⚠️ This question has already been answered.")
	case err != nil:
		return err
	}

	text := formatAnswer(result)
	if err != nil {
		text += "\n\n⚠️ Your progress for this word could not be saved."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "➡️ Next", CallbackData: callbackNext},
		{Text: "🚪 Exit", CallbackData: callbackExit},
	}})
	return b.sendMessage(msg)
}

func (b *Bot) nextQuestion(chatID, userID int64) error {
	snap, err := b.deps.Practice.NextQuestion(userID)
	if err != nil {
		return b.reply(chatID, "No active practice session.")
	}
	if snap.State == practice.StateCompleted {
		return b.reply(chatID, fmt.Sprintf("🏁 Practice complete: %d/%d correct.", snap.CorrectCount, snap.Total))
	}
	return b.sendQuestion(chatID, snap)
}

func (b *Bot) exitPractice(chatID, userID int64) error {
	if !b.deps.Practice.Exit(userID) {
		return b.reply(chatID, "No active practice session.")
	}
	return b.reply(chatID, "👋 Practice stopped. Answers so far are saved.")
}

func (b *Bot) regenerateQuestion(ctx context.Context, chatID, userID int64) error {
	snap, err := b.deps.Practice.Regenerate(ctx, userID)
	if errors.Is(err, practice.ErrInvalidTransition) {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "⚠️ Only an unanswered question can be replaced."))
	}
	if err != nil {
		return b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+err.Error()))
	}
	return b.sendQuestion(chatID, snap)
}
