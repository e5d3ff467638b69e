package app

import (
	"errors"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/checkbot/core/telegram/callbacks"
	"github.com/m3rciful/checkbot/core/telegram/format"
	tghelpers "github.com/m3rciful/checkbot/core/telegram/helpers"
	"github.com/m3rciful/checkbot/internal/survey"
)

func (a *App) handleStart(c tele.Context) error {
	categories := a.engine.Categories()
	return tghelpers.SendHTML(c, "Choose a category:", categoryMarkup(categories))
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "cancel")
	if a.engine.Cancel(ctx, c.Sender().ID) {
		return tghelpers.SendHTML(c, "❌ Checklist cancelled. /start to begin again")
	}
	return tghelpers.SendHTML(c, "Nothing to cancel. /start to begin")
}

func (a *App) handleStatus(c tele.Context) error {
	text := format.Lines(
		"🤖 Bot is running",
		format.KV("questions", strconv.Itoa(a.catalog.Len())),
		format.KV("categories", strconv.Itoa(len(a.engine.Categories()))),
		format.KV("active sessions", strconv.Itoa(a.store.Len())),
		format.KV("failed submissions", strconv.FormatUint(a.sink.ErrorCount(), 10)),
	)
	return tghelpers.SendHTML(c, text)
}

func (a *App) handleCategory(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "category")
	category := callbacks.CallbackPayload(c)

	step, err := a.engine.ChooseCategory(ctx, c.Sender().ID, category)
	if err != nil {
		if errors.Is(err, survey.ErrNoQuestions) {
			return tghelpers.EditHTML(c, "❌ No questions in this category!")
		}
		return err
	}
	return renderStep(c, step)
}

func (a *App) handleAnswer(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "answer")

	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return tghelpers.EditHTML(c, "❌ Malformed response, use /start")
	}
	kind, ok := survey.ParseAnswer(parts[0])
	if !ok {
		return tghelpers.EditHTML(c, "❌ Malformed response, use /start")
	}
	questionID, err := strconv.Atoi(parts[1])
	if err != nil {
		return tghelpers.EditHTML(c, "❌ Malformed response, use /start")
	}

	step, err := a.engine.Answer(ctx, c.Sender().ID, questionID, kind)
	switch {
	case errors.Is(err, survey.ErrNoSession):
		return tghelpers.EditHTML(c, "❌ Session is over. Use /start")
	case errors.Is(err, survey.ErrUnknownQuestion):
		return tghelpers.EditHTML(c, "❌ Question not found!")
	case errors.Is(err, survey.ErrCommentPending):
		return tghelpers.SendHTML(c, "📝 Finish the previous answer first. Enter a comment:")
	case errors.Is(err, survey.ErrStaleAnswer):
		return tghelpers.EditHTML(c, "❌ This prompt is no longer active.")
	case err != nil:
		return err
	}

	if step.AwaitComment {
		prompt := fmt.Sprintf("You chose «%s».\n📝 Enter a comment:", answerLabel(kind))
		return tghelpers.EditHTML(c, prompt)
	}
	return renderStep(c, step)
}

// HandleText receives free text while a comment is awaited.
func (a *App) HandleText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "comment")

	step, err := a.engine.Comment(ctx, c.Sender().ID, c.Text())
	switch {
	case errors.Is(err, survey.ErrEmptyComment):
		return tghelpers.SendHTML(c, "❌ Comment cannot be empty:")
	case errors.Is(err, survey.ErrNoSession), errors.Is(err, survey.ErrNoPending):
		return a.handleUnknownText(c)
	case err != nil:
		return err
	}

	if err := tghelpers.SendHTML(c, "✅ Comment saved"); err != nil {
		return err
	}
	return renderStep(c, step)
}

// InProgress reports whether free text from the user belongs to the survey.
func (a *App) InProgress(userID int64) bool {
	return a.engine.AwaitingComment(userID)
}

func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendHTML(c, "❌ No comment is expected right now. Use /start")
}

func (a *App) handleExpiredPrompt(c tele.Context) error {
	return tghelpers.EditHTML(c, "❌ This prompt has expired. Use /start")
}
