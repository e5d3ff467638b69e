package app

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/checkbot/core/telegram/format"
	tghelpers "github.com/m3rciful/checkbot/core/telegram/helpers"
	"github.com/m3rciful/checkbot/core/telegram/keyboard"
	"github.com/m3rciful/checkbot/internal/catalog"
	"github.com/m3rciful/checkbot/internal/survey"
)

func categoryMarkup(categories []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(categories))
	for _, cat := range categories {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   cat,
			Unique: "cat",
			Data:   cat,
		})
	}
	return keyboard.InlineButtons(buttons)
}

func questionText(q catalog.Question, position, total int) string {
	text := fmt.Sprintf("📋 Question %d/%d: %s", position, total, format.Escape(q.Task))
	if q.Code != "" {
		text += "\n\n💻 Code:\n" + format.Code(q.Code)
	}
	return text
}

func answerMarkup(q catalog.Question) *tele.ReplyMarkup {
	id := fmt.Sprintf("%d", q.ID)
	buttons := []keyboard.InlineBtn{
		{Text: "✅ Yes", Unique: "ans", Data: survey.AnswerAffirmative.Token() + "|" + id},
		{Text: "❌ No", Unique: "ans", Data: survey.AnswerNegative.Token() + "|" + id},
		{Text: "🟡 Partially", Unique: "ans", Data: survey.AnswerPartial.Token() + "|" + id},
	}
	return keyboard.InlineButtonsNPerRow(buttons, 3)
}

func answerLabel(kind survey.Answer) string {
	switch kind {
	case survey.AnswerNegative:
		return "No"
	case survey.AnswerPartial:
		return "Partially"
	default:
		return "Yes"
	}
}

// renderStep shows the next prompt: either the upcoming question or the
// completion message once the traversal is done.
func renderStep(c tele.Context, step survey.Step) error {
	if step.Done {
		return tghelpers.EditOrSendHTML(c, "🎉 Checklist complete! Thank you!")
	}
	return tghelpers.EditOrSendHTML(c, questionText(step.Question, step.Position, step.Total), answerMarkup(step.Question))
}
