package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antoniostano/abqarino/internal/bot"
)

const (
	kindCommand = "command"
	kindText    = "text"
	kindIgnored = "ignored"
)

// EventFromUpdate converts a text message update into a bot event. ok is false
// for updates the bot does not answer (edits, callbacks, media without text).
func EventFromUpdate(update tgbotapi.Update) (ev bot.Event, chatID int64, ok bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		return bot.Event{}, 0, false
	}

	ev = bot.Event{Text: msg.Text}
	if msg.From != nil {
		ev.UserID = strconv.FormatInt(msg.From.ID, 10)
		ev.DisplayName = msg.From.FirstName
	} else {
		ev.UserID = strconv.FormatInt(msg.Chat.ID, 10)
	}
	if msg.IsCommand() {
		ev.Command = strings.ToLower(msg.Command())
		ev.Args = strings.Join(strings.Fields(msg.CommandArguments()), " ")
	}
	return ev, msg.Chat.ID, true
}

func eventKind(ev bot.Event) string {
	if ev.Command != "" {
		return kindCommand
	}
	return kindText
}
