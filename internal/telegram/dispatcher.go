package telegram

import (
	"context"
	"fmt"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/abqarino/internal/bot"
	"github.com/antoniostano/abqarino/internal/observability"
)

// MaxMessageLen is the maximum Telegram message length in characters.
const MaxMessageLen = 4096

// Handler produces the reply for one event.
type Handler interface {
	Handle(ctx context.Context, ev bot.Event) string
}

// Sender delivers an outgoing message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher answers every text update with exactly one message.
type Dispatcher struct {
	handler   Handler
	sender    Sender
	metrics   *observability.Metrics
	log       logrus.FieldLogger
	transport string
}

func NewDispatcher(handler Handler, sender Sender, transport string, metrics *observability.Metrics, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		handler:   handler,
		sender:    sender,
		metrics:   metrics,
		log:       log,
		transport: transport,
	}
}

// Dispatch handles one update. Ignored updates return nil.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) error {
	ev, chatID, ok := EventFromUpdate(update)
	if !ok {
		d.metrics.ObserveUpdate(d.transport, kindIgnored)
		return nil
	}
	d.metrics.ObserveUpdate(d.transport, eventKind(ev))

	reply := d.handler.Handle(ctx, ev)
	if _, err := d.sender.Send(tgbotapi.NewMessage(chatID, truncate(reply, MaxMessageLen))); err != nil {
		d.metrics.ObserveReply("error")
		d.log.WithError(err).WithField("user_id", ev.UserID).Error("send reply failed")
		return fmt.Errorf("send reply to chat %d: %w", chatID, err)
	}
	d.metrics.ObserveReply("sent")
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
