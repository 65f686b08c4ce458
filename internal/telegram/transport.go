package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// WebhookPath is where Telegram posts updates in webhook mode.
const WebhookPath = "/webhook"

const pollTimeoutSeconds = 60

// Transport delivers updates to a Dispatcher until ctx is canceled.
type Transport interface {
	Run(ctx context.Context) error
}

// Requester performs a Bot API call. *tgbotapi.BotAPI satisfies it.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Poller is the long-polling subset of *tgbotapi.BotAPI.
type Poller interface {
	Requester
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Polling fetches updates with getUpdates. Updates from one chat are
// dispatched in arrival order; different chats run concurrently.
type Polling struct {
	api        Poller
	dispatcher *Dispatcher
	log        logrus.FieldLogger

	mu     sync.Mutex
	queues map[int64]*chatQueue
}

// chatQueue holds updates waiting behind the one being dispatched.
type chatQueue struct {
	pending []tgbotapi.Update
}

func NewPolling(api Poller, dispatcher *Dispatcher, log logrus.FieldLogger) *Polling {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Polling{
		api:        api,
		dispatcher: dispatcher,
		log:        log,
		queues:     make(map[int64]*chatQueue),
	}
}

// Run removes any registered webhook, then polls until ctx is canceled. It
// waits for in-flight and queued updates before returning.
func (p *Polling) Run(ctx context.Context) error {
	if _, err := p.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := p.api.GetUpdatesChan(u)
	p.log.Info("polling for updates")

	// In-flight updates finish with their own completion timeout after ctx ends.
	dispatchCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.enqueue(dispatchCtx, &wg, update)
		}
	}
}

// enqueue starts a drain worker for the update's chat unless one is already
// running, in which case the update waits in that chat's queue.
func (p *Polling) enqueue(ctx context.Context, wg *sync.WaitGroup, update tgbotapi.Update) {
	chatID := chatIDOf(update)

	p.mu.Lock()
	q, running := p.queues[chatID]
	if running {
		q.pending = append(q.pending, update)
		p.mu.Unlock()
		return
	}
	p.queues[chatID] = &chatQueue{}
	p.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.drain(ctx, chatID, update)
	}()
}

func (p *Polling) drain(ctx context.Context, chatID int64, next tgbotapi.Update) {
	for {
		// Send errors are already logged by the dispatcher.
		_ = p.dispatcher.Dispatch(ctx, next)

		p.mu.Lock()
		q := p.queues[chatID]
		if len(q.pending) == 0 {
			delete(p.queues, chatID)
			p.mu.Unlock()
			return
		}
		next = q.pending[0]
		q.pending[0] = tgbotapi.Update{}
		q.pending = q.pending[1:]
		p.mu.Unlock()
	}
}

func chatIDOf(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.Chat != nil {
		return update.Message.Chat.ID
	}
	return 0
}

// Webhook registers the public URL with Telegram. Updates arrive through the
// HTTP server, which hands them to the dispatcher.
type Webhook struct {
	api       Requester
	publicURL string
	log       logrus.FieldLogger
}

func NewWebhook(api Requester, publicURL string, log logrus.FieldLogger) *Webhook {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Webhook{api: api, publicURL: publicURL, log: log}
}

// URL is the full endpoint registered with Telegram.
func (w *Webhook) URL() string {
	return strings.TrimRight(w.publicURL, "/") + WebhookPath
}

// Run registers the webhook and blocks until ctx is canceled. The
// registration stays in place afterwards.
func (w *Webhook) Run(ctx context.Context) error {
	cfg, err := tgbotapi.NewWebhook(w.URL())
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := w.api.Request(cfg); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	w.log.WithField("url", w.URL()).Info("webhook registered")

	<-ctx.Done()
	return nil
}

// DecodeError reports an update body that is not a valid Telegram update.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "decode update: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

var errEmptyBody = errors.New("empty body")

// DecodeUpdate parses a webhook request body.
func DecodeUpdate(body io.Reader) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return tgbotapi.Update{}, &DecodeError{Cause: err}
	}
	return update, nil
}

// UseLogger routes the Bot API library's own logging through log.
func UseLogger(log *logrus.Entry) error {
	return tgbotapi.SetLogger(log)
}
