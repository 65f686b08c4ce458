package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/abqarino/internal/intent"
	"github.com/antoniostano/abqarino/internal/llm"
	"github.com/antoniostano/abqarino/internal/memory"
	"github.com/antoniostano/abqarino/internal/prompt"
	"github.com/antoniostano/abqarino/internal/transcript"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []llm.Request
	reply    string
	err      error
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingSink struct {
	mu        sync.Mutex
	exchanges []transcript.Exchange
}

func (r *recordingSink) Record(_ context.Context, ex transcript.Exchange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, ex)
	return nil
}

func (r *recordingSink) Close() error { return nil }

type recordingExecutor struct {
	actions []intent.Action
}

func (r *recordingExecutor) Execute(_ context.Context, action intent.Action, _ string) error {
	r.actions = append(r.actions, action)
	return intent.ErrNotImplemented
}

func newTestService(t *testing.T, limit int, client llm.Client) (*Service, *memory.Store, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	store := memory.NewStore(limit)
	svc := NewService(Dependencies{
		Store:    store,
		Client:   client,
		Provider: "fake",
		Persona:  "You are a helpful assistant.\n\n",
		Logger:   logger,
	})
	return svc, store, hook
}

func TestHandleChatRoundTrip(t *testing.T) {
	client := &fakeClient{reply: "hi there"}
	svc, store, _ := newTestService(t, 20, client)

	got := svc.Handle(context.Background(), Event{UserID: "42", Text: "hello"})
	assert.Equal(t, "hi there", got)
	require.Equal(t, 1, client.calls())

	window := store.Window("42")
	require.Len(t, window, 2)
	assert.Equal(t, memory.RoleUser, window[0].Role)
	assert.Equal(t, "hello", window[0].Content)
	assert.Equal(t, memory.RoleAssistant, window[1].Role)
	assert.Equal(t, "hi there", window[1].Content)

	assert.Contains(t, client.requests[0].Prompt, "USER: hello\n")
	assert.True(t, strings.HasSuffix(client.requests[0].Prompt, "ASSISTANT:"))
}

func TestHandleChatEvictsOldestTurns(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc, store, _ := newTestService(t, 2, client)

	svc.Handle(context.Background(), Event{UserID: "7", Text: "first"})
	svc.Handle(context.Background(), Event{UserID: "7", Text: "second"})

	window := store.Window("7")
	require.Len(t, window, 2)
	assert.Equal(t, "second", window[0].Content)
	assert.Equal(t, "ok", window[1].Content)
}

func TestHandleChatFailureKeepsOnlyUserTurn(t *testing.T) {
	client := &fakeClient{err: &llm.CompletionError{Provider: "fake", Kind: llm.KindStatus, StatusCode: 503}}
	svc, store, hook := newTestService(t, 20, client)

	got := svc.Handle(context.Background(), Event{UserID: "9", Text: "hello"})
	assert.Equal(t, DefaultMessages().Failure, got)

	window := store.Window("9")
	require.Len(t, window, 1)
	assert.Equal(t, memory.RoleUser, window[0].Role)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Message == "completion failed" {
			logged = true
			assert.Equal(t, logrus.ErrorLevel, e.Level)
			assert.Equal(t, 503, e.Data["status"])
		}
	}
	assert.True(t, logged, "expected completion failure to be logged")
}

func TestHandleTaskModeWithoutArgsSkipsCompletion(t *testing.T) {
	client := &fakeClient{reply: "unused"}
	svc, store, _ := newTestService(t, 20, client)

	got := svc.Handle(context.Background(), Event{UserID: "1", Command: "summarize", Args: "   "})
	assert.Equal(t, DefaultMessages().usage(prompt.ModeSummarize), got)
	assert.Equal(t, 0, client.calls())
	assert.Equal(t, 0, store.Size("1"))
}

func TestHandleTaskModeLeavesHistoryUntouched(t *testing.T) {
	client := &fakeClient{reply: "summary"}
	svc, store, _ := newTestService(t, 20, client)

	svc.Handle(context.Background(), Event{UserID: "3", Text: "hello"})
	require.Equal(t, 2, store.Size("3"))

	got := svc.Handle(context.Background(), Event{UserID: "3", Command: "summarize", Args: "long text"})
	assert.Equal(t, "summary", got)
	assert.Equal(t, 2, store.Size("3"))

	req := client.requests[1]
	assert.Contains(t, req.Prompt, "long text")
	assert.NotContains(t, req.Prompt, "conversation so far")
}

func TestHandleClearAndStats(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc, store, _ := newTestService(t, 5, client)

	svc.Handle(context.Background(), Event{UserID: "5", Text: "hello"})
	assert.Equal(t, DefaultMessages().stats(2, 5), svc.Handle(context.Background(), Event{UserID: "5", Command: "stats"}))

	assert.Equal(t, DefaultMessages().Cleared, svc.Handle(context.Background(), Event{UserID: "5", Command: "clear"}))
	assert.Equal(t, 0, store.Size("5"))
	assert.Equal(t, DefaultMessages().stats(0, 5), svc.Handle(context.Background(), Event{UserID: "5", Command: "stats"}))
}

func TestHandleStartResetsAndGreets(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc, store, _ := newTestService(t, 5, client)

	svc.Handle(context.Background(), Event{UserID: "5", Text: "hello"})
	got := svc.Handle(context.Background(), Event{UserID: "5", Command: "start", DisplayName: "Sara"})
	assert.Contains(t, got, "Sara")
	assert.Equal(t, 0, store.Size("5"))

	got = svc.Handle(context.Background(), Event{UserID: "6", Command: "start"})
	assert.Contains(t, got, DefaultMessages().DefaultName)
}

func TestHandleUnknownCommandReturnsHelp(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc, _, _ := newTestService(t, 5, client)

	assert.Equal(t, DefaultMessages().Help, svc.Handle(context.Background(), Event{UserID: "1", Command: "bogus", Args: "x"}))
	assert.Equal(t, DefaultMessages().Help, svc.Handle(context.Background(), Event{UserID: "1", Command: "help"}))
	assert.Equal(t, 0, client.calls())
}

func TestHandleIntentAcknowledgesWithoutCompletion(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	exec := &recordingExecutor{}
	logger, _ := logtest.NewNullLogger()
	store := memory.NewStore(5)
	svc := NewService(Dependencies{Store: store, Client: client, Executor: exec, Logger: logger})

	got := svc.Handle(context.Background(), Event{UserID: "1", DisplayName: "Ali", Text: "please post a tweet about Go"})
	assert.Contains(t, got, "Ali")
	assert.Contains(t, got, string(intent.PlatformTwitter))
	assert.Equal(t, 0, client.calls())
	assert.Equal(t, 0, store.Size("1"))
	require.Len(t, exec.actions, 1)
	assert.Equal(t, intent.PlatformTwitter, exec.actions[0].Platform)
}

func TestHandleArchivesExchanges(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	sink := &recordingSink{}
	logger, _ := logtest.NewNullLogger()
	svc := NewService(Dependencies{
		Store:     memory.NewStore(5),
		Client:    client,
		Provider:  "fake",
		Archive:   sink,
		Logger:    logger,
		RedactPII: true,
	})

	svc.Handle(context.Background(), Event{UserID: "1", Text: "mail me at a@b.com"})
	client.err = errors.New("boom")
	svc.Handle(context.Background(), Event{UserID: "1", Command: "plan", Args: "learn go"})

	require.Len(t, sink.exchanges, 2)
	first := sink.exchanges[0]
	assert.Equal(t, "chat", first.Mode)
	assert.Equal(t, "fake", first.Provider)
	assert.NotContains(t, first.Input, "a@b.com")
	assert.True(t, first.Redacted)
	assert.False(t, first.Failed)

	second := sink.exchanges[1]
	assert.Equal(t, "plan", second.Mode)
	assert.True(t, second.Failed)
	assert.Empty(t, second.Reply)
}

func TestHandleConcurrentUsersStayIsolated(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc, store, _ := newTestService(t, 4, client)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				svc.Handle(context.Background(), Event{UserID: id, Text: "msg"})
			}
		}(string(rune('a' + u)))
	}
	wg.Wait()

	assert.Equal(t, 8, store.Users())
	for u := 0; u < 8; u++ {
		assert.Equal(t, 4, store.Size(string(rune('a'+u))))
	}
}

func TestHandlePassesDisplayNameToPersona(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	logger, _ := logtest.NewNullLogger()
	svc := NewService(Dependencies{
		Store:   memory.NewStore(5),
		Client:  client,
		Persona: "Persona.\nUser name: " + prompt.UserNamePlaceholder + "\n\n",
		Logger:  logger,
	})

	svc.Handle(context.Background(), Event{UserID: "1", DisplayName: "Sara", Text: "hello"})
	svc.Handle(context.Background(), Event{UserID: "2", Command: "idea", Args: "weekend"})

	require.Equal(t, 2, client.calls())
	assert.Contains(t, client.requests[0].Prompt, "User name: Sara\n")
	assert.Equal(t, "Persona.\nUser name: Sara\n\n", client.requests[0].Messages[0].Content)
	assert.Contains(t, client.requests[1].Prompt, "User name: "+DefaultMessages().DefaultName+"\n")
}
