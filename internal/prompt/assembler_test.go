package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/abqarino/internal/memory"
)

const testPersona = "You are a helpful bot.\n"

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"chat":      ModeChat,
		"summarize": ModeSummarize,
		"rewrite":   ModeRewrite,
		"reply":     ModeReply,
		"idea":      ModeIdea,
		"plan":      ModePlan,
		"":          ModeChat,
		"Summarize": ModeChat,
		"translate": ModeChat,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseMode(in), "ParseMode(%q)", in)
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	for _, m := range append([]Mode{ModeChat}, TaskModes()...) {
		assert.Equal(t, m, ParseMode(m.String()))
	}
	assert.Equal(t, "chat", Mode(99).String())
}

func TestInstructionOnlyForTaskModes(t *testing.T) {
	assert.Empty(t, ModeChat.Instruction())
	for _, m := range TaskModes() {
		assert.NotEmpty(t, m.Instruction(), m.String())
	}
}

func TestBuildChatRendersWindow(t *testing.T) {
	store := memory.NewStore(10)
	_, _ = store.Append("u1", memory.RoleUser, "hi")
	_, _ = store.Append("u1", memory.RoleAssistant, "hello!")

	a := NewAssembler(testPersona, store)
	req, err := a.Build("u1", "", ModeChat, "how are you?")
	require.NoError(t, err)

	want := testPersona +
		"conversation so far:\n" +
		"USER: hi\n" +
		"ASSISTANT: hello!\n" +
		"USER: how are you?\n" +
		"ASSISTANT:"
	assert.Equal(t, want, req.Prompt)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, testPersona, req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[3].Role)
	assert.Equal(t, "how are you?", req.Messages[3].Content)

	assert.Equal(t, 3, store.Size("u1"))
}

func TestBuildTaskModeLeavesHistoryAlone(t *testing.T) {
	store := memory.NewStore(10)
	_, _ = store.Append("u1", memory.RoleUser, "earlier")

	a := NewAssembler(testPersona, store)
	for _, m := range TaskModes() {
		before := store.Size("u1")
		req, err := a.Build("u1", "", m, "some long text")
		require.NoError(t, err)
		assert.Equal(t, testPersona+m.Instruction()+"some long text", req.Prompt)
		assert.Equal(t, before, store.Size("u1"), "mode %s must not touch history", m)

		require.NoError(t, a.Record("u1", m, "model output"))
		assert.Equal(t, before, store.Size("u1"))
	}
}

func TestBuildFillsUserName(t *testing.T) {
	store := memory.NewStore(10)
	a := NewAssembler("Bot persona.\nUser name: "+UserNamePlaceholder+"\n\n", store)

	req, err := a.Build("u1", "Sara", ModeChat, "hello")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "User name: Sara\n")
	assert.NotContains(t, req.Prompt, UserNamePlaceholder)
	assert.Equal(t, "Bot persona.\nUser name: Sara\n\n", req.Messages[0].Content)

	req, err = a.Build("u1", "Omar", ModePlan, "learn go")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "User name: Omar\n")
	assert.Contains(t, req.Messages[0].Content, "Omar")
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	store := memory.NewStore(10)
	a := NewAssembler(testPersona, store)

	_, err := a.Build("u1", "", ModeSummarize, "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = a.Build("u1", "", ModeChat, "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, store.Size("u1"))
}

func TestRecordAppendsAssistantTurnInChat(t *testing.T) {
	store := memory.NewStore(10)
	a := NewAssembler(testPersona, store)

	_, err := a.Build("u1", "", ModeChat, "hello")
	require.NoError(t, err)
	require.NoError(t, a.Record("u1", ModeChat, "hi there"))

	w := store.Window("u1")
	require.Len(t, w, 2)
	assert.Equal(t, memory.RoleUser, w[0].Role)
	assert.Equal(t, "hello", w[0].Content)
	assert.Equal(t, memory.RoleAssistant, w[1].Role)
	assert.Equal(t, "hi there", w[1].Content)
}
