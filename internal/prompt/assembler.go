package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/abqarino/internal/llm"
	"github.com/antoniostano/abqarino/internal/memory"
)

// ErrEmptyInput is returned when there is no user text to build a prompt from.
var ErrEmptyInput = errors.New("empty input")

const (
	historyHeader   = "conversation so far:\n"
	assistantPrefix = "ASSISTANT:"

	// UserNamePlaceholder in a persona is replaced with the sender's name.
	UserNamePlaceholder = "{user_name}"
)

// History is the subset of the conversation store the assembler needs.
type History interface {
	Window(userID string) []memory.Turn
	Append(userID string, role memory.Role, content string) (memory.Turn, error)
}

// Assembler renders prompts and records chat turns.
type Assembler struct {
	persona string
	history History
}

func NewAssembler(persona string, history History) *Assembler {
	return &Assembler{persona: persona, history: history}
}

// Build renders the prompt for one user message. In chat mode the message is
// appended to the user's window first, so the rendering includes it.
func (a *Assembler) Build(userID, userName string, mode Mode, text string) (llm.Request, error) {
	if strings.TrimSpace(text) == "" {
		return llm.Request{}, ErrEmptyInput
	}
	persona := strings.ReplaceAll(a.persona, UserNamePlaceholder, userName)
	if mode != ModeChat {
		return llm.Request{
			Prompt: persona + mode.Instruction() + text,
			Messages: []llm.Message{
				{Role: "system", Content: persona},
				{Role: "user", Content: mode.Instruction() + text},
			},
		}, nil
	}

	if _, err := a.history.Append(userID, memory.RoleUser, text); err != nil {
		return llm.Request{}, fmt.Errorf("record user turn: %w", err)
	}
	window := a.history.Window(userID)

	messages := make([]llm.Message, 0, len(window)+1)
	messages = append(messages, llm.Message{Role: "system", Content: persona})

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(historyHeader)
	for _, t := range window {
		b.WriteString(strings.ToUpper(string(t.Role)))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	b.WriteString(assistantPrefix)

	return llm.Request{Prompt: b.String(), Messages: messages}, nil
}

// Record stores a successful reply. Only chat mode keeps history.
func (a *Assembler) Record(userID string, mode Mode, reply string) error {
	if mode != ModeChat {
		return nil
	}
	if _, err := a.history.Append(userID, memory.RoleAssistant, reply); err != nil {
		return fmt.Errorf("record assistant turn: %w", err)
	}
	return nil
}
