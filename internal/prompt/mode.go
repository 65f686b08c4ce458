package prompt

// Mode selects how a user message is turned into a prompt.
type Mode int

const (
	ModeChat Mode = iota
	ModeSummarize
	ModeRewrite
	ModeReply
	ModeIdea
	ModePlan
)

var modeNames = [...]string{
	ModeChat:      "chat",
	ModeSummarize: "summarize",
	ModeRewrite:   "rewrite",
	ModeReply:     "reply",
	ModeIdea:      "idea",
	ModePlan:      "plan",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return modeNames[ModeChat]
	}
	return modeNames[m]
}

// ParseMode matches name exactly against the known modes; anything else is chat.
func ParseMode(name string) Mode {
	for i, n := range modeNames {
		if n == name {
			return Mode(i)
		}
	}
	return ModeChat
}

// TaskModes lists the modes reachable through a slash command.
func TaskModes() []Mode {
	return []Mode{ModeSummarize, ModeRewrite, ModeReply, ModeIdea, ModePlan}
}

// Instruction is the task text placed between the persona and the user input.
// Chat has none: its prompt is built from the conversation window instead.
func (m Mode) Instruction() string {
	switch m {
	case ModeChat:
		return ""
	case ModeSummarize:
		return "Summarize the following text in a few short bullet points, keeping the key facts:\n\n"
	case ModeRewrite:
		return "Rewrite the following text so it reads clearly and naturally, keeping its meaning:\n\n"
	case ModeReply:
		return "Write a short, polite reply to the following message:\n\n"
	case ModeIdea:
		return "Suggest five creative, practical ideas about the following topic:\n\n"
	case ModePlan:
		return "Turn the following goal into a concise step-by-step plan:\n\n"
	}
	return ""
}
