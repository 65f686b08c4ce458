package intent

import (
	"context"
	"errors"
	"strings"
)

// Platform is an external service a message may ask the bot to act on.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformSearch    Platform = "search"
)

// Action is a requested platform operation.
type Action struct {
	Platform Platform `json:"platform"`
	Verb     string   `json:"verb"`
}

// Result is either Detected with an Action, or not detected (zero Action).
type Result struct {
	Detected bool   `json:"detected"`
	Action   Action `json:"action"`
}

// Rule maps keywords to an action. Rules are checked in slice order.
type Rule struct {
	Action   Action
	Keywords []string
}

// DefaultRules returns the built-in keyword lists in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Action: Action{Platform: PlatformTwitter, Verb: "tweet"}, Keywords: []string{"غرد", "تغريدة", "تويت", "tweet"}},
		{Action: Action{Platform: PlatformInstagram, Verb: "post"}, Keywords: []string{"انستقرام", "انستا", "instagram", "post"}},
		{Action: Action{Platform: PlatformLinkedIn, Verb: "post"}, Keywords: []string{"لينكدإن", "linkedin"}},
		{Action: Action{Platform: PlatformWhatsApp, Verb: "send"}, Keywords: []string{"واتساب", "واتس", "whatsapp"}},
		{Action: Action{Platform: PlatformSearch, Verb: "search"}, Keywords: []string{"ابحث", "دور", "search", "find"}},
	}
}

// Matcher classifies text by case-insensitive substring match.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		normalized = append(normalized, Rule{Action: r.Action, Keywords: keywords})
	}
	return &Matcher{rules: normalized}
}

// Match returns the first rule whose keyword occurs in text.
func (m *Matcher) Match(text string) Result {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Result{}
	}
	for _, r := range m.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return Result{Detected: true, Action: r.Action}
			}
		}
	}
	return Result{}
}

// ErrNotImplemented is returned by executors without a platform integration.
var ErrNotImplemented = errors.New("intent: action execution not implemented")

// Executor carries out a detected action.
type Executor interface {
	Execute(ctx context.Context, action Action, text string) error
}

// UnimplementedExecutor acknowledges nothing and performs nothing.
type UnimplementedExecutor struct{}

func (UnimplementedExecutor) Execute(context.Context, Action, string) error {
	return ErrNotImplemented
}
