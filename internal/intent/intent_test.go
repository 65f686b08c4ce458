package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcherDefaultRules(t *testing.T) {
	m := NewMatcher(DefaultRules())
	cases := []struct {
		text string
		want Result
	}{
		{"غرد: مرحباً بالعالم", Result{Detected: true, Action: Action{Platform: PlatformTwitter, Verb: "tweet"}}},
		{"Please TWEET this for me", Result{Detected: true, Action: Action{Platform: PlatformTwitter, Verb: "tweet"}}},
		{"share on Instagram", Result{Detected: true, Action: Action{Platform: PlatformInstagram, Verb: "post"}}},
		{"update my LinkedIn headline", Result{Detected: true, Action: Action{Platform: PlatformLinkedIn, Verb: "post"}}},
		{"ارسل واتساب لأحمد", Result{Detected: true, Action: Action{Platform: PlatformWhatsApp, Verb: "send"}}},
		{"can you find a good cafe", Result{Detected: true, Action: Action{Platform: PlatformSearch, Verb: "search"}}},
		{"hello, how are you?", Result{}},
		{"", Result{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, m.Match(tc.text), "Match(%q)", tc.text)
	}
}

func TestMatcherPriorityOrder(t *testing.T) {
	m := NewMatcher(DefaultRules())
	// Mentions both twitter and whatsapp keywords; twitter is checked first.
	got := m.Match("send this to whatsapp and tweet it too")
	assert.Equal(t, PlatformTwitter, got.Action.Platform)

	// "post" belongs to instagram, which outranks linkedin.
	got = m.Match("post it on linkedin")
	assert.Equal(t, PlatformInstagram, got.Action.Platform)
}

func TestMatcherCustomRules(t *testing.T) {
	m := NewMatcher([]Rule{
		{Action: Action{Platform: "mastodon", Verb: "toot"}, Keywords: []string{" Toot "}},
		{Action: Action{Platform: "empty"}, Keywords: []string{"  "}},
	})
	assert.Equal(t, Result{Detected: true, Action: Action{Platform: "mastodon", Verb: "toot"}}, m.Match("please TOOT"))
	assert.False(t, m.Match("anything").Detected)
}

func TestUnimplementedExecutor(t *testing.T) {
	var ex Executor = UnimplementedExecutor{}
	err := ex.Execute(context.Background(), Action{Platform: PlatformTwitter, Verb: "tweet"}, "x")
	assert.ErrorIs(t, err, ErrNotImplemented)
}
