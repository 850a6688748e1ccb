package router

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gomashio/gomashio/internal/config"
	"github.com/gomashio/gomashio/internal/github"
	"github.com/gomashio/gomashio/internal/identity"
)

type fakeDirectory struct {
	dir   map[string]string
	err   error
	calls int
}

func (d *fakeDirectory) Resolve(ctx context.Context) (map[string]string, error) {
	d.calls++
	return d.dir, d.err
}

type fakeSender struct {
	texts    []string
	channels []string
	err      error
}

func (s *fakeSender) Post(ctx context.Context, text, channel string) error {
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, text)
	s.channels = append(s.channels, channel)
	return nil
}

func newTestProcessor(t *testing.T, rules config.RulesConfig, dir *fakeDirectory, sender *fakeSender) *Processor {
	t.Helper()
	table, err := NewTable(rules.Repositories)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return NewProcessor(slog.Default(), rules, table, dir, identity.NewResolver(rules.AccountMap), sender)
}

func defaultRules() config.RulesConfig {
	return config.RulesConfig{
		AccountMap: map[string]string{"carol": "Carol S"},
		IgnoreEvents: map[string][]string{
			"issues": {"opened", "closed"},
			"push":   {""},
		},
		Repositories: []config.RepositoryRule{
			{Pattern: "^gomashio", Channel: "#dev"},
			{Pattern: ".*", Channel: "#catchall"},
		},
	}
}

func commentEvent(repo, body string) github.Event {
	return github.Event{
		Type: "issue_comment",
		Payload: github.Payload{
			Action:     "created",
			Repository: &github.Repository{Name: repo},
			Comment: &github.Comment{
				Body:    body,
				HTMLURL: "https://github.com/x/r/issues/1#issuecomment-9",
				User:    github.User{Login: "dave"},
			},
		},
	}
}

func TestHandleDispatchesComment(t *testing.T) {
	dir := &fakeDirectory{dir: map[string]string{"Carol S": "U42"}}
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	p.Handle(context.Background(), commentEvent("gomashio", "Thanks+@carol"))

	if len(sender.texts) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(sender.texts))
	}
	want := "dave: \nThanks <@U42>\nhttps://github.com/x/r/issues/1#issuecomment-9"
	if sender.texts[0] != want {
		t.Errorf("got %q, want %q", sender.texts[0], want)
	}
	if sender.channels[0] != "#dev" {
		t.Errorf("expected #dev, got %q", sender.channels[0])
	}
}

func TestHandleIgnoredEvents(t *testing.T) {
	dir := &fakeDirectory{}
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	for _, event := range []github.Event{
		{Type: "issues", Payload: github.Payload{Action: "opened", Repository: &github.Repository{Name: "gomashio"}}},
		{Type: "issues", Payload: github.Payload{Action: "closed", Repository: &github.Repository{Name: "gomashio"}}},
		// push has no action; the blank action matches the configured "".
		{Type: "push", Payload: github.Payload{Repository: &github.Repository{Name: "gomashio"}}},
	} {
		p.Handle(context.Background(), event)
	}

	if len(sender.texts) != 0 {
		t.Fatalf("ignored events must not dispatch: %v", sender.texts)
	}
	if dir.calls != 0 {
		t.Errorf("ignored events must not resolve the directory, got %d calls", dir.calls)
	}
}

func TestHandleEmptyRepository(t *testing.T) {
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), &fakeDirectory{}, sender)

	event := commentEvent("gomashio", "hello")
	event.Payload.Repository = nil
	p.Handle(context.Background(), event)

	if len(sender.texts) != 0 {
		t.Fatal("missing repository must not dispatch")
	}
}

func TestHandleUnmatchedRepository(t *testing.T) {
	rules := defaultRules()
	rules.Repositories = []config.RepositoryRule{{Pattern: "^gomashio$", Channel: "#dev"}}
	sender := &fakeSender{}
	p := newTestProcessor(t, rules, &fakeDirectory{}, sender)

	p.Handle(context.Background(), commentEvent("unrelated-repo", "hello"))

	if len(sender.texts) != 0 {
		t.Fatal("unmatched repository must not dispatch")
	}
}

func TestHandleRoutingIsOrderedAndCaseInsensitive(t *testing.T) {
	dir := &fakeDirectory{dir: map[string]string{}}
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	p.Handle(context.Background(), commentEvent("GOMASHIO-infra", "hi"))

	if len(sender.channels) != 1 || sender.channels[0] != "#dev" {
		t.Fatalf("expected first matching rule #dev, got %v", sender.channels)
	}
}

func TestHandleDirectoryFailureSwallowed(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("users.list down")}
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	p.Handle(context.Background(), commentEvent("gomashio", "hello"))

	if len(sender.texts) != 0 {
		t.Fatal("directory failure must suppress dispatch")
	}
}

func TestHandleEmptyTextSkipsDispatch(t *testing.T) {
	dir := &fakeDirectory{dir: map[string]string{}}
	sender := &fakeSender{}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	// assigned is not in the ignore table but "labeled" renders nothing.
	event := github.Event{
		Type: "issues",
		Payload: github.Payload{
			Action:     "labeled",
			Repository: &github.Repository{Name: "gomashio"},
			Issue:      &github.Issue{Title: "t", HTMLURL: "u"},
		},
	}
	p.Handle(context.Background(), event)

	if len(sender.texts) != 0 {
		t.Fatal("empty rendered text must not dispatch")
	}
}

func TestHandleSenderFailureSwallowed(t *testing.T) {
	dir := &fakeDirectory{dir: map[string]string{}}
	sender := &fakeSender{err: errors.New("channel_not_found")}
	p := newTestProcessor(t, defaultRules(), dir, sender)

	// Must not panic or surface anything; delivery is best effort.
	p.Handle(context.Background(), commentEvent("gomashio", "hello"))
}

func TestNewTableRejectsInvalidPattern(t *testing.T) {
	_, err := NewTable([]config.RepositoryRule{{Pattern: "([", Channel: "#x"}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
