package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/llm"
	"github.com/soyeahso/kinobot/internal/logging"
)

type fakeUserStore struct {
	upserts []domain.UserKey
	err     error
}

func (f *fakeUserStore) UpsertUser(_ context.Context, key domain.UserKey, _ domain.UserProfile) error {
	f.upserts = append(f.upserts, key)
	return f.err
}

type fakeRequestStore struct {
	requests []domain.RecommendationRequest
	err      error
}

func (f *fakeRequestStore) RecordRequest(_ context.Context, req domain.RecommendationRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

type fakeNotifier struct {
	saved []domain.RecommendationRequest
}

func (f *fakeNotifier) RecommendationSaved(req domain.RecommendationRequest) {
	f.saved = append(f.saved, req)
}

type harness struct {
	engine   *Engine
	users    *fakeUserStore
	requests *fakeRequestStore
	notifier *fakeNotifier
	model    *llm.MockClient
	replies  []domain.Reply
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		users:    &fakeUserStore{},
		requests: &fakeRequestStore{},
		notifier: &fakeNotifier{},
		model:    &llm.MockClient{},
	}
	log := logging.New(nil, "silent", "json")
	h.engine = NewEngine(cfg, h.model, h.users, h.requests, log)
	h.engine.SetNotifier(h.notifier)
	return h
}

func (h *harness) emit(r domain.Reply) {
	h.replies = append(h.replies, r)
}

func (h *harness) send(ev domain.Event) {
	h.replies = nil
	h.engine.Handle(context.Background(), ev, h.emit)
}

func (h *harness) last() domain.Reply {
	return h.replies[len(h.replies)-1]
}

var testKey = domain.UserKey{ChannelID: "telegram", UserID: "42"}

func startEvent() domain.Event {
	return domain.Event{
		Key:     testKey,
		Type:    domain.EventStart,
		Profile: &domain.UserProfile{Username: "filmfan", FirstName: "Ada"},
	}
}

func choice(token string) domain.Event {
	return domain.Event{Key: testKey, Type: domain.EventChoice, Token: token}
}

func text(s string) domain.Event {
	return domain.Event{Key: testKey, Type: domain.EventText, Text: s}
}

func TestStartOpensGenreStep(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})

	h.send(startEvent())

	require.Len(t, h.replies, 1)
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	assert.Contains(t, r.Text, "Ada")
	assert.Len(t, r.Options, 13)
	assert.Equal(t, []domain.UserKey{testKey}, h.users.upserts)
	assert.Equal(t, 1, h.engine.ActiveSessions())
}

func TestStartWithoutProfileSkipsUpsert(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})

	h.send(domain.Event{Key: testKey, Type: domain.EventStart})

	assert.Empty(t, h.users.upserts)
	assert.Equal(t, 1, h.engine.ActiveSessions())
}

func TestUpsertFailureDoesNotBlockDialog(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.users.err = errors.New("disk full")

	h.send(startEvent())

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
	assert.Equal(t, 1, h.engine.ActiveSessions())
}

func TestGenrePickAdvancesToYears(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())

	h.send(choice("genre:horror"))

	require.Len(t, h.replies, 1)
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	assert.Contains(t, r.Text, "horror")
	// 10 year ranges plus Back.
	assert.Len(t, r.Options, 11)
	assert.Equal(t, TokenBackToGenres, r.Options[10].Token)
}

func TestUnknownGenreTokenKeepsState(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())

	h.send(choice("genre:polka"))

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyError, h.replies[0].Kind)

	// The dialog is still at the genre step.
	h.send(choice("genre:drama"))
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
	assert.Contains(t, h.replies[0].Text, "drama")
}

func TestYearPickAdvancesToKeywords(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:sci-fi"))

	h.send(choice("year:1980-1989"))

	require.Len(t, h.replies, 1)
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	assert.Contains(t, r.Text, "1980-1989")
	require.Len(t, r.Options, 1)
	assert.Equal(t, TokenBackToYears, r.Options[0].Token)
}

func TestBackFromYearsMarksPreviousGenre(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:comedy"))

	h.send(choice(TokenBackToGenres))

	require.Len(t, h.replies, 1)
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	// The previous pick stays selected and is marked in the options.
	var marked bool
	for _, opt := range r.Options {
		if opt.Token == "genre:comedy" {
			marked = opt.Label == "✓ Comedy"
		}
	}
	assert.True(t, marked, "previously picked genre should be marked")
}

func TestBackFromKeywordsClearsKeywordsOnly(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:comedy"))
	h.send(choice("year:1990-1999"))

	h.send(choice(TokenBackToYears))

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
	assert.Contains(t, h.replies[0].Text, "comedy")

	// Picking a different range still completes normally.
	h.send(choice("year:1970-1979"))
	h.model.GenerateFunc = func(context.Context, string) (string, error) {
		return "1. Alien, 1979, Sci-Fi.", nil
	}
	h.send(text("space horror"))
	require.Len(t, h.requests.requests, 1)
	assert.Equal(t, "1970-1979", h.requests.requests[0].Years)
}

func TestCompletionPipeline(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.model.GenerateFunc = func(_ context.Context, p string) (string, error) {
		assert.Contains(t, p, "thriller")
		assert.Contains(t, p, "2010-2020")
		assert.Contains(t, p, "heist")
		return "1. Title: Inception, 2010, Thriller. A dream heist.\n2. Title: Gone Girl, 2014, Thriller. A marriage unravels.", nil
	}

	h.send(startEvent())
	h.send(choice("genre:thriller"))
	h.send(choice("year:2010-2020"))
	h.send(text("heist"))

	// searching message, model text, start-over prompt
	require.Len(t, h.replies, 3)
	assert.Equal(t, domain.ReplyMessage, h.replies[0].Kind)
	assert.Equal(t, domain.ReplyMessage, h.replies[1].Kind)
	assert.Contains(t, h.replies[1].Text, "Inception")
	assert.Equal(t, domain.ReplyPrompt, h.replies[2].Kind)
	assert.Equal(t, TokenStartOver, h.replies[2].Options[0].Token)

	require.Len(t, h.requests.requests, 1)
	req := h.requests.requests[0]
	assert.Equal(t, "thriller", req.Genres)
	assert.Equal(t, "2010-2020", req.Years)
	assert.Equal(t, "heist", req.Keywords)
	assert.Equal(t, [3]string{"Inception", "Gone Girl", ""}, req.Titles)

	require.Len(t, h.notifier.saved, 1)
	assert.Equal(t, 0, h.engine.ActiveSessions())
}

func TestModelFailureEndsSessionWithOneError(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.model.GenerateFunc = func(context.Context, string) (string, error) {
		return "", errors.New("rate limited")
	}

	h.send(startEvent())
	h.send(choice("genre:drama"))
	h.send(choice("year:2000-2009"))
	h.send(text("grief and memory"))

	// searching message, one error, start-over prompt
	require.Len(t, h.replies, 3)
	assert.Equal(t, domain.ReplyError, h.replies[1].Kind)
	assert.Equal(t, domain.ReplyPrompt, h.replies[2].Kind)

	assert.Empty(t, h.requests.requests)
	assert.Empty(t, h.notifier.saved)
	assert.Equal(t, 0, h.engine.ActiveSessions())
}

func TestRecordFailureStillDeliversResponse(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.requests.err = errors.New("database locked")
	h.model.GenerateFunc = func(context.Context, string) (string, error) {
		return "1. Heat, 1995, Action.", nil
	}

	h.send(startEvent())
	h.send(choice("genre:action"))
	h.send(choice("year:1990-1999"))
	h.send(text("bank robbery"))

	require.Len(t, h.replies, 3)
	assert.Contains(t, h.replies[1].Text, "Heat")
	assert.Empty(t, h.notifier.saved, "failed persist must not notify")
	assert.Equal(t, 0, h.engine.ActiveSessions())
}

func TestCancelDestroysSession(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:romance"))

	h.send(domain.Event{Key: testKey, Type: domain.EventCancel})

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyMessage, h.replies[0].Kind)
	assert.Equal(t, 0, h.engine.ActiveSessions())

	// Further text has no session to land in.
	h.send(text("anything"))
	assert.Equal(t, msgUnrecognized, h.last().Text)
}

func TestTextBeforeKeywordStepIsRejected(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())

	h.send(text("just give me something good"))

	require.Len(t, h.replies, 1)
	assert.Equal(t, msgUnrecognized, h.replies[0].Text)
	// State unchanged: a genre pick still works.
	h.send(choice("genre:mystery"))
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
}

func TestBlankKeywordsReprompt(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:mystery"))
	h.send(choice("year:1950-1959"))

	h.send(text("   "))

	require.Len(t, h.replies, 1)
	assert.Equal(t, msgEnterText, h.replies[0].Text)
	assert.Equal(t, 1, h.engine.ActiveSessions())
}

func TestStartOverTokenRestartsDialog(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.model.GenerateFunc = func(context.Context, string) (string, error) {
		return "1. Up, 2009, Animation.", nil
	}
	h.send(startEvent())
	h.send(choice("genre:animation"))
	h.send(choice("year:2000-2009"))
	h.send(text("balloons"))
	require.Equal(t, 0, h.engine.ActiveSessions())

	h.send(choice(TokenStartOver))

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
	assert.Equal(t, 1, h.engine.ActiveSessions())
}

func TestStartMidDialogResets(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	h.send(startEvent())
	h.send(choice("genre:fantasy"))

	h.send(startEvent())

	require.Len(t, h.replies, 1)
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	// Fresh session: no genre carries the selected marker.
	for _, opt := range r.Options {
		assert.NotContains(t, opt.Label, "✓")
	}
}

func TestMultiGenreToggleAndDone(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 3})
	h.send(startEvent())
	// Done button present in multi mode.
	assert.Equal(t, TokenGenresDone, h.replies[0].Options[13].Token)

	// Done with nothing picked is refused.
	h.send(choice(TokenGenresDone))
	assert.Equal(t, domain.ReplyError, h.replies[0].Kind)

	h.send(choice("genre:horror"))
	assert.Contains(t, h.replies[0].Text, "horror")
	h.send(choice("genre:comedy"))
	assert.Contains(t, h.replies[0].Text, "comedy")

	// Toggling off removes the pick.
	h.send(choice("genre:comedy"))
	assert.NotContains(t, h.replies[0].Text, "comedy")

	h.send(choice("genre:sci-fi"))
	h.send(choice(TokenGenresDone))
	r := h.replies[0]
	assert.Equal(t, domain.ReplyPrompt, r.Kind)
	assert.Contains(t, r.Text, "horror, sci-fi")

	h.model.GenerateFunc = func(_ context.Context, p string) (string, error) {
		assert.Contains(t, p, "horror, sci-fi")
		return "1. The Thing, 1982, Horror.", nil
	}
	h.send(choice("year:1980-1989"))
	h.send(text("isolation"))
	require.Len(t, h.requests.requests, 1)
	assert.Equal(t, "horror, sci-fi", h.requests.requests[0].Genres)
}

func TestMultiGenreLimitEnforced(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 2})
	h.send(startEvent())
	h.send(choice("genre:action"))
	h.send(choice("genre:drama"))

	h.send(choice("genre:comedy"))

	require.Len(t, h.replies, 1)
	assert.Equal(t, domain.ReplyError, h.replies[0].Kind)
	assert.Contains(t, h.replies[0].Text, "2")
}

func TestChoiceWithNoSessionIsRejected(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})

	h.send(choice("genre:action"))

	require.Len(t, h.replies, 1)
	assert.Equal(t, msgUnrecognized, h.replies[0].Text)
	assert.Equal(t, 0, h.engine.ActiveSessions())
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	h := newHarness(t, Config{MaxGenres: 1})
	other := domain.UserKey{ChannelID: "irc", UserID: "bee"}

	h.send(startEvent())
	h.send(domain.Event{Key: other, Type: domain.EventStart})
	assert.Equal(t, 2, h.engine.ActiveSessions())

	h.send(domain.Event{Key: other, Type: domain.EventCancel})
	assert.Equal(t, 1, h.engine.ActiveSessions())

	// The first user's dialog is unaffected.
	h.send(choice("genre:drama"))
	assert.Equal(t, domain.ReplyPrompt, h.replies[0].Kind)
}
