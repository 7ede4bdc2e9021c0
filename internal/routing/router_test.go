package routing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/kinobot/internal/channel"
	"github.com/soyeahso/kinobot/internal/dialog"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/llm"
	"github.com/soyeahso/kinobot/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent", "json")
}

type stubChannel struct {
	id      string
	sent    []domain.Reply
	sentTo  []string
	handler func(domain.Event)
	sendErr error
}

func (s *stubChannel) ID() string                    { return s.id }
func (s *stubChannel) Start(_ context.Context) error { return nil }
func (s *stubChannel) Stop(_ context.Context) error  { return nil }
func (s *stubChannel) Send(_ context.Context, userID string, reply domain.Reply) error {
	s.sent = append(s.sent, reply)
	s.sentTo = append(s.sentTo, userID)
	return s.sendErr
}
func (s *stubChannel) OnEvent(handler func(domain.Event)) { s.handler = handler }

type nopStore struct{}

func (nopStore) UpsertUser(context.Context, domain.UserKey, domain.UserProfile) error { return nil }
func (nopStore) RecordRequest(context.Context, domain.RecommendationRequest) error    { return nil }

func newTestRouter(chs ...*stubChannel) (*Router, *channel.Registry) {
	reg := channel.NewRegistry(testLogger())
	for _, ch := range chs {
		reg.Register(ch)
	}
	engine := dialog.NewEngine(dialog.Config{MaxGenres: 1}, &llm.MockClient{}, nopStore{}, nopStore{}, testLogger())
	return NewRouter(reg, engine, testLogger()), reg
}

func TestHandleEvent_RepliesGoToOriginatingChannel(t *testing.T) {
	tg := &stubChannel{id: "telegram"}
	irc := &stubChannel{id: "irc"}
	router, _ := newTestRouter(tg, irc)

	router.HandleEvent(context.Background(), domain.Event{
		Key:  domain.UserKey{ChannelID: "telegram", UserID: "42"},
		Type: domain.EventStart,
	})

	require.Len(t, tg.sent, 1)
	assert.Equal(t, domain.ReplyPrompt, tg.sent[0].Kind)
	assert.Equal(t, []string{"42"}, tg.sentTo)
	assert.Empty(t, irc.sent)
}

func TestHandleEvent_UnknownChannelDropped(t *testing.T) {
	tg := &stubChannel{id: "telegram"}
	router, _ := newTestRouter(tg)

	router.HandleEvent(context.Background(), domain.Event{
		Key:  domain.UserKey{ChannelID: "discord", UserID: "42"},
		Type: domain.EventStart,
	})

	assert.Empty(t, tg.sent)
}

func TestHandleEvent_SendFailureLoggedNotFatal(t *testing.T) {
	tg := &stubChannel{id: "telegram", sendErr: assert.AnError}
	router, _ := newTestRouter(tg)

	router.HandleEvent(context.Background(), domain.Event{
		Key:  domain.UserKey{ChannelID: "telegram", UserID: "42"},
		Type: domain.EventStart,
	})

	// The reply was attempted despite the failure.
	require.Len(t, tg.sent, 1)
}

func TestBind_RegistersHandlerOnAllChannels(t *testing.T) {
	tg := &stubChannel{id: "telegram"}
	irc := &stubChannel{id: "irc"}
	router, _ := newTestRouter(tg, irc)

	router.Bind(context.Background())

	require.NotNil(t, tg.handler)
	require.NotNil(t, irc.handler)

	tg.handler(domain.Event{
		Key:  domain.UserKey{ChannelID: "telegram", UserID: "7"},
		Type: domain.EventStart,
	})
	assert.Eventually(t, func() bool { return len(tg.sent) == 1 },
		time.Second, 10*time.Millisecond)
}
