// Package routing connects messaging channels to the dialog engine.
package routing

import (
	"context"

	"github.com/soyeahso/kinobot/internal/channel"
	"github.com/soyeahso/kinobot/internal/dialog"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/logging"
)

// Router delivers inbound events to the dialog engine and routes the
// engine's replies back through the originating channel.
type Router struct {
	channels *channel.Registry
	engine   *dialog.Engine
	log      *logging.Logger
}

// NewRouter creates an event router.
func NewRouter(channels *channel.Registry, engine *dialog.Engine, log *logging.Logger) *Router {
	return &Router{
		channels: channels,
		engine:   engine,
		log:      log.Sub("routing"),
	}
}

// Bind registers this router as the event handler on every channel
// currently in the registry. Each event is handled on its own goroutine
// so a slow model call never stalls a channel's receive loop; events for
// the same user still serialize inside the engine.
func (r *Router) Bind(ctx context.Context) {
	for _, id := range r.channels.List() {
		ch, ok := r.channels.Get(id)
		if !ok {
			continue
		}
		ch.OnEvent(func(ev domain.Event) {
			go r.HandleEvent(ctx, ev)
		})
	}
}

// HandleEvent processes one inbound event end to end.
func (r *Router) HandleEvent(ctx context.Context, ev domain.Event) {
	r.log.Debug().
		Str("channel", ev.Key.ChannelID).
		Str("user", ev.Key.UserID).
		Str("type", string(ev.Type)).
		Msg("routing event")

	ch, ok := r.channels.Get(ev.Key.ChannelID)
	if !ok {
		r.log.Error().Str("channel", ev.Key.ChannelID).Msg("channel not found for event")
		return
	}

	r.engine.Handle(ctx, ev, func(reply domain.Reply) {
		if err := ch.Send(ctx, ev.Key.UserID, reply); err != nil {
			r.log.Error().Err(err).
				Str("channel", ev.Key.ChannelID).
				Str("user", ev.Key.UserID).
				Str("kind", string(reply.Kind)).
				Msg("failed to send reply")
		}
	})
}
