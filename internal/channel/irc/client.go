// Package irc implements the IRC channel using the girc library. Dialogs
// run over private messages; prompt options are rendered as numbered
// lines and selected by replying with the number.
package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"

	"github.com/soyeahso/kinobot/internal/config"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/logging"
)

const channelID = "irc"

// Channel implements domain.Channel for IRC.
type Channel struct {
	cfg    config.IRCConfig
	client *girc.Client
	log    *logging.Logger

	mu      sync.RWMutex
	handler func(ev domain.Event)
	running bool
	lastErr string

	// pending maps nick to the option tokens last offered to that nick,
	// in display order. A numeric reply indexes into it.
	pendingMu sync.Mutex
	pending   map[string][]domain.Option
}

// New creates an IRC channel from configuration.
func New(cfg config.IRCConfig, log *logging.Logger) *Channel {
	return &Channel{
		cfg:     cfg,
		log:     log.Sub("irc"),
		pending: make(map[string][]domain.Option),
	}
}

func (c *Channel) ID() string { return channelID }

func (c *Channel) OnEvent(handler func(ev domain.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// Status returns the current runtime status.
func (c *Channel) Status() domain.ChannelStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ChannelStatus{
		ChannelID: channelID,
		Connected: c.client != nil && c.client.IsConnected(),
		Running:   c.running,
		LastError: c.lastErr,
	}
}

// Start connects to the IRC server and begins processing messages.
func (c *Channel) Start(ctx context.Context) error {
	port := c.cfg.Port
	if port == 0 {
		if c.cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}

	gircCfg := girc.Config{
		Server:  c.cfg.Server,
		Port:    port,
		Nick:    c.cfg.Nick,
		User:    c.cfg.Nick,
		Name:    "Kinobot film recommendations",
		SSL:     c.cfg.UseTLS,
		Version: "Kinobot/1.0",
	}

	if c.cfg.UseTLS {
		gircCfg.TLSConfig = &tls.Config{
			ServerName: c.cfg.Server,
		}
	}

	if c.cfg.SASL && c.cfg.Password != "" {
		gircCfg.SASL = &girc.SASLPlain{
			User: c.cfg.Nick,
			Pass: c.cfg.Password,
		}
	} else if c.cfg.Password != "" {
		gircCfg.ServerPass = c.cfg.Password
	}

	c.client = girc.New(gircCfg)
	c.client.Handlers.Add(girc.CONNECTED, c.onConnected)
	c.client.Handlers.Add(girc.PRIVMSG, c.onPrivmsg)
	c.client.Handlers.Add(girc.DISCONNECTED, c.onDisconnected)

	c.mu.Lock()
	c.running = true
	c.lastErr = ""
	c.mu.Unlock()

	c.log.Info().
		Str("server", c.cfg.Server).
		Int("port", port).
		Str("nick", c.cfg.Nick).
		Bool("tls", c.cfg.UseTLS).
		Msg("connecting to IRC")

	// Connect() blocks for the life of the connection.
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.client.Connect()
	}()

	select {
	case err := <-errCh:
		c.mu.Lock()
		c.running = false
		if err != nil {
			c.lastErr = err.Error()
		}
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.client.Close()
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Stop gracefully disconnects from the IRC server.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.client.IsConnected() {
		c.log.Info().Msg("disconnecting from IRC")
		c.client.Quit("kinobot shutting down")
	}
	c.running = false
	return nil
}

// Send renders a reply as private messages to the given nick. Prompt
// options become numbered lines; the numbering is remembered so the
// user's next numeric reply can be resolved back to a token.
func (c *Channel) Send(ctx context.Context, userID string, reply domain.Reply) error {
	if c.client == nil || !c.client.IsConnected() {
		return fmt.Errorf("irc: not connected")
	}

	text := reply.Text
	if reply.Kind == domain.ReplyError {
		text = "Error: " + text
	}
	for _, line := range splitMessage(text, 400) {
		c.client.Cmd.Message(userID, line)
	}

	c.pendingMu.Lock()
	if reply.Kind == domain.ReplyPrompt && len(reply.Options) > 0 {
		for i, opt := range reply.Options {
			c.client.Cmd.Message(userID, fmt.Sprintf("  %d) %s", i+1, opt.Label))
		}
		c.pending[userID] = reply.Options
	} else if reply.Kind != domain.ReplyError {
		// A non-prompt message supersedes any open option list.
		delete(c.pending, userID)
	}
	c.pendingMu.Unlock()

	c.log.Debug().
		Str("to", userID).
		Str("kind", string(reply.Kind)).
		Int("options", len(reply.Options)).
		Msg("sent IRC reply")
	return nil
}

func (c *Channel) onConnected(_ *girc.Client, _ girc.Event) {
	c.log.Info().Str("nick", c.client.GetNick()).Msg("connected to IRC")
}

func (c *Channel) onDisconnected(_ *girc.Client, _ girc.Event) {
	c.log.Warn().Msg("disconnected from IRC")
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *Channel) onPrivmsg(_ *girc.Client, e girc.Event) {
	if e.Source == nil {
		return
	}
	if e.Source.Name == c.client.GetNick() {
		return
	}
	// Dialogs are private; channel chatter is ignored.
	if e.IsFromChannel() {
		return
	}

	body := strings.TrimSpace(e.Last())
	if body == "" {
		return
	}

	ev, ok := c.parse(e.Source.Name, body)
	if !ok {
		c.client.Cmd.Message(e.Source.Name, "Commands: !start to search for films, !cancel to abort.")
		return
	}
	c.deliver(ev)
}

// parse maps one private message line to an event. Numeric replies
// resolve against the last offered option list.
func (c *Channel) parse(nick, body string) (domain.Event, bool) {
	ev := domain.Event{
		ID:        uuid.New().String(),
		Key:       domain.UserKey{ChannelID: channelID, UserID: nick},
		Timestamp: time.Now(),
	}

	switch strings.ToLower(body) {
	case "!start", "!films":
		ev.Type = domain.EventStart
		ev.Profile = &domain.UserProfile{Username: nick, FirstName: nick}
		return ev, true
	case "!cancel", "!stop":
		ev.Type = domain.EventCancel
		return ev, true
	}

	if n, err := strconv.Atoi(body); err == nil {
		c.pendingMu.Lock()
		opts := c.pending[nick]
		c.pendingMu.Unlock()
		if n >= 1 && n <= len(opts) {
			ev.Type = domain.EventChoice
			ev.Token = opts[n-1].Token
			return ev, true
		}
		// A number with no open option list falls through as text.
	}

	if strings.HasPrefix(body, "!") {
		return domain.Event{}, false
	}

	ev.Type = domain.EventText
	ev.Text = body
	return ev, true
}

func (c *Channel) deliver(ev domain.Event) {
	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

// splitMessage breaks text into IRC-sized chunks. Each newline produces
// a separate chunk because PRIVMSG cannot carry embedded newlines; lines
// longer than maxLen split at the byte boundary.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			chunks = append(chunks, line)
		}
		for len(line) > maxLen {
			chunks = append(chunks, line[:maxLen])
			line = line[maxLen:]
		}
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
