// Package telegram implements the Telegram channel as a direct HTTP
// client for the Bot API, using getUpdates long polling. Prompt options
// render as inline keyboard buttons; successive prompts edit the previous
// prompt message in place so the chat does not fill with stale keyboards.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/kinobot/internal/config"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/logging"
)

const (
	channelID       = "telegram"
	defaultBaseURL  = "https://api.telegram.org"
	defaultPollSecs = 50
	buttonsPerRow   = 2
)

// Bot implements domain.Channel for Telegram.
type Bot struct {
	token    string
	pollSecs int
	baseURL  string
	client   *http.Client
	log      *logging.Logger

	mu      sync.RWMutex
	handler func(ev domain.Event)
	running bool
	lastErr string

	// lastPrompt tracks the message ID of the open prompt per chat so
	// the next prompt can edit it instead of sending a new message.
	promptMu   sync.Mutex
	lastPrompt map[int64]int64
}

// Option customizes a Bot.
type Option func(*Bot)

// WithBaseURL overrides the Bot API host. Used in tests.
func WithBaseURL(u string) Option {
	return func(b *Bot) { b.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Bot) { b.client = c }
}

// New creates a Telegram channel from configuration.
func New(cfg config.TelegramConfig, log *logging.Logger, opts ...Option) *Bot {
	pollSecs := cfg.PollSeconds
	if pollSecs == 0 {
		pollSecs = defaultPollSecs
	}
	b := &Bot{
		token:    cfg.Token,
		pollSecs: pollSecs,
		baseURL:  defaultBaseURL,
		// The poll request itself holds open for pollSecs, so the
		// client timeout must exceed it.
		client:     &http.Client{Timeout: time.Duration(pollSecs+30) * time.Second},
		log:        log.Sub("telegram"),
		lastPrompt: make(map[int64]int64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) ID() string { return channelID }

func (b *Bot) OnEvent(handler func(ev domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

// Status returns the current runtime status.
func (b *Bot) Status() domain.ChannelStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.ChannelStatus{
		ChannelID: channelID,
		Connected: b.running,
		Running:   b.running,
		LastError: b.lastErr,
	}
}

// Start runs the long-poll loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.running = true
	b.lastErr = ""
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.log.Info().Int("pollSeconds", b.pollSecs).Msg("starting Telegram long poll")

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.getUpdates(ctx, offset, b.pollSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			b.mu.Lock()
			b.lastErr = err.Error()
			b.mu.Unlock()
			b.log.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.handleUpdate(ctx, u)
		}
	}
}

// Stop ends the poll loop. The loop exits through its context, so there
// is nothing to tear down here beyond marking state.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
	return nil
}

// Send renders a reply into the chat identified by userID. Dialogs run
// in private chats where the chat ID equals the user ID.
func (b *Bot) Send(ctx context.Context, userID string, reply domain.Reply) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return errors.New("telegram: user id must be numeric: " + userID)
	}

	text := reply.Text
	if reply.Kind == domain.ReplyError {
		text = "⚠ " + text
	}

	if reply.Kind == domain.ReplyPrompt {
		return b.sendPrompt(ctx, chatID, text, keyboard(reply.Options))
	}

	b.promptMu.Lock()
	delete(b.lastPrompt, chatID)
	b.promptMu.Unlock()

	_, err = b.sendMessage(ctx, chatID, text, nil)
	return err
}

// sendPrompt edits the open prompt message when one exists, falling back
// to a fresh message. Telegram rejects edits of deleted or unchanged
// messages; either way a fresh send recovers.
func (b *Bot) sendPrompt(ctx context.Context, chatID int64, text string, markup *inlineKeyboard) error {
	b.promptMu.Lock()
	msgID, hasOpen := b.lastPrompt[chatID]
	b.promptMu.Unlock()

	if hasOpen {
		if err := b.editMessageText(ctx, chatID, msgID, text, markup); err == nil {
			return nil
		} else {
			b.log.Debug().Err(err).Int64("chat", chatID).Msg("prompt edit failed, sending new message")
		}
	}

	sentID, err := b.sendMessage(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	b.promptMu.Lock()
	b.lastPrompt[chatID] = sentID
	b.promptMu.Unlock()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, u update) {
	switch {
	case u.Callback != nil:
		b.handleCallback(ctx, u.Callback)
	case u.Message != nil:
		b.handleMessage(u.Message)
	}
}

func (b *Bot) handleMessage(m *message) {
	if m.From == nil || m.Text == "" {
		return
	}
	if m.Chat.Type != "" && m.Chat.Type != "private" {
		return
	}

	ev := domain.Event{
		ID:        uuid.New().String(),
		Key:       domain.UserKey{ChannelID: channelID, UserID: strconv.FormatInt(m.From.ID, 10)},
		Timestamp: time.Now(),
	}

	switch m.Text {
	case "/start":
		ev.Type = domain.EventStart
		ev.Profile = &domain.UserProfile{
			Username:  m.From.Username,
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
		}
	case "/cancel":
		ev.Type = domain.EventCancel
	default:
		ev.Type = domain.EventText
		ev.Text = m.Text
	}

	b.deliver(ev)
}

func (b *Bot) handleCallback(ctx context.Context, cb *callbackQuery) {
	// Acknowledge first so the client stops its spinner even if the
	// dialog rejects the choice.
	if err := b.answerCallbackQuery(ctx, cb.ID); err != nil {
		b.log.Debug().Err(err).Msg("answerCallbackQuery failed")
	}

	if cb.Data == "" {
		return
	}

	b.deliver(domain.Event{
		ID:        uuid.New().String(),
		Key:       domain.UserKey{ChannelID: channelID, UserID: strconv.FormatInt(cb.From.ID, 10)},
		Type:      domain.EventChoice,
		Token:     cb.Data,
		Timestamp: time.Now(),
	})
}

func (b *Bot) deliver(ev domain.Event) {
	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

// keyboard lays options out two per row.
func keyboard(options []domain.Option) *inlineKeyboard {
	if len(options) == 0 {
		return nil
	}
	var rows [][]inlineButton
	for i := 0; i < len(options); i += buttonsPerRow {
		end := i + buttonsPerRow
		if end > len(options) {
			end = len(options)
		}
		row := make([]inlineButton, 0, buttonsPerRow)
		for _, opt := range options[i:end] {
			row = append(row, inlineButton{Text: opt.Label, CallbackData: opt.Token})
		}
		rows = append(rows, row)
	}
	return &inlineKeyboard{InlineKeyboard: rows}
}
