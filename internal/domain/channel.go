package domain

import "context"

// ChannelStatus reports the runtime state of a channel.
type ChannelStatus struct {
	ChannelID string `json:"channelId"`
	Connected bool   `json:"connected"`
	Running   bool   `json:"running"`
	LastError string `json:"lastError,omitempty"`
}

// Channel is the transport collaborator: it delivers inbound events and
// renders outbound replies. Implementations own all platform specifics
// (buttons, message editing, line splitting).
type Channel interface {
	// ID returns the channel identifier (e.g., "telegram", "irc").
	ID() string

	// Start connects the channel and begins delivering events.
	Start(ctx context.Context) error

	// Stop gracefully disconnects the channel.
	Stop(ctx context.Context) error

	// Send renders a reply to the given user.
	Send(ctx context.Context, userID string, reply Reply) error

	// OnEvent registers the handler for inbound events.
	OnEvent(handler func(ev Event))
}
