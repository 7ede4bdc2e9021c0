// Package domain defines the types shared between transport channels and
// the dialog engine.
package domain

import "time"

// EventType classifies an inbound event.
type EventType string

const (
	EventStart  EventType = "start"  // begin (or restart) a dialog
	EventChoice EventType = "choice" // a discrete option was selected
	EventText   EventType = "text"   // free text was submitted
	EventCancel EventType = "cancel" // abort the dialog
)

// UserKey identifies a user within a channel. It keys the session store
// and the persisted user profile.
type UserKey struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// String returns the canonical form of the key.
func (k UserKey) String() string {
	return k.ChannelID + ":" + k.UserID
}

// UserProfile carries display metadata delivered with a start event.
type UserProfile struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Event is an inbound user action delivered by a channel.
type Event struct {
	ID        string       `json:"id"`
	Key       UserKey      `json:"key"`
	Type      EventType    `json:"type"`
	Token     string       `json:"token,omitempty"` // set for choice events
	Text      string       `json:"text,omitempty"`  // set for text events
	Profile   *UserProfile `json:"profile,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
