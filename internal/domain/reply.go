package domain

// ReplyKind classifies outbound reply content.
type ReplyKind string

const (
	ReplyPrompt  ReplyKind = "prompt"  // text plus selectable options
	ReplyMessage ReplyKind = "message" // plain text
	ReplyError   ReplyKind = "error"   // user-visible error text
)

// Option is a selectable choice rendered by the channel. How it is
// rendered (inline button, numbered line) is the channel's concern; the
// token round-trips unchanged in the resulting choice event.
type Option struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Reply is outbound content produced by the dialog engine. Rendering
// strategy (send vs. edit-in-place) is left to the channel.
type Reply struct {
	Kind    ReplyKind `json:"kind"`
	Text    string    `json:"text"`
	Options []Option  `json:"options,omitempty"`
}

// NewPrompt builds a prompt reply.
func NewPrompt(text string, options []Option) Reply {
	return Reply{Kind: ReplyPrompt, Text: text, Options: options}
}

// NewMessage builds a plain message reply.
func NewMessage(text string) Reply {
	return Reply{Kind: ReplyMessage, Text: text}
}

// NewError builds an error reply.
func NewError(text string) Reply {
	return Reply{Kind: ReplyError, Text: text}
}
