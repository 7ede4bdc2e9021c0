package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserKey_String(t *testing.T) {
	k := UserKey{ChannelID: "telegram", UserID: "12345"}
	assert.Equal(t, "telegram:12345", k.String())
}

func TestReplyConstructors(t *testing.T) {
	p := NewPrompt("pick one", []Option{{Label: "Action", Token: "genre:action"}})
	assert.Equal(t, ReplyPrompt, p.Kind)
	assert.Len(t, p.Options, 1)

	m := NewMessage("hello")
	assert.Equal(t, ReplyMessage, m.Kind)
	assert.Empty(t, m.Options)

	e := NewError("boom")
	assert.Equal(t, ReplyError, e.Kind)
	assert.Equal(t, "boom", e.Text)
}
