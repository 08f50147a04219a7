package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompleterPrefixMatch(t *testing.T) {
	c := NewCompleter([]string{
		"ChatSendServerMessage",
		"ChatSend",
		"GetVersion",
		"GetPlayerList",
	})

	matches := c.Complete("Chat")
	assert.Equal(t, []string{"ChatSend", "ChatSendServerMessage"}, matches)
}

func TestCompleterAddAfterConstruction(t *testing.T) {
	c := NewCompleter(nil)
	c.Add("GetStatus")
	assert.Equal(t, []string{"GetStatus"}, c.Complete("Get"))
}

func TestCompleterNoMatches(t *testing.T) {
	c := NewCompleter([]string{"GetVersion"})
	assert.Empty(t, c.Complete("Set"))
}
