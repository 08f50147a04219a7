package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snixtho/clifga/gbxremote"
	"github.com/snixtho/clifga/rpcvalue"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	remote := gbxremote.New(gbxremote.DefaultConfig(), nil)
	return New(remote, 3, nil)
}

func TestPlayerConnectAddsToRoster(t *testing.T) {
	tr := newTestTracker(t)
	tr.onPlayerConnect("ManiaPlanet.PlayerConnect", []rpcvalue.Value{rpcvalue.String("login1"), rpcvalue.Bool(false)})

	assert.Equal(t, 1, tr.GetPlayerCount())
	players := tr.GetPlayers()
	require.Len(t, players, 1)
	assert.Equal(t, "login1", players[0].Login)
}

func TestPlayerConnectIsIdempotent(t *testing.T) {
	tr := newTestTracker(t)
	args := []rpcvalue.Value{rpcvalue.String("login1"), rpcvalue.Bool(false)}
	tr.onPlayerConnect("", args)
	tr.onPlayerConnect("", args)
	assert.Equal(t, 1, tr.GetPlayerCount())
}

func TestPlayerDisconnectRemovesFromRosterButKeepsNickname(t *testing.T) {
	tr := newTestTracker(t)

	infoStruct := rpcvalue.Struct([]rpcvalue.Member{
		{Name: "Login", Value: rpcvalue.String("login1")},
		{Name: "NickName", Value: rpcvalue.String("Nicky")},
	})
	tr.onPlayerInfoChanged("", []rpcvalue.Value{infoStruct})
	assert.Equal(t, 1, tr.GetPlayerCount())

	tr.onPlayerDisconnect("", []rpcvalue.Value{rpcvalue.String("login1"), rpcvalue.String("normal")})
	assert.Equal(t, 0, tr.GetPlayerCount())

	info, ok := tr.GetPlayerByLogin("login1")
	require.True(t, ok)
	assert.Equal(t, "Nicky", info.NickName)
}

func TestPlayerChatResolvesNicknameAndCapsLength(t *testing.T) {
	tr := newTestTracker(t)

	infoStruct := rpcvalue.Struct([]rpcvalue.Member{
		{Name: "Login", Value: rpcvalue.String("login1")},
		{Name: "NickName", Value: rpcvalue.String("Nicky")},
	})
	tr.onPlayerInfoChanged("", []rpcvalue.Value{infoStruct})

	chatArgs := func(msg string) []rpcvalue.Value {
		return []rpcvalue.Value{rpcvalue.Int(1), rpcvalue.String("login1"), rpcvalue.String(msg), rpcvalue.Bool(false)}
	}

	for i := 0; i < 5; i++ {
		tr.onPlayerChat("", chatArgs("hello"))
	}

	chat := tr.GetChat()
	assert.Len(t, chat, 3)
	for _, line := range chat {
		assert.Equal(t, "Nicky", line.Nickname)
		assert.Equal(t, "hello", line.Message)
	}
}

func TestPlayerChatUnknownLoginFallsBackToLogin(t *testing.T) {
	tr := newTestTracker(t)
	tr.onPlayerChat("", []rpcvalue.Value{rpcvalue.Int(1), rpcvalue.String("mystery"), rpcvalue.String("hi"), rpcvalue.Bool(false)})

	chat := tr.GetChat()
	require.Len(t, chat, 1)
	assert.Equal(t, "mystery", chat[0].Nickname)
}

func TestBeginMatchSetsMatchStart(t *testing.T) {
	tr := newTestTracker(t)
	assert.Zero(t, tr.GetMatchStart())
	tr.onBeginMatch("", nil)
	assert.NotZero(t, tr.GetMatchStart())
}

func TestGetPlayersSnapshotDoesNotAliasInternalState(t *testing.T) {
	tr := newTestTracker(t)
	tr.onPlayerConnect("", []rpcvalue.Value{rpcvalue.String("login1"), rpcvalue.Bool(false)})

	snapshot := tr.GetPlayers()
	snapshot[0].NickName = "mutated"

	again := tr.GetPlayers()
	assert.Empty(t, again[0].NickName)
}
