package state

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/snixtho/clifga/gbxremote"
	"github.com/snixtho/clifga/rpcvalue"
)

const defaultMaxChatLines = 50

// Tracker subscribes to the dedicated server's state-changing callbacks
// and maintains a live, lock-protected projection of the roster, a
// nickname cache, recent chat, and match timing. Each field family has its
// own lock rather than one global lock, so a slow chat reader never blocks
// a roster update.
type Tracker struct {
	remote *gbxremote.Remote
	logger *log.Logger

	maxChatLines int

	rosterMu  sync.Mutex
	players   []string
	playerSet map[string]struct{}

	cacheMu   sync.RWMutex
	nicknames map[string]PlayerInfo

	chatMu sync.Mutex
	chat   []ChatMessage

	matchMu    sync.Mutex
	matchStart int64
}

// New builds a Tracker and registers its callbacks with remote. It does
// not page the initial roster; call Initialize for that.
func New(remote *gbxremote.Remote, maxChatLines int, logger *log.Logger) *Tracker {
	if maxChatLines <= 0 {
		maxChatLines = defaultMaxChatLines
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	t := &Tracker{
		remote:       remote,
		logger:       logger,
		maxChatLines: maxChatLines,
		playerSet:    make(map[string]struct{}),
		nicknames:    make(map[string]PlayerInfo),
	}

	remote.RegisterCallback("ManiaPlanet.PlayerChat", t.onPlayerChat, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.PlayerConnect", t.onPlayerConnect, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.PlayerDisconnect", t.onPlayerDisconnect, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.PlayerInfoChanged", t.onPlayerInfoChanged, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.BeginMatch", t.onBeginMatch, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.EndMatch", t.onEndMatch, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.BeginMap", t.onBeginMap, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.EndMap", t.onEndMap, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.StatusChanged", t.onStatusChanged, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.PlayerCheckpoint", t.onPlayerCheckpoint, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.PlayerFinish", t.onPlayerFinish, gbxremote.Inline)
	remote.RegisterCallback("ManiaPlanet.MapListModified", t.onMapListModified, gbxremote.Inline)

	return t
}

// Initialize pages the full roster via GetPlayerList(50, index, 0), with
// index advancing by 51 per page until the server returns an empty page
// or a fault. The off-by-one stride matches the dedicated server's own
// pagination quirk; see the project's design notes.
func (t *Tracker) Initialize() error {
	var index int32
	for {
		result, err := t.remote.Call("GetPlayerList", rpcvalue.Int(50), rpcvalue.Int(index), rpcvalue.Int(0))
		if err != nil {
			return err
		}
		if f, ok := result.AsFault(); ok {
			return f
		}

		arr, ok := result.Array()
		if !ok || len(arr) == 0 {
			return nil
		}

		for _, elem := range arr {
			var info PlayerInfo
			if err := mapstructure.Decode(elem.GoValue(), &info); err != nil {
				t.logger.Printf("[WARN] state: could not decode player-list entry: %v", err)
				continue
			}
			t.upsertPlayer(info)
		}

		index += 51
	}
}

func (t *Tracker) upsertPlayer(info PlayerInfo) {
	t.cacheMu.Lock()
	t.nicknames[info.Login] = info
	t.cacheMu.Unlock()

	t.rosterMu.Lock()
	if _, ok := t.playerSet[info.Login]; !ok {
		t.players = append(t.players, info.Login)
		t.playerSet[info.Login] = struct{}{}
	}
	t.rosterMu.Unlock()
}

func (t *Tracker) onPlayerConnect(_ string, args []rpcvalue.Value) {
	if len(args) < 1 {
		return
	}
	login, ok := args[0].String()
	if !ok {
		return
	}

	t.rosterMu.Lock()
	if _, exists := t.playerSet[login]; !exists {
		t.players = append(t.players, login)
		t.playerSet[login] = struct{}{}
	}
	t.rosterMu.Unlock()
}

// onPlayerDisconnect removes login from the roster but retains its
// nickname-cache entry so recent disconnects still resolve to a name in
// chat history.
func (t *Tracker) onPlayerDisconnect(_ string, args []rpcvalue.Value) {
	if len(args) < 1 {
		return
	}
	login, ok := args[0].String()
	if !ok {
		return
	}

	t.rosterMu.Lock()
	if _, exists := t.playerSet[login]; exists {
		delete(t.playerSet, login)
		for i, l := range t.players {
			if l == login {
				t.players = append(t.players[:i], t.players[i+1:]...)
				break
			}
		}
	}
	t.rosterMu.Unlock()
}

func (t *Tracker) onPlayerInfoChanged(_ string, args []rpcvalue.Value) {
	if len(args) < 1 {
		return
	}
	var info PlayerInfo
	if err := mapstructure.Decode(args[0].GoValue(), &info); err != nil {
		t.logger.Printf("[WARN] state: could not decode PlayerInfoChanged payload: %v", err)
		return
	}
	t.upsertPlayer(info)
}

func (t *Tracker) onPlayerChat(_ string, args []rpcvalue.Value) {
	if len(args) < 3 {
		return
	}
	login, _ := args[1].String()
	text, _ := args[2].String()

	t.chatMu.Lock()
	t.chat = append(t.chat, ChatMessage{Login: login, Nickname: t.nicknameFor(login), Message: text})
	if len(t.chat) > t.maxChatLines {
		t.chat = t.chat[len(t.chat)-t.maxChatLines:]
	}
	t.chatMu.Unlock()
}

func (t *Tracker) nicknameFor(login string) string {
	t.cacheMu.RLock()
	defer t.cacheMu.RUnlock()
	if info, ok := t.nicknames[login]; ok && info.NickName != "" {
		return info.NickName
	}
	return login
}

func (t *Tracker) onBeginMatch(_ string, _ []rpcvalue.Value) {
	t.matchMu.Lock()
	t.matchStart = time.Now().Unix()
	t.matchMu.Unlock()
}

func (t *Tracker) onEndMatch(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onBeginMap(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onEndMap(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onStatusChanged(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onPlayerCheckpoint(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onPlayerFinish(_ string, _ []rpcvalue.Value) {}

func (t *Tracker) onMapListModified(_ string, _ []rpcvalue.Value) {}

// GetPlayers returns a snapshot of the roster in connect order, each entry
// resolved against the nickname cache (or a bare Login-only record if the
// cache has no entry yet).
func (t *Tracker) GetPlayers() []PlayerInfo {
	t.rosterMu.Lock()
	logins := append([]string(nil), t.players...)
	t.rosterMu.Unlock()

	out := make([]PlayerInfo, len(logins))
	t.cacheMu.RLock()
	for i, login := range logins {
		if info, ok := t.nicknames[login]; ok {
			out[i] = info
		} else {
			out[i] = PlayerInfo{Login: login}
		}
	}
	t.cacheMu.RUnlock()
	return out
}

// GetPlayerByLogin returns the cached player info for login, if any.
func (t *Tracker) GetPlayerByLogin(login string) (PlayerInfo, bool) {
	t.cacheMu.RLock()
	defer t.cacheMu.RUnlock()
	info, ok := t.nicknames[login]
	return info, ok
}

// GetChat returns a snapshot copy of the retained chat lines.
func (t *Tracker) GetChat() []ChatMessage {
	t.chatMu.Lock()
	defer t.chatMu.Unlock()
	out := make([]ChatMessage, len(t.chat))
	copy(out, t.chat)
	return out
}

// GetMatchStart returns the unix-epoch second the current match began, or
// zero if no BeginMatch callback has been observed yet.
func (t *Tracker) GetMatchStart() int64 {
	t.matchMu.Lock()
	defer t.matchMu.Unlock()
	return t.matchStart
}

// GetPlayerCount returns the current roster size.
func (t *Tracker) GetPlayerCount() int {
	t.rosterMu.Lock()
	defer t.rosterMu.Unlock()
	return len(t.players)
}
