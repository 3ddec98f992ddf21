package main

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

const maxPlayersPerRoom = 2

const (
	rolePlayer1 = "player1"
	rolePlayer2 = "player2"
)

type roomState int

const (
	roomWaiting    roomState = iota // 0-1 players seated
	roomStarting                    // room filled, start delay running
	roomInProgress                  // match timer running, rounds cycling
	roomFinished                    // terminal, scheduled for disposal
)

// Player holds the data we store server-side for one seat.
type Player struct {
	ID   string
	Name string
	Role string

	client *Client
}

// Room is one isolated two-player match. Every mutation happens under mu, so
// join, answer, timer, and evaluation handlers are serialized per room while
// different rooms proceed independently.
type Room struct {
	id   string
	cfg  *Config
	bank *QuestionBank
	reg  *Registry

	mu      sync.RWMutex
	state   roomState
	clients map[*Client]bool
	players []*Player

	subjects     []string
	currentRound int
	roundActive  bool
	startToken   int

	scores    map[string]int // per-round, reset at every evaluation
	roundWins map[string]int

	currentQuestion Question
	usedQuestions   map[string]bool
	lockedPlayers   map[string]bool
	playerAnswers   map[string]string
	history         []HistoryEntry

	matchTimer *countdown
	roundTimer *countdown

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(id string, cfg *Config, bank *QuestionBank, reg *Registry, subjects []string) *Room {
	now := time.Now()
	return &Room{
		id:            id,
		cfg:           cfg,
		bank:          bank,
		reg:           reg,
		clients:       make(map[*Client]bool),
		subjects:      bank.resolveSubjects(subjects, cfg.minQuestions),
		scores:        map[string]int{rolePlayer1: 0, rolePlayer2: 0},
		roundWins:     map[string]int{rolePlayer1: 0, rolePlayer2: 0},
		usedQuestions: make(map[string]bool),
		lockedPlayers: make(map[string]bool),
		playerAnswers: make(map[string]string),
		createdAt:     now,
		lastActive:    now,
	}
}

// Registry-side peeks.

func (r *Room) started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state >= roomInProgress
}

func (r *Room) full() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) >= maxPlayersPerRoom || r.state == roomStarting
}

func (r *Room) waitingForOpponent() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == roomWaiting && len(r.players) == 1
}

func (r *Room) idleSince(cutoff time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == roomWaiting && r.lastActive.Before(cutoff)
}

func (r *Room) subjectFilter() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subjects
}

// join seats a client. The capacity and state checks repeat under the room
// lock because matchmaking resolved the room without holding it.
func (r *Room) join(c *Client, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if r.state != roomWaiting {
		c.trySend(ErrorMessage{Type: "error", Message: errGameInProgress.Error()})
		return
	}
	if len(r.players) >= maxPlayersPerRoom {
		c.trySend(ErrorMessage{Type: "error", Message: errRoomFull.Error()})
		return
	}
	if r.bank.count(r.subjects) < r.cfg.maxRounds {
		c.trySend(ErrorMessage{Type: "error", Message: errInsufficientQuestions.Error()})
		return
	}

	player := &Player{
		ID:     c.id,
		Name:   name,
		Role:   r.freeRoleLocked(),
		client: c,
	}
	r.players = append(r.players, player)
	r.clients[c] = true
	c.bind(r)

	logf(r.cfg, "GAMES: Player %q joined %s as %s", name, r.id, player.Role)

	r.sendLocked(c, RoomJoinedMessage{
		Type:              "room-joined",
		RoomID:            r.id,
		Role:              player.Role,
		Subjects:          r.subjects,
		AvailableSubjects: r.bank.availableSubjects(r.cfg.minQuestions),
		Players:           r.playerInfosLocked(),
	})
	r.broadcastLocked(PlayersUpdateMessage{
		Type:     "players-update",
		Players:  r.playerInfosLocked(),
		Subjects: r.subjects,
	})

	if len(r.players) == maxPlayersPerRoom {
		r.state = roomStarting
		r.startToken++
		token := r.startToken
		r.broadcastLocked(GameStartingMessage{
			Type:     "game-starting",
			Players:  r.playerInfosLocked(),
			Subjects: r.subjects,
		})
		time.AfterFunc(r.cfg.startDelay, func() {
			r.startMatch(token)
		})
	}
}

// freeRoleLocked hands out player1 to the first joiner; a later joiner takes
// whichever role is left unoccupied.
func (r *Room) freeRoleLocked() string {
	taken := lo.SomeBy(r.players, func(p *Player) bool {
		return p.Role == rolePlayer1
	})
	if taken {
		return rolePlayer2
	}
	return rolePlayer1
}

// startMatch fires after the start delay. A disconnect during the delay has
// already moved the room back to Waiting, in which case this is a no-op; the
// token rules out a stale timer from a fill that was since undone.
func (r *Room) startMatch(token int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != roomStarting || token != r.startToken {
		return
	}

	// The question pool is re-checked here: the guard at join time can go
	// stale if the operator swaps banks between deploys.
	if r.bank.count(r.subjects) < r.cfg.maxRounds {
		if len(r.players) == maxPlayersPerRoom {
			// The error must go out while the client is still seated;
			// unseating it first would drop the message.
			evicted := r.players[maxPlayersPerRoom-1]
			r.sendLocked(evicted.client, ErrorMessage{Type: "error", Message: errInsufficientQuestions.Error()})
			r.removePlayerLocked(evicted)
			r.broadcastLocked(PlayersUpdateMessage{
				Type:     "players-update",
				Players:  r.playerInfosLocked(),
				Subjects: r.subjects,
			})
		}
		r.state = roomWaiting
		return
	}

	r.state = roomInProgress

	matchSeconds := int(r.cfg.matchTime / time.Second)
	r.matchTimer = newCountdown(matchSeconds, time.Second, r.matchTick, r.matchExpired)

	logf(r.cfg, "GAMES: Match started in %s", r.id)

	r.startRoundLocked()
}

func (r *Room) matchTick(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != roomInProgress {
		return
	}
	r.broadcastLocked(TimerUpdateMessage{Type: "match-timer-update", SecondsRemaining: remaining})
}

// matchExpired forces evaluation of any in-flight round, then ends the match
// flagged as time-expired.
func (r *Room) matchExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != roomInProgress {
		return
	}

	r.evaluateRoundLocked(true)
	r.endGameLocked(true, "")
}

// leave handles a disconnect. Before the match starts the room simply keeps
// waiting; mid-match it is a forfeit and the remaining player wins.
func (r *Room) leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if r.clients[c] {
		delete(r.clients, c)
		close(c.send)
	}

	player := r.playerForLocked(c)
	if player == nil {
		return
	}
	r.removePlayerLocked(player)

	logf(r.cfg, "GAMES: Player %q left %s", player.Name, r.id)

	r.broadcastLocked(PlayerLeftMessage{
		Type:       "player-left",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Role:       player.Role,
		Players:    r.playerInfosLocked(),
	})

	switch r.state {
	case roomStarting:
		r.state = roomWaiting
	case roomInProgress:
		winner := ""
		if len(r.players) == 1 {
			winner = r.players[0].Role
		}
		r.endGameLocked(false, winner)
	}
}

func (r *Room) playerForLocked(c *Client) *Player {
	for _, p := range r.players {
		if p.client == c {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayerLocked(player *Player) {
	r.players = lo.Filter(r.players, func(p *Player, _ int) bool {
		return p != player
	})
	if player.client != nil {
		delete(r.clients, player.client)
		player.client.bind(nil)
	}
}

func (r *Room) playerInfosLocked() []PlayerInfo {
	return lo.Map(r.players, func(p *Player, _ int) PlayerInfo {
		return PlayerInfo{ID: p.ID, Name: p.Name, Role: p.Role}
	})
}

func (r *Room) playerNameLocked(role, fallback string) string {
	for _, p := range r.players {
		if p.Role == role {
			return p.Name
		}
	}
	return fallback
}

// sendLocked queues msg for one seated client, dropping the client outright
// if its buffer is full.
func (r *Room) sendLocked(c *Client, msg any) {
	if c == nil || !r.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *Room) broadcastLocked(msg any) {
	for c := range r.clients {
		r.sendLocked(c, msg)
	}
}

// close disconnects everyone and cancels all timers (used by the registry).
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.matchTimer != nil {
		r.matchTimer.cancel()
		r.matchTimer = nil
	}
	if r.roundTimer != nil {
		r.roundTimer.cancel()
		r.roundTimer = nil
	}
	r.roundActive = false
	r.state = roomFinished

	for c := range r.clients {
		delete(r.clients, c)
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}
