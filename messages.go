package main

// Messages coming from clients
type ClientMessage struct {
	Type     string   `json:"type"`               // "join", "submit-answer"
	Name     string   `json:"name,omitempty"`     // join: display name
	RoomID   string   `json:"roomId,omitempty"`   // join: requested room code, optional
	Subjects []string `json:"subjects,omitempty"` // join: requested subject filter, optional
	Answer   string   `json:"answer,omitempty"`   // submit-answer: chosen option
}

// PlayerInfo is the public view of a seated player.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Sent to a single client on a successful join.
type RoomJoinedMessage struct {
	Type              string       `json:"type"` // "room-joined"
	RoomID            string       `json:"roomId"`
	Role              string       `json:"role"`
	Subjects          []string     `json:"subjects"`
	AvailableSubjects []string     `json:"availableSubjects"`
	Players           []PlayerInfo `json:"players"`
}

// Sent to a single client when a join or an answer is rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// Broadcast whenever room membership changes.
type PlayersUpdateMessage struct {
	Type     string       `json:"type"` // "players-update"
	Players  []PlayerInfo `json:"players"`
	Subjects []string     `json:"subjects"`
}

// Broadcast when the room fills, shortly before round 1.
type GameStartingMessage struct {
	Type     string       `json:"type"` // "game-starting"
	Players  []PlayerInfo `json:"players"`
	Subjects []string     `json:"subjects"`
}

// Broadcast at round dispatch.
type NewRoundMessage struct {
	Type               string         `json:"type"` // "new-round"
	Round              int            `json:"round"`
	RoundWins          map[string]int `json:"roundWins"`
	QuestionImage      string         `json:"questionImage"`
	Options            []string       `json:"options"`
	RoundTimeRemaining int            `json:"roundTimeRemaining"`
}

// Broadcast once per countdown tick.
type TimerUpdateMessage struct {
	Type             string `json:"type"` // "match-timer-update" or "round-timer-update"
	SecondsRemaining int    `json:"secondsRemaining"`
}

// Sent to the submitter only, immediately after an accepted answer.
type AnswerResultMessage struct {
	Type    string `json:"type"` // "answer-result"
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// Broadcast when a wrong answer locks a player out of the round.
type PlayerLockedMessage struct {
	Type       string `json:"type"` // "player-locked"
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Role       string `json:"role"`
}

// Broadcast on any accepted answer; does not reveal correctness.
type PlayerAnsweredMessage struct {
	Type       string `json:"type"` // "player-answered"
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Role       string `json:"role"`
}

// PlayerResult is one player's outcome for a single round.
type PlayerResult struct {
	Name      string `json:"name"`
	Answer    string `json:"answer"`
	IsCorrect bool   `json:"isCorrect"`
	Role      string `json:"role"`
}

// Broadcast at round evaluation.
type RoundUpdateMessage struct {
	Type          string                  `json:"type"` // "round-update"
	Round         int                     `json:"round"`
	PlayerResults map[string]PlayerResult `json:"playerResults"`
	Scores        map[string]int          `json:"scores"`
	RoundWins     map[string]int          `json:"roundWins"`
	TimeExpired   bool                    `json:"timeExpired"`
	RoundWinner   string                  `json:"roundWinner,omitempty"`
}

// Broadcast when a player disconnects.
type PlayerLeftMessage struct {
	Type       string       `json:"type"` // "player-left"
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Role       string       `json:"role"`
	Players    []PlayerInfo `json:"players"`
}

// HistoryEntry records one resolved round for post-match review.
type HistoryEntry struct {
	Round         int                     `json:"round"`
	QuestionImage string                  `json:"questionImage"`
	Options       []string                `json:"options"`
	CorrectAnswer string                  `json:"correctAnswer"`
	Answers       map[string]PlayerResult `json:"answers"`
}

// Broadcast at match end. Winner is nil on a tie.
type GameOverMessage struct {
	Type            string         `json:"type"` // "game-over"
	Winner          *string        `json:"winner"`
	RoundWins       map[string]int `json:"roundWins"`
	Player1Name     string         `json:"player1Name"`
	Player2Name     string         `json:"player2Name"`
	TimeExpired     bool           `json:"timeExpired"`
	QuestionHistory []HistoryEntry `json:"questionHistory"`
}
