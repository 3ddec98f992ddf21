package main

import (
	"errors"
	"maps"
	"time"

	"github.com/samber/lo"
)

// startRoundLocked dispatches the next question and arms the round timer.
// Caller holds r.mu and has verified the match is in progress.
func (r *Room) startRoundLocked() {
	if r.state != roomInProgress {
		return
	}

	question, err := r.nextQuestionLocked()
	if err != nil {
		// Nothing left to ask; end the match rather than spin.
		r.endGameLocked(true, "")
		return
	}

	r.currentRound++
	r.roundActive = true
	r.currentQuestion = question
	r.lockedPlayers = make(map[string]bool)
	r.playerAnswers = make(map[string]string)

	roundSeconds := int(r.cfg.roundTime / time.Second)

	r.broadcastLocked(NewRoundMessage{
		Type:               "new-round",
		Round:              r.currentRound,
		RoundWins:          maps.Clone(r.roundWins),
		QuestionImage:      question.Image,
		Options:            question.Options,
		RoundTimeRemaining: roundSeconds,
	})

	if r.roundTimer != nil {
		r.roundTimer.cancel()
	}
	r.roundTimer = newCountdown(roundSeconds, time.Second, r.roundTick, r.roundExpired)

	logf(r.cfg, "GAMES: Round %d dispatched in %s", r.currentRound, r.id)
}

// nextQuestionLocked draws an unused question. The used-question set is a
// soft de-duplication aid: once the filtered pool is exhausted it is cleared
// and resampled, so a long match may repeat an earlier question.
func (r *Room) nextQuestionLocked() (Question, error) {
	question, err := r.bank.next(r.subjects, r.usedQuestions)
	if errors.Is(err, errPoolExhausted) && len(r.usedQuestions) > 0 {
		r.usedQuestions = make(map[string]bool)
		question, err = r.bank.next(r.subjects, r.usedQuestions)
	}
	if err != nil {
		return Question{}, err
	}

	r.usedQuestions[question.Image] = true
	return question, nil
}

func (r *Room) roundTick(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roundActive {
		return
	}
	r.broadcastLocked(TimerUpdateMessage{Type: "round-timer-update", SecondsRemaining: remaining})
}

// roundExpired is the deadline path into evaluation. The roundActive guard
// inside evaluateRoundLocked makes it a no-op when a last-moment answer has
// already resolved the round.
func (r *Room) roundExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.evaluateRoundLocked(true) {
		r.advanceLocked()
	}
}

// submit handles one player's answer for the current round.
func (r *Room) submit(c *Client, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	player := r.playerForLocked(c)
	if player == nil || !r.roundActive {
		return
	}

	if r.lockedPlayers[player.ID] {
		r.sendLocked(c, ErrorMessage{Type: "error", Message: "You are locked out for this round"})
		return
	}
	if _, answered := r.playerAnswers[player.ID]; answered {
		r.sendLocked(c, ErrorMessage{Type: "error", Message: "You have already answered this question"})
		return
	}

	r.playerAnswers[player.ID] = answer

	if answer == r.currentQuestion.Answer {
		r.sendLocked(c, AnswerResultMessage{Type: "answer-result", Correct: true, Message: "Correct answer!"})
	} else {
		r.lockedPlayers[player.ID] = true
		r.sendLocked(c, AnswerResultMessage{Type: "answer-result", Correct: false, Message: "Wrong answer!"})
		r.broadcastLocked(PlayerLockedMessage{
			Type:       "player-locked",
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Role:       player.Role,
		})
	}

	r.broadcastLocked(PlayerAnsweredMessage{
		Type:       "player-answered",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Role:       player.Role,
	})

	allResolved := lo.EveryBy(r.players, func(p *Player) bool {
		_, answered := r.playerAnswers[p.ID]
		return answered || r.lockedPlayers[p.ID]
	})
	if allResolved && r.evaluateRoundLocked(false) {
		r.advanceLocked()
	}
}

// evaluateRoundLocked is the single place a round resolves, reporting
// whether it did. Both triggers (all players resolved, deadline expiry) land
// here; the roundActive flag is checked and cleared under the room lock so
// the round evaluates exactly once, and only the trigger that won gets to
// schedule what follows.
func (r *Room) evaluateRoundLocked(timeExpired bool) bool {
	if !r.roundActive {
		return false
	}
	r.roundActive = false

	if r.roundTimer != nil {
		r.roundTimer.cancel()
		r.roundTimer = nil
	}

	results := make(map[string]PlayerResult, len(r.players))
	for _, p := range r.players {
		answer, answered := r.playerAnswers[p.ID]
		correct := answered && answer == r.currentQuestion.Answer
		if correct {
			r.scores[p.Role]++
		}
		if !answered {
			answer = "No answer"
		}
		results[p.ID] = PlayerResult{
			Name:      p.Name,
			Answer:    answer,
			IsCorrect: correct,
			Role:      p.Role,
		}
	}

	roundWinner := ""
	switch {
	case r.scores[rolePlayer1] > r.scores[rolePlayer2]:
		roundWinner = rolePlayer1
	case r.scores[rolePlayer2] > r.scores[rolePlayer1]:
		roundWinner = rolePlayer2
	}
	if roundWinner != "" {
		r.roundWins[roundWinner]++
	}

	r.history = append(r.history, HistoryEntry{
		Round:         r.currentRound,
		QuestionImage: r.currentQuestion.Image,
		Options:       r.currentQuestion.Options,
		CorrectAnswer: r.currentQuestion.Answer,
		Answers:       results,
	})

	r.broadcastLocked(RoundUpdateMessage{
		Type:          "round-update",
		Round:         r.currentRound,
		PlayerResults: results,
		Scores:        maps.Clone(r.scores),
		RoundWins:     maps.Clone(r.roundWins),
		TimeExpired:   timeExpired,
		RoundWinner:   roundWinner,
	})

	logf(r.cfg, "GAMES: Round %d resolved in %s (winner: %s)", r.currentRound, r.id, lo.Ternary(roundWinner != "", roundWinner, "none"))

	r.scores = map[string]int{rolePlayer1: 0, rolePlayer2: 0}

	return true
}

// advanceLocked decides what follows an evaluated round: game over on the
// round cap or the win threshold, otherwise the next round after a pacing
// delay so clients can render the result.
func (r *Room) advanceLocked() {
	if r.state != roomInProgress {
		return
	}

	if r.roundWins[rolePlayer1] >= r.cfg.winThreshold ||
		r.roundWins[rolePlayer2] >= r.cfg.winThreshold ||
		r.currentRound >= r.cfg.maxRounds {
		r.endGameLocked(false, "")
		return
	}

	time.AfterFunc(r.cfg.roundDelay, r.nextRound)
}

func (r *Room) nextRound() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != roomInProgress || r.roundActive {
		return
	}
	r.startRoundLocked()
}

// endGameLocked finishes the match exactly once, cancelling both timers
// regardless of which path got here. forfeitWinner, when set, overrides the
// round-win comparison (mid-match disconnect).
func (r *Room) endGameLocked(timeExpired bool, forfeitWinner string) {
	if r.state == roomFinished {
		return
	}

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

	winnerRole := forfeitWinner
	if winnerRole == "" {
		switch {
		case r.roundWins[rolePlayer1] > r.roundWins[rolePlayer2]:
			winnerRole = rolePlayer1
		case r.roundWins[rolePlayer2] > r.roundWins[rolePlayer1]:
			winnerRole = rolePlayer2
		}
	}

	var winner *string
	if winnerRole != "" {
		winner = &winnerRole
	}

	r.broadcastLocked(GameOverMessage{
		Type:            "game-over",
		Winner:          winner,
		RoundWins:       maps.Clone(r.roundWins),
		Player1Name:     r.playerNameLocked(rolePlayer1, "Player 1"),
		Player2Name:     r.playerNameLocked(rolePlayer2, "Player 2"),
		TimeExpired:     timeExpired,
		QuestionHistory: r.history,
	})

	logf(r.cfg, "GAMES: Match ended in %s (winner: %s, timeExpired: %t)", r.id, lo.Ternary(winnerRole != "", winnerRole, "none"), timeExpired)

	r.reg.scheduleDispose(r.id)
}
