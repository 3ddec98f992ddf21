package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundDispatch(t *testing.T) {
	_, room, a, b := newTestMatch(t)
	drain(a)
	drain(b)

	startTestMatch(t, room)

	dispatch := requireMsg[NewRoundMessage](t, drain(a))
	require.Equal(t, 1, dispatch.Round)
	require.NotEmpty(t, dispatch.QuestionImage)
	require.Equal(t, []string{"A", "B", "C", "D"}, dispatch.Options)
	require.Equal(t, 120, dispatch.RoundTimeRemaining)
	require.Equal(t, map[string]int{rolePlayer1: 0, rolePlayer2: 0}, dispatch.RoundWins)

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.True(t, room.usedQuestions[dispatch.QuestionImage])
}

func TestCorrectAnswerWinsRound(t *testing.T) {
	_, room, a, b := newTestMatch(t)
	startTestMatch(t, room)
	drain(a)
	drain(b)

	room.submit(a, correctAnswer(room))

	msgsA := drain(a)
	result := requireMsg[AnswerResultMessage](t, msgsA)
	require.True(t, result.Correct)

	// Correctness is acknowledged to the submitter only; the room just
	// learns that Alice answered.
	answered := requireMsg[PlayerAnsweredMessage](t, drain(b))
	require.Equal(t, "Alice", answered.PlayerName)

	room.submit(b, wrongAnswer(room))

	msgsB := drain(b)
	result = requireMsg[AnswerResultMessage](t, msgsB)
	require.False(t, result.Correct)

	locked := requireMsg[PlayerLockedMessage](t, msgsB)
	require.Equal(t, "Bob", locked.PlayerName)

	// Both players resolved, so the round evaluated without waiting for
	// the deadline.
	update := requireMsg[RoundUpdateMessage](t, msgsB)
	require.Equal(t, 1, update.Round)
	require.False(t, update.TimeExpired)
	require.Equal(t, rolePlayer1, update.RoundWinner)
	require.Equal(t, 1, update.RoundWins[rolePlayer1])
	require.Equal(t, 0, update.RoundWins[rolePlayer2])
	require.Equal(t, 1, update.Scores[rolePlayer1])
	require.Equal(t, 0, update.Scores[rolePlayer2])

	require.True(t, update.PlayerResults[a.id].IsCorrect)
	require.False(t, update.PlayerResults[b.id].IsCorrect)

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.False(t, room.roundActive)
	// Per-round scores reset for round 2.
	require.Equal(t, map[string]int{rolePlayer1: 0, rolePlayer2: 0}, room.scores)
	require.Len(t, room.history, 1)
}

func TestLockedPlayerCannotResubmit(t *testing.T) {
	_, room, a, _ := newTestMatch(t)
	startTestMatch(t, room)
	drain(a)

	room.submit(a, wrongAnswer(room))
	drain(a)

	room.submit(a, correctAnswer(room))

	rejection := requireMsg[ErrorMessage](t, drain(a))
	require.Contains(t, rejection.Message, "locked out")

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.True(t, room.roundActive, "round must stay open for the opponent")
	require.Len(t, room.playerAnswers, 1)
	require.Equal(t, map[string]int{rolePlayer1: 0, rolePlayer2: 0}, room.scores)
}

func TestSecondAnswerRejected(t *testing.T) {
	_, room, a, _ := newTestMatch(t)
	startTestMatch(t, room)

	answer := correctAnswer(room)
	room.submit(a, answer)
	drain(a)

	room.submit(a, wrongAnswer(room))

	rejection := requireMsg[ErrorMessage](t, drain(a))
	require.Contains(t, rejection.Message, "already answered")

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.Equal(t, answer, room.playerAnswers[a.id])
	require.False(t, room.lockedPlayers[a.id])
}

func TestDeadlineWithNoAnswers(t *testing.T) {
	_, room, a, b := newTestMatch(t)
	startTestMatch(t, room)
	drain(a)

	room.roundExpired()

	update := requireMsg[RoundUpdateMessage](t, drain(a))
	require.True(t, update.TimeExpired)
	require.Empty(t, update.RoundWinner)
	require.Equal(t, 0, update.RoundWins[rolePlayer1])
	require.Equal(t, 0, update.RoundWins[rolePlayer2])

	for _, id := range []string{a.id, b.id} {
		require.Equal(t, "No answer", update.PlayerResults[id].Answer)
		require.False(t, update.PlayerResults[id].IsCorrect)
	}
}

func TestEvaluationFiresExactlyOnce(t *testing.T) {
	_, room, a, b := newTestMatch(t)
	startTestMatch(t, room)

	answer := correctAnswer(room)
	room.submit(a, answer)
	room.submit(b, answer)
	drain(a)

	// The deadline arriving right after the last answer must not
	// evaluate the round a second time.
	room.roundExpired()
	room.roundExpired()

	msgs := drain(b)
	updates := msgsOfType[RoundUpdateMessage](msgs)
	require.Len(t, updates, 1)

	// Both correct is a tie: no round win for either side.
	require.Empty(t, updates[0].RoundWinner)
	require.Equal(t, 0, updates[0].RoundWins[rolePlayer1])
	require.Equal(t, 0, updates[0].RoundWins[rolePlayer2])
	require.Equal(t, 1, updates[0].Scores[rolePlayer1])
	require.Equal(t, 1, updates[0].Scores[rolePlayer2])
}

func TestMatchExpiryEvaluatesInFlightRound(t *testing.T) {
	_, room, a, b := newTestMatch(t)
	startTestMatch(t, room)
	drain(b)

	room.submit(a, correctAnswer(room))
	drain(a)

	room.matchExpired()

	msgs := drain(a)

	update := requireMsg[RoundUpdateMessage](t, msgs)
	require.True(t, update.TimeExpired)
	require.Equal(t, rolePlayer1, update.RoundWinner)

	over := requireMsg[GameOverMessage](t, msgs)
	require.True(t, over.TimeExpired)
	require.NotNil(t, over.Winner)
	require.Equal(t, rolePlayer1, *over.Winner)
	require.Equal(t, "Alice", over.Player1Name)
	require.Equal(t, "Bob", over.Player2Name)
	require.Len(t, over.QuestionHistory, 1)
}

// playRound drives one full round. The answer modes are "correct", "wrong",
// or "none", resolved against the question only once it has been dispatched.
func playRound(t *testing.T, room *Room, a, b *Client, modeA, modeB string) {
	t.Helper()

	room.mu.RLock()
	round := room.currentRound
	room.mu.RUnlock()
	if round == 0 {
		startTestMatch(t, room)
	} else {
		room.nextRound()
	}

	submit := func(c *Client, mode string) {
		switch mode {
		case "correct":
			room.submit(c, correctAnswer(room))
		case "wrong":
			room.submit(c, wrongAnswer(room))
		}
	}
	submit(a, modeA)
	submit(b, modeB)

	room.roundExpired()
}

func TestWinThresholdEndsMatchEarly(t *testing.T) {
	_, room, a, b := newTestMatch(t)

	for i := 0; i < 3; i++ {
		playRound(t, room, a, b, "correct", "wrong")
	}

	msgs := drain(a)
	over := requireMsg[GameOverMessage](t, msgs)
	require.NotNil(t, over.Winner)
	require.Equal(t, rolePlayer1, *over.Winner)
	require.False(t, over.TimeExpired)
	require.Equal(t, 3, over.RoundWins[rolePlayer1])
	require.Len(t, over.QuestionHistory, 3)

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.Equal(t, roomFinished, room.state)
	require.Equal(t, 3, room.currentRound, "match must stop at the threshold")
}

func TestRoundCapEndsMatchInTie(t *testing.T) {
	_, room, a, b := newTestMatch(t)

	for i := 0; i < 4; i++ {
		playRound(t, room, a, b, "none", "none")
	}

	over := requireMsg[GameOverMessage](t, drain(b))
	require.Nil(t, over.Winner)
	require.Equal(t, 0, over.RoundWins[rolePlayer1])
	require.Equal(t, 0, over.RoundWins[rolePlayer2])
	require.Len(t, over.QuestionHistory, 4)

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.Equal(t, roomFinished, room.state)
}

func TestRoundWinsNeverDecrease(t *testing.T) {
	_, room, a, b := newTestMatch(t)

	prevA, prevB := 0, 0
	rounds := [][2]string{
		{"correct", "wrong"},
		{"wrong", "correct"},
		{"wrong", "wrong"},
		{"correct", "correct"},
	}

	for i, modes := range rounds {
		playRound(t, room, a, b, modes[0], modes[1])

		room.mu.RLock()
		winsA, winsB := room.roundWins[rolePlayer1], room.roundWins[rolePlayer2]
		room.mu.RUnlock()

		require.GreaterOrEqual(t, winsA, prevA, "round %d", i+1)
		require.GreaterOrEqual(t, winsB, prevB, "round %d", i+1)
		require.LessOrEqual(t, (winsA-prevA)+(winsB-prevB), 1, "at most one side may gain a round win")
		prevA, prevB = winsA, winsB
	}

	require.Equal(t, 1, prevA)
	require.Equal(t, 1, prevB)
}

func TestAnswerAfterRoundEvaluationIgnored(t *testing.T) {
	_, room, a, _ := newTestMatch(t)
	startTestMatch(t, room)

	room.roundExpired()
	drain(a)

	room.submit(a, correctAnswer(room))

	require.Empty(t, msgsOfType[AnswerResultMessage](drain(a)))

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.Empty(t, room.playerAnswers)
}
