package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testConfig keeps every delay far beyond test duration so lifecycle steps
// only happen when a test drives them explicitly.
func testConfig() *Config {
	return &Config{
		matchTime:    14 * time.Minute,
		roundTime:    2 * time.Minute,
		maxRounds:    4,
		winThreshold: 3,
		minQuestions: 7,
		startDelay:   time.Hour,
		roundDelay:   time.Hour,
		disposeGrace: time.Hour,
	}
}

func testBank(t *testing.T) *QuestionBank {
	t.Helper()
	bank, err := newQuestionBank(&Config{})
	require.NoError(t, err)
	return bank
}

// testClient is a seat without a websocket; the room only ever touches the
// send channel and the id.
func testClient() *Client {
	return &Client{
		id:   uuid.NewString(),
		send: make(chan any, 64),
	}
}

// drain empties a client's queued messages without blocking.
func drain(c *Client) []any {
	out := []any{}
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func msgsOfType[T any](msgs []any) []T {
	out := []T{}
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// requireMsg asserts at least one message of type T was queued and returns
// the last one.
func requireMsg[T any](t *testing.T, msgs []any) T {
	t.Helper()
	vals := msgsOfType[T](msgs)
	require.NotEmpty(t, vals, "expected a %T message", *new(T))
	return vals[len(vals)-1]
}

// newTestMatch seats two players in a fresh room, leaving it in Starting.
func newTestMatch(t *testing.T) (*Registry, *Room, *Client, *Client) {
	t.Helper()

	cfg := testConfig()
	reg := newRegistry(cfg, testBank(t))

	room, err := reg.findOrCreateRoom("", nil)
	require.NoError(t, err)

	a, b := testClient(), testClient()
	room.join(a, "Alice")
	room.join(b, "Bob")

	return reg, room, a, b
}

// startTestMatch skips the start delay and dispatches round 1.
func startTestMatch(t *testing.T, room *Room) {
	t.Helper()

	room.mu.RLock()
	token := room.startToken
	room.mu.RUnlock()

	room.startMatch(token)

	room.mu.RLock()
	defer room.mu.RUnlock()
	require.Equal(t, roomInProgress, room.state)
	require.True(t, room.roundActive)
}

func correctAnswer(room *Room) string {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return room.currentQuestion.Answer
}

func wrongAnswer(room *Room) string {
	room.mu.RLock()
	defer room.mu.RUnlock()
	for _, option := range room.currentQuestion.Options {
		if option != room.currentQuestion.Answer {
			return option
		}
	}
	return "bogus"
}
