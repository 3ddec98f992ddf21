/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"log"
	"time"
)

// Matchmaking and gameplay rejections. These are delivered to the offending
// connection as an "error" message and never leave a room in a partial state.
var (
	errRoomNotFound          = errors.New("Room not found")
	errRoomFull              = errors.New("Room is full")
	errGameInProgress        = errors.New("Game already in progress")
	errInsufficientQuestions = errors.New("Not enough questions available for this room")
	errPoolExhausted         = errors.New("No questions available")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}
