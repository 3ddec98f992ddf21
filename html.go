/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head><style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("User-agent: *\nDisallow: /\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(indexHTML))
	}
}

// Simple HTML client for quick testing
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Quiz Duel</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem; max-width: 40rem; }
  h1 { margin-bottom: 0.5rem; }
  #status { margin-bottom: 1rem; font-size: 0.9rem; }
  #question img { max-width: 100%; }
  #options button { font-size: 1.2rem; margin: 0.25rem; padding: 0.5rem 1.5rem; }
  #timers { font-variant-numeric: tabular-nums; color: #555; }
  #log { margin-top: 1rem; padding: 0; list-style: none; font-size: 0.9rem; }
  #log li { padding: 0.15rem 0; border-bottom: 1px solid #eee; }
</style>
</head>
<body>
<h1>Quiz Duel</h1>
<div id="status">Connecting&hellip;</div>
<div id="join">
  <input id="name" placeholder="Your name">
  <input id="room" placeholder="Room code (optional)">
  <span id="subjects"></span>
  <button id="go">Join</button>
</div>
<div id="timers"></div>
<div id="question"></div>
<div id="options"></div>
<ul id="log"></ul>

<script>
(function() {
  const el = id => document.getElementById(id);
  const log = text => {
    const li = document.createElement('li');
    li.textContent = text;
    el('log').prepend(li);
  };

  let matchLeft = 0, roundLeft = 0;
  const drawTimers = () => {
    el('timers').textContent = 'Match ' + matchLeft + 's | Round ' + roundLeft + 's';
  };

  fetch('subjects').then(r => r.json()).then(subjects => {
    subjects.forEach(s => {
      const label = document.createElement('label');
      const box = document.createElement('input');
      box.type = 'checkbox';
      box.value = s;
      box.className = 'subject';
      label.appendChild(box);
      label.appendChild(document.createTextNode(s));
      el('subjects').appendChild(label);
    });
  });

  const proto = (location.protocol === 'https:') ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + location.pathname.replace(/\/$/, '') + '/ws');

  ws.onopen = function() {
    el('status').textContent = 'Connected.';
    el('room').value = new URLSearchParams(location.search).get('room') || '';
  };

  el('go').onclick = function() {
    const subjects = Array.from(document.querySelectorAll('.subject:checked')).map(b => b.value);
    ws.send(JSON.stringify({
      type: 'join',
      name: el('name').value,
      roomId: el('room').value,
      subjects: subjects
    }));
  };

  ws.onmessage = function(event) {
    const msg = JSON.parse(event.data);

    switch (msg.type) {
    case 'room-joined':
      el('join').style.display = 'none';
      el('status').textContent = 'Room ' + msg.roomId + ' as ' + msg.role + ' (' + msg.subjects.join(', ') + ')';
      break;
    case 'error':
      log('Error: ' + msg.message);
      break;
    case 'players-update':
      log('Players: ' + msg.players.map(p => p.name).join(', '));
      break;
    case 'game-starting':
      log('Game starting...');
      break;
    case 'new-round':
      el('question').innerHTML = '<h2>Round ' + msg.round + '</h2><img src="' + msg.questionImage + '">';
      el('options').innerHTML = '';
      roundLeft = msg.roundTimeRemaining;
      drawTimers();
      msg.options.forEach(opt => {
        const b = document.createElement('button');
        b.textContent = opt;
        b.onclick = () => ws.send(JSON.stringify({ type: 'submit-answer', answer: opt }));
        el('options').appendChild(b);
      });
      break;
    case 'match-timer-update':
      matchLeft = msg.secondsRemaining;
      drawTimers();
      break;
    case 'round-timer-update':
      roundLeft = msg.secondsRemaining;
      drawTimers();
      break;
    case 'answer-result':
      log(msg.message);
      break;
    case 'player-locked':
      log(msg.playerName + ' is locked out this round.');
      break;
    case 'player-answered':
      log(msg.playerName + ' answered.');
      break;
    case 'round-update':
      log('Round ' + msg.round + ': ' + (msg.roundWinner ? msg.roundWinner + ' wins the round' : 'no round winner') +
        (msg.timeExpired ? ' (time expired)' : ''));
      break;
    case 'player-left':
      log(msg.playerName + ' left.');
      break;
    case 'game-over':
      el('question').innerHTML = '';
      el('options').innerHTML = '';
      log('Game over: ' + (msg.winner ? msg.winner + ' wins' : 'tie') +
        ' (' + msg.player1Name + ' ' + msg.roundWins.player1 + ' - ' + msg.roundWins.player2 + ' ' + msg.player2Name + ')');
      break;
    }
  };

  ws.onclose = function() {
    el('status').textContent = 'Disconnected.';
  };
})();
</script>
</body>
</html>
`
