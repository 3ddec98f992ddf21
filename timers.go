package main

import (
	"sync"
	"time"
)

// countdown ticks down once per interval, reporting the remaining count after
// each tick, and fires expire exactly once when it reaches zero. cancel is
// idempotent and safe to call from the tick or expire callbacks.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func newCountdown(units int, interval time.Duration, tick func(remaining int), expire func()) *countdown {
	c := &countdown{
		stop: make(chan struct{}),
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		remaining := units
		for {
			select {
			case <-t.C:
				remaining--
				if tick != nil {
					tick(remaining)
				}
				if remaining <= 0 {
					c.cancel()
					expire()
					return
				}
			case <-c.stop:
				return
			}
		}
	}()

	return c
}

func (c *countdown) cancel() {
	c.once.Do(func() {
		close(c.stop)
	})
}
