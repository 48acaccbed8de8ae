// Package channels provides small generic helpers for fanning values out to
// channel subscribers.
package channels

import (
	"errors"
	"time"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelFull   = errors.New("channel full")
)

// SendNonBlock attempts to send msg without blocking.
// Returns ErrChannelFull if no receiver is ready and the buffer is full,
// and ErrChannelClosed if the channel has been closed.
func SendNonBlock[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	select {
	case ch <- msg:
		return nil
	default:
		return ErrChannelFull
	}
}

// Collect receives from ch until it is closed, until no value arrives for
// idle, or until limit values were read (limit <= 0 means no limit).
func Collect[T any](ch <-chan T, idle time.Duration, limit int) []T {
	var out []T

	timer := time.NewTimer(idle)
	defer timer.Stop()

	for limit <= 0 || len(out) < limit {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
			timer.Reset(idle)
		case <-timer.C:
			return out
		}
	}

	return out
}
