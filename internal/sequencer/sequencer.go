// Package sequencer serializes contract operations so that every operation
// observes the state left by the previous one.
package sequencer

import (
	"context"
	"errors"
	"time"
)

var ErrSequencerBusy = errors.New("sequencer_busy")

// Sequencer runs fn while holding the global execution slot.
// Nested calls made with the context passed to fn run immediately.
type Sequencer interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// WaitObserver receives the time each call spent waiting for the slot.
type WaitObserver interface {
	ObserveSequencerWait(wait time.Duration)
}

type heldKey struct{}

// Held reports whether ctx already runs inside the sequencer.
func Held(ctx context.Context) bool {
	held, _ := ctx.Value(heldKey{}).(bool)
	return held
}

func withHeld(ctx context.Context) context.Context {
	return context.WithValue(ctx, heldKey{}, true)
}
