package sequencer

import (
	"context"
	"time"
)

type localSequencer struct {
	slot     chan struct{}
	observer WaitObserver
}

// NewLocal returns an in-process sequencer.
func NewLocal(observer WaitObserver) Sequencer {
	return &localSequencer{
		slot:     make(chan struct{}, 1),
		observer: observer,
	}
}

func (s *localSequencer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if Held(ctx) {
		return fn(ctx)
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn(withHeld(ctx))
}

func (s *localSequencer) acquire(ctx context.Context) error {
	start := time.Now()
	select {
	case s.slot <- struct{}{}:
		if s.observer != nil {
			s.observer.ObserveSequencerWait(time.Since(start))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *localSequencer) release() {
	<-s.slot
}
