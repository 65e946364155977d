package usecase

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	defaultConflictRetries = 5
	conflictBackoff        = 2 * time.Millisecond
)

// retryConflict runs op again while it loses an optimistic write to another
// process, up to the shop's retry budget. op must re-read what it writes.
func (s *Shop) retryConflict(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if Code(err) != ErrorConflict || attempt >= s.conflictRetries {
			return err
		}
		delay := conflictBackoff*time.Duration(attempt+1) + rand.N(conflictBackoff)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}
