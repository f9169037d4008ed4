// Package optimistic applies a local change before the server confirms it
// and restores the previous value when the server refuses.
package optimistic

import (
	"context"
	"fmt"
)

// Mutation describes one optimistic update of a value of type T.
type Mutation[T any] struct {
	// Get returns the current local value; it becomes the rollback snapshot.
	Get func() T
	// Set replaces the local value.
	Set func(T)
	// Commit asks the server to accept next.
	Commit func(ctx context.Context, next T) error
}

// Do snapshots the current value, applies next locally, then commits. On
// commit failure the snapshot is restored and the error returned.
func Do[T any](ctx context.Context, m Mutation[T], next T) error {
	if m.Get == nil || m.Set == nil || m.Commit == nil {
		return fmt.Errorf("optimistic: incomplete mutation")
	}
	snapshot := m.Get()
	m.Set(next)
	if err := m.Commit(ctx, next); err != nil {
		m.Set(snapshot)
		return err
	}
	return nil
}
