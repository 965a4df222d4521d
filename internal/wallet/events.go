package wallet

import (
	"context"
	"time"
)

// ChangeEvent reports that the provider's active network moved.
type ChangeEvent struct {
	PreviousKey string
	CurrentKey  string
}

// WatchChainChanges polls the provider and emits an event whenever the
// active chain key changes. The returned stop function cancels the
// watcher and closes the channel; callers own the subscription lifetime
// and must stop it when their attempt ends.
func WatchChainChanges(provider Provider, interval time.Duration) (<-chan ChangeEvent, func()) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	events := make(chan ChangeEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer close(events)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last, _ := provider.ActiveChainKey(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			current, err := provider.ActiveChainKey(ctx)
			if err != nil {
				continue
			}
			if current == last {
				continue
			}
			event := ChangeEvent{PreviousKey: last, CurrentKey: current}
			last = current
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, cancel
}
