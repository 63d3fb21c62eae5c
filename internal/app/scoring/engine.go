// Package scoring turns hotel back-office actions into XP, levels, badges,
// login streaks, ranks and weekly challenges.
package scoring

import (
	"github.com/hotelops/hotelscore/internal/domain"
)

// Engine bundles the scoring services over one DocumentStore.
type Engine struct {
	Updater       *Updater
	Challenges    *ChallengeService
	Dispatcher    *Dispatcher
	Notifications *StoreNotifier
}

// NewEngine wires every scoring service. extra sinks receive notifications
// alongside the store.
func NewEngine(store domain.DocumentStore, opts Options, extra ...domain.Notifier) *Engine {
	updater := NewUpdater(store, opts)
	challenges := NewChallengeService(store, nil, opts.Clock, opts.Logger)
	notes := NewStoreNotifier(store, opts.Clock)

	sinks := MultiNotifier{notes}
	for _, n := range extra {
		if n != nil {
			sinks = append(sinks, n)
		}
	}
	return &Engine{
		Updater:       updater,
		Challenges:    challenges,
		Dispatcher:    NewDispatcher(updater, challenges, sinks, opts.Logger),
		Notifications: notes,
	}
}
