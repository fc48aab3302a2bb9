package raumfeld

import (
	"context"
	"time"
)

const (
	defaultActionTimeout    = 15 * time.Second
	defaultZonePollInterval = 100 * time.Millisecond
)

// zoneCreationWaiter polls the resolver after a zone-mutation request until
// the new topology is observed or the attempt budget is exhausted. The host
// applies mutations asynchronously, so returning is best effort, not proof
// of success; callers re-check the topology.
type zoneCreationWaiter struct {
	resolver *Resolver
	// ActionTimeout bounds the total wait; PollInterval is the fixed
	// delay between resolver checks.
	ActionTimeout time.Duration
	PollInterval  time.Duration
}

func newZoneCreationWaiter(resolver *Resolver) *zoneCreationWaiter {
	return &zoneCreationWaiter{
		resolver:      resolver,
		ActionTimeout: defaultActionTimeout,
		PollInterval:  defaultZonePollInterval,
	}
}

// wait blocks until a zone matching roomNames exists, differs from
// oldZoneUDN and resolves to a device location, or until the attempt
// budget is spent or ctx is cancelled.
func (w *zoneCreationWaiter) wait(ctx context.Context, oldZoneUDN string, roomNames []string) {
	maxAttempts := int((w.ActionTimeout + w.PollInterval - 1) / w.PollInterval)
	for i := 0; i < maxAttempts; i++ {
		if w.settled(oldZoneUDN, roomNames) {
			return
		}
		if !sleepCtx(ctx, w.PollInterval) {
			return
		}
	}
}

func (w *zoneCreationWaiter) settled(oldZoneUDN string, roomNames []string) bool {
	newZoneUDN, ok, err := w.resolver.RoomsToZoneUDN(roomNames)
	if err != nil || !ok {
		// Room names can momentarily vanish from the index while the
		// zone config is being rebuilt; keep polling.
		return false
	}
	if newZoneUDN == oldZoneUDN {
		return false
	}
	_, ok = w.resolver.DeviceLocation(newZoneUDN)
	return ok
}
