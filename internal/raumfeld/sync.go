package raumfeld

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"raumfeld-cli/internal/webservice"
)

const (
	defaultPreferredWait = 15 * time.Second
	defaultFailureDelay  = 2 * time.Second
)

// Synchronizer keeps the store in sync with the Raumfeld host. It runs one
// long-polling loop per resource; each loop applies updates in order,
// retries transport failures forever with a fixed backoff, and only stops
// when its context is cancelled.
type Synchronizer struct {
	// PreferredWait is the hold-time hint sent with every long poll.
	PreferredWait time.Duration
	// FailureDelay is slept before re-polling after a transport error.
	FailureDelay time.Duration

	store  *Store
	client *webservice.Client

	mu       sync.Mutex
	started  bool
	ready    [numResources]bool
	allReady chan struct{}
	subs     map[*Subscription]struct{}
	done     sync.WaitGroup
}

func NewSynchronizer(client *webservice.Client, store *Store) *Synchronizer {
	return &Synchronizer{
		PreferredWait: defaultPreferredWait,
		FailureDelay:  defaultFailureDelay,
		store:         store,
		client:        client,
		allReady:      make(chan struct{}),
		subs:          map[*Subscription]struct{}{},
	}
}

// Subscription receives one event per applied topology update, tagged by
// resource. Events are dropped rather than delivered late when the
// receiver falls behind.
type Subscription struct {
	owner *Synchronizer
	ch    chan Resource
}

func (s *Synchronizer) Subscribe() *Subscription {
	sub := &Subscription{owner: s, ch: make(chan Resource, 16)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (sub *Subscription) Updates() <-chan Resource { return sub.ch }

func (sub *Subscription) Close() {
	sub.owner.mu.Lock()
	defer sub.owner.mu.Unlock()
	if _, ok := sub.owner.subs[sub]; ok {
		delete(sub.owner.subs, sub)
		close(sub.ch)
	}
}

func (s *Synchronizer) publish(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- r:
		default:
		}
	}
}

func (s *Synchronizer) markReady(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready[r] {
		return
	}
	s.ready[r] = true
	for _, ok := range s.ready {
		if !ok {
			return
		}
	}
	close(s.allReady)
}

// Ready reports whether the resource has applied at least one update.
func (s *Synchronizer) Ready(r Resource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready[r]
}

// WaitReady blocks until every resource has applied at least one update or
// the context is cancelled.
func (s *Synchronizer) WaitReady(ctx context.Context) error {
	select {
	case <-s.allReady:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type resourceLoop struct {
	resource Resource
	path     string
	apply    func(body []byte) error
}

func (s *Synchronizer) loops() []resourceLoop {
	return []resourceLoop{
		{ResourceHostInfo, webservice.PathHostInfo, func(body []byte) error {
			p, err := decodeHostInfo(body)
			if err != nil {
				return err
			}
			s.store.setHostInfo(projectHostInfo(p))
			return nil
		}},
		{ResourceZoneConfig, webservice.PathZoneConfig, func(body []byte) error {
			p, err := decodeZoneConfig(body)
			if err != nil {
				return err
			}
			s.store.setZones(projectZoneConfig(p))
			return nil
		}},
		{ResourceDevices, webservice.PathDevices, func(body []byte) error {
			p, err := decodeDevices(body)
			if err != nil {
				return err
			}
			s.store.setDevices(projectDevices(p))
			return nil
		}},
		{ResourceSystemState, webservice.PathSystemState, func(body []byte) error {
			p, err := decodeSystemState(body)
			if err != nil {
				return err
			}
			s.store.setSystemState(projectSystemState(p))
			return nil
		}},
	}
}

// Start launches the long-polling loops. It returns immediately; use
// WaitReady to block until the first full topology has arrived. Start may
// be called once.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("synchronizer already started")
	}
	s.started = true
	s.mu.Unlock()

	for _, loop := range s.loops() {
		s.done.Add(1)
		go func(loop resourceLoop) {
			defer s.done.Done()
			s.run(ctx, loop)
		}(loop)
	}
	return nil
}

// Wait blocks until all loops have exited after context cancellation.
func (s *Synchronizer) Wait() { s.done.Wait() }

// run is the per-resource poll loop: poll, apply, backoff on failure,
// forever. An error never terminates the loop; only ctx does.
func (s *Synchronizer) run(ctx context.Context, loop resourceLoop) {
	var updateID string
	for {
		if ctx.Err() != nil {
			return
		}
		body, newID, result, err := s.client.Poll(ctx, loop.path, updateID, s.PreferredWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("long poll failed", "resource", loop.resource.String(), "error", err)
			if !sleepCtx(ctx, s.FailureDelay) {
				return
			}
			continue
		}
		if result == webservice.PollUnchanged {
			continue
		}
		if err := loop.apply(body); err != nil {
			// A malformed payload is treated like a transport failure:
			// keep the old state and cursor, retry after the delay.
			slog.Warn("applying update failed", "resource", loop.resource.String(), "error", err)
			if !sleepCtx(ctx, s.FailureDelay) {
				return
			}
			continue
		}
		updateID = newID
		slog.Debug("topology update applied", "resource", loop.resource.String(), "updateID", updateID)
		s.markReady(loop.resource)
		s.publish(loop.resource)
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first. It reports whether
// the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
