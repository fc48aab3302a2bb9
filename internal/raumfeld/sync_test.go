package raumfeld

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"raumfeld-cli/internal/webservice"
)

const (
	hostInfoBody    = `<hostInfo><hostName>raumfeld-host</hostName><roomName>Kitchen</roomName></hostInfo>`
	devicesBody     = `<devices><device udn="z1" type="urn:schemas-raumfeld-com:device:RaumfeldDevice:1" location="http://10.0.0.6/z1.xml">Zone</device></devices>`
	systemStateBody = `<systemState><updateAvailable value="false"/></systemState>`
)

// longPollHandler serves a sequence of bodies, one per successful poll,
// then reports 304 after a short hold. It verifies the cursor round trip.
func longPollHandler(t *testing.T, bodies ...string) http.HandlerFunc {
	var calls atomic.Int64
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") == "" {
			t.Errorf("missing Prefer header on %s", r.URL.Path)
		}
		n := calls.Add(1)
		if n > 1 {
			// The cursor only advances on content responses; 304s keep it.
			last := int(n) - 1
			if last > len(bodies) {
				last = len(bodies)
			}
			want := fmt.Sprintf("cursor-%d", last)
			if got := r.Header.Get("updateID"); got != want {
				t.Errorf("%s call %d: updateID = %q, want %q", r.URL.Path, n, got, want)
			}
		}
		if int(n) > len(bodies) {
			time.Sleep(5 * time.Millisecond)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("updateID", fmt.Sprintf("cursor-%d", n))
		_, _ = w.Write([]byte(bodies[n-1]))
	}
}

func newTestSynchronizer(t *testing.T, mux *http.ServeMux) (*Synchronizer, *Store) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := &webservice.Client{Location: srv.URL, HTTP: srv.Client()}
	store := NewStore()
	s := NewSynchronizer(client, store)
	s.PreferredWait = time.Second
	s.FailureDelay = 5 * time.Millisecond
	return s, store
}

func TestSynchronizerReadyGate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc(webservice.PathHostInfo, longPollHandler(t, hostInfoBody))
	mux.HandleFunc(webservice.PathZoneConfig, longPollHandler(t, zoneConfigTwoZones))
	mux.HandleFunc(webservice.PathDevices, longPollHandler(t, devicesBody))
	mux.HandleFunc(webservice.PathSystemState, longPollHandler(t, systemStateBody))

	s, store := newTestSynchronizer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := s.WaitReady(waitCtx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	for r := Resource(0); r < numResources; r++ {
		if !s.Ready(r) {
			t.Fatalf("resource %s not ready", r)
		}
	}

	if got := store.HostInfo().Name; got != "raumfeld-host" {
		t.Fatalf("host name: %q", got)
	}
	if _, ok := store.Zones().RoomByName["Kitchen"]; !ok {
		t.Fatalf("zone config not applied")
	}
	if _, ok := store.Devices().LocationByUDN["z1"]; !ok {
		t.Fatalf("device directory not applied")
	}

	cancel()
	s.Wait()
}

func TestSynchronizerAppliesUpdatesInOrder(t *testing.T) {
	t.Parallel()

	second := `<zoneConfig><zones><zone udn="z9"><room udn="r-den" name="Den" powerState="ACTIVE"/></zone></zones></zoneConfig>`
	mux := http.NewServeMux()
	mux.HandleFunc(webservice.PathHostInfo, longPollHandler(t, hostInfoBody))
	mux.HandleFunc(webservice.PathZoneConfig, longPollHandler(t, zoneConfigTwoZones, second))
	mux.HandleFunc(webservice.PathDevices, longPollHandler(t, devicesBody))
	mux.HandleFunc(webservice.PathSystemState, longPollHandler(t, systemStateBody))

	s, store := newTestSynchronizer(t, mux)
	sub := s.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// One event per applied zone-config update.
	zoneEvents := 0
	deadline := time.After(5 * time.Second)
	for zoneEvents < 2 {
		select {
		case r := <-sub.Updates():
			if r == ResourceZoneConfig {
				zoneEvents++
			}
		case <-deadline:
			t.Fatalf("saw %d zone-config events, want 2", zoneEvents)
		}
	}

	idx := store.Zones()
	if _, ok := idx.RoomByName["Den"]; !ok {
		t.Fatalf("second update not applied: %v", idx.RoomByName)
	}
	if _, ok := idx.RoomByName["Kitchen"]; ok {
		t.Fatalf("index was patched, not replaced")
	}
}

func TestSynchronizerRecoversFromServerErrors(t *testing.T) {
	t.Parallel()

	var failures atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc(webservice.PathHostInfo, longPollHandler(t, hostInfoBody))
	mux.HandleFunc(webservice.PathDevices, longPollHandler(t, devicesBody))
	mux.HandleFunc(webservice.PathSystemState, longPollHandler(t, systemStateBody))
	zoneOK := longPollHandler(t, zoneConfigTwoZones)
	mux.HandleFunc(webservice.PathZoneConfig, func(w http.ResponseWriter, r *http.Request) {
		if failures.Add(1) <= 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		zoneOK(w, r)
	})

	s, store := newTestSynchronizer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := s.WaitReady(waitCtx); err != nil {
		t.Fatalf("WaitReady after failures: %v", err)
	}
	if _, ok := store.Zones().RoomByName["Kitchen"]; !ok {
		t.Fatalf("zone config not applied after recovery")
	}
}

func TestSynchronizerStopsOnCancel(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	hold := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
		w.WriteHeader(http.StatusNotModified)
	}
	mux.HandleFunc(webservice.PathHostInfo, hold)
	mux.HandleFunc(webservice.PathZoneConfig, hold)
	mux.HandleFunc(webservice.PathDevices, hold)
	mux.HandleFunc(webservice.PathSystemState, hold)

	s, _ := newTestSynchronizer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loops did not stop after cancellation")
	}
}

func TestStoreSwapIsAtomic(t *testing.T) {
	t.Parallel()

	a := zoneIndexFrom(t, `<zoneConfig><zones><zone udn="za"><room udn="ra1" name="A1" powerState="ACTIVE"/><room udn="ra2" name="A2" powerState="ACTIVE"/></zone></zones></zoneConfig>`)
	b := zoneIndexFrom(t, `<zoneConfig><zones><zone udn="zb"><room udn="rb1" name="B1" powerState="ACTIVE"/></zone></zones></zoneConfig>`)

	store := NewStore()
	store.setZones(a)

	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				store.setZones(b)
			} else {
				store.setZones(a)
			}
		}
	}()

	// A reader must never observe a zone referencing a room that is
	// missing from the room index of the same snapshot.
	for i := 0; i < 10000; i++ {
		idx := store.Zones()
		for zone, members := range idx.ZoneByUDN {
			for _, udn := range members {
				if _, ok := idx.RoomByUDN[udn]; !ok {
					close(stop)
					t.Fatalf("iteration %d: zone %s references room %s missing from index", i, zone, udn)
				}
			}
		}
	}
	close(stop)
}
