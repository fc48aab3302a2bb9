package raumfeld

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"raumfeld-cli/internal/upnp"
)

// fakeRenderer is an in-memory RendererControl recording every call.
type fakeRenderer struct {
	mu    sync.Mutex
	calls []string

	media    upnp.MediaInfo
	position upnp.PositionInfo
	volume   int
	mute     bool

	// transportStates are returned by successive GetTransportInfo calls;
	// the last entry repeats.
	transportStates []string

	failing map[string]error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		media:           upnp.MediaInfo{CurrentURI: "dlna-playsingle://x", CurrentURIMetaData: "<DIDL-Lite/>"},
		position:        upnp.PositionInfo{AbsTime: "0:01:23"},
		volume:          35,
		mute:            false,
		transportStates: []string{upnp.StateStopped},
		failing:         map[string]error{},
	}
}

func (f *fakeRenderer) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeRenderer) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRenderer) GetMediaInfo(ctx context.Context, location string) (upnp.MediaInfo, error) {
	f.record("GetMediaInfo")
	return f.media, f.failing["GetMediaInfo"]
}

func (f *fakeRenderer) GetPositionInfo(ctx context.Context, location string) (upnp.PositionInfo, error) {
	f.record("GetPositionInfo")
	return f.position, f.failing["GetPositionInfo"]
}

func (f *fakeRenderer) GetTransportInfo(ctx context.Context, location string) (upnp.TransportInfo, error) {
	f.record("GetTransportInfo")
	f.mu.Lock()
	state := f.transportStates[0]
	if len(f.transportStates) > 1 {
		f.transportStates = f.transportStates[1:]
	}
	f.mu.Unlock()
	return upnp.TransportInfo{State: state}, f.failing["GetTransportInfo"]
}

func (f *fakeRenderer) GetVolume(ctx context.Context, location string) (int, error) {
	f.record("GetVolume")
	return f.volume, f.failing["GetVolume"]
}

func (f *fakeRenderer) SetVolume(ctx context.Context, location string, volume int) error {
	f.record("SetVolume %d", volume)
	if err := f.failing["SetVolume"]; err != nil {
		return err
	}
	f.volume = volume
	return nil
}

func (f *fakeRenderer) GetMute(ctx context.Context, location string) (bool, error) {
	f.record("GetMute")
	return f.mute, f.failing["GetMute"]
}

func (f *fakeRenderer) SetMute(ctx context.Context, location string, mute bool) error {
	f.record("SetMute %v", mute)
	f.mute = mute
	return f.failing["SetMute"]
}

func (f *fakeRenderer) SetAVTransportURI(ctx context.Context, location, uri, metadata string) error {
	f.record("SetAVTransportURI %s", uri)
	if err := f.failing["SetAVTransportURI"]; err != nil {
		return err
	}
	f.media = upnp.MediaInfo{CurrentURI: uri, CurrentURIMetaData: metadata}
	return nil
}

func (f *fakeRenderer) Seek(ctx context.Context, location, target string) error {
	f.record("Seek %s", target)
	if err := f.failing["Seek"]; err != nil {
		return err
	}
	f.position.AbsTime = target
	return nil
}

// fakeTopology records zone mutation requests without applying them.
type fakeTopology struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTopology) ConnectRoomsToZone(ctx context.Context, zoneUDN string, roomUDNs []string) error {
	f.mu.Lock()
	f.calls = append(f.calls, "ConnectRoomsToZone "+zoneUDN+" "+strings.Join(roomUDNs, ","))
	f.mu.Unlock()
	return nil
}

func (f *fakeTopology) ConnectRoomToZone(ctx context.Context, zoneUDN, roomUDN string) error {
	return nil
}

func (f *fakeTopology) DropRoom(ctx context.Context, roomUDN string) error {
	return nil
}

func newTestSnapshotManager(t *testing.T) (*SnapshotManager, *fakeRenderer, *fakeTopology) {
	t.Helper()
	devices := `<devices><device udn="z1" type="urn:schemas-raumfeld-com:device:RaumfeldDevice:1" location="http://10.0.0.6/z1.xml">Zone</device></devices>`
	resolver := NewResolver(storeWith(t, zoneConfigTwoZones, devices))
	renderer := newFakeRenderer()
	topology := &fakeTopology{}
	m := NewSnapshotManager(resolver, renderer, topology)
	m.SettleInterval = time.Millisecond
	m.waiter.ActionTimeout = 10 * time.Millisecond
	m.waiter.PollInterval = time.Millisecond
	return m, renderer, topology
}

var kitchenLiving = []string{"Kitchen", "Living"}

func TestSaveThenRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	m, renderer, _ := newTestSnapshotManager(t)
	ctx := context.Background()

	if err := m.Save(ctx, kitchenLiving, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap, ok := m.Get([]string{"Living", "Kitchen"})
	if !ok {
		t.Fatalf("snapshot not addressable by reordered rooms")
	}
	if snap.URI != "dlna-playsingle://x" || snap.AbsTime != "0:01:23" || snap.Volume != 35 || snap.Mute {
		t.Fatalf("captured snapshot: %+v", snap)
	}

	// Disturb the renderer state, then restore.
	renderer.media.CurrentURI = "other://uri"
	renderer.volume = 80
	renderer.position.AbsTime = "0:09:00"

	if err := m.Restore(ctx, kitchenLiving, true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if renderer.media.CurrentURI != "dlna-playsingle://x" {
		t.Fatalf("uri not restored: %q", renderer.media.CurrentURI)
	}
	if renderer.position.AbsTime != "0:01:23" {
		t.Fatalf("position not restored: %q", renderer.position.AbsTime)
	}
	if renderer.volume != 35 {
		t.Fatalf("volume not restored: %d", renderer.volume)
	}
	if _, ok := m.Get(kitchenLiving); ok {
		t.Fatalf("snapshot not deleted after restore")
	}
}

func TestRestoreCallSequence(t *testing.T) {
	t.Parallel()

	m, renderer, _ := newTestSnapshotManager(t)
	ctx := context.Background()
	if err := m.Save(ctx, kitchenLiving, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	renderer.mu.Lock()
	renderer.calls = nil
	renderer.mu.Unlock()

	if err := m.Restore(ctx, kitchenLiving, true); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// Volume must drop to zero before the URI changes, and come back only
	// after the seek.
	calls := renderer.callLog()
	want := []string{
		"SetVolume 0",
		"SetMute false",
		"SetAVTransportURI dlna-playsingle://x",
		"GetTransportInfo",
		"Seek 0:01:23",
		"SetVolume 35",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d: %q, want %q (all: %v)", i, calls[i], want[i], calls)
		}
	}
}

func TestSaveReplaceSemantics(t *testing.T) {
	t.Parallel()

	m, renderer, _ := newTestSnapshotManager(t)
	ctx := context.Background()

	if err := m.Save(ctx, kitchenLiving, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	renderer.media.CurrentURI = "second://uri"

	// replace=false keeps the first snapshot.
	if err := m.Save(ctx, []string{"Living", "Kitchen"}, false); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	snap, _ := m.Get(kitchenLiving)
	if snap.URI != "dlna-playsingle://x" {
		t.Fatalf("snapshot was overwritten: %+v", snap)
	}

	// replace=true overwrites.
	if err := m.Save(ctx, kitchenLiving, true); err != nil {
		t.Fatalf("replace Save: %v", err)
	}
	snap, _ = m.Get(kitchenLiving)
	if snap.URI != "second://uri" {
		t.Fatalf("snapshot not replaced: %+v", snap)
	}
}

func TestRestoreMissingSnapshotIsNoop(t *testing.T) {
	t.Parallel()

	m, renderer, _ := newTestSnapshotManager(t)
	if err := m.Restore(context.Background(), kitchenLiving, true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if calls := renderer.callLog(); len(calls) != 0 {
		t.Fatalf("restore without snapshot touched the renderer: %v", calls)
	}
}

func TestRestoreProceedsThroughStuckTransport(t *testing.T) {
	t.Parallel()

	m, renderer, _ := newTestSnapshotManager(t)
	m.TransportRetries = 4
	ctx := context.Background()
	if err := m.Save(ctx, kitchenLiving, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The transport never leaves TRANSITIONING; restore must still seek
	// and bring the volume back.
	renderer.mu.Lock()
	renderer.transportStates = []string{upnp.StateTransitioning}
	renderer.calls = nil
	renderer.mu.Unlock()

	if err := m.Restore(ctx, kitchenLiving, true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	calls := renderer.callLog()
	settlePolls := 0
	sawSeek, sawVolumeRestore := false, false
	for _, c := range calls {
		switch {
		case c == "GetTransportInfo":
			settlePolls++
		case strings.HasPrefix(c, "Seek"):
			sawSeek = true
		case c == "SetVolume 35":
			sawVolumeRestore = true
		}
	}
	if settlePolls != 4 {
		t.Fatalf("settle polls: %d, want 4 (calls: %v)", settlePolls, calls)
	}
	if !sawSeek || !sawVolumeRestore {
		t.Fatalf("seek/volume not issued after stuck transport: %v", calls)
	}
}

func TestRestoreRecreatesMissingZone(t *testing.T) {
	t.Parallel()

	m, _, topology := newTestSnapshotManager(t)
	ctx := context.Background()
	if err := m.Save(ctx, kitchenLiving, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The grouping disappears: Kitchen and Living become unassigned.
	m.resolver.store.setZones(zoneIndexFrom(t, `<zoneConfig>
  <zones>
    <zone udn="z1"><room udn="r-kitchen" name="Kitchen" powerState="ACTIVE"/></zone>
  </zones>
  <unassignedRooms><room udn="r-living" name="Living"/></unassignedRooms>
</zoneConfig>`))

	// The zone never reappears, so the restore fails to resolve a
	// location, but it must have asked the host to rebuild the grouping.
	if err := m.Restore(ctx, kitchenLiving, true); err == nil {
		t.Fatalf("expected error while grouping is missing")
	}
	topology.mu.Lock()
	defer topology.mu.Unlock()
	if len(topology.calls) != 1 || topology.calls[0] != "ConnectRoomsToZone  r-kitchen,r-living" {
		t.Fatalf("topology calls: %v", topology.calls)
	}
}

func TestSnapshotKeyCanonical(t *testing.T) {
	t.Parallel()

	if snapshotKey([]string{"B", "A"}) != snapshotKey([]string{"A", "B"}) {
		t.Fatalf("key must be order independent")
	}
	if snapshotKey([]string{"A"}) == snapshotKey([]string{"A", "B"}) {
		t.Fatalf("different groupings must not collide")
	}
}
