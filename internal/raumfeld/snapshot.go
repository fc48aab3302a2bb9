package raumfeld

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"raumfeld-cli/internal/upnp"
)

const (
	defaultTransportRetries = 10
	defaultSettleInterval   = 200 * time.Millisecond
)

// RendererControl is the playback capability consumed by save/restore,
// implemented by *upnp.Client. Locations are device description URLs from
// the device directory.
type RendererControl interface {
	GetMediaInfo(ctx context.Context, location string) (upnp.MediaInfo, error)
	GetPositionInfo(ctx context.Context, location string) (upnp.PositionInfo, error)
	GetTransportInfo(ctx context.Context, location string) (upnp.TransportInfo, error)
	GetVolume(ctx context.Context, location string) (int, error)
	SetVolume(ctx context.Context, location string, volume int) error
	GetMute(ctx context.Context, location string) (bool, error)
	SetMute(ctx context.Context, location string, mute bool) error
	SetAVTransportURI(ctx context.Context, location, uri, metadata string) error
	Seek(ctx context.Context, location, target string) error
}

// TopologyService is the zone-membership mutation capability, implemented
// by *webservice.Client. Requests are fire and forget; the host applies
// them asynchronously.
type TopologyService interface {
	ConnectRoomsToZone(ctx context.Context, zoneUDN string, roomUDNs []string) error
	ConnectRoomToZone(ctx context.Context, zoneUDN, roomUDN string) error
	DropRoom(ctx context.Context, roomUDN string) error
}

// Snapshot is the captured playback state of one zone.
type Snapshot struct {
	URI      string `json:"uri"`
	Metadata string `json:"metadata"`
	AbsTime  string `json:"absTime"`
	Volume   int    `json:"volume"`
	Mute     bool   `json:"mute"`
}

// SnapshotManager captures and restores per-zone playback state around
// zone reconfiguration. Snapshots are keyed by the room grouping, so the
// same rooms in any order address the same snapshot.
type SnapshotManager struct {
	// TransportRetries and SettleInterval bound how long a restore waits
	// for the renderer to leave the TRANSITIONING state after the URI has
	// been set.
	TransportRetries int
	SettleInterval   time.Duration

	resolver *Resolver
	renderer RendererControl
	topology TopologyService
	waiter   *zoneCreationWaiter

	mu    sync.Mutex
	snaps map[string]Snapshot
}

func NewSnapshotManager(resolver *Resolver, renderer RendererControl, topology TopologyService) *SnapshotManager {
	return &SnapshotManager{
		TransportRetries: defaultTransportRetries,
		SettleInterval:   defaultSettleInterval,
		resolver:         resolver,
		renderer:         renderer,
		topology:         topology,
		waiter:           newZoneCreationWaiter(resolver),
		snaps:            map[string]Snapshot{},
	}
}

// snapshotKey derives the canonical identity of a room grouping.
// Equivalent lists produce equivalent keys regardless of order.
func snapshotKey(roomNames []string) string {
	return strings.Join(sortedCopy(roomNames), "|")
}

// Get returns the stored snapshot for the room grouping, if any.
func (m *SnapshotManager) Get(roomNames []string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[snapshotKey(roomNames)]
	return snap, ok
}

// Put stores a snapshot unconditionally, e.g. one loaded from disk.
func (m *SnapshotManager) Put(roomNames []string, snap Snapshot) {
	m.mu.Lock()
	m.snaps[snapshotKey(roomNames)] = snap
	m.mu.Unlock()
}

// Save captures the zone's current URI, metadata, absolute position,
// volume and mute. It is a no-op when a snapshot for the grouping already
// exists and replace is false.
func (m *SnapshotManager) Save(ctx context.Context, roomNames []string, replace bool) error {
	key := snapshotKey(roomNames)
	m.mu.Lock()
	_, exists := m.snaps[key]
	m.mu.Unlock()
	if exists && !replace {
		return nil
	}

	location, err := m.resolver.ZoneLocation(roomNames)
	if err != nil {
		return fmt.Errorf("save zone state: %w", err)
	}
	media, err := m.renderer.GetMediaInfo(ctx, location)
	if err != nil {
		return fmt.Errorf("save zone state: %w", err)
	}
	position, err := m.renderer.GetPositionInfo(ctx, location)
	if err != nil {
		return fmt.Errorf("save zone state: %w", err)
	}
	volume, err := m.renderer.GetVolume(ctx, location)
	if err != nil {
		return fmt.Errorf("save zone state: %w", err)
	}
	mute, err := m.renderer.GetMute(ctx, location)
	if err != nil {
		return fmt.Errorf("save zone state: %w", err)
	}

	m.mu.Lock()
	m.snaps[key] = Snapshot{
		URI:      media.CurrentURI,
		Metadata: media.CurrentURIMetaData,
		AbsTime:  position.AbsTime,
		Volume:   volume,
		Mute:     mute,
	}
	m.mu.Unlock()
	return nil
}

// Restore replays a saved snapshot onto the zone: volume to zero first so
// the URI change is not audible at the old level, then mute, URI and
// metadata, wait for the transport to leave TRANSITIONING, seek to the
// saved position and bring the volume back. The snapshot is deleted
// afterwards unless deleteAfter is false. A missing snapshot is a no-op.
func (m *SnapshotManager) Restore(ctx context.Context, roomNames []string, deleteAfter bool) error {
	key := snapshotKey(roomNames)
	m.mu.Lock()
	snap, ok := m.snaps[key]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := m.ensureZone(ctx, roomNames); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}
	location, err := m.resolver.ZoneLocation(roomNames)
	if err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}

	if err := m.renderer.SetVolume(ctx, location, 0); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}
	if err := m.renderer.SetMute(ctx, location, snap.Mute); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}
	if err := m.renderer.SetAVTransportURI(ctx, location, snap.URI, snap.Metadata); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}

	// Exhausting the retry budget is not fatal: the renderer may still
	// honor the seek once it settles.
	m.waitTransportSettled(ctx, location)

	if err := m.renderer.Seek(ctx, location, snap.AbsTime); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}
	if err := m.renderer.SetVolume(ctx, location, snap.Volume); err != nil {
		return fmt.Errorf("restore zone state: %w", err)
	}

	if deleteAfter {
		m.mu.Lock()
		delete(m.snaps, key)
		m.mu.Unlock()
	}
	return nil
}

// ensureZone recreates the room grouping when it no longer exists, waiting
// for the new zone to appear in the topology.
func (m *SnapshotManager) ensureZone(ctx context.Context, roomNames []string) error {
	udns, err := m.resolver.RoomsToUDNs(roomNames)
	if err != nil {
		return err
	}
	oldZoneUDN, ok := m.resolver.UDNsToZoneUDN(udns)
	if ok {
		if _, located := m.resolver.DeviceLocation(oldZoneUDN); located {
			return nil
		}
	}
	if err := m.topology.ConnectRoomsToZone(ctx, "", udns); err != nil {
		return err
	}
	m.waiter.wait(ctx, oldZoneUDN, roomNames)
	return nil
}

func (m *SnapshotManager) waitTransportSettled(ctx context.Context, location string) {
	for i := 0; i < m.TransportRetries; i++ {
		info, err := m.renderer.GetTransportInfo(ctx, location)
		if err == nil && info.State != upnp.StateTransitioning {
			return
		}
		if err != nil {
			slog.Debug("transport info unavailable while settling", "error", err)
		}
		if !sleepCtx(ctx, m.SettleInterval) {
			return
		}
	}
	slog.Debug("transport still transitioning after retry budget", "location", location)
}
