// Package raumfeld keeps a local model of a Raumfeld multi-room setup in
// sync with its host and exposes zone-level queries and playback control
// on top of it.
package raumfeld

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"raumfeld-cli/internal/upnp"
	"raumfeld-cli/internal/webservice"
)

// Host ties the synchronized topology store to the host's web service and
// the renderers' UPnP control surface. All zone operations address zones
// by their member room names.
type Host struct {
	ws       *webservice.Client
	renderer *upnp.Client

	store     *Store
	sync      *Synchronizer
	resolver  *Resolver
	waiter    *zoneCreationWaiter
	snapshots *SnapshotManager
}

func NewHost(host string, port int) *Host {
	ws := webservice.NewClient(host, port)
	renderer := upnp.NewClient()
	store := NewStore()
	resolver := NewResolver(store)
	return &Host{
		ws:        ws,
		renderer:  renderer,
		store:     store,
		sync:      NewSynchronizer(ws, store),
		resolver:  resolver,
		waiter:    newZoneCreationWaiter(resolver),
		snapshots: NewSnapshotManager(resolver, renderer, ws),
	}
}

// Start launches background synchronization and blocks until the first
// full topology has been received or ctx is cancelled.
func (h *Host) Start(ctx context.Context) error {
	if err := h.sync.Start(ctx); err != nil {
		return err
	}
	return h.sync.WaitReady(ctx)
}

func (h *Host) Synchronizer() *Synchronizer { return h.sync }
func (h *Host) Resolver() *Resolver         { return h.resolver }
func (h *Host) Snapshots() *SnapshotManager { return h.snapshots }
func (h *Host) Store() *Store               { return h.store }
func (h *Host) Subscribe() *Subscription    { return h.sync.Subscribe() }

// IsValid probes the host's getHostInfo endpoint and reports whether it
// answers like a Raumfeld host.
func (h *Host) IsValid(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.ws.Location+webservice.PathHostInfo, nil)
	if err != nil {
		return false
	}
	resp, err := h.ws.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	info, err := decodeHostInfo(body)
	if err != nil {
		return false
	}
	return info.HostName != ""
}

// Ping returns the host's hardware identification.
func (h *Host) Ping(ctx context.Context) (webservice.Pong, error) {
	return h.ws.Ping(ctx)
}

func (h *Host) HostName() string      { return h.store.HostInfo().Name }
func (h *Host) HostRoom() string      { return h.store.HostInfo().RoomName }
func (h *Host) UpdateAvailable() bool { return h.store.SystemState().UpdateAvailable }

//
// Topology mutation
//

// CreateZone groups the rooms into a new zone and waits for the topology
// to reflect it. The wait is best effort: the host applies the request
// asynchronously and may converge after this returns.
func (h *Host) CreateZone(ctx context.Context, roomNames []string) error {
	udns, err := h.resolver.RoomsToUDNs(roomNames)
	if err != nil {
		return err
	}
	oldZoneUDN, _ := h.resolver.UDNsToZoneUDN(udns)
	if err := h.ws.ConnectRoomsToZone(ctx, "", udns); err != nil {
		return err
	}
	h.waiter.wait(ctx, oldZoneUDN, roomNames)
	return nil
}

// AddRoomToZone connects one room to the zone currently formed by
// zoneRoomNames.
func (h *Host) AddRoomToZone(ctx context.Context, zoneRoomNames []string, roomName string) error {
	zoneUDN, ok, err := h.resolver.RoomsToZoneUDN(zoneRoomNames)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no zone for rooms %v", zoneRoomNames)
	}
	udns, err := h.resolver.RoomsToUDNs([]string{roomName})
	if err != nil {
		return err
	}
	return h.ws.ConnectRoomToZone(ctx, zoneUDN, udns[0])
}

// DropRoom removes the room from its zone.
func (h *Host) DropRoom(ctx context.Context, roomName string) error {
	udns, err := h.resolver.RoomsToUDNs([]string{roomName})
	if err != nil {
		return err
	}
	return h.ws.DropRoom(ctx, udns[0])
}

// Room power control. Success is observed through the next zone-config
// update, not through the response.

func (h *Host) EnterAutomaticStandby(ctx context.Context, roomName string) error {
	udns, err := h.resolver.RoomsToUDNs([]string{roomName})
	if err != nil {
		return err
	}
	return h.ws.EnterAutomaticStandby(ctx, udns[0])
}

func (h *Host) EnterManualStandby(ctx context.Context, roomName string) error {
	udns, err := h.resolver.RoomsToUDNs([]string{roomName})
	if err != nil {
		return err
	}
	return h.ws.EnterManualStandby(ctx, udns[0])
}

func (h *Host) LeaveStandby(ctx context.Context, roomName string) error {
	udns, err := h.resolver.RoomsToUDNs([]string{roomName})
	if err != nil {
		return err
	}
	return h.ws.LeaveStandby(ctx, udns[0])
}

//
// Zone playback control
//

func (h *Host) ZonePlay(ctx context.Context, zoneRooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Play(ctx, loc)
}

func (h *Host) ZonePause(ctx context.Context, zoneRooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Pause(ctx, loc)
}

func (h *Host) ZoneStop(ctx context.Context, zoneRooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Stop(ctx, loc)
}

// ZoneSeek jumps to an absolute time of the form H:MM:SS.
func (h *Host) ZoneSeek(ctx context.Context, zoneRooms []string, target string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Seek(ctx, loc, target)
}

func (h *Host) ZoneNextTrack(ctx context.Context, zoneRooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Next(ctx, loc)
}

func (h *Host) ZonePreviousTrack(ctx context.Context, zoneRooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.Previous(ctx, loc)
}

func (h *Host) GetZoneVolume(ctx context.Context, zoneRooms []string) (int, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return 0, err
	}
	return h.renderer.GetVolume(ctx, loc)
}

func (h *Host) SetZoneVolume(ctx context.Context, zoneRooms []string, volume int) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.SetVolume(ctx, loc, volume)
}

func (h *Host) ChangeZoneVolume(ctx context.Context, zoneRooms []string, amount int) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.ChangeVolume(ctx, loc, amount)
}

// SetZoneRoomVolume sets the same volume on individual rooms of the zone.
// With an empty rooms list all zone members are set.
func (h *Host) SetZoneRoomVolume(ctx context.Context, zoneRooms []string, volume int, rooms []string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		rooms = zoneRooms
	}
	udns, err := h.resolver.RoomsToUDNs(rooms)
	if err != nil {
		return err
	}
	for _, udn := range udns {
		if err := h.renderer.SetRoomVolume(ctx, loc, udn, volume); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) GetZoneMute(ctx context.Context, zoneRooms []string) (bool, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return false, err
	}
	return h.renderer.GetMute(ctx, loc)
}

func (h *Host) SetZoneMute(ctx context.Context, zoneRooms []string, mute bool) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.SetMute(ctx, loc, mute)
}

func (h *Host) GetMediaInfo(ctx context.Context, zoneRooms []string) (upnp.MediaInfo, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return upnp.MediaInfo{}, err
	}
	return h.renderer.GetMediaInfo(ctx, loc)
}

func (h *Host) GetPositionInfo(ctx context.Context, zoneRooms []string) (upnp.PositionInfo, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return upnp.PositionInfo{}, err
	}
	return h.renderer.GetPositionInfo(ctx, loc)
}

func (h *Host) GetTransportInfo(ctx context.Context, zoneRooms []string) (upnp.TransportInfo, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return upnp.TransportInfo{}, err
	}
	return h.renderer.GetTransportInfo(ctx, loc)
}

func (h *Host) GetPlayMode(ctx context.Context, zoneRooms []string) (string, error) {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return "", err
	}
	settings, err := h.renderer.GetTransportSettings(ctx, loc)
	if err != nil {
		return "", err
	}
	return settings.PlayMode, nil
}

func (h *Host) SetPlayMode(ctx context.Context, zoneRooms []string, playMode string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	return h.renderer.SetPlayMode(ctx, loc, playMode)
}

// SetZoneURI points the zone's transport at a URI. Without metadata a
// minimal DIDL-Lite document is supplied, which the renderer requires.
func (h *Host) SetZoneURI(ctx context.Context, zoneRooms []string, uri, metadata string) error {
	loc, err := h.resolver.ZoneLocation(zoneRooms)
	if err != nil {
		return err
	}
	if metadata == "" {
		metadata = upnp.DefaultURIMetaData
	}
	return h.renderer.SetAVTransportURI(ctx, loc, uri, metadata)
}

//
// Media server
//

// Container holding all indexed tracks on the Raumfeld media server.
const searchAllTracksContainer = "0/My Music/AllTracks"

func (h *Host) Browse(ctx context.Context, objectID string) (upnp.BrowseResult, error) {
	loc, err := h.resolver.MediaServerLocation()
	if err != nil {
		return upnp.BrowseResult{}, err
	}
	return h.renderer.Browse(ctx, loc, objectID, upnp.BrowseChildren, upnp.BrowseOptions{})
}

func (h *Host) Search(ctx context.Context, containerID, criteria string, opts upnp.BrowseOptions) (upnp.BrowseResult, error) {
	loc, err := h.resolver.MediaServerLocation()
	if err != nil {
		return upnp.BrowseResult{}, err
	}
	return h.renderer.Search(ctx, loc, containerID, criteria, opts)
}

// SearchAndZonePlay searches the media server and plays the first hit in
// the zone.
func (h *Host) SearchAndZonePlay(ctx context.Context, zoneRooms []string, criteria string) error {
	result, err := h.Search(ctx, searchAllTracksContainer, criteria, upnp.BrowseOptions{
		RequestedCount: 1,
		SortCriteria:   "+upnp:artist,-dc:date,+dc:title",
	})
	if err != nil {
		return err
	}
	uri, ok := upnp.FirstItemURI(result.Result)
	if !ok {
		return fmt.Errorf("no media found for %q", criteria)
	}
	return h.SetZoneURI(ctx, zoneRooms, uri, result.Result)
}

// MediaImageURL returns the album art URI of the zone's current media.
func (h *Host) MediaImageURL(ctx context.Context, zoneRooms []string) (string, error) {
	media, err := h.GetMediaInfo(ctx, zoneRooms)
	if err != nil {
		return "", err
	}
	uri, ok := upnp.AlbumArtURI(media.CurrentURIMetaData)
	if !ok {
		return "", fmt.Errorf("current media has no album art")
	}
	return uri, nil
}

// SaveZone and RestoreZone expose the snapshot state machine on the
// facade.

func (h *Host) SaveZone(ctx context.Context, zoneRooms []string, replace bool) error {
	return h.snapshots.Save(ctx, zoneRooms, replace)
}

func (h *Host) RestoreZone(ctx context.Context, zoneRooms []string, deleteAfter bool) error {
	return h.snapshots.Restore(ctx, zoneRooms, deleteAfter)
}
