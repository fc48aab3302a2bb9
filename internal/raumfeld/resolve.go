package raumfeld

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRoom is returned when a room name is absent from the current
// room index.
var ErrUnknownRoom = errors.New("unknown room")

// Resolver answers topology queries over store snapshots. A zone not being
// found is not an error: rooms are legitimately ungrouped while zones are
// being rearranged.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// RoomsToUDNs converts room names to room UDNs against the current index.
func (r *Resolver) RoomsToUDNs(roomNames []string) ([]string, error) {
	idx := r.store.Zones()
	udns := make([]string, 0, len(roomNames))
	for _, name := range roomNames {
		room, ok := idx.RoomByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRoom, name)
		}
		udns = append(udns, room.UDN)
	}
	return udns, nil
}

// RoomsToZoneUDN finds the zone whose member set equals the given room
// names, disregarding order.
func (r *Resolver) RoomsToZoneUDN(roomNames []string) (string, bool, error) {
	udns, err := r.RoomsToUDNs(roomNames)
	if err != nil {
		return "", false, err
	}
	zoneUDN, ok := r.UDNsToZoneUDN(udns)
	return zoneUDN, ok, nil
}

// UDNsToZoneUDN finds the zone whose member room UDNs equal the given list
// as an unordered collection. Under the host invariant that no two active
// zones share a member set at most one zone can match; the first match
// wins.
func (r *Resolver) UDNsToZoneUDN(roomUDNs []string) (string, bool) {
	idx := r.store.Zones()
	for zoneUDN, members := range idx.ZoneByUDN {
		if sameValues(members, roomUDNs) {
			return zoneUDN, true
		}
	}
	return "", false
}

// IsValidZoneGrouping reports whether the sorted room-name list exactly
// matches some zone's sorted member list.
func (r *Resolver) IsValidZoneGrouping(roomNames []string) bool {
	want := sortedCopy(roomNames)
	for _, zone := range r.store.Zones().ZoneRoomNames {
		if equalStrings(zone, want) {
			return true
		}
	}
	return false
}

// RoomPowerState returns the power state of the named room. Undefined
// names yield PowerUnknown rather than an error.
func (r *Resolver) RoomPowerState(roomName string) PowerState {
	room, ok := r.store.Zones().RoomByName[roomName]
	if !ok {
		return PowerUnknown
	}
	return room.Power
}

// ZoneGroupings returns the sorted member room names of each zone.
func (r *Resolver) ZoneGroupings() [][]string {
	src := r.store.Zones().ZoneRoomNames
	out := make([][]string, len(src))
	for i, names := range src {
		out[i] = sortedCopy(names)
	}
	return out
}

// RoomNames returns all known room names, zoned and unassigned, in payload
// order.
func (r *Resolver) RoomNames() []string {
	rooms := r.store.Zones().Rooms
	names := make([]string, len(rooms))
	for i, room := range rooms {
		names[i] = room.Name
	}
	return names
}

// DeviceLocation returns the control endpoint of the device with the given
// UDN, if the device directory knows it.
func (r *Resolver) DeviceLocation(udn string) (string, bool) {
	loc, ok := r.store.Devices().LocationByUDN[udn]
	return loc, ok && loc != ""
}

// ZoneLocation resolves a room grouping straight to the control endpoint
// of its zone renderer.
func (r *Resolver) ZoneLocation(roomNames []string) (string, error) {
	zoneUDN, ok, err := r.RoomsToZoneUDN(roomNames)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no zone for rooms %v", roomNames)
	}
	loc, ok := r.DeviceLocation(zoneUDN)
	if !ok {
		return "", fmt.Errorf("no device location for zone %s", zoneUDN)
	}
	return loc, nil
}

// MediaServerLocation returns the control endpoint of the media server.
func (r *Resolver) MediaServerLocation() (string, error) {
	idx := r.store.Devices()
	if idx.MediaServerUDN == "" {
		return "", errors.New("no media server in device directory")
	}
	loc, ok := idx.LocationByUDN[idx.MediaServerUDN]
	if !ok || loc == "" {
		return "", errors.New("media server has no device location")
	}
	return loc, nil
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}

// sameValues compares two lists disregarding order.
func sameValues(a, b []string) bool {
	return equalStrings(sortedCopy(a), sortedCopy(b))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
