package raumfeld

import "sync"

// ZoneIndex is the projection of one zone-config payload. It is built in
// full by the projector and published into the store as a single swap;
// once published it is never mutated, so readers may hold it without
// locking.
type ZoneIndex struct {
	// Rooms in payload order, zoned rooms first.
	Rooms []Room
	// Zones with their member room UDNs, in payload order.
	Zones []Zone
	// Sorted room-name list per zone, in payload order.
	ZoneRoomNames [][]string

	RoomByName map[string]Room     // later payload entries override earlier
	RoomByUDN  map[string]Room
	ZoneByUDN  map[string][]string // zone udn -> member room udns
}

// DeviceIndex is the projection of one device-directory payload.
type DeviceIndex struct {
	Devices        []Device
	LocationByUDN  map[string]string
	MediaServerUDN string
}

func emptyZoneIndex() *ZoneIndex {
	return &ZoneIndex{
		RoomByName: map[string]Room{},
		RoomByUDN:  map[string]Room{},
		ZoneByUDN:  map[string][]string{},
	}
}

func emptyDeviceIndex() *DeviceIndex {
	return &DeviceIndex{LocationByUDN: map[string]string{}}
}

// Store holds the synchronized topology state. Each subset is owned by
// exactly one long-poll loop and replaced wholesale; there is no
// cross-subset transaction, so a zone snapshot and a device snapshot taken
// together may reflect different instants.
type Store struct {
	mu      sync.RWMutex
	host    HostInfo
	system  SystemState
	zones   *ZoneIndex
	devices *DeviceIndex
}

func NewStore() *Store {
	return &Store{
		zones:   emptyZoneIndex(),
		devices: emptyDeviceIndex(),
	}
}

func (s *Store) HostInfo() HostInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

func (s *Store) SystemState() SystemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system
}

// Zones returns the current zone index snapshot. The returned value is
// immutable.
func (s *Store) Zones() *ZoneIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zones
}

// Devices returns the current device index snapshot. The returned value is
// immutable.
func (s *Store) Devices() *DeviceIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices
}

func (s *Store) setHostInfo(h HostInfo) {
	s.mu.Lock()
	s.host = h
	s.mu.Unlock()
}

func (s *Store) setSystemState(st SystemState) {
	s.mu.Lock()
	s.system = st
	s.mu.Unlock()
}

func (s *Store) setZones(idx *ZoneIndex) {
	s.mu.Lock()
	s.zones = idx
	s.mu.Unlock()
}

func (s *Store) setDevices(idx *DeviceIndex) {
	s.mu.Lock()
	s.devices = idx
	s.mu.Unlock()
}
