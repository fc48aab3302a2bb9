package raumfeld

import "sort"

// Projectors turn one decoded payload into a full replacement index.
// Indices are always rebuilt from scratch, never patched.

func projectHostInfo(p hostInfoPayload) HostInfo {
	return HostInfo{
		Name:     p.HostName,
		RoomName: p.RoomName,
		UDN:      p.UDN,
	}
}

func projectZoneConfig(p zoneConfigPayload) *ZoneIndex {
	idx := emptyZoneIndex()

	addRoom := func(rp roomPayload, zoneUDN string) Room {
		room := Room{
			Name:        rp.Name,
			UDN:         rp.UDN,
			Power:       powerStateOf(rp.PowerState),
			RendererUDN: rp.Renderer.UDN,
		}
		idx.Rooms = append(idx.Rooms, room)
		idx.RoomByName[room.Name] = room
		idx.RoomByUDN[room.UDN] = room
		if zoneUDN != "" {
			idx.ZoneByUDN[zoneUDN] = append(idx.ZoneByUDN[zoneUDN], room.UDN)
		}
		return room
	}

	for _, zp := range p.Zones.Zone {
		idx.ZoneByUDN[zp.UDN] = []string{}
		names := make([]string, 0, len(zp.Rooms))
		udns := make([]string, 0, len(zp.Rooms))
		for _, rp := range zp.Rooms {
			room := addRoom(rp, zp.UDN)
			names = append(names, room.Name)
			udns = append(udns, room.UDN)
		}
		sort.Strings(names)
		idx.Zones = append(idx.Zones, Zone{UDN: zp.UDN, RoomUDNs: udns})
		idx.ZoneRoomNames = append(idx.ZoneRoomNames, names)
	}

	// Unassigned rooms stay resolvable by name and UDN but belong to no
	// zone.
	for _, rp := range p.UnassignedRooms.Room {
		addRoom(rp, "")
	}

	return idx
}

func projectDevices(p devicesPayload) *DeviceIndex {
	idx := emptyDeviceIndex()
	for _, dp := range p.Device {
		dev := Device{
			UDN:      dp.UDN,
			Kind:     deviceKindOf(dp.Type),
			Location: dp.Location,
			Name:     dp.Name,
		}
		idx.Devices = append(idx.Devices, dev)
		idx.LocationByUDN[dev.UDN] = dev.Location
		if dev.Kind == DeviceMediaServer {
			idx.MediaServerUDN = dev.UDN
		}
	}
	return idx
}

func projectSystemState(p systemStatePayload) SystemState {
	return SystemState{
		UpdateAvailable: parseBool(p.UpdateAvailable.Value),
	}
}
