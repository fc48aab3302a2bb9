package raumfeld

// Device type URNs reported by listDevices.
const (
	typeMediaServer    = "urn:schemas-upnp-org:device:MediaServer:1"
	typeRaumfeldDevice = "urn:schemas-raumfeld-com:device:RaumfeldDevice:1"
)

// DeviceKind classifies a device from the device directory.
type DeviceKind int

const (
	DeviceOther DeviceKind = iota
	DeviceMediaServer
	DeviceControllableSpeaker
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceMediaServer:
		return "media-server"
	case DeviceControllableSpeaker:
		return "speaker"
	default:
		return "other"
	}
}

func deviceKindOf(typeURN string) DeviceKind {
	switch typeURN {
	case typeMediaServer:
		return DeviceMediaServer
	case typeRaumfeldDevice:
		return DeviceControllableSpeaker
	default:
		return DeviceOther
	}
}

// Device is one entry of the device directory. Identity is the UDN; the
// whole directory is replaced on every update.
type Device struct {
	UDN      string
	Kind     DeviceKind
	Location string
	Name     string
}

// PowerState is the reported power state of a room.
type PowerState int

const (
	PowerUnknown PowerState = iota
	PowerOn
	PowerOff
	PowerStandby
)

func (p PowerState) String() string {
	switch p {
	case PowerOn:
		return "on"
	case PowerOff:
		return "off"
	case PowerStandby:
		return "standby"
	default:
		return "unknown"
	}
}

func powerStateOf(attr string) PowerState {
	switch attr {
	case "ACTIVE":
		return PowerOn
	case "POWER_OFF":
		return PowerOff
	case "MANUAL_STANDBY", "AUTOMATIC_STANDBY":
		return PowerStandby
	case "":
		return PowerUnknown
	default:
		return PowerUnknown
	}
}

// Room is a named playback location inside (or outside) a zone.
type Room struct {
	Name        string
	UDN         string
	Power       PowerState
	RendererUDN string
}

// Zone is a grouping of rooms playing synchronized audio. Its identity is
// the UDN; callers address it by its unordered member room set.
type Zone struct {
	UDN      string
	RoomUDNs []string
}

// Resource identifies one long-polled host resource.
type Resource int

const (
	ResourceHostInfo Resource = iota
	ResourceZoneConfig
	ResourceDevices
	ResourceSystemState
	numResources
)

func (r Resource) String() string {
	switch r {
	case ResourceHostInfo:
		return "host-info"
	case ResourceZoneConfig:
		return "zone-config"
	case ResourceDevices:
		return "devices"
	case ResourceSystemState:
		return "system-state"
	default:
		return "unknown"
	}
}

// HostInfo mirrors the host's getHostInfo payload.
type HostInfo struct {
	Name     string
	RoomName string
	UDN      string
}

// SystemState mirrors the host's SystemStateChannel payload.
type SystemState struct {
	UpdateAvailable bool
}
