package raumfeld

import (
	"encoding/xml"
	"fmt"
)

// Decoded shapes of the host's XML payloads. Attribute names follow the
// Raumfeld web service; optional attributes decode to the zero value and
// are mapped to explicit "unknown" states by the projectors.

type hostInfoPayload struct {
	XMLName  xml.Name `xml:"hostInfo"`
	HostName string   `xml:"hostName"`
	RoomName string   `xml:"roomName"`
	UDN      string   `xml:"udn"`
}

type zoneConfigPayload struct {
	XMLName xml.Name `xml:"zoneConfig"`
	Zones   struct {
		Zone []zonePayload `xml:"zone"`
	} `xml:"zones"`
	UnassignedRooms struct {
		Room []roomPayload `xml:"room"`
	} `xml:"unassignedRooms"`
}

type zonePayload struct {
	UDN   string        `xml:"udn,attr"`
	Rooms []roomPayload `xml:"room"`
}

type roomPayload struct {
	UDN        string `xml:"udn,attr"`
	Name       string `xml:"name,attr"`
	PowerState string `xml:"powerState,attr"`
	Renderer   struct {
		UDN string `xml:"udn,attr"`
	} `xml:"renderer"`
}

type devicesPayload struct {
	XMLName xml.Name        `xml:"devices"`
	Device  []devicePayload `xml:"device"`
}

type devicePayload struct {
	UDN      string `xml:"udn,attr"`
	Type     string `xml:"type,attr"`
	Location string `xml:"location,attr"`
	Name     string `xml:",chardata"`
}

type systemStatePayload struct {
	XMLName         xml.Name `xml:"systemState"`
	UpdateAvailable struct {
		Value string `xml:"value,attr"`
	} `xml:"updateAvailable"`
}

func decodeHostInfo(body []byte) (hostInfoPayload, error) {
	var p hostInfoPayload
	if err := xml.Unmarshal(body, &p); err != nil {
		return hostInfoPayload{}, fmt.Errorf("decode hostInfo: %w", err)
	}
	return p, nil
}

func decodeZoneConfig(body []byte) (zoneConfigPayload, error) {
	var p zoneConfigPayload
	if err := xml.Unmarshal(body, &p); err != nil {
		return zoneConfigPayload{}, fmt.Errorf("decode zoneConfig: %w", err)
	}
	return p, nil
}

func decodeDevices(body []byte) (devicesPayload, error) {
	var p devicesPayload
	if err := xml.Unmarshal(body, &p); err != nil {
		return devicesPayload{}, fmt.Errorf("decode devices: %w", err)
	}
	return p, nil
}

func decodeSystemState(body []byte) (systemStatePayload, error) {
	var p systemStatePayload
	if err := xml.Unmarshal(body, &p); err != nil {
		return systemStatePayload{}, fmt.Errorf("decode systemState: %w", err)
	}
	return p, nil
}

func parseBool(s string) bool {
	switch s {
	case "true", "1", "t", "y", "yes":
		return true
	default:
		return false
	}
}
