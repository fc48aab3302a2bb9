// Package webservice talks to the Raumfeld host's web service: long-polled
// resource reads and fire-and-forget topology/power actions.
package webservice

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Long-polled resource paths.
const (
	PathHostInfo    = "/getHostInfo"
	PathZoneConfig  = "/getZones"
	PathDevices     = "/listDevices"
	PathSystemState = "/SystemStateChannel"
)

// PollResult classifies a long-poll response.
type PollResult int

const (
	// PollUpdated carries a new body and update cursor.
	PollUpdated PollResult = iota
	// PollUnchanged means the host reported no change before the wait
	// hint elapsed; poll again with the same cursor.
	PollUnchanged
)

type Client struct {
	Location string
	HTTP     *http.Client
}

func NewClient(host string, port int) *Client {
	return &Client{
		Location: fmt.Sprintf("http://%s:%d", host, port),
		// No client timeout: long-poll requests are expected to hang
		// until the wait hint elapses. Callers bound requests via ctx.
		HTTP: &http.Client{},
	}
}

// Poll issues one long-poll GET against path. updateID is the cursor from
// the previous response, empty on the first call; wait is the preferred
// hold time hint for the host.
func (c *Client) Poll(ctx context.Context, path, updateID string, wait time.Duration) (body []byte, newUpdateID string, result PollResult, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Location+path, nil)
	if err != nil {
		return nil, "", 0, err
	}
	req.Header.Set("Prefer", fmt.Sprintf("wait=%d", int(wait.Seconds())))
	if updateID != "" {
		req.Header.Set("updateID", updateID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", 0, err
		}
		return b, resp.Header.Get("updateID"), PollUpdated, nil
	case http.StatusNotModified:
		return nil, updateID, PollUnchanged, nil
	default:
		return nil, "", 0, fmt.Errorf("raumfeld host error: %d", resp.StatusCode)
	}
}

// get issues a fire-and-forget action request. The host applies these
// asynchronously; success is only ever inferred by watching the topology
// converge, never from the response.
func (c *Client) get(ctx context.Context, path string, params url.Values) error {
	u := c.Location + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("raumfeld host error: %d", resp.StatusCode)
	}
	return nil
}

// ConnectRoomToZone puts the room into the zone. With an empty zoneUDN the
// host creates a new zone; with an empty roomUDN all available rooms are
// connected.
func (c *Client) ConnectRoomToZone(ctx context.Context, zoneUDN, roomUDN string) error {
	params := url.Values{}
	if zoneUDN != "" {
		params.Set("zoneUDN", zoneUDN)
	}
	if roomUDN != "" {
		params.Set("roomUDN", roomUDN)
	}
	return c.get(ctx, "/connectRoomToZone", params)
}

// ConnectRoomsToZone puts the rooms into the zone. With an empty zoneUDN
// the host creates a new zone for them.
func (c *Client) ConnectRoomsToZone(ctx context.Context, zoneUDN string, roomUDNs []string) error {
	params := url.Values{}
	if zoneUDN != "" {
		params.Set("zoneUDN", zoneUDN)
	}
	if len(roomUDNs) > 0 {
		params.Set("roomUDNs", strings.Join(roomUDNs, ","))
	}
	return c.get(ctx, "/connectRoomsToZone", params)
}

// DropRoom removes the room from whatever zone it is in.
func (c *Client) DropRoom(ctx context.Context, roomUDN string) error {
	return c.get(ctx, "/dropRoomJob", url.Values{"roomUDN": {roomUDN}})
}

func (c *Client) EnterAutomaticStandby(ctx context.Context, roomUDN string) error {
	return c.get(ctx, "/enterAutomaticStandby", url.Values{"roomUDN": {roomUDN}})
}

func (c *Client) EnterManualStandby(ctx context.Context, roomUDN string) error {
	return c.get(ctx, "/enterManualStandby", url.Values{"roomUDN": {roomUDN}})
}

func (c *Client) LeaveStandby(ctx context.Context, roomUDN string) error {
	return c.get(ctx, "/leaveStandby", url.Values{"roomUDN": {roomUDN}})
}

// Pong is the host's reply to a Ping.
type Pong struct {
	XMLName        xml.Name `xml:"response"`
	HardwareModel  string   `xml:"hardwareModel"`
	HardwareNumber string   `xml:"hardwareNumber"`
}

// Ping is a heartbeat probe returning the host's hardware identification.
func (c *Client) Ping(ctx context.Context) (Pong, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Location+"/Ping", nil)
	if err != nil {
		return Pong{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Pong{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Pong{}, fmt.Errorf("raumfeld host error: %d", resp.StatusCode)
	}
	var pong Pong
	if err := xml.NewDecoder(resp.Body).Decode(&pong); err != nil {
		return Pong{}, fmt.Errorf("decode ping response: %w", err)
	}
	return pong, nil
}
