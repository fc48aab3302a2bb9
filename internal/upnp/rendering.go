package upnp

import (
	"context"
	"strconv"
)

func (c *Client) GetVolume(ctx context.Context, location string) (int, error) {
	resp, err := c.soapCall(ctx, location, urnRenderingControl, "GetVolume", map[string]string{
		"InstanceID": "0",
		"Channel":    "Master",
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp["CurrentVolume"])
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) SetVolume(ctx context.Context, location string, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	_, err := c.soapCall(ctx, location, urnRenderingControl, "SetVolume", map[string]string{
		"InstanceID":    "0",
		"Channel":       "Master",
		"DesiredVolume": strconv.Itoa(volume),
	})
	return err
}

// ChangeVolume adjusts the zone volume relative to its current level,
// keeping room volume relations intact (Raumfeld extension).
func (c *Client) ChangeVolume(ctx context.Context, location string, amount int) error {
	_, err := c.soapCall(ctx, location, urnRenderingControl, "ChangeVolume", map[string]string{
		"InstanceID": "0",
		"Amount":     strconv.Itoa(amount),
	})
	return err
}

// SetRoomVolume sets the volume of a single room inside a zone (Raumfeld
// extension). roomUDN must be a member of the zone behind location.
func (c *Client) SetRoomVolume(ctx context.Context, location, roomUDN string, volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	_, err := c.soapCall(ctx, location, urnRenderingControl, "SetRoomVolume", map[string]string{
		"InstanceID":    "0",
		"Room":          roomUDN,
		"DesiredVolume": strconv.Itoa(volume),
	})
	return err
}

func (c *Client) GetMute(ctx context.Context, location string) (bool, error) {
	resp, err := c.soapCall(ctx, location, urnRenderingControl, "GetMute", map[string]string{
		"InstanceID": "0",
		"Channel":    "Master",
	})
	if err != nil {
		return false, err
	}
	return upnpToBool(resp["CurrentMute"]), nil
}

func (c *Client) SetMute(ctx context.Context, location string, mute bool) error {
	_, err := c.soapCall(ctx, location, urnRenderingControl, "SetMute", map[string]string{
		"InstanceID":  "0",
		"Channel":     "Master",
		"DesiredMute": boolToUPnP(mute),
	})
	return err
}
