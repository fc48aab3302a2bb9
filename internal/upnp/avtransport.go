package upnp

import (
	"context"
	"strconv"
)

// Transport states reported by GetTransportInfo.
const (
	StateTransitioning  = "TRANSITIONING"
	StatePlaying        = "PLAYING"
	StateStopped        = "STOPPED"
	StatePausedPlayback = "PAUSED_PLAYBACK"
)

const seekUnitAbsTime = "ABS_TIME"

// MediaInfo is the subset of GetMediaInfo used by save/restore.
type MediaInfo struct {
	CurrentURI         string
	CurrentURIMetaData string
	NrTracks           int
}

// PositionInfo is the subset of GetPositionInfo used by save/restore.
type PositionInfo struct {
	Track    int
	AbsTime  string
	RelTime  string
	TrackURI string
}

// TransportInfo mirrors GetTransportInfo.
type TransportInfo struct {
	State  string
	Status string
	Speed  string
}

// TransportSettings mirrors GetTransportSettings.
type TransportSettings struct {
	PlayMode string
}

func (c *Client) GetMediaInfo(ctx context.Context, location string) (MediaInfo, error) {
	resp, err := c.soapCall(ctx, location, urnAVTransport, "GetMediaInfo", map[string]string{
		"InstanceID": "0",
	})
	if err != nil {
		return MediaInfo{}, err
	}
	tracks, _ := strconv.Atoi(resp["NrTracks"])
	return MediaInfo{
		CurrentURI:         resp["CurrentURI"],
		CurrentURIMetaData: resp["CurrentURIMetaData"],
		NrTracks:           tracks,
	}, nil
}

func (c *Client) GetPositionInfo(ctx context.Context, location string) (PositionInfo, error) {
	resp, err := c.soapCall(ctx, location, urnAVTransport, "GetPositionInfo", map[string]string{
		"InstanceID": "0",
	})
	if err != nil {
		return PositionInfo{}, err
	}
	track, _ := strconv.Atoi(resp["Track"])
	return PositionInfo{
		Track:    track,
		AbsTime:  resp["AbsTime"],
		RelTime:  resp["RelTime"],
		TrackURI: resp["TrackURI"],
	}, nil
}

func (c *Client) GetTransportInfo(ctx context.Context, location string) (TransportInfo, error) {
	resp, err := c.soapCall(ctx, location, urnAVTransport, "GetTransportInfo", map[string]string{
		"InstanceID": "0",
	})
	if err != nil {
		return TransportInfo{}, err
	}
	return TransportInfo{
		State:  resp["CurrentTransportState"],
		Status: resp["CurrentTransportStatus"],
		Speed:  resp["CurrentSpeed"],
	}, nil
}

func (c *Client) GetTransportSettings(ctx context.Context, location string) (TransportSettings, error) {
	resp, err := c.soapCall(ctx, location, urnAVTransport, "GetTransportSettings", map[string]string{
		"InstanceID": "0",
	})
	if err != nil {
		return TransportSettings{}, err
	}
	return TransportSettings{PlayMode: resp["PlayMode"]}, nil
}

func (c *Client) SetAVTransportURI(ctx context.Context, location, currentURI, currentURIMetaData string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "SetAVTransportURI", map[string]string{
		"InstanceID":         "0",
		"CurrentURI":         currentURI,
		"CurrentURIMetaData": currentURIMetaData,
	})
	return err
}

func (c *Client) SetPlayMode(ctx context.Context, location, playMode string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "SetPlayMode", map[string]string{
		"InstanceID":  "0",
		"NewPlayMode": playMode,
	})
	return err
}

func (c *Client) Play(ctx context.Context, location string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Play", map[string]string{
		"InstanceID": "0",
		"Speed":      "1",
	})
	return err
}

func (c *Client) Pause(ctx context.Context, location string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Pause", map[string]string{
		"InstanceID": "0",
	})
	return err
}

func (c *Client) Stop(ctx context.Context, location string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Stop", map[string]string{
		"InstanceID": "0",
	})
	return err
}

// Seek jumps to an absolute time of the form H:MM:SS.
func (c *Client) Seek(ctx context.Context, location, target string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Seek", map[string]string{
		"InstanceID": "0",
		"Unit":       seekUnitAbsTime,
		"Target":     target,
	})
	return err
}

func (c *Client) Next(ctx context.Context, location string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Next", map[string]string{
		"InstanceID": "0",
	})
	return err
}

func (c *Client) Previous(ctx context.Context, location string) error {
	_, err := c.soapCall(ctx, location, urnAVTransport, "Previous", map[string]string{
		"InstanceID": "0",
	})
	return err
}
