package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newZonesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List zones and their member rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			groupings := h.Resolver().ZoneGroupings()
			if a.opts.JSON {
				return a.out.EmitJSON(groupings)
			}
			if len(groupings) == 0 {
				a.out.Warn("No zones configured")
				return nil
			}
			for _, rooms := range groupings {
				a.out.Print(strings.Join(rooms, ", "))
			}
			return nil
		},
	}
}

func newRoomsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List all rooms with their power state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			resolver := h.Resolver()
			names := resolver.RoomNames()
			if a.opts.JSON {
				type room struct {
					Name  string `json:"name"`
					Power string `json:"power"`
				}
				rooms := make([]room, len(names))
				for i, name := range names {
					rooms[i] = room{Name: name, Power: resolver.RoomPowerState(name).String()}
				}
				return a.out.EmitJSON(rooms)
			}
			for _, name := range names {
				a.out.Print(fmt.Sprintf("%s  %s", name, a.out.Gray(resolver.RoomPowerState(name).String())))
			}
			return nil
		},
	}
}

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices from the device directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			devices := h.Store().Devices().Devices
			if a.opts.JSON {
				type device struct {
					UDN      string `json:"udn"`
					Kind     string `json:"kind"`
					Name     string `json:"name"`
					Location string `json:"location"`
				}
				out := make([]device, len(devices))
				for i, d := range devices {
					out[i] = device{UDN: d.UDN, Kind: d.Kind.String(), Name: d.Name, Location: d.Location}
				}
				return a.out.EmitJSON(out)
			}
			for _, d := range devices {
				a.out.Print(fmt.Sprintf("%-14s %s  %s", d.Kind, a.out.Bold(d.Name), a.out.Gray(d.UDN)))
			}
			return nil
		},
	}
}

func newHostInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Show host name, room and update availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return a.out.EmitJSON(map[string]any{
					"hostName":        h.HostName(),
					"roomName":        h.HostRoom(),
					"updateAvailable": h.UpdateAvailable(),
				})
			}
			a.out.Print("Host: " + a.out.Bold(h.HostName()))
			a.out.Print("Room: " + h.HostRoom())
			if h.UpdateAvailable() {
				a.out.Warn("A software update is available")
			}
			return nil
		},
	}
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Heartbeat probe of the Raumfeld host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opCtx(cmd.Context())
			defer cancel()
			pong, err := h.Ping(ctx)
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return a.out.EmitJSON(pong)
			}
			a.out.Success(fmt.Sprintf("Host answered: %s (%s)", pong.HardwareModel, pong.HardwareNumber))
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream topology update events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			sub := h.Subscribe()
			defer sub.Close()
			a.out.Info("Watching for topology updates (Ctrl-C to stop)...")
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case resource := <-sub.Updates():
					if a.opts.JSON {
						_ = a.out.EmitJSON(map[string]string{"updated": resource.String()})
						continue
					}
					a.out.Print("update: " + resource.String())
				}
			}
		},
	}
}
