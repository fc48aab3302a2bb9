package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"raumfeld-cli/internal/raumfeld"
	"raumfeld-cli/internal/upnp"
)

func raumfeldSearchOptions() upnp.BrowseOptions {
	return upnp.BrowseOptions{
		RequestedCount: 20,
		SortCriteria:   "+upnp:artist,-dc:date,+dc:title",
	}
}

// newTransportCmds returns a parent command grouping the plain transport
// verbs so the root help stays short.
func newTransportCmds(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transport",
		Short: "Transport controls for a zone",
	}
	type verb struct {
		name, short string
		run         func(ctx context.Context, h *raumfeld.Host, zone []string) error
	}
	verbs := []verb{
		{"play", "Start playback", func(ctx context.Context, h *raumfeld.Host, zone []string) error {
			return h.ZonePlay(ctx, zone)
		}},
		{"pause", "Pause playback", func(ctx context.Context, h *raumfeld.Host, zone []string) error {
			return h.ZonePause(ctx, zone)
		}},
		{"stop", "Stop playback", func(ctx context.Context, h *raumfeld.Host, zone []string) error {
			return h.ZoneStop(ctx, zone)
		}},
		{"next", "Skip to the next track", func(ctx context.Context, h *raumfeld.Host, zone []string) error {
			return h.ZoneNextTrack(ctx, zone)
		}},
		{"previous", "Go back to the previous track", func(ctx context.Context, h *raumfeld.Host, zone []string) error {
			return h.ZonePreviousTrack(ctx, zone)
		}},
	}
	for _, v := range verbs {
		v := v
		cmd.AddCommand(&cobra.Command{
			Use:   v.name + " [ROOM...]",
			Short: v.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				h, zone, ctx, cancel, err := a.zoneOp(cmd, args)
				if err != nil {
					return err
				}
				defer cancel()
				if err := v.run(ctx, h, zone); err != nil {
					return err
				}
				a.out.Success(v.short + ": " + strings.Join(zone, ", "))
				return nil
			},
		})
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seek TARGET [ROOM...]",
		Short: "Seek to an absolute time (H:MM:SS)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, zone, ctx, cancel, err := a.zoneOp(cmd, args[1:])
			if err != nil {
				return err
			}
			defer cancel()
			if err := h.ZoneSeek(ctx, zone, args[0]); err != nil {
				return err
			}
			a.out.Success("Seeked to " + args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status [ROOM...]",
		Short: "Show transport state and position",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, zone, ctx, cancel, err := a.zoneOp(cmd, args)
			if err != nil {
				return err
			}
			defer cancel()
			info, err := h.GetTransportInfo(ctx, zone)
			if err != nil {
				return err
			}
			position, err := h.GetPositionInfo(ctx, zone)
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return a.out.EmitJSON(map[string]any{
					"state":    info.State,
					"status":   info.Status,
					"absTime":  position.AbsTime,
					"track":    position.Track,
					"trackURI": position.TrackURI,
				})
			}
			a.out.Print(fmt.Sprintf("%s at %s", info.State, position.AbsTime))
			return nil
		},
	})
	return cmd
}

// zoneOp is the shared preamble of all zone-addressed commands.
func (a *app) zoneOp(cmd *cobra.Command, args []string) (*raumfeld.Host, []string, context.Context, context.CancelFunc, error) {
	h, err := a.connect(cmd.Context())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	zone, err := a.zoneArgs(args)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := a.opCtx(cmd.Context())
	return h, zone, ctx, cancel, nil
}

func newVolumeCmd(a *app) *cobra.Command {
	var room string
	var relative bool
	cmd := &cobra.Command{
		Use:   "volume [LEVEL] [ROOM...]",
		Short: "Get or set the zone volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			var level *int
			rest := args
			if len(args) > 0 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					level = &n
					rest = args[1:]
				}
			}
			h, zone, ctx, cancel, err := a.zoneOp(cmd, rest)
			if err != nil {
				return err
			}
			defer cancel()
			if level == nil {
				v, err := h.GetZoneVolume(ctx, zone)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.out.EmitJSON(map[string]int{"volume": v})
				}
				a.out.Print(strconv.Itoa(v))
				return nil
			}
			switch {
			case relative:
				err = h.ChangeZoneVolume(ctx, zone, *level)
			case room != "":
				err = h.SetZoneRoomVolume(ctx, zone, *level, []string{room})
			default:
				err = h.SetZoneVolume(ctx, zone, *level)
			}
			if err != nil {
				return err
			}
			a.out.Success(fmt.Sprintf("Volume set to %d", *level))
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "set the volume of a single room in the zone")
	cmd.Flags().BoolVar(&relative, "relative", false, "treat LEVEL as a relative change")
	return cmd
}

func newMuteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mute [on|off] [ROOM...]",
		Short: "Get or set zone mute",
		RunE: func(cmd *cobra.Command, args []string) error {
			var want *bool
			rest := args
			if len(args) > 0 && (args[0] == "on" || args[0] == "off") {
				v := args[0] == "on"
				want = &v
				rest = args[1:]
			}
			h, zone, ctx, cancel, err := a.zoneOp(cmd, rest)
			if err != nil {
				return err
			}
			defer cancel()
			if want == nil {
				muted, err := h.GetZoneMute(ctx, zone)
				if err != nil {
					return err
				}
				if a.opts.JSON {
					return a.out.EmitJSON(map[string]bool{"mute": muted})
				}
				if muted {
					a.out.Print("muted")
				} else {
					a.out.Print("unmuted")
				}
				return nil
			}
			if err := h.SetZoneMute(ctx, zone, *want); err != nil {
				return err
			}
			a.out.Success("Mute " + args[0])
			return nil
		},
	}
}

func newPlayModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "playmode [MODE] [ROOM...]",
		Short: "Get or set the play mode (NORMAL, SHUFFLE, REPEAT_ALL, ...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode string
			rest := args
			if len(args) > 0 && args[0] == strings.ToUpper(args[0]) && args[0] != "" {
				mode = args[0]
				rest = args[1:]
			}
			h, zone, ctx, cancel, err := a.zoneOp(cmd, rest)
			if err != nil {
				return err
			}
			defer cancel()
			if mode == "" {
				current, err := h.GetPlayMode(ctx, zone)
				if err != nil {
					return err
				}
				a.out.Print(current)
				return nil
			}
			if err := h.SetPlayMode(ctx, zone, mode); err != nil {
				return err
			}
			a.out.Success("Play mode set to " + mode)
			return nil
		},
	}
}

func newPlayURICmd(a *app) *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "play-uri URI [ROOM...]",
		Short: "Point the zone transport at a URI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, zone, ctx, cancel, err := a.zoneOp(cmd, args[1:])
			if err != nil {
				return err
			}
			defer cancel()
			if err := h.SetZoneURI(ctx, zone, args[0], metadata); err != nil {
				return err
			}
			a.out.Success("Transport URI set")
			return nil
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "DIDL-Lite metadata for the URI")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var play bool
	cmd := &cobra.Command{
		Use:   "search CRITERIA [ROOM...]",
		Short: "Search the media server, optionally playing the first hit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opCtx(cmd.Context())
			defer cancel()
			criteria := fmt.Sprintf("raumfeld:any contains %q", args[0])
			if play {
				zone, err := a.zoneArgs(args[1:])
				if err != nil {
					return err
				}
				if err := h.SearchAndZonePlay(ctx, zone, criteria); err != nil {
					return err
				}
				a.out.Success("Playing first match for " + args[0])
				return nil
			}
			result, err := h.Search(ctx, "0", criteria, raumfeldSearchOptions())
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return a.out.EmitJSON(result)
			}
			a.out.Print(fmt.Sprintf("%d matches", result.TotalMatches))
			return nil
		},
	}
	cmd.Flags().BoolVar(&play, "play", false, "play the first match in the zone")
	return cmd
}
