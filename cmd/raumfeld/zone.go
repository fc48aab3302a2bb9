package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCreateZoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-zone ROOM...",
		Short: "Group rooms into a new zone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opCtx(cmd.Context())
			defer cancel()
			if err := h.CreateZone(ctx, args); err != nil {
				return err
			}
			if h.Resolver().IsValidZoneGrouping(args) {
				a.out.Success("Zone created: " + strings.Join(args, ", "))
				return nil
			}
			// Zone mutation is asynchronous; the host may still converge.
			a.out.Warn("Zone request sent; topology has not converged yet")
			return nil
		},
	}
}

func newDropRoomCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop-room ROOM",
		Short: "Remove a room from its zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := a.opCtx(cmd.Context())
			defer cancel()
			if err := h.DropRoom(ctx, args[0]); err != nil {
				return err
			}
			a.out.Success("Drop requested for " + args[0])
			return nil
		},
	}
}

func newStandbyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standby",
		Short: "Control room power state",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "auto ROOM",
			Short: "Put a room into automatic standby",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return standbyAction(a, cmd, args[0], "auto")
			},
		},
		&cobra.Command{
			Use:   "manual ROOM",
			Short: "Put a room into manual standby",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return standbyAction(a, cmd, args[0], "manual")
			},
		},
		&cobra.Command{
			Use:   "off ROOM",
			Short: "Wake a room from standby",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return standbyAction(a, cmd, args[0], "off")
			},
		},
	)
	return cmd
}

func standbyAction(a *app, cmd *cobra.Command, room, mode string) error {
	h, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}
	ctx, cancel := a.opCtx(cmd.Context())
	defer cancel()
	switch mode {
	case "auto":
		err = h.EnterAutomaticStandby(ctx, room)
	case "manual":
		err = h.EnterManualStandby(ctx, room)
	case "off":
		err = h.LeaveStandby(ctx, room)
	}
	if err != nil {
		return err
	}
	a.out.Success(fmt.Sprintf("Standby request (%s) sent for %s", mode, room))
	return nil
}
