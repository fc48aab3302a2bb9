package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"raumfeld-cli/internal/snapstore"
)

func newSaveCmd(a *app) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "save [ROOM...]",
		Short: "Save the zone's playback state",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, zone, ctx, cancel, err := a.zoneOp(cmd, args)
			if err != nil {
				return err
			}
			defer cancel()

			store, err := snapstore.NewFileStore()
			if err != nil {
				return err
			}
			if _, exists, err := store.Get(zone); err != nil {
				return err
			} else if exists && !replace {
				a.out.Warn("Snapshot already exists (use --replace to overwrite)")
				return nil
			}

			if err := h.SaveZone(ctx, zone, replace); err != nil {
				return err
			}
			snap, ok := h.Snapshots().Get(zone)
			if !ok {
				return fmt.Errorf("snapshot was not captured")
			}
			if err := store.Put(snapstore.Entry{Rooms: zone, SavedAt: time.Now().UTC(), Snapshot: snap}); err != nil {
				return err
			}
			a.out.Success("Saved playback state of " + strings.Join(zone, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "overwrite an existing snapshot")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "restore [ROOM...]",
		Short: "Restore the zone's saved playback state",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, zone, ctx, cancel, err := a.zoneOp(cmd, args)
			if err != nil {
				return err
			}
			defer cancel()

			store, err := snapstore.NewFileStore()
			if err != nil {
				return err
			}
			entry, ok, err := store.Get(zone)
			if err != nil {
				return err
			}
			if !ok {
				a.out.Warn("No snapshot for " + strings.Join(zone, ", "))
				return nil
			}

			h.Snapshots().Put(zone, entry.Snapshot)
			if err := h.RestoreZone(ctx, zone, !keep); err != nil {
				return err
			}
			if !keep {
				if err := store.Delete(zone); err != nil {
					return err
				}
			}
			a.out.Success("Restored playback state of " + strings.Join(zone, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the snapshot after restoring")
	return cmd
}

func newSnapshotsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List saved playback snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapstore.NewFileStore()
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			if a.opts.JSON {
				return a.out.EmitJSON(entries)
			}
			if len(entries) == 0 {
				a.out.Warn("No snapshots saved")
				return nil
			}
			for _, e := range entries {
				a.out.Print(fmt.Sprintf("%s  %s", strings.Join(e.Rooms, ", "),
					a.out.Gray(e.SavedAt.Format(time.RFC3339))))
			}
			return nil
		},
	}
}
