package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"raumfeld-cli/internal/config"
	"raumfeld-cli/internal/output"
	"raumfeld-cli/internal/raumfeld"
)

const version = "1.0.0"

type globalOptions struct {
	Host    string
	Port    int
	Zone    []string
	Timeout time.Duration
	JSON    bool
	Quiet   bool
	NoColor bool
	Debug   bool
}

// app carries the resolved configuration and lazily connected host shared
// by all commands.
type app struct {
	opts globalOptions
	out  *output.Output
	host *raumfeld.Host
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	a := &app{}

	root := &cobra.Command{
		Use:           "raumfeld",
		Short:         "Control Teufel Raumfeld multi-room audio from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.opts.Debug {
				enableDebugLogging(os.Stderr)
			}
			a.out = output.New(output.Options{
				JSON:  a.opts.JSON,
				Quiet: a.opts.Quiet,
				NoColor: a.opts.NoColor ||
					os.Getenv("NO_COLOR") != "" ||
					!term.IsTerminal(int(os.Stdout.Fd())),
			})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.Host, "host", cfg.Host, "Raumfeld host address")
	flags.IntVar(&a.opts.Port, "port", cfg.Port, "Raumfeld host web service port")
	a.opts.Zone = cfg.DefaultZone
	flags.Var(&roomListValue{rooms: &a.opts.Zone}, "zone", "zone room names, comma separated")
	flags.DurationVar(&a.opts.Timeout, "timeout", 30*time.Second, "per-operation timeout")
	flags.BoolVar(&a.opts.JSON, "json", false, "emit JSON output")
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "suppress informational output")
	flags.BoolVar(&a.opts.NoColor, "no-color", false, "disable colored output")
	flags.BoolVar(&a.opts.Debug, "debug", false, "enable debug logging to stderr")

	root.AddCommand(
		newZonesCmd(a),
		newRoomsCmd(a),
		newDevicesCmd(a),
		newHostInfoCmd(a),
		newPingCmd(a),
		newWatchCmd(a),
		newCreateZoneCmd(a),
		newDropRoomCmd(a),
		newStandbyCmd(a),
		newTransportCmds(a),
		newVolumeCmd(a),
		newMuteCmd(a),
		newPlayModeCmd(a),
		newPlayURICmd(a),
		newSearchCmd(a),
		newSaveCmd(a),
		newRestoreCmd(a),
		newSnapshotsCmd(a),
	)
	return root
}

// roomListValue parses a comma-separated room list, trimming whitespace so
// quoted lists like "Kitchen, Living" address the same zone as
// "Kitchen,Living".
type roomListValue struct {
	rooms *[]string
}

var _ pflag.Value = (*roomListValue)(nil)

func (v *roomListValue) String() string {
	if v.rooms == nil {
		return ""
	}
	return strings.Join(*v.rooms, ",")
}

func (v *roomListValue) Set(s string) error {
	*v.rooms = config.SplitRooms(s)
	return nil
}

func (v *roomListValue) Type() string { return "rooms" }

// enableDebugLogging configures the global slog logger to emit debug logs.
//
// It is intentionally a no-op unless the user passes --debug, to avoid
// affecting library/test consumers.
func enableDebugLogging(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// connect starts background synchronization against the configured host
// and blocks until the first full topology has arrived.
func (a *app) connect(ctx context.Context) (*raumfeld.Host, error) {
	if a.host != nil {
		return a.host, nil
	}
	if a.opts.Host == "" {
		return nil, errors.New("no Raumfeld host configured (set --host or RAUMFELD_HOST)")
	}
	h := raumfeld.NewHost(a.opts.Host, a.opts.Port)
	if !h.IsValid(ctx) {
		return nil, fmt.Errorf("host %s:%d does not answer like a Raumfeld host", a.opts.Host, a.opts.Port)
	}
	// The sync loops live for the whole process; only the readiness wait
	// is bounded.
	if err := h.Synchronizer().Start(ctx); err != nil {
		return nil, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	if err := h.Synchronizer().WaitReady(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out waiting for topology from %s", a.opts.Host)
		}
		return nil, err
	}
	a.host = h
	return h, nil
}

// opCtx bounds one remote operation.
func (a *app) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.opts.Timeout)
}

// zoneArgs resolves the room grouping a command addresses: positional
// arguments first, then the --zone flag / configured default.
func (a *app) zoneArgs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.opts.Zone) > 0 {
		return a.opts.Zone, nil
	}
	return nil, errors.New("no zone given (pass room names or set --zone)")
}
