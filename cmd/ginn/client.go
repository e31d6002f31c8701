package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/ginn/internal/ipc"
	"github.com/spf13/cobra"
)

var watchesJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := ipc.NewClient().GetStatus()
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var watchesCmd = &cobra.Command{
	Use:   "watches",
	Short: "List the wishes watched per window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ipc.NewClient().ListWatches()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if watchesJSON {
			return printJSON(out, data)
		}
		printWatches(out, data.Watches, isTerminal(os.Stdout))
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload wish files in the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ipc.NewClient().Reload(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wishes reloaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, watchesCmd, reloadCmd)

	watchesCmd.Flags().BoolVar(&watchesJSON, "json", false, "print JSON")
}

func printStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "initialized:    %v\n", s.Initialized)
	if len(s.Pending) > 0 {
		fmt.Fprintf(w, "waiting_for:    %s\n", strings.Join(s.Pending, ", "))
	}
	fmt.Fprintf(w, "windows:        %d (%d apps)\n", s.WindowCount, s.AppCount)
	fmt.Fprintf(w, "watches:        %d\n", s.WatchCount)
	fmt.Fprintf(w, "wishes:         %d\n", s.WishCount)
	fmt.Fprintf(w, "reloads:        %d\n", s.Reloads)
	fmt.Fprintf(w, "uptime_seconds: %d\n", s.UptimeSeconds)
	for _, src := range s.Sources {
		fmt.Fprintf(w, "source:         %s\n", src)
	}
}

// printWatches writes an aligned table with a header, or bare tab-separated
// rows when the output is not a terminal.
func printWatches(w io.Writer, watches []ipc.WatchInfo, header bool) {
	if !header {
		for _, info := range watches {
			fmt.Fprintf(w, "0x%08x\t%s\t%s\t%.2f\n", info.WindowID, info.AppID, info.Rule, info.Accumulated)
		}
		return
	}

	if len(watches) == 0 {
		fmt.Fprintln(w, "no watches")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tAPP\tTITLE\tWISH\tACCUM")
	for _, info := range watches {
		fmt.Fprintf(tw, "0x%08x\t%s\t%s\t%s\t%.2f\n", info.WindowID, info.AppID, truncate(info.Title, 32), info.Rule, info.Accumulated)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
