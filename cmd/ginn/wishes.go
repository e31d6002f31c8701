package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/1broseidon/ginn/internal/keymap"
	"github.com/1broseidon/ginn/internal/wish"
	"github.com/spf13/cobra"
)

var wishesCmd = &cobra.Command{
	Use:   "wishes",
	Short: "Inspect wish files without a running daemon",
}

var wishesCheckCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Parse wish files and report errors",
	Long: `Parse wish files and report errors. Keysyms are not resolved, so checks
do not need an X server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := wishFiles(args)
		if err != nil {
			return err
		}
		return checkWishes(cmd.OutOrStdout(), files)
	},
}

var wishesListCmd = &cobra.Command{
	Use:   "list [files...]",
	Short: "Print the merged wish table",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := wishFiles(args)
		if err != nil {
			return err
		}
		res, err := loadConfig()
		if err != nil {
			return err
		}
		return listWishes(cmd.OutOrStdout(), files, newLogger(cmd.ErrOrStderr(), res.Config))
	},
}

func init() {
	rootCmd.AddCommand(wishesCmd)
	wishesCmd.AddCommand(wishesCheckCmd, wishesListCmd)
}

func wishFiles(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	res, err := loadConfig()
	if err != nil {
		return nil, err
	}
	files := res.Config.WishFiles(nil)
	if len(files) == 0 {
		return nil, fmt.Errorf("no wish files found")
	}
	return files, nil
}

func checkWishes(w io.Writer, files []string) error {
	keys := keymap.NewStatic(nil)
	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		table, err := wish.ParseXML(data, keys)
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "ok   %s (%d apps, %d wishes)\n", path, len(table), table.WishCount())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d wish files failed", failed, len(files))
	}
	return nil
}

func listWishes(w io.Writer, files []string, logger *slog.Logger) error {
	var sources []wish.Source
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable wish source", "source", path, "error", err)
			continue
		}
		sources = append(sources, wish.Source{Name: path, Text: data})
	}

	table, report := wish.Load(sources, keymap.NewStatic(nil), logger)
	if len(report.Loaded) == 0 {
		return fmt.Errorf("no wish file could be loaded")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APP\tWISH\tRULE")
	for _, app := range table.Apps() {
		for _, entry := range table[app].All() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", app, entry.Name(), entry.String())
		}
	}
	return tw.Flush()
}
