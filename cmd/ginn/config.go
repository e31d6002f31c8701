package main

import (
	"fmt"
	"io"

	"github.com/1broseidon/ginn/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		return printConfig(cmd.OutOrStdout(), res)
	},
}

var configExplainCmd = &cobra.Command{
	Use:   "explain <yaml.path>",
	Short: "Show a config value and where it was set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		return explainConfig(cmd.OutOrStdout(), res, args[0])
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPrintCmd, configExplainCmd)
}

func printConfig(w io.Writer, res *config.LoadResult) error {
	if res.File != "" {
		fmt.Fprintf(w, "# file: %s\n", res.File)
	} else {
		fmt.Fprintln(w, "# file: (defaults)")
	}
	data, err := yaml.Marshal(res.Config)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func explainConfig(w io.Writer, res *config.LoadResult, path string) error {
	value, src, err := config.Explain(res, path)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "source: %s\n", formatSource(src))
	fmt.Fprintf(w, "value:\n%s", out)
	return nil
}

func formatSource(src config.Source) string {
	if src.File == "" {
		return "default"
	}
	return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
}
