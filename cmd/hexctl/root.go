package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joshuapare/hexkit/internal/config"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/transfer"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configFile string

	// Resolved before every command runs
	cfg *config.Config

	// Swapped out by tests
	appFS     afero.Fs           = afero.NewOsFs()
	clipboard transfer.Clipboard = transfer.System
	v                            = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "hexctl",
	Short: "Inspect and edit binary files of any size",
	Long: `hexctl opens binary files without loading them into memory and lets you
dump, search, patch, copy and paste byte ranges. Edits are applied through a
piece table and saved atomically.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./hexkit.yaml or ~/.hexkit/hexkit.yaml)")
	rootCmd.PersistentFlags().String("charset", "", "Charset for text patterns and text output")
	rootCmd.PersistentFlags().Bool("mmap", true, "Memory-map the file when possible")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	mustBind(v, "find.charset", "charset")
	mustBind(v, "buffer.mmap", "mmap")
	mustBind(v, "log.level", "log-level")
}

func mustBind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	if c.Find.Charset == "" {
		c.Find.Charset = "UTF-8"
	}
	cfg = c
	lo := cfg.LoggerOptions()
	if verbose && !lo.Enabled {
		lo.Enabled = true
		lo.Writer = os.Stderr
	}
	return logger.Init(lo)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseOffset accepts decimal, 0x hex and 0o octal offsets.
func parseOffset(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid offset %q: negative", s)
	}
	return n, nil
}
