package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/content"
	"github.com/joshuapare/hexkit/session"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Report size and buffer statistics of a file",
		Long: `The info command opens a file read-only and reports its size and the state
of the edit buffer built over it.

Example:
  hexctl info disk.img
  hexctl info disk.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

// openSession opens path with the resolved configuration.
func openSession(path string) (*session.Session, error) {
	opts := cfg.SessionOptions(appFS)
	opts.Clipboard = clipboard
	s, err := session.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return s, nil
}

type fileInfo struct {
	File string `json:"file"`
	content.Stats
}

func runInfo(args []string) error {
	path := args[0]
	printVerbose("Opening file: %s\n", path)

	s, err := openSession(path)
	if err != nil {
		return err
	}
	defer s.Close()

	info := fileInfo{File: path, Stats: s.Buffer().Stats()}
	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nFile Information:\n")
	printInfo("  File: %s\n", path)
	printInfo("  Size: %s (%d bytes)\n", humanSize(info.Length), info.Length)
	printInfo("  Pieces: %d\n", info.Pieces)
	printInfo("  Mapped: %t\n", cfg.Buffer.Mmap)
	return nil
}

func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
	}
}
