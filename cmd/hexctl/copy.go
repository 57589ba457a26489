package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/transfer"
)

var (
	copyOffset string
	copyLength string
	copyText   bool
	copyStdout bool
)

func init() {
	cmd := newCopyCmd()
	cmd.Flags().StringVar(&copyOffset, "offset", "0", "Start offset")
	cmd.Flags().StringVar(&copyLength, "length", "", "Bytes to copy (default: to end of file)")
	cmd.Flags().BoolVar(&copyText, "text", false, "Copy as text in the configured charset instead of hex")
	cmd.Flags().BoolVar(&copyStdout, "stdout", false, "Write the raw bytes to stdout instead of the clipboard")
	rootCmd.AddCommand(cmd)
}

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy <file>",
		Short: "Copy a byte range to the clipboard",
		Long: `The copy command streams a range of a file through a spool file and puts
its hex (or text) rendering on the system clipboard.

Example:
  hexctl copy disk.img --offset 0x1BE --length 64
  hexctl copy notes.bin --text
  hexctl copy disk.img --offset 512 --length 512 --stdout > sector.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd.Context(), args)
		},
	}
	return cmd
}

func runCopy(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseOffset(copyOffset)
	if err != nil {
		return err
	}
	length := s.Buffer().Length()
	if copyLength != "" {
		if length, err = parseOffset(copyLength); err != nil {
			return err
		}
	}

	opts := cfg.TransferOptions(appFS)
	if copyText {
		opts.Text = transfer.TextCharset
	}
	p, err := transfer.CopyOut(ctx, s.Buffer(), start, length, opts)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	defer p.Close()

	if copyStdout {
		rc, err := p.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(os.Stdout, rc)
		return err
	}

	if err := transfer.Publish(clipboard, p); err != nil {
		if errors.Is(err, transfer.ErrClipboardUnavailable) {
			return fmt.Errorf("%w (try --stdout)", err)
		}
		return err
	}
	printVerbose("%s\n", p.Text)
	if p.Truncated {
		printInfo("Copied %d bytes (clipboard text truncated)\n", p.Len())
	} else {
		printInfo("Copied %d bytes\n", p.Len())
	}
	return nil
}
