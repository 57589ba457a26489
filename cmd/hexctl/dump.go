package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/content"
)

var (
	dumpOffset string
	dumpLength int64
	dumpWidth  int
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpOffset, "offset", "0", "Start offset (decimal or 0x hex)")
	cmd.Flags().Int64Var(&dumpLength, "length", 256, "Bytes to dump (0 = to end of file)")
	cmd.Flags().IntVar(&dumpWidth, "width", 16, "Bytes per line")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Hex dump a range of a file",
		Long: `The dump command prints offset, hex and character columns for a range
of a file. Only one line's worth of bytes is read at a time.

Example:
  hexctl dump disk.img
  hexctl dump disk.img --offset 0x1BE --length 64
  hexctl dump disk.img --length 0 --width 32`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

func runDump(args []string) error {
	start, err := parseOffset(dumpOffset)
	if err != nil {
		return err
	}
	if dumpWidth <= 0 {
		return fmt.Errorf("width must be positive")
	}
	b, err := content.Open(args[0], cfg.ContentOptions(appFS))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer b.Dispose()

	length := dumpLength
	if length <= 0 {
		length = b.Length()
	}
	return writeDump(os.Stdout, b, start, length, dumpWidth)
}

// writeDump prints [start, start+length) of b. Edited bytes are marked with
// a '*' after their hex pair.
func writeDump(w io.Writer, b *content.Buffer, start, length int64, width int) error {
	line := make([]byte, width)
	end := min(start+length, b.Length())
	for pos := start; pos < end; pos += int64(width) {
		n, changes, err := b.ReadChanges(line[:min(int64(width), end-pos)], pos)
		if err != nil {
			return err
		}
		changed := make([]bool, n)
		for _, c := range changes {
			for i := c.Start; i < c.End(); i++ {
				changed[i] = true
			}
		}

		var hexCol, charCol strings.Builder
		for i := 0; i < width; i++ {
			if i >= n {
				hexCol.WriteString("   ")
				continue
			}
			mark := byte(' ')
			if changed[i] {
				mark = '*'
			}
			fmt.Fprintf(&hexCol, "%02x%c", line[i], mark)
			c := line[i]
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			charCol.WriteByte(c)
		}
		if _, err := fmt.Fprintf(w, "%08x  %s |%s|\n", pos, hexCol.String(), charCol.String()); err != nil {
			return err
		}
	}
	return nil
}
