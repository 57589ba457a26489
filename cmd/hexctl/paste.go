package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/transfer"
)

var (
	pasteOffset    string
	pasteOverwrite bool
	pasteFrom      string
	pasteRaw       bool
	pasteOutput    string
)

func init() {
	cmd := newPasteCmd()
	cmd.Flags().StringVar(&pasteOffset, "offset", "0", "Offset to paste at")
	cmd.Flags().BoolVar(&pasteOverwrite, "overwrite", false, "Overwrite instead of insert; stops at the end of the file")
	cmd.Flags().StringVar(&pasteFrom, "from", "", "Paste the contents of this file instead of the clipboard")
	cmd.Flags().BoolVar(&pasteRaw, "raw", false, "Take clipboard text verbatim instead of parsing hex")
	cmd.Flags().StringVarP(&pasteOutput, "output", "o", "", "Save to this file instead of overwriting the input")
	rootCmd.AddCommand(cmd)
}

func newPasteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste <file>",
		Short: "Paste clipboard bytes into a file",
		Long: `The paste command writes the clipboard contents into a file and saves it.
Clipboard text that parses as hex digits is pasted as those bytes.

Example:
  hexctl paste disk.img --offset 0x1BE --overwrite
  hexctl paste data.bin --offset 16 --from header.bin -o patched.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaste(cmd.Context(), args)
		},
	}
	return cmd
}

func runPaste(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pos, err := parseOffset(pasteOffset)
	if err != nil {
		return err
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()
	if size := s.Buffer().Length(); pos > size {
		return fmt.Errorf("offset %d beyond end of file (%d bytes)", pos, size)
	}

	var p *transfer.Payload
	if pasteFrom != "" {
		data, err := afero.ReadFile(appFS, pasteFrom)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", pasteFrom, err)
		}
		p = transfer.NewPayload(data)
	} else {
		if p, err = transfer.Fetch(clipboard, !pasteRaw); err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
	}

	s.SetInsertMode(!pasteOverwrite)
	s.Select(pos, pos)
	n, err := s.Paste(ctx, p)
	if err != nil {
		return fmt.Errorf("paste failed: %w", err)
	}
	if n == 0 {
		printInfo("Nothing pasted\n")
		return nil
	}
	if err := s.Save(ctx, pasteOutput); err != nil {
		return err
	}
	printInfo("Pasted %d bytes at 0x%x into %s\n", n, pos, s.Path())
	return nil
}
