package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/find"
	"github.com/joshuapare/hexkit/session"
)

var (
	editOutput string
	editDryRun bool
)

func init() {
	cmd := newEditCmd()
	cmd.Flags().StringVarP(&editOutput, "output", "o", "", "Save to this file instead of overwriting the input")
	cmd.Flags().BoolVar(&editDryRun, "dry-run", false, "Print a dump of the edited range instead of saving")
	rootCmd.AddCommand(cmd)
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <file> <op>...",
		Short: "Apply byte edits to a file",
		Long: `The edit command applies operations in order and saves the result
atomically. Byte values are hex digits; offsets are decimal or 0x hex.

Operations:
  insert:<offset>:<hex>        insert bytes
  overwrite:<offset>:<hex>     overwrite bytes, extending the file at its end
  delete:<offset>:<count>      delete bytes
  replace:<hex>:<hex>          replace every occurrence of a byte pattern
  undo                         revert the previous operation
  redo                         replay the last reverted operation

Example:
  hexctl edit firmware.bin overwrite:0x10:DEADBEEF
  hexctl edit data.bin insert:0:CAFE delete:100:4 -o patched.bin
  hexctl edit data.bin replace:0D0A:0A --dry-run`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), args)
		},
	}
	return cmd
}

func runEdit(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path := args[0]
	s, err := openSession(path)
	if err != nil {
		return err
	}
	defer s.Close()

	lo, hi := s.Buffer().Length(), int64(0)
	for _, op := range args[1:] {
		printVerbose("Applying %s\n", op)
		start, end, err := applyOp(ctx, s, op)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		// each op is its own undo step, even single-byte ones
		s.Buffer().CommitTyping()
		lo, hi = min(lo, start), max(hi, end)
	}

	if editDryRun {
		if hi <= lo {
			printInfo("No changes\n")
			return nil
		}
		return writeDump(os.Stdout, s.Buffer(), lo, hi-lo, 16)
	}
	if !s.Buffer().IsDirty() {
		printInfo("No changes\n")
		return nil
	}
	if err := s.Save(ctx, editOutput); err != nil {
		return err
	}
	printInfo("Saved %s (%d bytes)\n", s.Path(), s.Buffer().Length())
	return nil
}

// applyOp runs one operation and returns the span it touched.
func applyOp(ctx context.Context, s *session.Session, op string) (start, end int64, err error) {
	b := s.Buffer()
	parts := strings.Split(op, ":")
	switch parts[0] {
	case "undo", "redo":
		fn := s.Undo
		if parts[0] == "redo" {
			fn = s.Redo
		}
		sel, ok, err := fn()
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return 0, 0, fmt.Errorf("nothing to %s", parts[0])
		}
		return sel.Start, sel.End, nil
	}
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("expected <op>:<arg>:<arg>")
	}

	if parts[0] == "replace" {
		repl, err := find.ParseHex(parts[2])
		if err != nil {
			return 0, 0, err
		}
		s.Select(0, 0)
		s.SetInsertMode(true)
		n, err := s.ReplaceAll(ctx, session.Query{Pattern: parts[1], Hex: true, Forward: true}, repl)
		if err != nil {
			return 0, 0, err
		}
		printVerbose("  %d replacement(s)\n", n)
		if n == 0 {
			return b.Length(), 0, nil
		}
		return 0, b.Length(), nil
	}

	pos, err := parseOffset(parts[1])
	if err != nil {
		return 0, 0, err
	}
	switch parts[0] {
	case "insert", "overwrite":
		data, err := find.ParseHex(parts[2])
		if err != nil {
			return 0, 0, err
		}
		if parts[0] == "insert" {
			err = b.Insert(data, pos)
		} else {
			err = b.Overwrite(data, pos)
		}
		return pos, pos + int64(len(data)), err
	case "delete":
		n, err := parseOffset(parts[2])
		if err != nil {
			return 0, 0, err
		}
		return pos, pos, b.Delete(pos, n)
	}
	return 0, 0, fmt.Errorf("unknown operation %q", parts[0])
}
