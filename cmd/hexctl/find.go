package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/session"
)

var (
	findHex           bool
	findCaseSensitive bool
	findBackward      bool
	findFrom          string
	findMax           int
	findCount         bool
)

func init() {
	cmd := newFindCmd()
	cmd.Flags().BoolVar(&findHex, "hex", false, "Pattern is hex digits")
	cmd.Flags().BoolVar(&findCaseSensitive, "case-sensitive", false, "Case-sensitive text search")
	cmd.Flags().BoolVar(&findBackward, "backward", false, "Search towards the start of the file")
	cmd.Flags().StringVar(&findFrom, "from", "", "Start offset (default: start, or end with --backward)")
	cmd.Flags().IntVar(&findMax, "max-results", 0, "Limit results (0 = unlimited)")
	cmd.Flags().BoolVar(&findCount, "count", false, "Only count matches, overlapping ones included")
	rootCmd.AddCommand(cmd)
}

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <file> <pattern>",
		Short: "Search a file for text or bytes",
		Long: `The find command prints the offset and length of every match of a pattern.
Text patterns are encoded in the configured charset and compared
case-insensitively unless --case-sensitive is given.

Example:
  hexctl find disk.img "NTFS"
  hexctl find disk.img "55 AA" --hex
  hexctl find disk.img "error" --backward --max-results 1
  hexctl find disk.img "00000000" --hex --count`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return runFind(ctx, args)
		},
	}
	return cmd
}

type findResult struct {
	Offset int64 `json:"offset"`
	Length int   `json:"length"`
}

func runFind(ctx context.Context, args []string) error {
	path, pattern := args[0], args[1]
	printVerbose("Opening file: %s\n", path)
	printVerbose("Searching for pattern: %s\n", pattern)

	s, err := openSession(path)
	if err != nil {
		return err
	}
	defer s.Close()

	q := session.Query{Pattern: pattern, Hex: findHex, CaseSensitive: findCaseSensitive, Forward: !findBackward}
	if findCount {
		n, err := s.CountMatches(ctx, q)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		if jsonOut {
			return printJSON(map[string]int{"count": n})
		}
		printInfo("%d\n", n)
		return nil
	}

	start := int64(0)
	if findBackward {
		start = s.Buffer().Length()
	}
	if findFrom != "" {
		if start, err = parseOffset(findFrom); err != nil {
			return err
		}
	}
	s.Select(start, start)

	var results []findResult
	for findMax == 0 || len(results) < findMax {
		m, ok, err := s.Find(ctx, q)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if !ok {
			break
		}
		results = append(results, findResult{Offset: m.Start, Length: m.Length})
	}

	if jsonOut {
		return printJSON(results)
	}
	if len(results) == 0 {
		printInfo("No matches found\n")
		return nil
	}
	for _, r := range results {
		printInfo("0x%08x  %d\n", r.Offset, r.Length)
	}
	printVerbose("\n%d match(es)\n", len(results))
	return nil
}

