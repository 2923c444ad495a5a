package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidemarkdb/tidemark/mutation"
	"github.com/tidemarkdb/tidemark/wal"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <segment file>",
	Short:   "Dump the entries of a commit log segment",
	Example: "tidemark inspect wal/segment-12-0.log",
	Args:    cobra.ExactArgs(1),
	RunE:    executeInspect,
}

func executeInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	out := os.Stdout

	entries := 0
	err := wal.ReadSegment(args[0], 0, func(buf []byte, pos wal.Position) error {
		entries++
		e, err := mutation.DecodeEntry(buf)
		if err != nil {
			fmt.Fprintf(out, "%v\t<%v>\n", pos, err)
			return nil
		}
		mapped := ""
		if e.Mapping != nil {
			mapped = fmt.Sprintf("\t+mapping(%d columns)", len(e.Mapping.Columns))
		}
		fmt.Fprintf(out, "%v\ttable=%s schema=%s token=%d cells=%d%s\n",
			pos, e.Mutation.Table, e.SchemaVersion, e.Mutation.Token, len(e.Mutation.Cells), mapped)
		return nil
	})

	var corrupt wal.SegmentCorruptError
	if errors.As(err, &corrupt) {
		fmt.Fprintf(out, "corrupt tail: %d unreadable bytes\n", corrupt.Bytes)
		err = nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d entries\n", entries)
	return nil
}
