package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/ops"
	"github.com/srg/rayq/internal/queue"
)

var fsReaddirCmd = &cobra.Command{
	Use:   "fs-readdir <path>",
	Short: "List a directory through the runtime's filesystem surface",
	Long: `fs-readdir submits an FS.Readdir request, pumps Queue.Next() until
the FsReaddir (or Error) event arrives on the system handle, and prints
each returned directory entry (spec scenario S5).`,
	Args: cobra.ExactArgs(1),
	RunE: runFsReaddir,
}

func runFsReaddir(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	q := queue.New(queue.Options{Logger: logger})
	fs := ops.NewFS(q)
	fs.Readdir(args[0])

	evt, ok := q.Next()
	if !ok {
		return ErrTimeout
	}
	defer queue.EventDone(&evt)

	if evt.Kind == evtype.Error {
		return fmt.Errorf("readdir failed: info=%d", evt.Info)
	}

	entries, ok := evt.Data.(evtype.ReaddirPayload)
	if !ok {
		return fmt.Errorf("unexpected event kind %s", evt.Kind)
	}
	for _, d := range entries.Entries {
		fmt.Printf("%s (%d)\n", d.Name, d.Nlen)
	}
	return nil
}
