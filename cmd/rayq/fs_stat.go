package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/ops"
	"github.com/srg/rayq/internal/queue"
)

var fsStatCmd = &cobra.Command{
	Use:   "fs-stat <path>",
	Short: "Stat a file through the runtime's filesystem surface",
	Long: `fs-stat submits an FS.Stat request, pumps Queue.Next() until the
FsStat (or Error) event arrives on the system handle, and prints the
resulting Stat record (spec scenario S4).`,
	Args: cobra.ExactArgs(1),
	RunE: runFsStat,
}

func runFsStat(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	q := queue.New(queue.Options{Logger: logger})
	fs := ops.NewFS(q)
	fs.Stat(args[0])

	evt, ok := q.Next()
	if !ok {
		return ErrTimeout
	}
	defer queue.EventDone(&evt)

	if evt.Kind == evtype.Error {
		return fmt.Errorf("stat failed: info=%d", evt.Info)
	}

	stat, ok := evt.Data.(evtype.StatPayload)
	if !ok {
		return fmt.Errorf("unexpected event kind %s", evt.Kind)
	}
	fmt.Printf("size=%d mode=%o uid=%d gid=%d ino=%d nlink=%d\n",
		stat.Stat.Size, stat.Stat.Mode, stat.Stat.UID, stat.Stat.GID, stat.Stat.Ino, stat.Stat.Nlink)
	return nil
}
