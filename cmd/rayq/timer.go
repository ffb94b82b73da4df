package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/ops"
	"github.com/srg/rayq/internal/queue"
)

var (
	timerTimeoutMs int64
	timerRepeatMs  int64
	timerCount     int
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Start a timer and print each Timer event as it arrives",
	Long: `timer creates a runtime, starts a timer with the given timeout and
repeat interval, and pumps Queue.Next() until count Timer events have been
observed (spec scenarios S1/S2).`,
	RunE: runTimer,
}

func init() {
	timerCmd.Flags().Int64Var(&timerTimeoutMs, "timeout", 10, "delay before the first firing, in milliseconds")
	timerCmd.Flags().Int64Var(&timerRepeatMs, "repeat", 0, "interval between subsequent firings, in milliseconds (0 = fire once)")
	timerCmd.Flags().IntVar(&timerCount, "count", 1, "number of Timer events to wait for before stopping")
}

func runTimer(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	q := queue.New(queue.Options{Logger: logger})
	t := ops.NewTimer(q)
	t.Start(timerTimeoutMs, timerRepeatMs)

	start := time.Now()
	for i := 0; i < timerCount; i++ {
		evt, ok := q.Next()
		if !ok {
			return ErrTimeout
		}
		if evt.Kind != evtype.Timer {
			queue.EventDone(&evt)
			i--
			continue
		}
		fmt.Printf("Timer event %d after %s\n", i+1, time.Since(start).Round(time.Millisecond))
		queue.EventDone(&evt)
	}

	t.Stop()
	return nil
}
