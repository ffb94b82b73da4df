package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/srg/rayq/internal/luabridge"
	"github.com/srg/rayq/internal/queue"
)

var runLuaCmd = &cobra.Command{
	Use:   "run-lua <script.lua>",
	Short: "Run a Lua script against the embedding bridge demo",
	Long: `run-lua loads a script into the embedding-bridge demo (a minimal
reimplementation of luaray.c's ray.timer/ray.idle/ray.on surface) and then
pumps the runtime from Go, in place of luaray.c's ray.run, until no
registered handle has further work.`,
	Args: cobra.ExactArgs(1),
	RunE: runLua,
}

func runLua(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	script, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	q := queue.New(queue.Options{Logger: logger})
	bridge := luabridge.New(q, logger)
	defer bridge.Close()

	if err := bridge.LoadString(string(script)); err != nil {
		return err
	}
	return bridge.Run()
}
