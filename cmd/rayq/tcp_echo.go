package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/ops"
	"github.com/srg/rayq/internal/queue"
)

var tcpEchoHost string
var tcpEchoPort int

var tcpEchoCmd = &cobra.Command{
	Use:   "tcp-echo",
	Short: "Bind a TCP listener and echo every connection's bytes back",
	Long: `tcp-echo binds and listens on host:port, then for every accepted
connection starts a read loop and writes each Read event's bytes straight
back out (spec scenario S3), printing every event the runtime pumps.`,
	RunE: runTCPEcho,
}

func init() {
	tcpEchoCmd.Flags().StringVar(&tcpEchoHost, "host", "127.0.0.1", "address to bind")
	tcpEchoCmd.Flags().IntVar(&tcpEchoPort, "port", 0, "port to bind (0 = kernel-assigned)")
}

func runTCPEcho(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}

	q := queue.New(queue.Options{Logger: logger})
	server := ops.NewTcp(q)
	if err := server.Bind(tcpEchoHost, tcpEchoPort); err != nil {
		return err
	}
	server.Listen(128)
	fmt.Printf("listening on %s\n", server.Addr())

	clients := map[int32]*ops.Tcp{}
	for {
		evt, ok := q.Next()
		if !ok {
			return nil
		}

		var srcID int32
		if evt.Source != nil {
			srcID = evt.Source.ID()
		}

		switch evt.Kind {
		case evtype.Connection:
			client := ops.NewTcp(q)
			if err := server.Accept(client); err == nil {
				clients[client.Handle().ID()] = client
				client.ReadStart()
				fmt.Printf("accepted connection -> handle %d\n", client.Handle().ID())
			}
		case evtype.Read:
			if data, ok := evt.Data.(evtype.ReadPayload); ok {
				if client, ok := clients[srcID]; ok {
					client.Write(data.Bytes)
				}
				fmt.Printf("read %d bytes from handle %d: %q\n", evt.Info, srcID, data.Bytes)
			}
		case evtype.Write:
			fmt.Printf("write completed on handle %d, status=%d\n", srcID, evt.Info)
		case evtype.Close:
			fmt.Printf("handle %d closed\n", srcID)
			delete(clients, srcID)
		case evtype.Error:
			fmt.Printf("error on handle %d: info=%d\n", srcID, evt.Info)
		}
		queue.EventDone(&evt)
	}
}
