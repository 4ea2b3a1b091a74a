// Command netrpcd is a small demonstration of the public Manager
// surface: a host and join subcommand that run a Manager over
// transport/ws and log connection events. It is not part of the
// core's test surface.
package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lonng/netrpc"
	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/transport/ws"
)

func main() {
	app := cli.NewApp()
	app.Name = "netrpcd"
	app.Usage = "run a networked-object RPC host or client"
	app.Commands = []*cli.Command{
		{
			Name: "host",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 9000},
				&cli.IntFlag{Name: "max-clients", Value: 32},
			},
			Action: runHost,
		},
		{
			Name: "join",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "host", Value: "127.0.0.1"},
				&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 9000},
			},
			Action: runJoin,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal("netrpcd: fatal error", err)
	}
}

func runHost(c *cli.Context) error {
	port := c.Int("port")
	maxClients := c.Int("max-clients")

	mgr := netrpc.NewManager(
		netrpc.WithDebugMode(),
		netrpc.WithOnClientConnected(func(id uint32) {
			log.Info("netrpcd: client connected, ClientID=%d", id)
		}),
		netrpc.WithOnClientDisconnected(func(id uint32) {
			log.Info("netrpcd: client disconnected, ClientID=%d", id)
		}),
	)

	if err := mgr.StartServer(ws.New(), port, maxClients); err != nil {
		return err
	}
	log.Info("netrpcd: hosting on port %d", port)
	runLoop(mgr)
	return nil
}

func runJoin(c *cli.Context) error {
	host := c.String("host")
	port := c.Int("port")

	var mgr *netrpc.Manager
	mgr = netrpc.NewManager(
		netrpc.WithDebugMode(),
		netrpc.WithOnConnectedToServer(func() {
			log.Info("netrpcd: connected, ClientID=%d", mgr.LocalClientID())
		}),
		netrpc.WithOnDisconnectedFromServer(func() {
			log.Info("netrpcd: disconnected from host")
		}),
	)

	if err := mgr.StartClient(ws.New(), host, port); err != nil {
		return err
	}
	log.Info("netrpcd: connecting to %s:%d", host, port)
	runLoop(mgr)
	return nil
}

func runLoop(mgr *netrpc.Manager) {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		mgr.Update()
	}
}
