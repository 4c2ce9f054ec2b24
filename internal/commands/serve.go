package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/revlinehq/revline/internal/app"
	"github.com/revlinehq/revline/internal/bridge"
	"github.com/revlinehq/revline/internal/loggy"
	"github.com/revlinehq/revline/internal/utils"
)

// ServeCommand returns the CLI command that runs the bridge server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the review session to a local editor or UI over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides configuration)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	addr := application.Config.Bridge.Addr
	if flagAddr := c.String("addr"); flagAddr != "" {
		addr = flagAddr
	}

	srv := bridge.NewServer(addr, application.Config.Bridge.Timeout, application.Session, loggy.GetGlobalLogger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	utils.PrintInfo(fmt.Sprintf("Bridge serving on http://%s", addr))
	utils.PrintInfo("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		utils.PrintInfo("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
