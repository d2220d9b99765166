package app

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/di/providers"
)

func (a *App) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the conversion API over HTTP",
		Long: `Start the HTTP API for table maintenance and batch resolution.

The server runs until it receives SIGINT or SIGTERM, then drains in-flight
requests before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := do.Invoke[*providers.HTTPServerHandle](a.injector)
			if err != nil {
				return err
			}

			select {
			case <-cmd.Context().Done():
				return nil
			case err, ok := <-srv.Errors:
				if ok && err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&a.flags.Port, "port", "", "HTTP listen port")
	return cmd
}
