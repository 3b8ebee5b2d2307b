package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inframex/pos/internal/constants"
	"github.com/inframex/pos/internal/log"
	posCmd "github.com/inframex/pos/pos/cmd"
)

func Start() {
	logger := log.InitLogger("/var/log/pos.log").
		With().
		Str(log.KeyAppName, constants.AppPos).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "pos",
		Short: "Run pos service",
		Run: func(cmd *cobra.Command, args []string) {
			posCmd.RunPosService(cmd.Context())
		},
	})
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
