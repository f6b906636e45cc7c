package cmd

import (
	"fmt"
	"os"

	"genesis-intake/config"
	"genesis-intake/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const programName = "genesis-intake"

var (
	globalFlags = struct {
		envFile string
	}{}

	cfg        *config.Config
	logCleanup = func() {}
)

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "K IMPERIA Genesis allocation intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(globalFlags.envFile)
			if err != nil {
				return err
			}
			_, cleanup, err := utils.InitLogger(loaded.LogLevel, loaded.LogFile)
			if err != nil {
				return err
			}
			cfg = loaded
			logCleanup = cleanup
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logCleanup()
		},
	}

	root.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		serveCommand(),
		migrateCommand(),
		reviewCommand(),
		statsCommand(),
		leaderboardCommand(),
		referralsCommand(),
		submitCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCommand().Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		logCleanup()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
