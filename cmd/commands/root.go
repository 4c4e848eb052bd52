package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/cli"
	tmflags "github.com/tendermint/tendermint/libs/cli/flags"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
)

var (
	rootConfig = cfg.DefaultConfig()
	logger     = tmlog.NewTMLogger(tmlog.NewSyncWriter(os.Stdout))
)

// RootCmd loads <home>/config/config.yaml before any subcommand runs.
// `init` and `version` run on the defaults; there is nothing on disk yet.
var RootCmd = &cobra.Command{
	Use:   "crisp",
	Short: "CRISP governance voting node",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home := viper.GetString(cli.HomeFlag)
		rootConfig.SetRoot(home)

		switch cmd.Name() {
		case "version", "init":
		default:
			c, xerr := cfg.LoadConfig(home)
			if xerr != nil {
				return xerr
			}
			rootConfig = c
		}

		var err error
		logger, err = tmflags.ParseLogLevel(rootConfig.LogLevel, logger, cfg.DefaultLogLevel)
		if err != nil {
			return err
		}
		return nil
	},
}
