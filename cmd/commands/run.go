package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/gnosisguild/crisp-go/genesis"
	"github.com/gnosisguild/crisp-go/node"
	"github.com/gnosisguild/crisp-go/rpc"
)

func NewRunNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run", "node"},
		Short:   "Run the crisp node",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNodeFlags(cmd)

			genDoc, xerr := genesis.ReadGenesisFile(rootConfig.GenesisFilePath())
			if xerr != nil {
				return fmt.Errorf("failed to read genesis: %w", xerr)
			}

			app, xerr := node.NewApp(rootConfig, genDoc, logger)
			if xerr != nil {
				return fmt.Errorf("failed to create the node: %w", xerr)
			}
			if xerr := app.Start(); xerr != nil {
				return fmt.Errorf("failed to start the node: %w", xerr)
			}

			srv := rpc.NewServer(app, rootConfig, logger)
			if xerr := srv.Start(); xerr != nil {
				_ = app.Stop()
				return fmt.Errorf("failed to start the rpc server: %w", xerr)
			}

			logger.Info("Started crisp node",
				"chain_id", app.ChainID(),
				"mode", rootConfig.Mode,
				"moniker", rootConfig.Moniker,
				"height", app.LastOpHeight())

			// Stop upon receiving SIGTERM or CTRL-C.
			trapSignal(logger, func() {
				if err := srv.Stop(); err != nil {
					logger.Error("unable to stop the rpc server", "error", err)
				}
				if err := app.Stop(); err != nil {
					logger.Error("unable to stop the node", "error", err)
				}
			})

			// Run forever.
			select {}
		},
	}

	AddNodeFlags(cmd)
	return cmd
}

// AddNodeFlags exposes some common configuration options on the command-line.
// They override the values loaded from config.yaml.
func AddNodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("moniker", rootConfig.Moniker, "node name")
	cmd.Flags().String("rpc.laddr", rootConfig.RPCListenAddr, "RPC listen address. Port required")
}

func applyNodeFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("moniker") {
		rootConfig.Moniker, _ = cmd.Flags().GetString("moniker")
	}
	if cmd.Flags().Changed("rpc.laddr") {
		rootConfig.RPCListenAddr, _ = cmd.Flags().GetString("rpc.laddr")
	}
}

// trapSignal() comes from tmos.TrapSignal
func trapSignal(logger log.Logger, cb func()) {
	var signals = []os.Signal{
		os.Interrupt,
		syscall.SIGTERM,
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)
	go func() {
		for sig := range c {
			logger.Info("signal trapped", "msg", log.NewLazySprintf("captured %v, exiting...", sig))
			if cb != nil {
				cb()
			}
			os.Exit(0)
		}
	}()
}
