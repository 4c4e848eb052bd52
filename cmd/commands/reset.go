package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
	tmos "github.com/tendermint/tendermint/libs/os"
)

// ResetAllCmd removes every ledger database of this node. The config and
// genesis files remain, so the node replays from genesis on the next start.
var ResetAllCmd = &cobra.Command{
	Use:     "unsafe-reset-all",
	Aliases: []string{"unsafe_reset_all"},
	Short:   "(unsafe) Remove all the ledger data, reset this node to genesis state",
	Run:     resetAll,
}

func resetAll(cmd *cobra.Command, args []string) {
	ResetData(rootConfig.DBDir(), logger)
}

// ResetData removes the data directory and recreates it empty.
// Exported so other CLI tools can use it.
func ResetData(dbDir string, logger log.Logger) {
	if err := os.RemoveAll(dbDir); err == nil {
		logger.Info("Removed all ledger history", "dir", dbDir)
	} else {
		logger.Error("Error removing ledger history", "dir", dbDir, "err", err)
	}
	if err := tmos.EnsureDir(dbDir, 0o700); err != nil {
		logger.Error("unable to recreate dbDir", "err", err)
	}
}
