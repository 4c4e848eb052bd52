package commands

import (
	"github.com/spf13/cobra"
	tmos "github.com/tendermint/tendermint/libs/os"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	"github.com/gnosisguild/crisp-go/genesis"
)

var (
	initChainID = "crisp-devnet"
	initMode    = cfg.ModeDevnet
	holderCnt   = 9
)

func NewInitFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a crisp node home",
		RunE:  initFiles,
	}
	AddInitFlags(cmd)
	return cmd
}

func AddInitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&initChainID,
		"chain_id",
		initChainID,
		"the id of the chain to initialize")
	cmd.Flags().StringVar(
		&initMode,
		"mode",
		initMode,
		"node mode: devnet runs the built-in token and enclave simulator, "+
			"evm drives deployed contracts")
	cmd.Flags().IntVar(
		&holderCnt,
		"holders",
		holderCnt,
		"the number of funded token holders to generate in a devnet genesis, "+
			"in addition to the treasury")
}

func initFiles(cmd *cobra.Command, args []string) error {
	if err := tmos.EnsureDir(rootConfig.ConfigDir(), 0o700); err != nil {
		return err
	}
	if err := tmos.EnsureDir(rootConfig.DBDir(), 0o700); err != nil {
		return err
	}

	cfgFile := rootConfig.ConfigFilePath()
	if tmos.FileExists(cfgFile) {
		logger.Info("Found config file", "path", cfgFile)
	} else {
		rootConfig.ChainID = initChainID
		rootConfig.Mode = initMode
		if initMode == cfg.ModeEVM {
			// a scaffold; the operator fills in the endpoint, the key and
			// the deployed contract addresses
			rootConfig.EVM = &cfg.EVMConfig{}
		}
		if xerr := rootConfig.SaveAs(cfgFile); xerr != nil {
			return xerr
		}
		logger.Info("Generated config file", "path", cfgFile)
	}

	genFile := rootConfig.GenesisFilePath()
	if tmos.FileExists(genFile) {
		logger.Info("Found genesis file", "path", genFile)
		return nil
	}
	if initMode != cfg.ModeDevnet {
		logger.Info("No genesis file generated; provide one referencing the deployed contracts",
			"path", genFile)
		return nil
	}

	genDoc, xerr := genesis.DevnetGenesisDoc(initChainID, holderCnt)
	if xerr != nil {
		return xerr
	}
	if xerr := genDoc.SaveAs(genFile); xerr != nil {
		return xerr
	}
	logger.Info("Generated genesis file", "path", genFile)

	// devnet accepts operations from any sender, so the generated holder
	// addresses are directly usable
	for _, holder := range genDoc.AppState.TokenHolders {
		logger.Info("Genesis token holder", "address", holder.Address, "balance", holder.Balance.Dec())
	}
	return nil
}
