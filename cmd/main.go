package main

import (
	"os"
	"path/filepath"

	"github.com/tendermint/tendermint/libs/cli"

	"github.com/gnosisguild/crisp-go/cmd/commands"
)

func main() {
	commands.RootCmd.AddCommand(
		commands.NewInitFilesCmd(),
		commands.NewRunNodeCmd(),
		commands.ResetAllCmd,
		commands.VersionCmd,
	)

	executor := cli.PrepareBaseCmd(commands.RootCmd, "CRISP", os.ExpandEnv(filepath.Join("$HOME", ".crisp")))
	if err := executor.Execute(); err != nil {
		panic(err)
	}
}
