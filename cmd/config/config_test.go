package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigRoundtrip(t *testing.T) {
	home := filepath.Join(os.TempDir(), "config_test")
	require.NoError(t, os.RemoveAll(home))
	require.NoError(t, os.MkdirAll(filepath.Join(home, DefaultConfigDir), 0o755))
	defer os.RemoveAll(home)

	c0 := DefaultConfig().SetRoot(home)
	c0.ChainID = "crisp-test-1"
	c0.Mode = ModeEVM
	c0.EVM = &EVMConfig{
		Endpoint:   "http://127.0.0.1:8545",
		VotesToken: "0x0000000000000000000000000000000000000001",
	}
	require.NoError(t, c0.SaveAs(c0.ConfigFilePath()))

	c1, xerr := LoadConfig(home)
	require.NoError(t, xerr)
	require.Equal(t, c0.ChainID, c1.ChainID)
	require.Equal(t, c0.Mode, c1.Mode)
	require.NotNil(t, c1.EVM)
	require.Equal(t, c0.EVM.Endpoint, c1.EVM.Endpoint)
	require.Equal(t, c0.EVM.VotesToken, c1.EVM.VotesToken)

	// defaults fill fields the file does not name
	require.Equal(t, DefaultConfig().RPCListenAddr, c1.RPCListenAddr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, xerr := LoadConfig(filepath.Join(os.TempDir(), "config_test_missing"))
	require.Error(t, xerr)
}
