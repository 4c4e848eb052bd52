package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
)

func TestDevnetGenesisDoc(t *testing.T) {
	genDoc, xerr := DevnetGenesisDoc("crisp-test-1", 10)
	require.NoError(t, xerr)
	require.NoError(t, genDoc.Validate())

	require.Equal(t, "crisp-test-1", genDoc.ChainID)
	require.Len(t, genDoc.AppState.TokenHolders, 11)
	require.Equal(t, DevnetTreasuryAddress, genDoc.AppState.Target.Target)
	require.Equal(t, ctrlertypes.OpCall, genDoc.AppState.Target.Operation)
	require.NotNil(t, genDoc.AppState.VoteParams)
}

func TestGenesisFileRoundtrip(t *testing.T) {
	genDoc, xerr := DevnetGenesisDoc("crisp-test-2", 3)
	require.NoError(t, xerr)

	path := filepath.Join(os.TempDir(), "genesis_test.json")
	require.NoError(t, os.RemoveAll(path))
	defer os.RemoveAll(path)

	require.NoError(t, genDoc.SaveAs(path))

	genDoc2, xerr := ReadGenesisFile(path)
	require.NoError(t, xerr)
	require.Equal(t, genDoc.ChainID, genDoc2.ChainID)
	require.Equal(t, genDoc.AppHash, genDoc2.AppHash)
	require.Equal(t, genDoc.AppState.VoteParams, genDoc2.AppState.VoteParams)
	require.Equal(t, genDoc.AppState.Target, genDoc2.AppState.Target)
	require.Equal(t, genDoc.AppState.E3, genDoc2.AppState.E3)
	require.Equal(t, len(genDoc.AppState.TokenHolders), len(genDoc2.AppState.TokenHolders))
}

func TestGenesisHashTamper(t *testing.T) {
	genDoc, xerr := DevnetGenesisDoc("crisp-test-3", 2)
	require.NoError(t, xerr)

	// changing the app state must break the recorded app hash
	genDoc.AppState.TokenHolders[1].Balance = uint256.NewInt(1)
	require.Error(t, genDoc.Validate())
}

func TestGenesisValidate(t *testing.T) {
	genDoc, xerr := DevnetGenesisDoc("crisp-test-4", 1)
	require.NoError(t, xerr)

	genDoc.AppState.Target.Target = types.ZeroAddress()
	xerr = genDoc.Validate()
	require.Error(t, xerr)
	require.Contains(t, xerr.Error(), "target")
}
