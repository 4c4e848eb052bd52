package genesis

import (
	"os"
	"time"

	tmjson "github.com/tendermint/tendermint/libs/json"
	tmtime "github.com/tendermint/tendermint/types/time"

	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Genesis is the startup document of a node. AppHash commits to the
// initial application state; the controllers load AppState exactly once,
// at first start.
type Genesis struct {
	ChainID     string           `json:"chain_id"`
	GenesisTime time.Time        `json:"genesis_time"`
	AppHash     abytes.HexBytes  `json:"app_hash"`
	AppState    *GenesisAppState `json:"app_state"`
}

func NewGenesisDoc(chainID string, appState *GenesisAppState) (*Genesis, xerrors.XError) {
	appHash, xerr := appState.Hash()
	if xerr != nil {
		return nil, xerr
	}
	return &Genesis{
		ChainID:     chainID,
		GenesisTime: tmtime.Now(),
		AppHash:     appHash,
		AppState:    appState,
	}, nil
}

func (g *Genesis) Validate() xerrors.XError {
	if g.ChainID == "" {
		return xerrors.ErrInitChain.Wrapf("genesis: empty chain_id")
	}
	if g.AppState == nil {
		return xerrors.ErrInitChain.Wrapf("genesis: empty app_state")
	}
	if xerr := g.AppState.Validate(); xerr != nil {
		return xerr
	}

	appHash, xerr := g.AppState.Hash()
	if xerr != nil {
		return xerr
	}
	if !g.AppHash.Equal(appHash) {
		return xerrors.ErrInitChain.Wrapf("genesis: app_hash mismatch - doc:%X, computed:%X", g.AppHash, appHash)
	}
	return nil
}

func (g *Genesis) SaveAs(path string) xerrors.XError {
	bz, err := tmjson.MarshalIndent(g, "", "  ")
	if err != nil {
		return xerrors.From(err)
	}
	if err := os.WriteFile(path, bz, 0o644); err != nil {
		return xerrors.From(err)
	}
	return nil
}

func ReadGenesisFile(path string) (*Genesis, xerrors.XError) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.From(err)
	}

	g := &Genesis{}
	if err := tmjson.Unmarshal(bz, g); err != nil {
		return nil, xerrors.From(err)
	}
	if xerr := g.Validate(); xerr != nil {
		return nil, xerr
	}
	return g, nil
}
