package genesis

import (
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Well-known devnet addresses. The treasury doubles as the execution
// target: action batches run as it and its balance funds them.
var (
	DevnetTreasuryAddress = crypto.ModuleAddress("crisp/treasury")
	DevnetE3Program       = crypto.ModuleAddress("crisp/e3/crisp-program")
)

// DevnetGenesisDoc builds a self-contained genesis: holderCnt random token
// holders plus a funded treasury. Devnet accepts operations from any
// address, so random holder addresses are directly usable.
func DevnetGenesisDoc(chainID string, holderCnt int) (*Genesis, xerrors.XError) {
	holders := make([]*GenesisTokenHolder, 0, holderCnt+1)
	holders = append(holders, &GenesisTokenHolder{
		Address: DevnetTreasuryAddress,
		Balance: uint256.MustFromDecimal("1000000000000000000000000"), // 1,000,000 tokens
	})
	for i := 0; i < holderCnt; i++ {
		holders = append(holders, &GenesisTokenHolder{
			Address: types.RandAddress(),
			Balance: uint256.MustFromDecimal("1000000000000000000000"), // 1,000 tokens
		})
	}

	appState := &GenesisAppState{
		VoteParams: ctrlertypes.DefaultVoteParams(),
		Target: &ctrlertypes.TargetConfig{
			Target:    DevnetTreasuryAddress,
			Operation: ctrlertypes.OpCall,
		},
		E3: &ctrlertypes.E3Config{
			Program:   DevnetE3Program,
			Threshold: [2]uint32{2, 3},
		},
		TokenHolders: holders,
	}

	return NewGenesisDoc(chainID, appState)
}
