package genesis

import (
	"encoding/binary"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

type GenesisAppState struct {
	VoteParams   *ctrlertypes.VoteParams   `json:"voteParams"`
	Target       *ctrlertypes.TargetConfig `json:"target"`
	E3           *ctrlertypes.E3Config     `json:"e3"`
	TokenHolders []*GenesisTokenHolder     `json:"tokenHolders"`
	// Proposers is the allow list for proposal creation. Empty means anyone.
	Proposers []types.Address `json:"proposers,omitempty"`
}

func (ga *GenesisAppState) Hash() ([]byte, xerrors.XError) {
	hasher := crypto.DefaultHasher()

	bz, xerr := ga.VoteParams.Encode()
	if xerr != nil {
		return nil, xerr
	}
	hasher.Write(bz)

	hasher.Write(ga.Target.Target)
	hasher.Write([]byte{byte(ga.Target.Operation)})

	hasher.Write(ga.E3.Program)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[:4], ga.E3.Threshold[0])
	binary.BigEndian.PutUint32(buf[4:], ga.E3.Threshold[1])
	hasher.Write(buf)
	hasher.Write(ga.E3.ProgramParams)
	hasher.Write(ga.E3.ComputeParams)

	for _, h := range ga.TokenHolders {
		hasher.Write(h.Hash())
	}
	for _, p := range ga.Proposers {
		hasher.Write(p)
	}
	return hasher.Sum(nil), nil
}

func (ga *GenesisAppState) Validate() xerrors.XError {
	if ga.VoteParams == nil {
		return xerrors.ErrInitChain.Wrapf("genesis: empty voteParams")
	}
	if ga.Target == nil || types.IsZeroAddress(ga.Target.Target) {
		return xerrors.ErrZeroAddress.Wrapf("genesis: the execution target is not set")
	}
	if ga.E3 == nil || types.IsZeroAddress(ga.E3.Program) {
		return xerrors.ErrZeroAddress.Wrapf("genesis: the e3 program is not set")
	}
	if ga.E3.Threshold[0] == 0 || ga.E3.Threshold[0] > ga.E3.Threshold[1] {
		return xerrors.ErrInitChain.Wrapf("genesis: invalid e3 threshold %v", ga.E3.Threshold)
	}
	for _, h := range ga.TokenHolders {
		if types.IsZeroAddress(h.Address) {
			return xerrors.ErrZeroAddress.Wrapf("genesis: token holder with zero address")
		}
		if h.Balance == nil || h.Balance.IsZero() {
			return xerrors.ErrInitChain.Wrapf("genesis: token holder %v has no balance", h.Address)
		}
	}
	return nil
}
