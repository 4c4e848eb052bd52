package proposal

import (
	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
)

// ProposalHeader is the identity and schedule of a proposal.
// SnapshotHeight is never zero for a registered proposal; it doubles as
// the existence marker.
type ProposalHeader struct {
	ID             abytes.HexBytes
	Proposer       types.Address
	StartDate      uint64
	EndDate        uint64
	SnapshotHeight int64
	MinVotingPower *uint256.Int
	E3ID           *uint256.Int
}

func (h *ProposalHeader) GetID() abytes.HexBytes {
	return h.ID
}

func (h *ProposalHeader) GetProposer() types.Address {
	return h.Proposer
}

func (h *ProposalHeader) GetStartDate() uint64 {
	return h.StartDate
}

func (h *ProposalHeader) GetEndDate() uint64 {
	return h.EndDate
}

func (h *ProposalHeader) GetSnapshotHeight() int64 {
	return h.SnapshotHeight
}

func (h *ProposalHeader) Exists() bool {
	return h.SnapshotHeight != 0
}
