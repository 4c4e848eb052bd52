package proposal

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

type Proposal struct {
	ProposalHeader
	Target          ctrlertypes.TargetConfig
	Actions         []ctrlertypes.Action
	AllowFailureMap *uint256.Int
	Metadata        abytes.HexBytes
	Tally           *Tally
	Executed        bool

	mtx sync.RWMutex
}

func NewProposal(
	id abytes.HexBytes, proposer types.Address,
	startDate, endDate uint64, snapshotHeight int64,
	minVotingPower, e3id *uint256.Int,
	target ctrlertypes.TargetConfig,
	actions []ctrlertypes.Action, allowFailureMap *uint256.Int, metadata abytes.HexBytes,
) *Proposal {
	if allowFailureMap == nil {
		allowFailureMap = uint256.NewInt(0)
	}
	if minVotingPower == nil {
		minVotingPower = uint256.NewInt(0)
	}
	return &Proposal{
		ProposalHeader: ProposalHeader{
			ID:             id,
			Proposer:       proposer,
			StartDate:      startDate,
			EndDate:        endDate,
			SnapshotHeight: snapshotHeight,
			MinVotingPower: minVotingPower,
			E3ID:           e3id,
		},
		Target:          target,
		Actions:         actions,
		AllowFailureMap: allowFailureMap,
		Metadata:        metadata,
	}
}

func (prop *Proposal) Key() ledger.LedgerKey {
	prop.mtx.RLock()
	defer prop.mtx.RUnlock()

	return ledger.ToLedgerKey(prop.ID)
}

func (prop *Proposal) Encode() ([]byte, xerrors.XError) {
	prop.mtx.RLock()
	defer prop.mtx.RUnlock()

	if bz, err := json.Marshal(prop); err != nil {
		return bz, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (prop *Proposal) Decode(bz []byte) xerrors.XError {
	prop.mtx.Lock()
	defer prop.mtx.Unlock()

	if err := json.Unmarshal(bz, prop); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Proposal)(nil)

type proposalHeaderWire struct {
	ID             abytes.HexBytes `json:"id"`
	Proposer       types.Address   `json:"proposer"`
	StartDate      uint64          `json:"startDate"`
	EndDate        uint64          `json:"endDate"`
	SnapshotHeight int64           `json:"snapshotHeight"`
	MinVotingPower string          `json:"minVotingPower"`
	E3ID           string          `json:"e3Id"`
}

type proposalWire struct {
	Header          proposalHeaderWire       `json:"header"`
	Target          ctrlertypes.TargetConfig `json:"target"`
	Actions         []ctrlertypes.Action     `json:"actions"`
	AllowFailureMap string                   `json:"allowFailureMap"`
	Metadata        abytes.HexBytes          `json:"metadata"`
	Tally           *Tally                   `json:"tally"`
	Executed        bool                     `json:"executed"`
}

func (prop *Proposal) MarshalJSON() ([]byte, error) {
	tm := &proposalWire{
		Header: proposalHeaderWire{
			ID:             prop.ID,
			Proposer:       prop.Proposer,
			StartDate:      prop.StartDate,
			EndDate:        prop.EndDate,
			SnapshotHeight: prop.SnapshotHeight,
			MinVotingPower: uint256ToString(prop.MinVotingPower),
			E3ID:           uint256ToString(prop.E3ID),
		},
		Target:          prop.Target,
		Actions:         prop.Actions,
		AllowFailureMap: uint256ToString(prop.AllowFailureMap),
		Metadata:        prop.Metadata,
		Tally:           prop.Tally,
		Executed:        prop.Executed,
	}
	return json.Marshal(tm)
}

func (prop *Proposal) UnmarshalJSON(bz []byte) error {
	tm := &proposalWire{}
	if err := json.Unmarshal(bz, tm); err != nil {
		return err
	}

	var err error
	prop.ID = tm.Header.ID
	prop.Proposer = tm.Header.Proposer
	prop.StartDate = tm.Header.StartDate
	prop.EndDate = tm.Header.EndDate
	prop.SnapshotHeight = tm.Header.SnapshotHeight
	if prop.MinVotingPower, err = stringToUint256(tm.Header.MinVotingPower); err != nil {
		return err
	}
	if prop.E3ID, err = stringToUint256(tm.Header.E3ID); err != nil {
		return err
	}
	prop.Target = tm.Target
	prop.Actions = tm.Actions
	if prop.AllowFailureMap, err = stringToUint256(tm.AllowFailureMap); err != nil {
		return err
	}
	prop.Metadata = tm.Metadata
	prop.Tally = tm.Tally
	prop.Executed = tm.Executed
	return nil
}

func uint256ToString(value *uint256.Int) string {
	if value == nil {
		return ""
	}
	return value.Dec()
}

func stringToUint256(value string) (*uint256.Int, error) {
	if value == "" {
		return nil, nil
	}
	return uint256.FromDecimal(value)
}
