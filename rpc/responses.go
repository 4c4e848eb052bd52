package rpc

import (
	abcitypes "github.com/tendermint/tendermint/abci/types"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/ctrlers/vote/proposal"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
)

type ResultStatus struct {
	ChainID      string          `json:"chain_id"`
	Mode         string          `json:"mode"`
	LastOpHeight int64           `json:"last_op_height"`
	LastAppHash  abytes.HexBytes `json:"last_app_hash"`
}

// ResultOp reports a committed state-changing operation.
type ResultOp struct {
	Height  int64             `json:"height"`
	AppHash abytes.HexBytes   `json:"app_hash"`
	Events  []abcitypes.Event `json:"events,omitempty"`
}

type ResultCreateProposal struct {
	ID abytes.HexBytes `json:"id"`
	ResultOp
}

type ResultExecute struct {
	ID abytes.HexBytes `json:"id"`
	ResultOp
}

type ResultProposals struct {
	Total     int                  `json:"total"`
	Proposals []*proposal.Proposal `json:"proposals"`
}

type ResultTally struct {
	ID       abytes.HexBytes `json:"id"`
	Tally    *proposal.Tally `json:"tally"`
	Executed bool            `json:"executed"`
}

type ResultCanExecute struct {
	ID                   abytes.HexBytes `json:"id"`
	CanExecute           bool            `json:"can_execute"`
	ParticipationReached bool            `json:"participation_reached"`
}

type ResultParams struct {
	Params      *ctrlertypes.VoteParams  `json:"params"`
	Target      ctrlertypes.TargetConfig `json:"target"`
	VotingToken types.Address            `json:"voting_token"`
}

type ResultPower struct {
	Address types.Address `json:"address"`
	Height  int64         `json:"height"`
	Power   string        `json:"power"`
}

type ResultTotalPower struct {
	Height     int64  `json:"height"`
	TotalPower string `json:"total_power"`
}
