package types

import (
	abcitypes "github.com/tendermint/tendermint/abci/types"

	"github.com/gnosisguild/crisp-go/types"
)

// Operation names, used for permission checks and event types.
const (
	OpCreateProposal = "create_proposal"
	OpExecute        = "execute"
	OpTransfer       = "transfer"
	OpApprove        = "approve"
	OpSubmitBallot   = "submit_ballot"
)

// OpContext carries the ambient facts of one state-changing operation.
// Operations run one at a time; Height is the version that a successful
// operation commits.
type OpContext struct {
	Height int64
	Time   uint64 // unix seconds
	Sender types.Address

	events []abcitypes.Event
}

func NewOpContext(height int64, tm uint64, sender types.Address) *OpContext {
	return &OpContext{
		Height: height,
		Time:   tm,
		Sender: sender,
	}
}

func (ctx *OpContext) EmitEvent(evtype string, attrs ...abcitypes.EventAttribute) {
	ctx.events = append(ctx.events, abcitypes.Event{
		Type:       evtype,
		Attributes: attrs,
	})
}

func (ctx *OpContext) Events() []abcitypes.Event {
	return ctx.events
}

func EventAttr(key string, value []byte) abcitypes.EventAttribute {
	return abcitypes.EventAttribute{
		Key:   []byte(key),
		Value: value,
		Index: true,
	}
}
