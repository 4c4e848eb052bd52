package rpc

import (
	"github.com/holiman/uint256"
	tmrpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"

	"github.com/gnosisguild/crisp-go/ctrlers/token"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/ctrlers/vote/proposal"
	"github.com/gnosisguild/crisp-go/e3/sim"
	"github.com/gnosisguild/crisp-go/node"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// handlers bridges the json-rpc routes to one node instance. Amounts and
// e3 identifiers travel as decimal strings, the ledger wire convention.
type handlers struct {
	app *node.App
}

func parseUint256(s string) (*uint256.Int, xerrors.XError) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("rpc: not a decimal amount %q: %v", s, err)
	}
	return v, nil
}

func opResult(res *node.OpResult) ResultOp {
	return ResultOp{
		Height:  res.Height,
		AppHash: res.AppHash,
		Events:  res.Events,
	}
}

func (h *handlers) Status(_ *tmrpctypes.Context) (*ResultStatus, error) {
	return &ResultStatus{
		ChainID:      h.app.ChainID(),
		Mode:         h.app.Mode(),
		LastOpHeight: h.app.LastOpHeight(),
		LastAppHash:  h.app.LastAppHash(),
	}, nil
}

func (h *handlers) CreateProposal(
	_ *tmrpctypes.Context,
	sender types.Address,
	metadata abytes.HexBytes, actions []ctrlertypes.Action,
	startDate, endDate uint64, extra abytes.HexBytes,
) (*ResultCreateProposal, error) {
	res, xerr := h.app.CreateProposal(sender, metadata, actions, startDate, endDate, extra)
	if xerr != nil {
		return nil, xerr
	}
	return &ResultCreateProposal{
		ID:       res.Value.(abytes.HexBytes),
		ResultOp: opResult(res),
	}, nil
}

func (h *handlers) Execute(_ *tmrpctypes.Context, sender types.Address, id abytes.HexBytes) (*ResultExecute, error) {
	res, xerr := h.app.ExecuteProposal(sender, id)
	if xerr != nil {
		return nil, xerr
	}
	return &ResultExecute{
		ID:       res.Value.(abytes.HexBytes),
		ResultOp: opResult(res),
	}, nil
}

func (h *handlers) Proposal(_ *tmrpctypes.Context, id abytes.HexBytes) (*proposal.Proposal, error) {
	prop, xerr := h.app.Vote().ReadProposal(id)
	if xerr != nil {
		return nil, xerr
	}
	return prop, nil
}

func (h *handlers) Proposals(_ *tmrpctypes.Context) (*ResultProposals, error) {
	props, xerr := h.app.Vote().ReadAllProposals()
	if xerr != nil {
		return nil, xerr
	}
	return &ResultProposals{Total: len(props), Proposals: props}, nil
}

func (h *handlers) Tally(_ *tmrpctypes.Context, id abytes.HexBytes) (*ResultTally, error) {
	tally, xerr := h.app.Vote().ReadTally(id)
	if xerr != nil {
		return nil, xerr
	}
	prop, xerr := h.app.Vote().ReadProposal(id)
	if xerr != nil {
		return nil, xerr
	}
	return &ResultTally{ID: id, Tally: tally, Executed: prop.Executed}, nil
}

func (h *handlers) CanExecute(_ *tmrpctypes.Context, id abytes.HexBytes) (*ResultCanExecute, error) {
	can, xerr := h.app.Vote().CanExecute(id)
	if xerr != nil {
		return nil, xerr
	}
	// the participation reading needs a decodable result; before the
	// computation publishes, report it as not reached instead of failing
	reached, xerr := h.app.Vote().ParticipationReached(id)
	if xerr != nil && xerr.Code() != xerrors.ErrCodeShortTallyData {
		return nil, xerr
	}
	return &ResultCanExecute{ID: id, CanExecute: can, ParticipationReached: reached}, nil
}

func (h *handlers) Params(_ *tmrpctypes.Context) (*ResultParams, error) {
	return &ResultParams{
		Params:      h.app.Vote().Params(),
		Target:      h.app.Vote().Target(),
		VotingToken: h.app.Vote().VotingToken(),
	}, nil
}

// Power reads an account's voting power at a height. Height 0 means the
// latest committed height.
func (h *handlers) Power(_ *tmrpctypes.Context, addr types.Address, height int64) (*ResultPower, error) {
	if height <= 0 {
		height = h.app.LastOpHeight()
	}
	power, xerr := h.app.Vote().PowerOf(addr, height)
	if xerr != nil {
		return nil, xerr
	}
	return &ResultPower{Address: addr, Height: height, Power: power.Dec()}, nil
}

func (h *handlers) TotalPower(_ *tmrpctypes.Context, height int64) (*ResultTotalPower, error) {
	if height <= 0 {
		height = h.app.LastOpHeight()
	}
	total, xerr := h.app.Vote().TotalPowerOf(height)
	if xerr != nil {
		return nil, xerr
	}
	return &ResultTotalPower{Height: height, TotalPower: total.Dec()}, nil
}

//
// devnet-only routes; outside devnet mode the built-in token and the
// computation simulator do not exist.
//

func (h *handlers) Account(_ *tmrpctypes.Context, addr types.Address) (*token.Account, error) {
	if h.app.Token() == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("rpc: account queries are available on devnet only")
	}
	acct, xerr := h.app.Token().ReadAccount(addr)
	if xerr != nil {
		return nil, xerr
	}
	return acct, nil
}

func (h *handlers) E3(_ *tmrpctypes.Context, e3id string) (*sim.E3, error) {
	if h.app.Enclave() == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("rpc: e3 queries are available on devnet only")
	}
	id, xerr := parseUint256(e3id)
	if xerr != nil {
		return nil, xerr
	}
	e3, xerr := h.app.Enclave().ReadE3(id)
	if xerr != nil {
		return nil, xerr
	}
	return e3, nil
}

func (h *handlers) Transfer(_ *tmrpctypes.Context, sender, to types.Address, amount string) (*ResultOp, error) {
	amt, xerr := parseUint256(amount)
	if xerr != nil {
		return nil, xerr
	}
	res, xerr := h.app.Transfer(sender, to, amt)
	if xerr != nil {
		return nil, xerr
	}
	ret := opResult(res)
	return &ret, nil
}

func (h *handlers) Approve(_ *tmrpctypes.Context, sender, spender types.Address, amount string) (*ResultOp, error) {
	amt, xerr := parseUint256(amount)
	if xerr != nil {
		return nil, xerr
	}
	res, xerr := h.app.Approve(sender, spender, amt)
	if xerr != nil {
		return nil, xerr
	}
	ret := opResult(res)
	return &ret, nil
}

func (h *handlers) SubmitBallot(_ *tmrpctypes.Context, sender types.Address, e3id string, data abytes.HexBytes) (*ResultOp, error) {
	id, xerr := parseUint256(e3id)
	if xerr != nil {
		return nil, xerr
	}
	res, xerr := h.app.SubmitBallot(sender, id, data)
	if xerr != nil {
		return nil, xerr
	}
	ret := opResult(res)
	return &ret, nil
}

func (h *handlers) PublishResult(_ *tmrpctypes.Context, sender types.Address, e3id string) (*ResultOp, error) {
	id, xerr := parseUint256(e3id)
	if xerr != nil {
		return nil, xerr
	}
	res, xerr := h.app.PublishResult(sender, id)
	if xerr != nil {
		return nil, xerr
	}
	ret := opResult(res)
	return &ret, nil
}
