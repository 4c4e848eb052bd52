package vote

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/ctrlers/vote/proposal"
	"github.com/gnosisguild/crisp-go/genesis"
	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// ModuleAddress is where the controller is reachable as an action target.
// A proposal that calls this address with a JSON parameter payload updates
// the voting settings.
var ModuleAddress = crypto.ModuleAddress("crisp/vote")

// MaxActions bounds an action batch to the width of its failure bitmap.
const MaxActions = 256

type VoteCtrler struct {
	ctrlertypes.VoteParams
	newVoteParams *ctrlertypes.VoteParams

	paramsLedger   ledger.ILedger[*ctrlertypes.VoteParams]
	proposalLedger ledger.ILedger[*proposal.Proposal]

	target ctrlertypes.TargetConfig
	e3cfg  ctrlertypes.E3Config

	powerHandler   ctrlertypes.IVotePowerHandler
	feeHandler     ctrlertypes.IFeeHandler
	computeHandler ctrlertypes.IComputeHandler
	execHandler    ctrlertypes.IExecHandler
	permHandler    ctrlertypes.IPermissionHandler

	// identities with an operation in flight; guards re-entry between the
	// moment a proposal is validated and the moment its outcome is written
	inflight map[ledger.LedgerKey]struct{}

	metrics *voteMetrics
	logger  tmlog.Logger
	mtx     sync.RWMutex
}

func NewVoteCtrler(config *cfg.Config, registry prometheus.Registerer, logger tmlog.Logger) (*VoteCtrler, xerrors.XError) {
	lg := logger.With("module", "crisp_VoteCtrler")

	newParamsLedger, xerr := ledger.NewLedger[*ctrlertypes.VoteParams](
		"vote_params", config.DBDir(), 1,
		func() *ctrlertypes.VoteParams { return &ctrlertypes.VoteParams{} })
	if xerr != nil {
		return nil, xerr
	}

	newProposalLedger, xerr := ledger.NewLedger[*proposal.Proposal](
		"proposals", config.DBDir(), 2048,
		func() *proposal.Proposal { return &proposal.Proposal{} })
	if xerr != nil {
		_ = newParamsLedger.Close()
		return nil, xerr
	}

	voteParams := ctrlertypes.DefaultVoteParams()
	if params, xerr := newParamsLedger.Read(voteParams.Key()); xerr != nil && xerr != xerrors.ErrNotFoundResult {
		_ = newParamsLedger.Close()
		_ = newProposalLedger.Close()
		return nil, xerr
	} else if params != nil {
		voteParams = params
	}

	return &VoteCtrler{
		VoteParams:     *voteParams,
		paramsLedger:   newParamsLedger,
		proposalLedger: newProposalLedger,
		inflight:       make(map[ledger.LedgerKey]struct{}),
		metrics:        newVoteMetrics(registry),
		logger:         lg,
	}, nil
}

// BindGenesisConfig installs the deployment constants. It runs on every
// start, before any operation.
func (ctrler *VoteCtrler) BindGenesisConfig(target ctrlertypes.TargetConfig, e3cfg ctrlertypes.E3Config) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if types.IsZeroAddress(target.Target) {
		return xerrors.ErrZeroAddress.Wrapf("vote: the execution target is not set")
	}
	if types.IsZeroAddress(e3cfg.Program) {
		return xerrors.ErrZeroAddress.Wrapf("vote: the e3 program is not set")
	}

	ctrler.target = target
	ctrler.e3cfg = e3cfg
	return nil
}

// BindHandlers installs the collaborators. Every handler is required.
func (ctrler *VoteCtrler) BindHandlers(
	power ctrlertypes.IVotePowerHandler,
	fee ctrlertypes.IFeeHandler,
	compute ctrlertypes.IComputeHandler,
	exec ctrlertypes.IExecHandler,
	perm ctrlertypes.IPermissionHandler,
) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if power == nil {
		return xerrors.ErrZeroAddress.Wrapf("vote: the voting power handler is not set")
	}
	if fee == nil {
		return xerrors.ErrZeroAddress.Wrapf("vote: the fee handler is not set")
	}
	if compute == nil || types.IsZeroAddress(compute.Address()) {
		return xerrors.ErrZeroAddress.Wrapf("vote: the computation handler is not set")
	}
	if exec == nil {
		return xerrors.ErrZeroAddress.Wrapf("vote: the execution handler is not set")
	}
	if perm == nil {
		return xerrors.ErrZeroAddress.Wrapf("vote: the permission handler is not set")
	}

	ctrler.powerHandler = power
	ctrler.feeHandler = fee
	ctrler.computeHandler = compute
	ctrler.execHandler = exec
	ctrler.permHandler = perm
	return nil
}

func (ctrler *VoteCtrler) InitLedger(req interface{}) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	genAppState, ok := req.(*genesis.GenesisAppState)
	if !ok {
		return xerrors.ErrInitChain.Wrapf("vote: invalid genesis type %T", req)
	}

	ctrler.VoteParams = *genAppState.VoteParams
	return ctrler.paramsLedger.Set(genAppState.VoteParams)
}

// CreateProposal validates, funds and registers a new proposal.
// The identity is derived from the content, so the same (actions, metadata)
// can only ever be registered once.
func (ctrler *VoteCtrler) CreateProposal(
	ctx *ctrlertypes.OpContext,
	metadata abytes.HexBytes, actions []ctrlertypes.Action,
	startDate, endDate uint64, extra abytes.HexBytes,
) (abytes.HexBytes, xerrors.XError) {

	if types.IsZeroAddress(ctx.Sender) {
		return nil, xerrors.ErrZeroAddress.Wrapf("vote: the proposer address is empty")
	}
	if !ctrler.permHandler.CanExecuteAs(ctx.Sender, ctrlertypes.OpCreateProposal) {
		return nil, xerrors.ErrNoRight.Wrapf("account %v is not allowed to create a proposal", ctx.Sender)
	}
	if len(actions) > MaxActions {
		// the failure-allowance bitmap addresses actions by bit index
		return nil, xerrors.ErrInvalidRequest.Wrapf("vote: %d action(s), the maximum is %d", len(actions), MaxActions)
	}

	allowFailureMap, startWindow, xerr := proposal.DecodeExtra(extra)
	if xerr != nil {
		return nil, xerr
	}

	propID, xerr := proposal.DeriveID(actions, metadata)
	if xerr != nil {
		return nil, xerr
	}
	key := ledger.ToLedgerKey(propID)

	ctrler.mtx.Lock()

	if _, busy := ctrler.inflight[key]; busy {
		ctrler.mtx.Unlock()
		return nil, xerrors.ErrDuplicatedProposal.Wrapf("proposal %v is being created", propID)
	}
	if xerr := ctrler.assertNotRegistered(key, propID); xerr != nil {
		ctrler.mtx.Unlock()
		return nil, xerr
	}

	minPower := ctrler.VoteParams.MinProposerPower()
	if !minPower.IsZero() {
		power, xerr := ctrler.powerHandler.PowerOf(ctx.Sender, ctx.Height)
		if xerr != nil {
			ctrler.mtx.Unlock()
			return nil, xerr
		}
		if power == nil || power.Lt(minPower) {
			ctrler.mtx.Unlock()
			return nil, xerrors.ErrNoRight.Wrapf(
				"account %v has voting power %v, the minimum to propose is %v",
				ctx.Sender, uint256ToDec(power), minPower.Dec())
		}
	}

	start, end, xerr := ResolveWindow(startDate, endDate, ctrler.VoteParams.MinDuration(), ctx.Time)
	if xerr != nil {
		ctrler.mtx.Unlock()
		return nil, xerr
	}

	e3req := ctrler.e3cfg.RequestFor(start, end, startWindow)
	ctrler.inflight[key] = struct{}{}
	ctrler.mtx.Unlock()

	defer func() {
		ctrler.mtx.Lock()
		delete(ctrler.inflight, key)
		ctrler.mtx.Unlock()
	}()

	// fee and computation request, outside the critical section
	fee, xerr := ctrler.computeHandler.Quote(e3req)
	if xerr != nil {
		return nil, xerr
	}
	if fee != nil && !fee.IsZero() {
		if xerr := ctrler.feeHandler.CollectFrom(ctx, fee); xerr != nil {
			return nil, xerr
		}
		if xerr := ctrler.feeHandler.ApproveTo(ctx, ctrler.computeHandler.Address(), fee); xerr != nil {
			return nil, xerr
		}
	}

	e3id, xerr := ctrler.computeHandler.Request(ctx, e3req)
	if xerr != nil {
		return nil, xerr
	}

	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	// the identity must still be free after the external calls
	if xerr := ctrler.assertNotRegistered(key, propID); xerr != nil {
		return nil, xerr
	}

	prop := proposal.NewProposal(
		propID, ctx.Sender,
		start, end, ctx.Height,
		minPower, e3id,
		ctrler.target, actions, allowFailureMap, metadata)
	if xerr := ctrler.proposalLedger.Set(prop); xerr != nil {
		return nil, xerr
	}

	ctx.EmitEvent("proposal.created",
		ctrlertypes.EventAttr("id", []byte(propID.String())),
		ctrlertypes.EventAttr("proposer", []byte(ctx.Sender.String())),
		ctrlertypes.EventAttr("e3id", []byte(e3id.Dec())),
	)

	ctrler.metrics.proposalsCreated.Inc()
	ctrler.metrics.proposalsOpen.Inc()
	ctrler.metrics.e3Requests.Inc()
	ctrler.metrics.observeFee(fee)

	ctrler.logger.Info("create new proposal",
		"id", propID, "proposer", ctx.Sender, "start", start, "end", end, "e3id", e3id.Dec())

	return propID, nil
}

func (ctrler *VoteCtrler) assertNotRegistered(key ledger.LedgerKey, id abytes.HexBytes) xerrors.XError {
	if _, xerr := ctrler.proposalLedger.Get(key); xerr == nil {
		return xerrors.ErrDuplicatedProposal.Wrapf("proposal %v already exists", id)
	} else if xerr != xerrors.ErrNotFoundResult {
		return xerr
	}
	return nil
}

// Execute consumes a passed proposal: it reads the published result,
// persists the executed flag and then runs the action batch. The flag is
// written before the batch so that nothing can run the batch twice, not
// even through a callback from the batch itself.
func (ctrler *VoteCtrler) Execute(ctx *ctrlertypes.OpContext, id abytes.HexBytes) xerrors.XError {
	key := ledger.ToLedgerKey(id)

	ctrler.mtx.Lock()
	if _, busy := ctrler.inflight[key]; busy {
		ctrler.mtx.Unlock()
		return xerrors.ErrExecutionForbidden.Wrapf("proposal %v is already being executed", id)
	}
	ctrler.inflight[key] = struct{}{}

	prop, xerr := ctrler.markExecuted(key, id)
	ctrler.mtx.Unlock()

	defer func() {
		ctrler.mtx.Lock()
		delete(ctrler.inflight, key)
		ctrler.mtx.Unlock()
	}()

	if xerr != nil {
		return xerr
	}

	failedMap, xerr := ctrler.execHandler.ExecBatch(ctx, id, prop.Target, prop.Actions, prop.AllowFailureMap)
	if xerr != nil {
		// The proposal stays consumed; the aborted batch keeps whatever
		// state its completed actions already wrote.
		ctrler.logger.Error("proposal action batch aborted", "id", id, "error", xerr.Error())
		ctx.EmitEvent("proposal.executed",
			ctrlertypes.EventAttr("id", []byte(id.String())),
			ctrlertypes.EventAttr("yes", []byte(prop.Tally.Yes.Dec())),
			ctrlertypes.EventAttr("no", []byte(prop.Tally.No.Dec())),
			ctrlertypes.EventAttr("aborted", []byte(xerr.Error())),
		)
		ctrler.metrics.proposalsExecuted.Inc()
		ctrler.metrics.proposalsOpen.Dec()
		return nil
	}

	ctx.EmitEvent("proposal.executed",
		ctrlertypes.EventAttr("id", []byte(id.String())),
		ctrlertypes.EventAttr("yes", []byte(prop.Tally.Yes.Dec())),
		ctrlertypes.EventAttr("no", []byte(prop.Tally.No.Dec())),
		ctrlertypes.EventAttr("failedActions", []byte(failedMap.Dec())),
	)

	ctrler.metrics.proposalsExecuted.Inc()
	ctrler.metrics.proposalsOpen.Dec()

	ctrler.logger.Info("proposal executed",
		"id", id, "yes", prop.Tally.Yes.Dec(), "no", prop.Tally.No.Dec(), "failedActions", failedMap.Dec())

	return nil
}

// markExecuted is the guarded half of Execute. The caller holds ctrler.mtx.
func (ctrler *VoteCtrler) markExecuted(key ledger.LedgerKey, id abytes.HexBytes) (*proposal.Proposal, xerrors.XError) {
	prop, xerr := ctrler.proposalLedger.Get(key)
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundProposal.Wrapf("proposal id: %v", id)
	} else if xerr != nil {
		return nil, xerr
	}

	if prop.Executed {
		ctrler.metrics.executionsRejected.Inc()
		return nil, xerrors.ErrExecutionForbidden.Wrapf("proposal %v was already executed", id)
	}

	res, xerr := ctrler.computeHandler.Result(prop.E3ID)
	if xerr != nil {
		return nil, xerr
	}

	tally, xerr := proposal.DecodeTally(res.Output, res.Submissions)
	if xerr != nil {
		ctrler.metrics.tallyFailures.Inc()
		return nil, xerr
	}

	if !tally.Passed() {
		ctrler.metrics.executionsRejected.Inc()
		return nil, xerrors.ErrExecutionForbidden.Wrapf(
			"proposal %v was not approved - yes: %v, no: %v", id, tally.Yes.Dec(), tally.No.Dec())
	}

	prop.Tally = tally
	prop.Executed = true
	if xerr := ctrler.proposalLedger.Set(prop); xerr != nil {
		return nil, xerr
	}
	return prop, nil
}

// InvokeCall makes the controller an action target: the execution target
// may call it with a JSON parameter payload to update the voting settings.
// Unnamed fields keep their current values. The new settings take effect
// when the surrounding operation commits.
func (ctrler *VoteCtrler) InvokeCall(ctx *ctrlertypes.OpContext, from types.Address, value *uint256.Int, input []byte) ([]byte, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if !from.Equal(ctrler.target.Target) {
		return nil, xerrors.ErrNoRight.Wrapf("vote: settings may only be updated by the execution target %v", ctrler.target.Target)
	}
	if value != nil && !value.IsZero() {
		return nil, xerrors.ErrInvalidRequest.Wrapf("vote: a settings update does not take value")
	}

	newParams := &ctrlertypes.VoteParams{}
	if err := json.Unmarshal(input, newParams); err != nil {
		return nil, xerrors.ErrInvalidRequest.Wrap(err)
	}

	ctrlertypes.MergeVoteParams(&ctrler.VoteParams, newParams)
	if xerr := ctrler.paramsLedger.Set(newParams); xerr != nil {
		return nil, xerr
	}
	ctrler.newVoteParams = newParams

	ctrler.logger.Info("voting settings update staged", "version", newParams.Version())
	return nil, nil
}

func (ctrler *VoteCtrler) ReadProposal(id abytes.HexBytes) (*proposal.Proposal, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	return ctrler.readProposal(id)
}

func (ctrler *VoteCtrler) readProposal(id abytes.HexBytes) (*proposal.Proposal, xerrors.XError) {
	prop, xerr := ctrler.proposalLedger.Read(ledger.ToLedgerKey(id))
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundProposal.Wrapf("proposal id: %v", id)
	} else if xerr != nil {
		return nil, xerr
	}
	return prop, nil
}

func (ctrler *VoteCtrler) ReadAllProposals() ([]*proposal.Proposal, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	var props []*proposal.Proposal
	if xerr := ctrler.proposalLedger.IterateReadAllItems(func(prop *proposal.Proposal) xerrors.XError {
		props = append(props, prop)
		return nil
	}); xerr != nil {
		return nil, xerr
	}
	return props, nil
}

// ReadTally returns the committed tally of an executed proposal, or a live
// projection decoded from the currently published result.
func (ctrler *VoteCtrler) ReadTally(id abytes.HexBytes) (*proposal.Tally, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	prop, xerr := ctrler.readProposal(id)
	if xerr != nil {
		return nil, xerr
	}

	if prop.Executed && prop.Tally != nil {
		return prop.Tally, nil
	}

	res, xerr := ctrler.computeHandler.Result(prop.E3ID)
	if xerr != nil {
		return nil, xerr
	}
	return proposal.DecodeTally(res.Output, res.Submissions)
}

// CanExecute reports whether Execute could still consume the proposal.
func (ctrler *VoteCtrler) CanExecute(id abytes.HexBytes) (bool, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	prop, xerr := ctrler.readProposal(id)
	if xerr != nil {
		return false, xerr
	}
	return !prop.Executed, nil
}

// ParticipationReached reports whether the ballots counted so far amount to
// at least minParticipationRatio of the total voting power at the proposal's
// snapshot. It is informational: Execute does not test it.
func (ctrler *VoteCtrler) ParticipationReached(id abytes.HexBytes) (bool, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	prop, xerr := ctrler.readProposal(id)
	if xerr != nil {
		return false, xerr
	}

	tally := prop.Tally
	if !prop.Executed || tally == nil {
		res, xerr := ctrler.computeHandler.Result(prop.E3ID)
		if xerr != nil {
			return false, xerr
		}
		if tally, xerr = proposal.DecodeTally(res.Output, res.Submissions); xerr != nil {
			return false, xerr
		}
	}

	ratio := uint64(ctrler.VoteParams.MinParticipationRatio())
	if ratio == 0 {
		return true, nil
	}

	total, xerr := ctrler.powerHandler.TotalPowerOf(prop.SnapshotHeight)
	if xerr != nil {
		return false, xerr
	}

	needed, over := new(uint256.Int).MulOverflow(total, uint256.NewInt(ratio))
	if over {
		return false, xerrors.ErrOverFlow.Wrapf("overflow occurs when computing the participation threshold - total: %v, ratio: %v", total.Dec(), ratio)
	}
	needed.Div(needed, uint256.NewInt(uint64(ctrlertypes.RatioBase)))

	turnout := new(uint256.Int).Add(tally.Yes, tally.No)
	return !turnout.Lt(needed), nil
}

func (ctrler *VoteCtrler) Params() *ctrlertypes.VoteParams {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	params := ctrler.VoteParams
	return &params
}

func (ctrler *VoteCtrler) Target() ctrlertypes.TargetConfig {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	return ctrler.target
}

func (ctrler *VoteCtrler) PowerOf(addr types.Address, height int64) (*uint256.Int, xerrors.XError) {
	return ctrler.powerHandler.PowerOf(addr, height)
}

func (ctrler *VoteCtrler) TotalPowerOf(height int64) (*uint256.Int, xerrors.XError) {
	return ctrler.powerHandler.TotalPowerOf(height)
}

func (ctrler *VoteCtrler) VotingToken() types.Address {
	return ctrler.powerHandler.TokenAddress()
}

func (ctrler *VoteCtrler) Commit() ([]byte, int64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	h0, v0, xerr := ctrler.paramsLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h1, v1, xerr := ctrler.proposalLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}

	if v0 != v1 {
		return nil, -1, xerrors.ErrCommit.Wrapf("vote: different versions of ledgers - params: %v, proposals: %v", v0, v1)
	}

	if ctrler.newVoteParams != nil {
		ctrler.VoteParams = *ctrler.newVoteParams
		ctrler.newVoteParams = nil
		ctrler.logger.Info("voting settings changed", "version", ctrler.VoteParams.Version())
	}

	return crypto.DefaultHash(h0, h1), v0, nil
}

func (ctrler *VoteCtrler) Revert() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	ctrler.newVoteParams = nil
	if xerr := ctrler.paramsLedger.Revert(); xerr != nil {
		return xerr
	}
	return ctrler.proposalLedger.Revert()
}

func (ctrler *VoteCtrler) Close() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if ctrler.paramsLedger != nil {
		if xerr := ctrler.paramsLedger.Close(); xerr != nil {
			ctrler.logger.Error("fail to close paramsLedger", "error", xerr.Error())
		}
		ctrler.paramsLedger = nil
	}
	if ctrler.proposalLedger != nil {
		if xerr := ctrler.proposalLedger.Close(); xerr != nil {
			ctrler.logger.Error("fail to close proposalLedger", "error", xerr.Error())
		}
		ctrler.proposalLedger = nil
	}
	return nil
}

func uint256ToDec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

var _ ctrlertypes.ILedgerHandler = (*VoteCtrler)(nil)
var _ ctrlertypes.ICallee = (*VoteCtrler)(nil)
