package vote

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/gnosisguild/crisp-go/ctrlers/vote/proposal"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// carried into 2_execute_test.go
var (
	prop0ID      abytes.HexBytes
	prop0Actions = makeActions(2)
	prop0Meta    = abytes.HexBytes("ipfs://proposal-0")
)

func TestProposeBelowPowerGate(t *testing.T) {
	// Test1VoteParams requires 100; proposer1 has 50
	ctx := nextOpCtx(proposer1, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNoRight.Code(), xerr.Code())
	revertOps(t)

	// a proposer right above the gate passes it
	proposer2 := types.RandAddress()
	powerMock.setPower(proposer2, 150)

	ctx = nextOpCtx(proposer2, now0)
	id, xerr := voteCtrler.CreateProposal(ctx, abytes.HexBytes("ipfs://gate-check"), makeActions(1), 0, 0, nil)
	require.NoError(t, xerr)
	require.Len(t, id.Bytes(), 32)
	commitOps(t)
}

func TestProposeDeniedSender(t *testing.T) {
	permMock.denied[string(proposer0)] = struct{}{}
	defer delete(permMock.denied, string(proposer0))

	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNoRight.Code(), xerr.Code())
	revertOps(t)
}

func TestProposeBadWindow(t *testing.T) {
	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, now0-1, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrDateOutOfBounds.Code(), xerr.Code())
	revertOps(t)

	minDur := voteCtrler.Params().MinDuration()
	ctx = nextOpCtx(proposer0, now0)
	_, xerr = voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, now0+minDur-1, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrDateOutOfBounds.Code(), xerr.Code())
	revertOps(t)
}

func TestProposeTooManyActions(t *testing.T) {
	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, makeActions(MaxActions+1), 0, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInvalidRequest.Code(), xerr.Code())
	revertOps(t)
}

func TestProposeGarbledExtra(t *testing.T) {
	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, abytes.RandBytes(17))
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInvalidRequest.Code(), xerr.Code())
	revertOps(t)
}

func TestProposeFeeFailureAborts(t *testing.T) {
	feeMock.failCollect = xerrors.ErrInsufficientFund.Wrapf("test: broke proposer")
	defer func() { feeMock.failCollect = nil }()

	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInsufficientFund.Code(), xerr.Code())
	revertOps(t)

	// nothing was registered
	wantID, xerr := proposal.DeriveID(prop0Actions, prop0Meta)
	require.NoError(t, xerr)
	_, xerr = voteCtrler.ReadProposal(wantID)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNotFoundProposal.Code(), xerr.Code())
}

func TestProposeRequestFailureAborts(t *testing.T) {
	collectedBefore := len(feeMock.collected)

	computeMock.failRequest = xerrors.ErrNotFoundResult.Wrapf("test: provider down")
	defer func() { computeMock.failRequest = nil }()

	ctx := nextOpCtx(proposer0, now0)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, nil)
	require.Error(t, xerr)
	revertOps(t)

	// the fee was pulled before the request failed; the surrounding
	// operation reverts it together with everything else
	require.Equal(t, collectedBefore+1, len(feeMock.collected))

	wantID, xerr := proposal.DeriveID(prop0Actions, prop0Meta)
	require.NoError(t, xerr)
	_, xerr = voteCtrler.ReadProposal(wantID)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNotFoundProposal.Code(), xerr.Code())
}

func TestPropose(t *testing.T) {
	extra, xerr := proposal.EncodeExtra(uint256.NewInt(0b10), [2]uint64{now0, now0 + 60})
	require.NoError(t, xerr)

	ctx := nextOpCtx(proposer0, now0)
	id, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, extra)
	require.NoError(t, xerr)

	wantID, xerr := proposal.DeriveID(prop0Actions, prop0Meta)
	require.NoError(t, xerr)
	require.Equal(t, wantID, id)

	// the quoted fee went through the collect-then-approve sequence
	require.Equal(t, computeMock.fee, feeMock.collected[len(feeMock.collected)-1])
	require.Equal(t, computeMock.fee, feeMock.approved[string(computeMock.addr)])

	// the computation request reflects the resolved window and the extra
	minDur := voteCtrler.Params().MinDuration()
	req := computeMock.requests[len(computeMock.requests)-1]
	require.Equal(t, programAddr, req.Program)
	require.Equal(t, [2]uint64{now0, now0 + 60}, req.StartWindow)
	require.Equal(t, minDur, req.Duration)

	events := ctx.Events()
	require.Len(t, events, 1)
	require.Equal(t, "proposal.created", events[0].Type)

	commitOps(t)
	prop0ID = id

	prop, xerr := voteCtrler.ReadProposal(id)
	require.NoError(t, xerr)
	require.Equal(t, proposer0, prop.Proposer)
	require.Equal(t, now0, prop.StartDate)
	require.Equal(t, now0+minDur, prop.EndDate)
	require.Equal(t, lastVer, prop.SnapshotHeight)
	require.Equal(t, voteCtrler.Params().MinProposerPower(), prop.MinVotingPower)
	require.Equal(t, uint64(0b10), prop.AllowFailureMap.Uint64())
	require.Equal(t, treasuryAddr, prop.Target.Target)
	require.False(t, prop.Executed)
	require.Nil(t, prop.Tally)
	require.True(t, prop.Exists())

	can, xerr := voteCtrler.CanExecute(id)
	require.NoError(t, xerr)
	require.True(t, can)
}

func TestProposeDuplicated(t *testing.T) {
	require.NotNil(t, prop0ID)

	// identical (actions, metadata) collide whoever submits them
	ctx := nextOpCtx(proposer0, now0+10)
	_, xerr := voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, now0+100, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrDuplicatedProposal.Code(), xerr.Code())
	revertOps(t)

	proposer2 := types.RandAddress()
	powerMock.setPower(proposer2, 500)
	ctx = nextOpCtx(proposer2, now0+10)
	_, xerr = voteCtrler.CreateProposal(ctx, prop0Meta, prop0Actions, 0, 0, nil)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrDuplicatedProposal.Code(), xerr.Code())
	revertOps(t)

	// different metadata is a different proposal
	ctx = nextOpCtx(proposer0, now0+10)
	id, xerr := voteCtrler.CreateProposal(ctx, abytes.HexBytes("ipfs://proposal-0-v2"), prop0Actions, 0, 0, nil)
	require.NoError(t, xerr)
	require.NotEqual(t, prop0ID, id)
	commitOps(t)
}

func TestProposeList(t *testing.T) {
	props, xerr := voteCtrler.ReadAllProposals()
	require.NoError(t, xerr)
	require.Equal(t, 3, len(props))

	found := false
	for _, prop := range props {
		if prop.ID.Equal(prop0ID) {
			found = true
		}
	}
	require.True(t, found)
}
