package vote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/genesis"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

var (
	config     = cfg.DefaultConfig()
	voteCtrler *VoteCtrler

	powerMock   = newPowerHandlerMock()
	feeMock     = newFeeHandlerMock()
	computeMock = newComputeHandlerMock()
	execMock    = newExecHandlerMock()
	permMock    = newPermHandlerMock()

	treasuryAddr = types.RandAddress()
	programAddr  = types.RandAddress()

	proposer0 = types.RandAddress() // above the proposer power gate
	proposer1 = types.RandAddress() // below it
	stranger  = types.RandAddress() // no power at all

	// unix seconds well away from zero so "start in the past" cases exist
	now0 = uint64(1_000_000)

	lastVer int64
)

func init() {
	config.SetRoot(filepath.Join(os.TempDir(), "vote-ctrler-test"))
	os.RemoveAll(config.DBDir())
	os.MkdirAll(config.DBDir(), 0o700)

	powerMock.setPower(proposer0, 1_000)
	powerMock.setPower(proposer1, 50)
	powerMock.total = uint256.NewInt(30)

	var xerr xerrors.XError
	voteCtrler, xerr = NewVoteCtrler(config, prometheus.NewRegistry(), tmlog.NewNopLogger())
	if xerr != nil {
		panic(xerr)
	}
	if xerr = voteCtrler.BindGenesisConfig(
		ctrlertypes.TargetConfig{Target: treasuryAddr, Operation: ctrlertypes.OpCall},
		ctrlertypes.E3Config{Program: programAddr, Threshold: [2]uint32{2, 3}},
	); xerr != nil {
		panic(xerr)
	}
	if xerr = voteCtrler.BindHandlers(powerMock, feeMock, computeMock, execMock, permMock); xerr != nil {
		panic(xerr)
	}
	if xerr = voteCtrler.InitLedger(&genesis.GenesisAppState{VoteParams: ctrlertypes.Test1VoteParams()}); xerr != nil {
		panic(xerr)
	}
	_, ver, xerr := voteCtrler.Commit()
	if xerr != nil {
		panic(xerr)
	}
	if ver != 1 {
		panic("genesis must commit as version 1")
	}
	lastVer = ver
}

func nextOpCtx(sender types.Address, tm uint64) *ctrlertypes.OpContext {
	return ctrlertypes.NewOpContext(lastVer+1, tm, sender)
}

func commitOps(t *testing.T) {
	_, ver, xerr := voteCtrler.Commit()
	require.NoError(t, xerr)
	require.Equal(t, lastVer+1, ver)
	lastVer = ver
}

func revertOps(t *testing.T) {
	require.NoError(t, voteCtrler.Revert())
}

func makeActions(n int) []ctrlertypes.Action {
	actions := make([]ctrlertypes.Action, n)
	for i := 0; i < n; i++ {
		actions[i] = ctrlertypes.Action{
			To:    types.RandAddress(),
			Value: uint256.NewInt(uint64(i + 1)),
		}
	}
	return actions
}

func TestVoteCtrlerGenesisParams(t *testing.T) {
	params := voteCtrler.Params()
	want := ctrlertypes.Test1VoteParams()

	require.Equal(t, want.Version(), params.Version())
	require.Equal(t, want.MinProposerPower(), params.MinProposerPower())
	require.Equal(t, want.MinParticipationRatio(), params.MinParticipationRatio())
	require.Equal(t, want.MinDuration(), params.MinDuration())

	require.Equal(t, treasuryAddr, voteCtrler.Target().Target)
	require.Equal(t, powerMock.token, voteCtrler.VotingToken())
}

func TestVoteCtrlerBindValidation(t *testing.T) {
	home := filepath.Join(os.TempDir(), "vote-ctrler-bind-test")
	require.NoError(t, os.RemoveAll(home))
	require.NoError(t, os.MkdirAll(filepath.Join(home, cfg.DefaultDataDir), 0o700))

	ctrler, xerr := NewVoteCtrler(cfg.DefaultConfig().SetRoot(home), prometheus.NewRegistry(), tmlog.NewNopLogger())
	require.NoError(t, xerr)
	defer ctrler.Close()

	xerr = ctrler.BindGenesisConfig(
		ctrlertypes.TargetConfig{},
		ctrlertypes.E3Config{Program: programAddr, Threshold: [2]uint32{2, 3}})
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrZeroAddress.Code(), xerr.Code())

	xerr = ctrler.BindHandlers(nil, feeMock, computeMock, execMock, permMock)
	require.Error(t, xerr)

	xerr = ctrler.InitLedger("not a genesis app state")
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInitChain.Code(), xerr.Code())
}

func TestVoteCtrlerParamsPersistence(t *testing.T) {
	home := filepath.Join(os.TempDir(), "vote-ctrler-persist-test")
	require.NoError(t, os.RemoveAll(home))
	require.NoError(t, os.MkdirAll(filepath.Join(home, cfg.DefaultDataDir), 0o700))
	c := cfg.DefaultConfig().SetRoot(home)

	ctrler, xerr := NewVoteCtrler(c, prometheus.NewRegistry(), tmlog.NewNopLogger())
	require.NoError(t, xerr)
	require.NoError(t, ctrler.InitLedger(&genesis.GenesisAppState{VoteParams: ctrlertypes.Test2VoteParams()}))
	_, ver, xerr := ctrler.Commit()
	require.NoError(t, xerr)
	require.Equal(t, int64(1), ver)
	require.NoError(t, ctrler.Close())

	reopened, xerr := NewVoteCtrler(c, prometheus.NewRegistry(), tmlog.NewNopLogger())
	require.NoError(t, xerr)
	defer reopened.Close()

	want := ctrlertypes.Test2VoteParams()
	require.Equal(t, want.Version(), reopened.Params().Version())
	require.Equal(t, want.MinProposerPower(), reopened.Params().MinProposerPower())
	require.Equal(t, want.MinDuration(), reopened.Params().MinDuration())
}

func TestVoteCtrlerReadUnknownProposal(t *testing.T) {
	_, xerr := voteCtrler.ReadProposal(abytes.RandBytes(32))
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNotFoundProposal.Code(), xerr.Code())

	_, xerr = voteCtrler.CanExecute(abytes.RandBytes(32))
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrNotFoundProposal.Code(), xerr.Code())
}
