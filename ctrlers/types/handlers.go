package types

import (
	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

type ILedgerHandler interface {
	InitLedger(interface{}) xerrors.XError
	Commit() ([]byte, int64, xerrors.XError)
	Revert() xerrors.XError
	Close() xerrors.XError
}

// IVotePowerHandler resolves historical voting power of the voting token.
type IVotePowerHandler interface {
	PowerOf(types.Address, int64) (*uint256.Int, xerrors.XError)
	TotalPowerOf(int64) (*uint256.Int, xerrors.XError)
	TokenAddress() types.Address
}

// IFeeHandler moves the computation fee. CollectFrom pulls the fee from the
// operation sender into the voting module's custody; ApproveTo lets the
// computation provider take it from there.
type IFeeHandler interface {
	CollectFrom(*OpContext, *uint256.Int) xerrors.XError
	ApproveTo(*OpContext, types.Address, *uint256.Int) xerrors.XError
}

// IComputeHandler is the interface to the external computation provider.
type IComputeHandler interface {
	Address() types.Address
	Quote(*E3Request) (*uint256.Int, xerrors.XError)
	Request(*OpContext, *E3Request) (*uint256.Int, xerrors.XError)
	Result(*uint256.Int) (*E3Result, xerrors.XError)
}

// IExecHandler runs a proposal's action batch through the configured
// executor. The returned map has bit i set when action i failed but the
// batch tolerated it. A non-tolerated failure aborts the batch and returns
// ErrActionReverted.
type IExecHandler interface {
	ExecBatch(*OpContext, abytes.HexBytes, TargetConfig, []Action, *uint256.Int) (*uint256.Int, xerrors.XError)
}

// IPermissionHandler answers whether an account may run an operation.
type IPermissionHandler interface {
	CanExecuteAs(types.Address, string) bool
}

// ICallee is a built-in module reachable as a call target of actions.
type ICallee interface {
	InvokeCall(*OpContext, types.Address, *uint256.Int, []byte) ([]byte, xerrors.XError)
}
