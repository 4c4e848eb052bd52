package node

import (
	abcitypes "github.com/tendermint/tendermint/abci/types"
	tmlog "github.com/tendermint/tendermint/libs/log"

	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
)

// Op is one state-changing operation. Apply runs against the staged state;
// its result is only kept if the whole operation commits.
type Op struct {
	Name   string
	Sender types.Address
	Apply  func(*ctrlertypes.OpContext) (interface{}, xerrors.XError)

	retc chan *opRet
}

// OpResult is what a committed operation leaves behind.
type OpResult struct {
	Value   interface{}
	Events  []abcitypes.Event
	Height  int64
	AppHash abytes.HexBytes
}

type opRet struct {
	res  *OpResult
	xerr xerrors.XError
}

type opRunner interface {
	runOp(op *Op) (*OpResult, xerrors.XError)
}

// OpExecutor serializes operations: one goroutine drains the queue, so every
// operation sees the state left by the previous one and commits alone.
type OpExecutor struct {
	opCh   chan *Op
	runner opRunner
	logger tmlog.Logger
}

func NewOpExecutor(runner opRunner, logger tmlog.Logger) *OpExecutor {
	return &OpExecutor{
		opCh:   make(chan *Op, 5000),
		runner: runner,
		logger: logger,
	}
}

func (opx *OpExecutor) Start() {
	go executionRoutine(opx.opCh, opx.runner, opx.logger)
}

func (opx *OpExecutor) Stop() {
	close(opx.opCh)
	opx.opCh = nil
}

// ExecuteSync queues the operation and waits for its outcome.
func (opx *OpExecutor) ExecuteSync(op *Op) (*OpResult, xerrors.XError) {
	if opx.opCh == nil {
		return nil, xerrors.NewOrdinary("operation execution channel is not available")
	}
	if op.Apply == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("operation %s has nothing to apply", op.Name)
	}

	op.retc = make(chan *opRet, 1)
	opx.opCh <- op

	ret := <-op.retc
	return ret.res, ret.xerr
}

func executionRoutine(ch chan *Op, runner opRunner, logger tmlog.Logger) {
	logger.Info("Start operation execution routine")

	for op := range ch {
		res, xerr := runner.runOp(op)
		op.retc <- &opRet{res: res, xerr: xerr}
	}

	logger.Info("Stop operation execution routine")
}
