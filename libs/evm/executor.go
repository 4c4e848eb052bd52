package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Executor hands approved action batches to the deployed execution target.
type Executor struct {
	c *Contract
}

func NewExecutor(cli *Client, hexAddr string) (*Executor, xerrors.XError) {
	c, xerr := newContract(cli, hexAddr, executorABI)
	if xerr != nil {
		return nil, xerr
	}
	return &Executor{c: c}, nil
}

type execAction struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

func (ex *Executor) ExecBatch(
	_ *ctrlertypes.OpContext,
	propID abytes.HexBytes,
	target ctrlertypes.TargetConfig,
	actions []ctrlertypes.Action,
	allowFailureMap *uint256.Int,
) (*uint256.Int, xerrors.XError) {

	if target.Operation != ctrlertypes.OpCall {
		return nil, xerrors.ErrNotSupported.Wrapf("evm: operation %v is not supported", target.Operation)
	}

	encActions := make([]execAction, len(actions))
	for i, action := range actions {
		val := new(big.Int)
		if action.Value != nil {
			val = action.Value.ToBig()
		}
		encActions[i] = execAction{
			To:    common.BytesToAddress(action.To),
			Value: val,
			Data:  action.Data,
		}
	}

	allow := new(big.Int)
	if allowFailureMap != nil {
		allow = allowFailureMap.ToBig()
	}

	receipt, xerr := ex.c.Exec(nil, "execute", propID.Array32(), encActions, allow)
	if xerr != nil {
		return nil, xerrors.ErrActionReverted.Wrapf("evm: batch execution failed: %v", xerr.Error())
	}

	lg := ex.c.EventLog(receipt, "BatchExecuted")
	if lg == nil {
		return nil, xerrors.NewOrdinary("evm: the execution emitted no BatchExecuted event")
	}

	vals, err := ex.c.abi.Unpack("BatchExecuted", lg.Data)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return unpackUint256(vals, 0)
}

var _ ctrlertypes.IExecHandler = (*Executor)(nil)
