package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Enclave talks to a deployed enclave coordinator contract.
type Enclave struct {
	c *Contract
}

func NewEnclave(cli *Client, hexAddr string) (*Enclave, xerrors.XError) {
	c, xerr := newContract(cli, hexAddr, enclaveABI)
	if xerr != nil {
		return nil, xerr
	}
	return &Enclave{c: c}, nil
}

func (enc *Enclave) Address() types.Address {
	return enc.c.Address()
}

func requestArgs(req *ctrlertypes.E3Request) []interface{} {
	return []interface{}{
		common.BytesToAddress(req.Program),
		req.Threshold,
		[2]*big.Int{
			new(big.Int).SetUint64(req.StartWindow[0]),
			new(big.Int).SetUint64(req.StartWindow[1]),
		},
		new(big.Int).SetUint64(req.Duration),
		[]byte(req.ProgramParams),
		[]byte(req.ComputeParams),
	}
}

func (enc *Enclave) Quote(req *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	if req == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("evm: empty computation request")
	}

	vals, xerr := enc.c.Call("quote", requestArgs(req)...)
	if xerr != nil {
		return nil, xerr
	}
	return unpackUint256(vals, 0)
}

// Request submits the computation request and reads the assigned id off the
// E3Requested event.
func (enc *Enclave) Request(_ *ctrlertypes.OpContext, req *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	if req == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("evm: empty computation request")
	}

	receipt, xerr := enc.c.Exec(nil, "request", requestArgs(req)...)
	if xerr != nil {
		return nil, xerr
	}

	lg := enc.c.EventLog(receipt, "E3Requested")
	if lg == nil || len(lg.Topics) < 2 {
		return nil, xerrors.NewOrdinary("evm: the request emitted no E3Requested event")
	}

	e3id, over := uint256.FromBig(new(big.Int).SetBytes(lg.Topics[1].Bytes()))
	if over {
		return nil, xerrors.ErrOverFlow.Wrapf("evm: e3 id does not fit 256 bits")
	}
	return e3id, nil
}

func (enc *Enclave) Result(e3id *uint256.Int) (*ctrlertypes.E3Result, xerrors.XError) {
	if e3id == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("evm: empty e3 id")
	}

	vals, xerr := enc.c.Call("getResult", e3id.ToBig())
	if xerr != nil {
		return nil, xerr
	}
	if len(vals) < 2 {
		return nil, xerrors.ErrNotFoundResult.Wrapf("evm: getResult returned %d values", len(vals))
	}

	output, ok := vals[0].([]byte)
	if !ok {
		return nil, xerrors.NewOrdinary("evm: unexpected type of output")
	}
	submissions, ok := vals[1].(*big.Int)
	if !ok {
		return nil, xerrors.NewOrdinary("evm: unexpected type of submissions")
	}

	return &ctrlertypes.E3Result{
		Output:      abytes.HexBytes(output),
		Submissions: submissions.Uint64(),
	}, nil
}

var _ ctrlertypes.IComputeHandler = (*Enclave)(nil)
