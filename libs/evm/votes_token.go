package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// VotesToken reads voting power from a deployed ERC20Votes contract.
//
// Local operation heights do not correspond to EVM blocks, so power is
// always sampled at the newest block the contract can answer for, which is
// one behind the head.
type VotesToken struct {
	c *Contract
}

func NewVotesToken(cli *Client, hexAddr string) (*VotesToken, xerrors.XError) {
	c, xerr := newContract(cli, hexAddr, votesTokenABI)
	if xerr != nil {
		return nil, xerr
	}
	return &VotesToken{c: c}, nil
}

func (vt *VotesToken) snapshotBlock() (*big.Int, xerrors.XError) {
	head, xerr := vt.c.cli.HeadBlock()
	if xerr != nil {
		return nil, xerr
	}
	if head == 0 {
		return nil, xerrors.ErrNotFoundResult.Wrapf("evm: the chain has no past block yet")
	}
	return new(big.Int).SetUint64(head - 1), nil
}

func (vt *VotesToken) PowerOf(addr types.Address, _ int64) (*uint256.Int, xerrors.XError) {
	block, xerr := vt.snapshotBlock()
	if xerr != nil {
		return nil, xerr
	}

	vals, xerr := vt.c.Call("getPastVotes", common.BytesToAddress(addr), block)
	if xerr != nil {
		return nil, xerr
	}
	return unpackUint256(vals, 0)
}

func (vt *VotesToken) TotalPowerOf(_ int64) (*uint256.Int, xerrors.XError) {
	block, xerr := vt.snapshotBlock()
	if xerr != nil {
		return nil, xerr
	}

	vals, xerr := vt.c.Call("getPastTotalSupply", block)
	if xerr != nil {
		return nil, xerr
	}
	return unpackUint256(vals, 0)
}

func (vt *VotesToken) TokenAddress() types.Address {
	return vt.c.Address()
}

var _ ctrlertypes.IVotePowerHandler = (*VotesToken)(nil)

func unpackUint256(vals []interface{}, idx int) (*uint256.Int, xerrors.XError) {
	if idx >= len(vals) {
		return nil, xerrors.ErrNotFoundResult.Wrapf("evm: return value %d is missing", idx)
	}
	b, ok := vals[idx].(*big.Int)
	if !ok {
		return nil, xerrors.NewOrdinary("evm: unexpected return type")
	}
	v, over := uint256.FromBig(b)
	if over {
		return nil, xerrors.ErrOverFlow.Wrapf("evm: return value %d does not fit 256 bits", idx)
	}
	return v, nil
}
