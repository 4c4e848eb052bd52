package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// FeeToken pays computation fees through a deployed ERC20 contract.
// The node's account is the custody: CollectFrom pulls the fee from the
// proposer (who must have approved the node's account beforehand) and
// ApproveTo lets the enclave take it from there.
type FeeToken struct {
	c *Contract
}

func NewFeeToken(cli *Client, hexAddr string) (*FeeToken, xerrors.XError) {
	c, xerr := newContract(cli, hexAddr, feeTokenABI)
	if xerr != nil {
		return nil, xerr
	}
	return &FeeToken{c: c}, nil
}

func (ft *FeeToken) CollectFrom(ctx *ctrlertypes.OpContext, fee *uint256.Int) xerrors.XError {
	_, xerr := ft.c.Exec(nil, "transferFrom",
		common.BytesToAddress(ctx.Sender),
		common.BytesToAddress(ft.c.cli.From()),
		fee.ToBig())
	if xerr != nil {
		return xerrors.ErrInsufficientFund.Wrapf("evm: fee collection failed: %v", xerr.Error())
	}
	return nil
}

func (ft *FeeToken) ApproveTo(_ *ctrlertypes.OpContext, spender types.Address, fee *uint256.Int) xerrors.XError {
	_, xerr := ft.c.Exec(nil, "approve",
		common.BytesToAddress(spender),
		fee.ToBig())
	return xerr
}

// BalanceOf reads the fee token balance of an account.
func (ft *FeeToken) BalanceOf(addr types.Address) (*uint256.Int, xerrors.XError) {
	vals, xerr := ft.c.Call("balanceOf", common.BytesToAddress(addr))
	if xerr != nil {
		return nil, xerr
	}
	return unpackUint256(vals, 0)
}

var _ ctrlertypes.IFeeHandler = (*FeeToken)(nil)
