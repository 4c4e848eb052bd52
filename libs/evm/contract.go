package evm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Contract binds one deployed contract to the client.
type Contract struct {
	cli  *Client
	abi  abi.ABI
	addr common.Address
}

func newContract(cli *Client, hexAddr, abiJSON string) (*Contract, xerrors.XError) {
	if !common.IsHexAddress(hexAddr) {
		return nil, xerrors.ErrInvalidRequest.Wrapf("evm: %q is not a contract address", hexAddr)
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, xerrors.From(err)
	}

	return &Contract{
		cli:  cli,
		abi:  parsed,
		addr: common.HexToAddress(hexAddr),
	}, nil
}

func (c *Contract) Address() types.Address {
	return c.addr.Bytes()
}

// Call runs a read-only method against the latest block.
func (c *Contract) Call(method string, args ...interface{}) ([]interface{}, xerrors.XError) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, xerrors.From(err)
	}

	ret, xerr := c.cli.call(c.addr, data)
	if xerr != nil {
		return nil, xerr
	}

	vals, err := c.abi.Unpack(method, ret)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return vals, nil
}

// Exec submits a state-changing method and waits for its receipt.
func (c *Contract) Exec(value *big.Int, method string, args ...interface{}) (*ethtypes.Receipt, xerrors.XError) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return c.cli.send(c.addr, value, data)
}

// EventLog finds the first log of the named event emitted by this contract
// in the receipt, or nil.
func (c *Contract) EventLog(receipt *ethtypes.Receipt, event string) *ethtypes.Log {
	ev, ok := c.abi.Events[event]
	if !ok {
		return nil
	}
	for _, lg := range receipt.Logs {
		if lg.Address == c.addr && len(lg.Topics) > 0 && lg.Topics[0] == ev.ID {
			return lg
		}
	}
	return nil
}
