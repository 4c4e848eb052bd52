package token_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/gnosisguild/crisp-go/ctrlers/token"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

func TestAccountCheckpoints(t *testing.T) {
	acct := token.NewAccount(types.RandAddress())

	require.NoError(t, acct.AddBalance(uint256.NewInt(1000), 1))
	require.NoError(t, acct.AddBalance(uint256.NewInt(500), 5))
	require.NoError(t, acct.SubBalance(uint256.NewInt(300), 9))

	cases := []struct {
		height   int64
		expected uint64
	}{
		{0, 0}, // before the first checkpoint
		{1, 1000},
		{4, 1000},
		{5, 1500},
		{8, 1500},
		{9, 1200},
		{100, 1200},
	}
	for _, c := range cases {
		require.Equal(t, uint256.NewInt(c.expected), acct.BalanceAt(c.height), "height %v", c.height)
	}
}

func TestAccountCheckpointSameHeight(t *testing.T) {
	acct := token.NewAccount(types.RandAddress())

	// several balance changes at one height collapse into one checkpoint
	require.NoError(t, acct.AddBalance(uint256.NewInt(100), 3))
	require.NoError(t, acct.AddBalance(uint256.NewInt(100), 3))
	require.NoError(t, acct.SubBalance(uint256.NewInt(50), 3))

	require.Equal(t, 1, len(acct.Checkpoints))
	require.Equal(t, uint256.NewInt(150), acct.BalanceAt(3))
	require.Equal(t, uint256.NewInt(0), acct.BalanceAt(2))
}

func TestAccountInsufficientBalance(t *testing.T) {
	acct := token.NewAccount(types.RandAddress())
	require.NoError(t, acct.AddBalance(uint256.NewInt(10), 1))

	xerr := acct.SubBalance(uint256.NewInt(11), 2)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInsufficientFund.Code(), xerr.Code())

	// the failed debit writes no checkpoint
	require.Equal(t, 1, len(acct.Checkpoints))
	require.Equal(t, uint256.NewInt(10), acct.GetBalance())
}

func TestAccountAllowance(t *testing.T) {
	acct := token.NewAccount(types.RandAddress())
	spender0 := types.RandAddress()
	spender1 := types.RandAddress()

	require.Equal(t, uint256.NewInt(0), acct.Allowance(spender0))

	acct.SetAllowance(spender0, uint256.NewInt(700))
	acct.SetAllowance(spender1, uint256.NewInt(20))
	require.Equal(t, uint256.NewInt(700), acct.Allowance(spender0))
	require.Equal(t, uint256.NewInt(20), acct.Allowance(spender1))

	require.NoError(t, acct.SpendAllowance(spender0, uint256.NewInt(300)))
	require.Equal(t, uint256.NewInt(400), acct.Allowance(spender0))

	xerr := acct.SpendAllowance(spender0, uint256.NewInt(401))
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInsufficientAllowance.Code(), xerr.Code())

	xerr = acct.SpendAllowance(types.RandAddress(), uint256.NewInt(1))
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrInsufficientAllowance.Code(), xerr.Code())

	// overwriting resets rather than accumulates
	acct.SetAllowance(spender0, uint256.NewInt(5))
	require.Equal(t, uint256.NewInt(5), acct.Allowance(spender0))
}

func TestAccountCodec(t *testing.T) {
	acct := token.NewAccount(types.RandAddress())
	require.NoError(t, acct.AddBalance(uint256.NewInt(123456), 7))
	require.NoError(t, acct.SubBalance(uint256.NewInt(456), 9))
	acct.SetAllowance(types.RandAddress(), uint256.NewInt(77))
	acct.SetAllowance(types.RandAddress(), uint256.NewInt(88))

	bz, xerr := acct.Encode()
	require.NoError(t, xerr)

	decoded := &token.Account{}
	require.NoError(t, decoded.Decode(bz))

	require.Equal(t, acct.GetAddress(), decoded.GetAddress())
	require.Equal(t, acct.GetBalance(), decoded.GetBalance())
	require.Equal(t, acct.Key(), decoded.Key())
	require.Equal(t, acct.BalanceAt(7), decoded.BalanceAt(7))
	require.Equal(t, acct.BalanceAt(9), decoded.BalanceAt(9))
	require.Equal(t, len(acct.Allowances), len(decoded.Allowances))
	for _, a := range acct.Allowances {
		require.Equal(t, a.Amount, decoded.Allowance(a.Spender))
	}

	// deterministic encoding
	bz2, xerr := decoded.Encode()
	require.NoError(t, xerr)
	require.Equal(t, bz, bz2)
}

func TestSupplyCheckpoints(t *testing.T) {
	supply := token.NewSupply()
	require.NoError(t, supply.Mint(uint256.NewInt(1000), 1))
	require.NoError(t, supply.Mint(uint256.NewInt(500), 4))

	require.Equal(t, uint256.NewInt(1500), supply.GetTotal())
	require.Equal(t, uint256.NewInt(0), supply.TotalAt(0))
	require.Equal(t, uint256.NewInt(1000), supply.TotalAt(3))
	require.Equal(t, uint256.NewInt(1500), supply.TotalAt(4))

	bz, xerr := supply.Encode()
	require.NoError(t, xerr)

	decoded := &token.Supply{}
	require.NoError(t, decoded.Decode(bz))
	require.Equal(t, supply.GetTotal(), decoded.GetTotal())
	require.Equal(t, supply.TotalAt(3), decoded.TotalAt(3))
}
