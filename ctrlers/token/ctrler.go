package token

import (
	"sync"

	"github.com/holiman/uint256"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/genesis"
	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// ModuleAddress identifies the built-in voting token.
var ModuleAddress = crypto.ModuleAddress("crisp/token")

// TokenCtrler is the devnet voting token: balances double as voting power,
// sampled per height through checkpoints. On an EVM deployment the same
// roles are played by live token contracts instead.
type TokenCtrler struct {
	acctLedger   ledger.ILedger[*Account]
	supplyLedger ledger.ILedger[*Supply]

	// receives proposal fees collected from proposers
	feeCustody types.Address

	logger tmlog.Logger
	mtx    sync.RWMutex
}

func NewTokenCtrler(config *cfg.Config, logger tmlog.Logger) (*TokenCtrler, xerrors.XError) {
	lg := logger.With("module", "crisp_TokenCtrler")

	newAcctLedger, xerr := ledger.NewLedger[*Account](
		"accounts", config.DBDir(), 2048,
		func() *Account { return &Account{} })
	if xerr != nil {
		return nil, xerr
	}

	newSupplyLedger, xerr := ledger.NewLedger[*Supply](
		"supply", config.DBDir(), 1,
		func() *Supply { return &Supply{} })
	if xerr != nil {
		_ = newAcctLedger.Close()
		return nil, xerr
	}

	return &TokenCtrler{
		acctLedger:   newAcctLedger,
		supplyLedger: newSupplyLedger,
		logger:       lg,
	}, nil
}

// BindFeeCustody sets the account that CollectFrom credits and ApproveTo
// grants allowances on. It runs on every start, before any operation.
func (ctrler *TokenCtrler) BindFeeCustody(addr types.Address) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if types.IsZeroAddress(addr) {
		return xerrors.ErrZeroAddress.Wrapf("token: the fee custody address is not set")
	}
	ctrler.feeCustody = addr
	return nil
}

// InitLedger mints the genesis balances. The genesis state commits as
// version 1, so the checkpoints are written at height 1.
func (ctrler *TokenCtrler) InitLedger(req interface{}) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	genAppState, ok := req.(*genesis.GenesisAppState)
	if !ok {
		return xerrors.ErrInitChain.Wrapf("token: invalid genesis type %T", req)
	}

	supply := NewSupply()
	for _, holder := range genAppState.TokenHolders {
		acct, xerr := ctrler.findOrNewAccount(holder.Address)
		if xerr != nil {
			return xerr
		}
		if xerr := acct.AddBalance(holder.Balance, 1); xerr != nil {
			return xerr
		}
		if xerr := ctrler.acctLedger.Set(acct); xerr != nil {
			return xerr
		}
		if xerr := supply.Mint(holder.Balance, 1); xerr != nil {
			return xerr
		}
	}
	return ctrler.supplyLedger.Set(supply)
}

func (ctrler *TokenCtrler) findOrNewAccount(addr types.Address) (*Account, xerrors.XError) {
	acct, xerr := ctrler.acctLedger.Get(addr.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return NewAccount(addr), nil
	} else if xerr != nil {
		return nil, xerr
	}
	return acct, nil
}

func (ctrler *TokenCtrler) findAccount(addr types.Address) (*Account, xerrors.XError) {
	acct, xerr := ctrler.acctLedger.Get(addr.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundAccount.Wrapf("address: %v", addr)
	} else if xerr != nil {
		return nil, xerr
	}
	return acct, nil
}

// Transfer moves amt from one account to another and checkpoints both
// balances at the operation height.
func (ctrler *TokenCtrler) Transfer(ctx *ctrlertypes.OpContext, from, to types.Address, amt *uint256.Int) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	return ctrler.transfer(from, to, amt, ctx.Height)
}

func (ctrler *TokenCtrler) transfer(from, to types.Address, amt *uint256.Int, height int64) xerrors.XError {
	if types.IsZeroAddress(from) || types.IsZeroAddress(to) {
		return xerrors.ErrZeroAddress.Wrapf("token: transfer from %v to %v", from, to)
	}
	if amt == nil || amt.IsZero() {
		return nil
	}

	sender, xerr := ctrler.findAccount(from)
	if xerr != nil {
		return xerr
	}
	receiver, xerr := ctrler.findOrNewAccount(to)
	if xerr != nil {
		return xerr
	}

	if xerr := sender.SubBalance(amt, height); xerr != nil {
		return xerr
	}
	if xerr := receiver.AddBalance(amt, height); xerr != nil {
		return xerr
	}

	if xerr := ctrler.acctLedger.Set(sender); xerr != nil {
		return xerr
	}
	return ctrler.acctLedger.Set(receiver)
}

// Approve lets spender pull up to amt from owner.
func (ctrler *TokenCtrler) Approve(ctx *ctrlertypes.OpContext, owner, spender types.Address, amt *uint256.Int) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	return ctrler.approve(owner, spender, amt)
}

func (ctrler *TokenCtrler) approve(owner, spender types.Address, amt *uint256.Int) xerrors.XError {
	if types.IsZeroAddress(owner) || types.IsZeroAddress(spender) {
		return xerrors.ErrZeroAddress.Wrapf("token: approve %v for %v", spender, owner)
	}

	acct, xerr := ctrler.findOrNewAccount(owner)
	if xerr != nil {
		return xerr
	}
	acct.SetAllowance(spender, amt)
	return ctrler.acctLedger.Set(acct)
}

// TransferFrom spends spender's allowance on owner and moves amt to another
// account.
func (ctrler *TokenCtrler) TransferFrom(ctx *ctrlertypes.OpContext, spender, owner, to types.Address, amt *uint256.Int) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if amt == nil || amt.IsZero() {
		return nil
	}

	acct, xerr := ctrler.findAccount(owner)
	if xerr != nil {
		return xerr
	}
	if xerr := acct.SpendAllowance(spender, amt); xerr != nil {
		return xerr
	}
	if xerr := ctrler.acctLedger.Set(acct); xerr != nil {
		return xerr
	}
	return ctrler.transfer(owner, to, amt, ctx.Height)
}

func (ctrler *TokenCtrler) BalanceOf(addr types.Address) (*uint256.Int, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	acct, xerr := ctrler.acctLedger.Get(addr.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return uint256.NewInt(0), nil
	} else if xerr != nil {
		return nil, xerr
	}
	return acct.GetBalance(), nil
}

func (ctrler *TokenCtrler) AllowanceOf(owner, spender types.Address) (*uint256.Int, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	acct, xerr := ctrler.acctLedger.Get(owner.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return uint256.NewInt(0), nil
	} else if xerr != nil {
		return nil, xerr
	}
	return acct.Allowance(spender), nil
}

// ReadAccount returns the committed account state.
func (ctrler *TokenCtrler) ReadAccount(addr types.Address) (*Account, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	acct, xerr := ctrler.acctLedger.Read(addr.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundAccount.Wrapf("address: %v", addr)
	} else if xerr != nil {
		return nil, xerr
	}
	return acct, nil
}

//
// implement ctrlertypes.IVotePowerHandler
//

// PowerOf samples the holder's balance as of height.
func (ctrler *TokenCtrler) PowerOf(addr types.Address, height int64) (*uint256.Int, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	acct, xerr := ctrler.acctLedger.Get(addr.Array32())
	if xerr == xerrors.ErrNotFoundResult {
		return uint256.NewInt(0), nil
	} else if xerr != nil {
		return nil, xerr
	}
	return acct.BalanceAt(height), nil
}

// TotalPowerOf samples the total supply as of height.
func (ctrler *TokenCtrler) TotalPowerOf(height int64) (*uint256.Int, xerrors.XError) {
	ctrler.mtx.RLock()
	defer ctrler.mtx.RUnlock()

	supply, xerr := ctrler.supplyLedger.Get((&Supply{}).Key())
	if xerr == xerrors.ErrNotFoundResult {
		return uint256.NewInt(0), nil
	} else if xerr != nil {
		return nil, xerr
	}
	return supply.TotalAt(height), nil
}

func (ctrler *TokenCtrler) TokenAddress() types.Address {
	return ModuleAddress
}

//
// implement ctrlertypes.IFeeHandler
//

// CollectFrom moves the proposal fee from the operation sender into custody.
func (ctrler *TokenCtrler) CollectFrom(ctx *ctrlertypes.OpContext, fee *uint256.Int) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if types.IsZeroAddress(ctrler.feeCustody) {
		return xerrors.ErrZeroAddress.Wrapf("token: the fee custody address is not set")
	}
	return ctrler.transfer(ctx.Sender, ctrler.feeCustody, fee, ctx.Height)
}

// ApproveTo lets spender pull the fee out of custody.
func (ctrler *TokenCtrler) ApproveTo(ctx *ctrlertypes.OpContext, spender types.Address, fee *uint256.Int) xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if types.IsZeroAddress(ctrler.feeCustody) {
		return xerrors.ErrZeroAddress.Wrapf("token: the fee custody address is not set")
	}
	return ctrler.approve(ctrler.feeCustody, spender, fee)
}

//
// implement ctrlertypes.ILedgerHandler
//

func (ctrler *TokenCtrler) Commit() ([]byte, int64, xerrors.XError) {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	h0, v0, xerr := ctrler.acctLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h1, v1, xerr := ctrler.supplyLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}

	if v0 != v1 {
		return nil, -1, xerrors.ErrCommit.Wrapf("token: different versions of ledgers - accounts: %v, supply: %v", v0, v1)
	}

	return crypto.DefaultHash(h0, h1), v0, nil
}

func (ctrler *TokenCtrler) Revert() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if xerr := ctrler.acctLedger.Revert(); xerr != nil {
		return xerr
	}
	return ctrler.supplyLedger.Revert()
}

func (ctrler *TokenCtrler) Close() xerrors.XError {
	ctrler.mtx.Lock()
	defer ctrler.mtx.Unlock()

	if ctrler.acctLedger != nil {
		if xerr := ctrler.acctLedger.Close(); xerr != nil {
			ctrler.logger.Error("fail to close acctLedger", "error", xerr.Error())
		}
		ctrler.acctLedger = nil
	}
	if ctrler.supplyLedger != nil {
		if xerr := ctrler.supplyLedger.Close(); xerr != nil {
			ctrler.logger.Error("fail to close supplyLedger", "error", xerr.Error())
		}
		ctrler.supplyLedger = nil
	}
	return nil
}

var _ ctrlertypes.ILedgerHandler = (*TokenCtrler)(nil)
var _ ctrlertypes.IVotePowerHandler = (*TokenCtrler)(nil)
var _ ctrlertypes.IFeeHandler = (*TokenCtrler)(nil)
