package token

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Checkpoint records a balance as of the version it was committed at.
// The history is append-only and ascending by height.
type Checkpoint struct {
	Height int64        `json:"height"`
	Amount *uint256.Int `json:"amount"`
}

// Allowance lets Spender pull up to Amount from the owning account.
type Allowance struct {
	Spender types.Address `json:"spender"`
	Amount  *uint256.Int  `json:"amount"`
}

type Account struct {
	Address     types.Address
	Balance     *uint256.Int
	Checkpoints []Checkpoint
	Allowances  []Allowance

	mtx sync.RWMutex
}

func NewAccount(addr types.Address) *Account {
	return &Account{
		Address: addr,
		Balance: uint256.NewInt(0),
	}
}

func (acct *Account) GetAddress() types.Address {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	return acct.Address
}

func (acct *Account) GetBalance() *uint256.Int {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	return new(uint256.Int).Set(acct.Balance)
}

// AddBalance credits the account and checkpoints the new balance at height.
func (acct *Account) AddBalance(amt *uint256.Int, height int64) xerrors.XError {
	acct.mtx.Lock()
	defer acct.mtx.Unlock()

	bal, over := new(uint256.Int).AddOverflow(acct.Balance, amt)
	if over {
		return xerrors.ErrOverFlow.Wrapf("overflow occurs on balance of %v", acct.Address)
	}
	acct.Balance = bal
	acct.writeCheckpoint(height)
	return nil
}

// SubBalance debits the account and checkpoints the new balance at height.
func (acct *Account) SubBalance(amt *uint256.Int, height int64) xerrors.XError {
	acct.mtx.Lock()
	defer acct.mtx.Unlock()

	if acct.Balance.Lt(amt) {
		return xerrors.ErrInsufficientFund.Wrapf(
			"account %v has %v, needs %v", acct.Address, acct.Balance.Dec(), amt.Dec())
	}
	acct.Balance = new(uint256.Int).Sub(acct.Balance, amt)
	acct.writeCheckpoint(height)
	return nil
}

// the caller holds acct.mtx
func (acct *Account) writeCheckpoint(height int64) {
	n := len(acct.Checkpoints)
	if n > 0 && acct.Checkpoints[n-1].Height == height {
		acct.Checkpoints[n-1].Amount = new(uint256.Int).Set(acct.Balance)
		return
	}
	acct.Checkpoints = append(acct.Checkpoints, Checkpoint{
		Height: height,
		Amount: new(uint256.Int).Set(acct.Balance),
	})
}

// BalanceAt returns the balance as of height: the amount of the last
// checkpoint not newer than height, or zero when there is none.
func (acct *Account) BalanceAt(height int64) *uint256.Int {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	return checkpointAt(acct.Checkpoints, height)
}

func checkpointAt(cps []Checkpoint, height int64) *uint256.Int {
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Height > height })
	if i == 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(cps[i-1].Amount)
}

func (acct *Account) Allowance(spender types.Address) *uint256.Int {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	for _, a := range acct.Allowances {
		if a.Spender.Equal(spender) {
			return new(uint256.Int).Set(a.Amount)
		}
	}
	return uint256.NewInt(0)
}

// SetAllowance overwrites the spender's allowance. The list stays sorted by
// spender so the encoding of the account is deterministic.
func (acct *Account) SetAllowance(spender types.Address, amt *uint256.Int) {
	acct.mtx.Lock()
	defer acct.mtx.Unlock()

	for i, a := range acct.Allowances {
		if a.Spender.Equal(spender) {
			acct.Allowances[i].Amount = new(uint256.Int).Set(amt)
			return
		}
	}
	acct.Allowances = append(acct.Allowances, Allowance{
		Spender: append(types.Address(nil), spender...),
		Amount:  new(uint256.Int).Set(amt),
	})
	sort.Slice(acct.Allowances, func(i, j int) bool {
		return acct.Allowances[i].Spender.Compare(acct.Allowances[j].Spender) < 0
	})
}

func (acct *Account) SpendAllowance(spender types.Address, amt *uint256.Int) xerrors.XError {
	acct.mtx.Lock()
	defer acct.mtx.Unlock()

	for i, a := range acct.Allowances {
		if a.Spender.Equal(spender) {
			if a.Amount.Lt(amt) {
				return xerrors.ErrInsufficientAllowance.Wrapf(
					"spender %v is allowed %v of account %v, needs %v", spender, a.Amount.Dec(), acct.Address, amt.Dec())
			}
			acct.Allowances[i].Amount = new(uint256.Int).Sub(a.Amount, amt)
			return nil
		}
	}
	return xerrors.ErrInsufficientAllowance.Wrapf(
		"spender %v has no allowance of account %v", spender, acct.Address)
}

//
// implement ledger.ILedgerItem
//

func (acct *Account) Key() ledger.LedgerKey {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	return acct.Address.Array32()
}

func (acct *Account) Encode() ([]byte, xerrors.XError) {
	acct.mtx.RLock()
	defer acct.mtx.RUnlock()

	if bz, err := json.Marshal(acct); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (acct *Account) Decode(bz []byte) xerrors.XError {
	acct.mtx.Lock()
	defer acct.mtx.Unlock()

	if err := json.Unmarshal(bz, acct); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Account)(nil)

type accountWire struct {
	Address     types.Address    `json:"address"`
	Balance     string           `json:"balance"`
	Checkpoints []checkpointWire `json:"checkpoints,omitempty"`
	Allowances  []allowanceWire  `json:"allowances,omitempty"`
}

type checkpointWire struct {
	Height int64  `json:"height"`
	Amount string `json:"amount"`
}

type allowanceWire struct {
	Spender types.Address `json:"spender"`
	Amount  string        `json:"amount"`
}

func (acct *Account) MarshalJSON() ([]byte, error) {
	tm := &accountWire{
		Address: acct.Address,
		Balance: acct.Balance.Dec(),
	}
	for _, cp := range acct.Checkpoints {
		tm.Checkpoints = append(tm.Checkpoints, checkpointWire{Height: cp.Height, Amount: cp.Amount.Dec()})
	}
	for _, a := range acct.Allowances {
		tm.Allowances = append(tm.Allowances, allowanceWire{Spender: a.Spender, Amount: a.Amount.Dec()})
	}
	return json.Marshal(tm)
}

func (acct *Account) UnmarshalJSON(bz []byte) error {
	tm := &accountWire{}
	if err := json.Unmarshal(bz, tm); err != nil {
		return err
	}

	bal, err := uint256.FromDecimal(tm.Balance)
	if err != nil {
		return err
	}

	acct.Address = tm.Address
	acct.Balance = bal
	acct.Checkpoints = nil
	acct.Allowances = nil
	for _, cp := range tm.Checkpoints {
		amt, err := uint256.FromDecimal(cp.Amount)
		if err != nil {
			return err
		}
		acct.Checkpoints = append(acct.Checkpoints, Checkpoint{Height: cp.Height, Amount: amt})
	}
	for _, a := range tm.Allowances {
		amt, err := uint256.FromDecimal(a.Amount)
		if err != nil {
			return err
		}
		acct.Allowances = append(acct.Allowances, Allowance{Spender: a.Spender, Amount: amt})
	}
	return nil
}
