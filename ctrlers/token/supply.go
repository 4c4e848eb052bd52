package token

import (
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/ledger"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Supply tracks the total amount of the voting token in circulation,
// checkpointed the same way account balances are.
type Supply struct {
	Total       *uint256.Int
	Checkpoints []Checkpoint

	mtx sync.RWMutex
}

func NewSupply() *Supply {
	return &Supply{
		Total: uint256.NewInt(0),
	}
}

func (s *Supply) GetTotal() *uint256.Int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return new(uint256.Int).Set(s.Total)
}

// Mint grows the total supply and checkpoints it at height.
func (s *Supply) Mint(amt *uint256.Int, height int64) xerrors.XError {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	total, over := new(uint256.Int).AddOverflow(s.Total, amt)
	if over {
		return xerrors.ErrOverFlow.Wrapf("overflow occurs on total supply")
	}
	s.Total = total
	s.writeCheckpoint(height)
	return nil
}

// the caller holds s.mtx
func (s *Supply) writeCheckpoint(height int64) {
	n := len(s.Checkpoints)
	if n > 0 && s.Checkpoints[n-1].Height == height {
		s.Checkpoints[n-1].Amount = new(uint256.Int).Set(s.Total)
		return
	}
	s.Checkpoints = append(s.Checkpoints, Checkpoint{
		Height: height,
		Amount: new(uint256.Int).Set(s.Total),
	})
}

// TotalAt returns the total supply as of height.
func (s *Supply) TotalAt(height int64) *uint256.Int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return checkpointAt(s.Checkpoints, height)
}

//
// implement ledger.ILedgerItem
//

func (s *Supply) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(abytes.ZeroBytes(32))
}

func (s *Supply) Encode() ([]byte, xerrors.XError) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if bz, err := json.Marshal(s); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (s *Supply) Decode(bz []byte) xerrors.XError {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := json.Unmarshal(bz, s); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Supply)(nil)

type supplyWire struct {
	Total       string           `json:"total"`
	Checkpoints []checkpointWire `json:"checkpoints,omitempty"`
}

func (s *Supply) MarshalJSON() ([]byte, error) {
	tm := &supplyWire{
		Total: s.Total.Dec(),
	}
	for _, cp := range s.Checkpoints {
		tm.Checkpoints = append(tm.Checkpoints, checkpointWire{Height: cp.Height, Amount: cp.Amount.Dec()})
	}
	return json.Marshal(tm)
}

func (s *Supply) UnmarshalJSON(bz []byte) error {
	tm := &supplyWire{}
	if err := json.Unmarshal(bz, tm); err != nil {
		return err
	}

	total, err := uint256.FromDecimal(tm.Total)
	if err != nil {
		return err
	}

	s.Total = total
	s.Checkpoints = nil
	for _, cp := range tm.Checkpoints {
		amt, err := uint256.FromDecimal(cp.Amount)
		if err != nil {
			return err
		}
		s.Checkpoints = append(s.Checkpoints, Checkpoint{Height: cp.Height, Amount: amt})
	}
	return nil
}
