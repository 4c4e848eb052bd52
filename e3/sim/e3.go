package sim

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// E3 is one requested computation: a ballot box that accepts inputs during
// its window and afterwards publishes the program output over them.
type E3 struct {
	ID          *uint256.Int
	Program     types.Address
	Threshold   [2]uint32
	StartWindow [2]uint64
	Duration    uint64
	Fee         *uint256.Int
	Ballots     []abytes.HexBytes
	Output      abytes.HexBytes
	Submissions uint64
	Published   bool

	mtx sync.RWMutex
}

// InputDeadline is the last second at which inputs are accepted.
// The simulator activates at the earliest allowed time.
func (e3 *E3) InputDeadline() uint64 {
	e3.mtx.RLock()
	defer e3.mtx.RUnlock()

	return e3.StartWindow[0] + e3.Duration
}

func (e3 *E3) AcceptsInputAt(t uint64) bool {
	e3.mtx.RLock()
	defer e3.mtx.RUnlock()

	return !e3.Published && t >= e3.StartWindow[0] && t <= e3.StartWindow[0]+e3.Duration
}

func (e3 *E3) appendBallot(data abytes.HexBytes) {
	e3.mtx.Lock()
	defer e3.mtx.Unlock()

	e3.Ballots = append(e3.Ballots, data)
}

// seal counts the collected ballots and freezes the result. The program
// output is the little-endian count of dissenting ballots; every ballot
// whose first byte is 0x01 dissents, everything else approves.
func (e3 *E3) seal() {
	e3.mtx.Lock()
	defer e3.mtx.Unlock()

	noes := uint64(0)
	for _, b := range e3.Ballots {
		if len(b) > 0 && b[0] == 0x01 {
			noes++
		}
	}

	output := make([]byte, 8)
	binary.LittleEndian.PutUint64(output, noes)

	e3.Output = output
	e3.Submissions = uint64(len(e3.Ballots))
	e3.Published = true
}

//
// implement ledger.ILedgerItem
//

func (e3 *E3) Key() ledger.LedgerKey {
	e3.mtx.RLock()
	defer e3.mtx.RUnlock()

	return e3.ID.Bytes32()
}

func (e3 *E3) Encode() ([]byte, xerrors.XError) {
	e3.mtx.RLock()
	defer e3.mtx.RUnlock()

	if bz, err := json.Marshal(e3); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (e3 *E3) Decode(bz []byte) xerrors.XError {
	e3.mtx.Lock()
	defer e3.mtx.Unlock()

	if err := json.Unmarshal(bz, e3); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*E3)(nil)

type e3Wire struct {
	ID          string            `json:"id"`
	Program     types.Address     `json:"program"`
	Threshold   [2]uint32         `json:"threshold"`
	StartWindow [2]uint64         `json:"startWindow"`
	Duration    uint64            `json:"duration"`
	Fee         string            `json:"fee"`
	Ballots     []abytes.HexBytes `json:"ballots,omitempty"`
	Output      abytes.HexBytes   `json:"output,omitempty"`
	Submissions uint64            `json:"submissions"`
	Published   bool              `json:"published"`
}

func (e3 *E3) MarshalJSON() ([]byte, error) {
	return json.Marshal(&e3Wire{
		ID:          e3.ID.Dec(),
		Program:     e3.Program,
		Threshold:   e3.Threshold,
		StartWindow: e3.StartWindow,
		Duration:    e3.Duration,
		Fee:         e3.Fee.Dec(),
		Ballots:     e3.Ballots,
		Output:      e3.Output,
		Submissions: e3.Submissions,
		Published:   e3.Published,
	})
}

func (e3 *E3) UnmarshalJSON(bz []byte) error {
	tm := &e3Wire{}
	if err := json.Unmarshal(bz, tm); err != nil {
		return err
	}

	id, err := uint256.FromDecimal(tm.ID)
	if err != nil {
		return err
	}
	fee, err := uint256.FromDecimal(tm.Fee)
	if err != nil {
		return err
	}

	e3.ID = id
	e3.Program = tm.Program
	e3.Threshold = tm.Threshold
	e3.StartWindow = tm.StartWindow
	e3.Duration = tm.Duration
	e3.Fee = fee
	e3.Ballots = tm.Ballots
	e3.Output = tm.Output
	e3.Submissions = tm.Submissions
	e3.Published = tm.Published
	return nil
}
