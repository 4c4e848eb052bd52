package sim

import (
	"encoding/json"
	"sync"

	"github.com/gnosisguild/crisp-go/ledger"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Sequence hands out computation ids. Ids are 1-based so that a zero id
// always means unset.
type Sequence struct {
	Next uint64 `json:"next"`

	mtx sync.Mutex
}

func NewSequence() *Sequence {
	return &Sequence{Next: 1}
}

func (seq *Sequence) take() uint64 {
	seq.mtx.Lock()
	defer seq.mtx.Unlock()

	id := seq.Next
	seq.Next++
	return id
}

//
// implement ledger.ILedgerItem
//

func (seq *Sequence) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(abytes.ZeroBytes(32))
}

func (seq *Sequence) Encode() ([]byte, xerrors.XError) {
	if bz, err := json.Marshal(seq); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (seq *Sequence) Decode(bz []byte) xerrors.XError {
	if err := json.Unmarshal(bz, seq); err != nil {
		return xerrors.From(err)
	}
	return nil
}

var _ ledger.ILedgerItem = (*Sequence)(nil)
