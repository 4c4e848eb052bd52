package proposal

import (
	"encoding/binary"
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Tally is the decoded outcome of a proposal's computation.
type Tally struct {
	Yes *uint256.Int
	No  *uint256.Int
}

// DecodeTally reads the computation output. The first 8 bytes are the
// little-endian count of option-2 ("no") ballots; every other submission
// counted as option 1 ("yes").
func DecodeTally(output []byte, submissions uint64) (*Tally, xerrors.XError) {
	if len(output) < 8 {
		return nil, xerrors.ErrShortTallyData.Wrapf("tally output has %d byte(s), want at least 8", len(output))
	}

	no := binary.LittleEndian.Uint64(output[:8])
	if no > submissions {
		return nil, xerrors.ErrOverFlow.Wrapf("overflow occurs - no count %v exceeds %v submission(s)", no, submissions)
	}

	return &Tally{
		Yes: uint256.NewInt(submissions - no),
		No:  uint256.NewInt(no),
	}, nil
}

// Passed reports the strict majority rule: yes must exceed no.
// A tie rejects.
func (t *Tally) Passed() bool {
	return t.Yes.Gt(t.No)
}

func (t *Tally) MarshalJSON() ([]byte, error) {
	tm := &struct {
		Yes string `json:"yes"`
		No  string `json:"no"`
	}{
		Yes: uint256ToString(t.Yes),
		No:  uint256ToString(t.No),
	}
	return json.Marshal(tm)
}

func (t *Tally) UnmarshalJSON(bz []byte) error {
	tm := &struct {
		Yes string `json:"yes"`
		No  string `json:"no"`
	}{}

	err := json.Unmarshal(bz, tm)
	if err != nil {
		return err
	}

	if t.Yes, err = stringToUint256(tm.Yes); err != nil {
		return err
	}
	if t.No, err = stringToUint256(tm.No); err != nil {
		return err
	}
	return nil
}
