package proposal

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnosisguild/crisp-go/types/xerrors"
)

func leBytes(n uint64, pad int) []byte {
	bz := make([]byte, pad)
	binary.LittleEndian.PutUint64(bz[:8], n)
	return bz
}

func TestDecodeTally(t *testing.T) {
	cases := []struct {
		name        string
		output      []byte
		submissions uint64
		yes, no     uint64
		err         uint32
	}{
		{name: "nil output", output: nil, submissions: 3, err: xerrors.ErrCodeShortTallyData},
		{name: "seven bytes", output: leBytes(1, 8)[:7], submissions: 3, err: xerrors.ErrCodeShortTallyData},
		{name: "exactly eight bytes", output: leBytes(3, 8), submissions: 10, yes: 7, no: 3},
		{name: "trailing bytes ignored", output: leBytes(3, 40), submissions: 10, yes: 7, no: 3},
		{name: "all yes", output: leBytes(0, 8), submissions: 4, yes: 4, no: 0},
		{name: "all no", output: leBytes(4, 8), submissions: 4, yes: 0, no: 4},
		{name: "no submissions", output: leBytes(0, 8), submissions: 0, yes: 0, no: 0},
		{name: "no count exceeds submissions", output: leBytes(11, 8), submissions: 10, err: xerrors.ErrCodeOverFlow},
	}

	for _, c := range cases {
		tally, xerr := DecodeTally(c.output, c.submissions)
		if c.err != 0 {
			require.Error(t, xerr, c.name)
			require.Equal(t, c.err, xerr.Code(), c.name)
			require.Nil(t, tally, c.name)
			continue
		}
		require.NoError(t, xerr, c.name)
		require.Equal(t, c.yes, tally.Yes.Uint64(), c.name)
		require.Equal(t, c.no, tally.No.Uint64(), c.name)
	}
}

func TestTallyPassed(t *testing.T) {
	cases := []struct {
		submissions uint64
		no          uint64
		passed      bool
	}{
		{submissions: 10, no: 3, passed: true},  // 7 > 3
		{submissions: 10, no: 5, passed: false}, // tie rejects
		{submissions: 10, no: 6, passed: false},
		{submissions: 0, no: 0, passed: false}, // nothing submitted
		{submissions: 1, no: 0, passed: true},
	}

	for _, c := range cases {
		tally, xerr := DecodeTally(leBytes(c.no, 8), c.submissions)
		require.NoError(t, xerr)
		require.Equal(t, c.passed, tally.Passed(), "submissions=%d no=%d", c.submissions, c.no)
	}
}

func TestTallyJsonCodec(t *testing.T) {
	tally0, xerr := DecodeTally(leBytes(2, 8), 9)
	require.NoError(t, xerr)

	bz, err := json.Marshal(tally0)
	require.NoError(t, err)

	tally1 := &Tally{}
	require.NoError(t, json.Unmarshal(bz, tally1))
	require.Equal(t, tally0, tally1)
}
