package vote

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnosisguild/crisp-go/types/xerrors"
)

func TestResolveWindow(t *testing.T) {
	now := uint64(1_000_000)
	minDur := uint64(600)

	cases := []struct {
		name       string
		start, end uint64
		wantStart  uint64
		wantEnd    uint64
		err        uint32
	}{
		{name: "both zero", start: 0, end: 0, wantStart: now, wantEnd: now + minDur},
		{name: "start now", start: now, end: 0, wantStart: now, wantEnd: now + minDur},
		{name: "start in the future", start: now + 100, end: 0, wantStart: now + 100, wantEnd: now + 100 + minDur},
		{name: "start in the past", start: now - 1, end: 0, err: xerrors.ErrCodeDateOutOfBounds},
		{name: "explicit end", start: 0, end: now + minDur + 1, wantStart: now, wantEnd: now + minDur + 1},
		{name: "end at the earliest allowed", start: 0, end: now + minDur, wantStart: now, wantEnd: now + minDur},
		{name: "end too early", start: 0, end: now + minDur - 1, err: xerrors.ErrCodeDateOutOfBounds},
		{name: "end before start", start: now + 100, end: now + 99, err: xerrors.ErrCodeDateOutOfBounds},
	}

	for _, c := range cases {
		start, end, xerr := ResolveWindow(c.start, c.end, minDur, now)
		if c.err != 0 {
			require.Error(t, xerr, c.name)
			require.Equal(t, c.err, xerr.Code(), c.name)
			continue
		}
		require.NoError(t, xerr, c.name)
		require.Equal(t, c.wantStart, start, c.name)
		require.Equal(t, c.wantEnd, end, c.name)
	}
}

func TestResolveWindowOverflow(t *testing.T) {
	// the earliest end would wrap around the 64-bit clock
	_, _, xerr := ResolveWindow(math.MaxUint64-10, 0, 600, 1_000_000)
	require.Error(t, xerr)
	require.Equal(t, xerrors.ErrCodeOverFlow, xerr.Code())

	// minDuration of zero never wraps
	start, end, xerr := ResolveWindow(math.MaxUint64, 0, 0, 1_000_000)
	require.NoError(t, xerr)
	require.Equal(t, uint64(math.MaxUint64), start)
	require.Equal(t, uint64(math.MaxUint64), end)
}
