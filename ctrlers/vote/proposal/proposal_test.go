package proposal

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
)

func testActions() []ctrlertypes.Action {
	return []ctrlertypes.Action{
		{
			To:    types.RandAddress(),
			Value: uint256.NewInt(1000),
			Data:  abytes.RandBytes(36),
		},
		{
			To:    types.RandAddress(),
			Value: uint256.NewInt(0),
			Data:  nil,
		},
	}
}

func TestDeriveID(t *testing.T) {
	actions := testActions()
	metadata := []byte("ipfs://bafybeigdyrzt5")

	id0, xerr := DeriveID(actions, metadata)
	require.NoError(t, xerr)
	require.Len(t, id0.Bytes(), 32)

	// same content always derives the same id
	id1, xerr := DeriveID(actions, metadata)
	require.NoError(t, xerr)
	require.Equal(t, id0, id1)

	// any difference in metadata changes the id
	id2, xerr := DeriveID(actions, []byte("ipfs://other"))
	require.NoError(t, xerr)
	require.NotEqual(t, id0, id2)

	// any difference in the action batch changes the id
	reordered := []ctrlertypes.Action{actions[1], actions[0]}
	id3, xerr := DeriveID(reordered, metadata)
	require.NoError(t, xerr)
	require.NotEqual(t, id0, id3)

	// nil action value encodes as zero
	withNil := testActions()
	withNil[1].Value = nil
	withZero := make([]ctrlertypes.Action, len(withNil))
	copy(withZero, withNil)
	withZero[1].Value = uint256.NewInt(0)
	id4, xerr := DeriveID(withNil, metadata)
	require.NoError(t, xerr)
	id5, xerr := DeriveID(withZero, metadata)
	require.NoError(t, xerr)
	require.Equal(t, id4, id5)
}

func TestDeriveIDEmpty(t *testing.T) {
	id, xerr := DeriveID(nil, nil)
	require.NoError(t, xerr)
	require.Len(t, id.Bytes(), 32)

	id2, xerr := DeriveID([]ctrlertypes.Action{}, []byte{})
	require.NoError(t, xerr)
	require.Equal(t, id, id2)
}

func TestExtraCodec(t *testing.T) {
	// empty extra: nothing tolerated, default window
	allowMap, window, xerr := DecodeExtra(nil)
	require.NoError(t, xerr)
	require.True(t, allowMap.IsZero())
	require.Equal(t, [2]uint64{0, 0}, window)

	// long form roundtrip
	bz, xerr := EncodeExtra(uint256.NewInt(0b101), [2]uint64{100, 200})
	require.NoError(t, xerr)
	require.Len(t, bz.Bytes(), 96)

	allowMap, window, xerr = DecodeExtra(bz)
	require.NoError(t, xerr)
	require.Equal(t, uint64(0b101), allowMap.Uint64())
	require.Equal(t, [2]uint64{100, 200}, window)

	// short form: a bare 32-byte allowFailureMap
	short := uint256.NewInt(0b11).Bytes32()
	allowMap, window, xerr = DecodeExtra(short[:])
	require.NoError(t, xerr)
	require.Equal(t, uint64(0b11), allowMap.Uint64())
	require.Equal(t, [2]uint64{0, 0}, window)

	// garbage
	_, _, xerr = DecodeExtra(abytes.RandBytes(41))
	require.Error(t, xerr)
}

func TestProposalCodec(t *testing.T) {
	id, xerr := DeriveID(testActions(), []byte("meta"))
	require.NoError(t, xerr)

	prop0 := NewProposal(
		id, types.RandAddress(),
		1_700_000_000, 1_700_086_400, 12,
		uint256.NewInt(100), uint256.NewInt(7),
		ctrlertypes.TargetConfig{Target: types.RandAddress(), Operation: ctrlertypes.OpCall},
		testActions(), uint256.NewInt(0b10), []byte("meta"),
	)
	prop0.Tally = &Tally{Yes: uint256.NewInt(5), No: uint256.NewInt(2)}
	prop0.Executed = true

	bz, xerr := prop0.Encode()
	require.NoError(t, xerr)

	prop1 := &Proposal{}
	require.NoError(t, prop1.Decode(bz))

	require.Equal(t, prop0.ID, prop1.ID)
	require.Equal(t, prop0.Proposer, prop1.Proposer)
	require.Equal(t, prop0.StartDate, prop1.StartDate)
	require.Equal(t, prop0.EndDate, prop1.EndDate)
	require.Equal(t, prop0.SnapshotHeight, prop1.SnapshotHeight)
	require.Equal(t, prop0.MinVotingPower, prop1.MinVotingPower)
	require.Equal(t, prop0.E3ID, prop1.E3ID)
	require.Equal(t, prop0.Target, prop1.Target)
	require.Equal(t, prop0.Actions, prop1.Actions)
	require.Equal(t, prop0.AllowFailureMap, prop1.AllowFailureMap)
	require.Equal(t, prop0.Metadata, prop1.Metadata)
	require.Equal(t, prop0.Tally, prop1.Tally)
	require.Equal(t, prop0.Executed, prop1.Executed)
	require.Equal(t, prop0.Key(), prop1.Key())
	require.True(t, prop1.Exists())
}
