package types

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestVoteParamsJsonCodec(t *testing.T) {
	params0 := DefaultVoteParams()
	bz, err := json.Marshal(params0)
	require.NoError(t, err)

	params1 := &VoteParams{}
	err = json.Unmarshal(bz, params1)
	require.NoError(t, err)

	require.Equal(t, params0, params1)
}

func TestVoteParamsLedgerCodec(t *testing.T) {
	params0 := Test2VoteParams()
	bz, xerr := params0.Encode()
	require.NoError(t, xerr)

	params1 := &VoteParams{}
	require.NoError(t, params1.Decode(bz))

	require.Equal(t, params0, params1)
	require.Equal(t, params0.Key(), params1.Key())
}

func TestMergeVoteParams(t *testing.T) {
	oldParams := Test1VoteParams()

	// zero fields keep the previous values with a bumped version
	newParams := &VoteParams{}
	MergeVoteParams(oldParams, newParams)
	require.Equal(t, oldParams.Version()+1, newParams.Version())
	require.Equal(t, oldParams.MinProposerPower(), newParams.MinProposerPower())
	require.Equal(t, oldParams.MinParticipationRatio(), newParams.MinParticipationRatio())
	require.Equal(t, oldParams.MinDuration(), newParams.MinDuration())

	// named fields win
	newParams = &VoteParams{
		minProposerPower: uint256.NewInt(999),
		minDuration:      7200,
	}
	MergeVoteParams(oldParams, newParams)
	require.Equal(t, uint256.NewInt(999), newParams.MinProposerPower())
	require.Equal(t, uint64(7200), newParams.MinDuration())
	require.Equal(t, oldParams.MinParticipationRatio(), newParams.MinParticipationRatio())

	// an explicit zero proposer power survives the merge; it means no gate
	newParams = &VoteParams{minProposerPower: uint256.NewInt(0)}
	MergeVoteParams(oldParams, newParams)
	require.True(t, newParams.MinProposerPower().IsZero())
}

func TestMergeVoteParamsFromJson(t *testing.T) {
	oldParams := Test1VoteParams()

	// only the named field is present in the update payload
	newParams := &VoteParams{}
	require.NoError(t, json.Unmarshal([]byte(`{"minDuration":"900"}`), newParams))

	MergeVoteParams(oldParams, newParams)
	require.Equal(t, uint64(900), newParams.MinDuration())
	require.Equal(t, oldParams.MinProposerPower(), newParams.MinProposerPower())
	require.Equal(t, oldParams.MinParticipationRatio(), newParams.MinParticipationRatio())
}
