package types

import (
	"sync"

	"github.com/holiman/uint256"
	tmjson "github.com/tendermint/tendermint/libs/json"

	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// RatioBase is the denominator of ratio parameters. (1000000 = 100%)
const RatioBase = uint32(1_000_000)

type VoteParams struct {
	version               int64
	minProposerPower      *uint256.Int
	minParticipationRatio uint32 // base RatioBase
	minDuration           uint64 // seconds

	mtx sync.RWMutex
}

func DefaultVoteParams() *VoteParams {
	return &VoteParams{
		version:               1,
		minProposerPower:      uint256.MustFromDecimal("1000000000000000000"), // 1 voting token
		minParticipationRatio: 100_000,                                        // 10%
		minDuration:           86400,                                          // 1 day
	}
}

func Test1VoteParams() *VoteParams {
	return &VoteParams{
		version:               1,
		minProposerPower:      uint256.NewInt(100),
		minParticipationRatio: 200_000, // 20%
		minDuration:           600,
	}
}

func Test2VoteParams() *VoteParams {
	return &VoteParams{
		version:               2,
		minProposerPower:      uint256.NewInt(7_000),
		minParticipationRatio: 300_000, // 30%
		minDuration:           3600,
	}
}

// Test3VoteParams has no proposer power gate at all.
func Test3VoteParams() *VoteParams {
	return &VoteParams{
		version:               3,
		minProposerPower:      uint256.NewInt(0),
		minParticipationRatio: 0,
		minDuration:           60,
	}
}

func (r *VoteParams) Key() ledger.LedgerKey {
	return ledger.ToLedgerKey(bytes.ZeroBytes(32))
}

func (r *VoteParams) Encode() ([]byte, xerrors.XError) {
	if bz, err := tmjson.Marshal(r); err != nil {
		return nil, xerrors.From(err)
	} else {
		return bz, nil
	}
}

func (r *VoteParams) Decode(bz []byte) xerrors.XError {
	if err := tmjson.Unmarshal(bz, r); err != nil {
		return xerrors.From(err)
	}
	return nil
}

func (r *VoteParams) MarshalJSON() ([]byte, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	tm := &struct {
		Version               int64  `json:"version"`
		MinProposerPower      string `json:"minProposerPower"`
		MinParticipationRatio uint32 `json:"minParticipationRatio"`
		MinDuration           uint64 `json:"minDuration"`
	}{
		Version:               r.version,
		MinProposerPower:      uint256ToString(r.minProposerPower),
		MinParticipationRatio: r.minParticipationRatio,
		MinDuration:           r.minDuration,
	}
	return tmjson.Marshal(tm)
}

func (r *VoteParams) UnmarshalJSON(bz []byte) error {
	tm := &struct {
		Version               int64  `json:"version"`
		MinProposerPower      string `json:"minProposerPower"`
		MinParticipationRatio uint32 `json:"minParticipationRatio"`
		MinDuration           uint64 `json:"minDuration"`
	}{}

	err := tmjson.Unmarshal(bz, tm)
	if err != nil {
		return err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.version = tm.Version
	r.minProposerPower, err = stringToUint256(tm.MinProposerPower)
	if err != nil {
		return err
	}
	r.minParticipationRatio = tm.MinParticipationRatio
	r.minDuration = tm.MinDuration
	return nil
}

func uint256ToString(value *uint256.Int) string {
	if value == nil {
		return ""
	}
	return value.Dec()
}

func stringToUint256(value string) (*uint256.Int, error) {
	if value == "" {
		return nil, nil
	}
	returnValue, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, err
	}
	return returnValue, nil
}

func (r *VoteParams) Version() int64 {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return r.version
}

func (r *VoteParams) MinProposerPower() *uint256.Int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if r.minProposerPower == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(r.minProposerPower)
}

func (r *VoteParams) MinParticipationRatio() uint32 {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return r.minParticipationRatio
}

func (r *VoteParams) MinDuration() uint64 {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return r.minDuration
}

// MergeVoteParams fills every zero field of newParams from oldParams.
// A proposal that updates settings only carries the fields it changes.
func MergeVoteParams(oldParams, newParams *VoteParams) {
	if newParams.version == 0 {
		newParams.version = oldParams.version + 1
	}

	if newParams.minProposerPower == nil {
		newParams.minProposerPower = oldParams.minProposerPower
	}

	if newParams.minParticipationRatio == 0 {
		newParams.minParticipationRatio = oldParams.minParticipationRatio
	}

	if newParams.minDuration == 0 {
		newParams.minDuration = oldParams.minDuration
	}
}

var _ ledger.ILedgerItem = (*VoteParams)(nil)
