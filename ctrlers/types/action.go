package types

import (
	"github.com/holiman/uint256"
	tmjson "github.com/tendermint/tendermint/libs/json"

	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
)

// Action is one call of a proposal's action batch.
type Action struct {
	To    types.Address
	Value *uint256.Int
	Data  abytes.HexBytes
}

func (a *Action) MarshalJSON() ([]byte, error) {
	tm := &struct {
		To    types.Address   `json:"to"`
		Value string          `json:"value"`
		Data  abytes.HexBytes `json:"data"`
	}{
		To:    a.To,
		Value: uint256ToString(a.Value),
		Data:  a.Data,
	}
	return tmjson.Marshal(tm)
}

func (a *Action) UnmarshalJSON(bz []byte) error {
	tm := &struct {
		To    types.Address   `json:"to"`
		Value string          `json:"value"`
		Data  abytes.HexBytes `json:"data"`
	}{}

	err := tmjson.Unmarshal(bz, tm)
	if err != nil {
		return err
	}

	a.To = tm.To
	a.Value, err = stringToUint256(tm.Value)
	if err != nil {
		return err
	}
	a.Data = tm.Data
	return nil
}

// OpKind selects how the executor performs the calls of a batch.
type OpKind uint8

const (
	OpCall OpKind = iota
	OpDelegateCall
)

func (op OpKind) String() string {
	switch op {
	case OpCall:
		return "call"
	case OpDelegateCall:
		return "delegatecall"
	}
	return "unknown"
}

// TargetConfig names the executor the action batches run through
// and the call kind it uses.
type TargetConfig struct {
	Target    types.Address `json:"target"`
	Operation OpKind        `json:"operation"`
}
