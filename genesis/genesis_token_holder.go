package genesis

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/crypto"
)

type GenesisTokenHolder struct {
	Address types.Address
	Balance *uint256.Int
}

func (gh *GenesisTokenHolder) MarshalJSON() ([]byte, error) {
	tm := &struct {
		Address types.Address `json:"address"`
		Balance string        `json:"balance"`
	}{
		Address: gh.Address,
		Balance: gh.Balance.Dec(),
	}

	return json.Marshal(tm)
}

func (gh *GenesisTokenHolder) UnmarshalJSON(bz []byte) error {
	tm := &struct {
		Address types.Address `json:"address"`
		Balance string        `json:"balance"`
	}{}

	if err := json.Unmarshal(bz, tm); err != nil {
		return err
	}

	bal, err := uint256.FromDecimal(tm.Balance)
	if err != nil {
		return err
	}

	gh.Address = tm.Address
	gh.Balance = bal

	return nil
}

func (gh *GenesisTokenHolder) Hash() []byte {
	hasher := crypto.DefaultHasher()
	hasher.Write(gh.Address[:])
	hasher.Write(gh.Balance.Bytes())
	return hasher.Sum(nil)
}

var _ json.Marshaler = (*GenesisTokenHolder)(nil)
var _ json.Unmarshaler = (*GenesisTokenHolder)(nil)
