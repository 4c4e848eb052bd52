package crypto

import (
	"hash"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/gnosisguild/crisp-go/types"
)

func DefaultHash(datas ...[]byte) []byte {
	hasher := DefaultHasher()
	for _, bz := range datas {
		hasher.Write(bz)
	}
	return hasher.Sum(nil)
}

func DefaultHasher() hash.Hash {
	return ethcrypto.NewKeccakState()
}

func DefaultHasherName() string {
	return "keccak256"
}

// ModuleAddress derives a deterministic address for a built-in module
// from its name. The devnet controllers are reachable at these addresses.
func ModuleAddress(name string) types.Address {
	h := DefaultHash([]byte(name))
	return types.Address(h[len(h)-types.AddrSize:])
}
