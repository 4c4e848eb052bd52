package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnosisguild/crisp-go/types"
)

func TestDefaultHash(t *testing.T) {
	// keccak256 of the empty input
	require.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(DefaultHash()))

	// hashing in pieces equals hashing the concatenation
	require.Equal(t, DefaultHash([]byte("abcdef")), DefaultHash([]byte("abc"), []byte("def")))
}

func TestModuleAddress(t *testing.T) {
	addr := ModuleAddress("crisp/vote")
	require.Len(t, addr.Bytes(), types.AddrSize)
	require.False(t, types.IsZeroAddress(addr))

	require.Equal(t, addr, ModuleAddress("crisp/vote"))
	require.NotEqual(t, addr, ModuleAddress("crisp/treasury"))
}
