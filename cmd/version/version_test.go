package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	tmrand "github.com/tendermint/tendermint/libs/rand"
)

func TestVersionMasking(t *testing.T) {
	for i := 0; i < 100; i++ {
		rand := tmrand.NewRand()
		majorVer = uint64(rand.Intn(0xff))
		minorVer = uint64(rand.Intn(0xff))
		patchVer = uint64(rand.Intn(0xffff))
		commitVer = uint64(rand.Intn(0xffffffff))

		require.Equal(t, majorVer<<56+minorVer<<48+patchVer<<32+commitVer, Uint64())
		require.Equal(t, majorVer<<56, Uint64(MASK_MAJOR_VER))
		require.Equal(t, majorVer<<56+minorVer<<48, Uint64(MASK_MAJOR_VER, MASK_MINOR_VER))
		require.Equal(t, minorVer<<48+commitVer, Uint64(MASK_MINOR_VER, MASK_COMMIT_VER))
	}
}

func TestVersionParse(t *testing.T) {
	majorVer, minorVer, patchVer, commitVer = 1, 2, 300, 0xabcdef

	packed := Uint64()
	require.Equal(t, String(), Parse(packed))
	require.Equal(t, fmt.Sprintf("1.2.300-%x", 0xabcdef), String())
}
