package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestContractABIsParse(t *testing.T) {
	for name, raw := range map[string]string{
		"votesToken": votesTokenABI,
		"feeToken":   feeTokenABI,
		"enclave":    enclaveABI,
		"executor":   executorABI,
	} {
		_, err := abi.JSON(strings.NewReader(raw))
		require.NoError(t, err, name)
	}
}

func TestEnclaveRequestPack(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(enclaveABI))
	require.NoError(t, err)

	_, err = parsed.Pack("request",
		common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		[2]uint32{2, 3},
		[2]*big.Int{big.NewInt(100), big.NewInt(200)},
		big.NewInt(600),
		[]byte{0x01},
		[]byte{},
	)
	require.NoError(t, err)

	// quote and request share the same argument list
	_, err = parsed.Pack("quote",
		common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		[2]uint32{2, 3},
		[2]*big.Int{big.NewInt(100), big.NewInt(200)},
		big.NewInt(600),
		[]byte{},
		[]byte{},
	)
	require.NoError(t, err)
}

func TestExecutorBatchPack(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(executorABI))
	require.NoError(t, err)

	actions := []execAction{
		{To: common.HexToAddress("0x00000000000000000000000000000000000000bb"), Value: big.NewInt(7), Data: []byte{}},
		{To: common.HexToAddress("0x00000000000000000000000000000000000000cc"), Value: big.NewInt(0), Data: []byte{0xde, 0xad}},
	}

	var propID [32]byte
	propID[31] = 0x01

	_, err = parsed.Pack("execute", propID, actions, big.NewInt(3))
	require.NoError(t, err)
}

func TestExecutorEventUnpack(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(executorABI))
	require.NoError(t, err)

	// the non-indexed part of BatchExecuted is a single uint256
	data, err := parsed.Events["BatchExecuted"].Inputs.NonIndexed().Pack(big.NewInt(5))
	require.NoError(t, err)

	vals, err := parsed.Unpack("BatchExecuted", data)
	require.NoError(t, err)
	require.Equal(t, 1, len(vals))
	require.Equal(t, big.NewInt(5), vals[0].(*big.Int))
}
