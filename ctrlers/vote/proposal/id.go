package proposal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

var (
	abiActionsType, _ = abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})
	abiBytesType, _   = abi.NewType("bytes", "", nil)
	abiUint256Type, _ = abi.NewType("uint256", "", nil)
	abiWindowType, _  = abi.NewType("uint64[2]", "", nil)

	idArgs    = abi.Arguments{{Type: abiActionsType}, {Type: abiBytesType}}
	extraArgs = abi.Arguments{{Type: abiUint256Type}, {Type: abiWindowType}}
	mapArgs   = abi.Arguments{{Type: abiUint256Type}}
)

type abiAction struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// DeriveID computes the proposal identity as the keccak256 digest of the
// ABI encoding of (actions, metadata). Identical submissions always derive
// the identical id, whoever sends them and whenever they arrive.
func DeriveID(actions []ctrlertypes.Action, metadata []byte) (abytes.HexBytes, xerrors.XError) {
	encActions := make([]abiAction, len(actions))
	for i, action := range actions {
		val := new(big.Int)
		if action.Value != nil {
			val = action.Value.ToBig()
		}
		encActions[i] = abiAction{
			To:    common.BytesToAddress(action.To),
			Value: val,
			Data:  action.Data,
		}
	}

	bz, err := idArgs.Pack(encActions, metadata)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return ethcrypto.Keccak256(bz), nil
}

// DecodeExtra unpacks a proposal's extra payload. The long form is the ABI
// encoding of (allowFailureMap uint256, startWindow uint64[2]); the short
// form carries the allowFailureMap alone. An empty payload means no
// tolerated failures and a default start window.
func DecodeExtra(extra []byte) (*uint256.Int, [2]uint64, xerrors.XError) {
	if len(extra) == 0 {
		return uint256.NewInt(0), [2]uint64{}, nil
	}

	if len(extra) == 32 {
		vals, err := mapArgs.Unpack(extra)
		if err != nil {
			return nil, [2]uint64{}, xerrors.ErrInvalidRequest.Wrap(err)
		}
		allowMap, _ := uint256.FromBig(vals[0].(*big.Int))
		return allowMap, [2]uint64{}, nil
	}

	vals, err := extraArgs.Unpack(extra)
	if err != nil {
		return nil, [2]uint64{}, xerrors.ErrInvalidRequest.Wrap(err)
	}

	bigMap, ok := vals[0].(*big.Int)
	if !ok {
		return nil, [2]uint64{}, xerrors.ErrInvalidRequest.Wrapf("extra: unexpected type of allowFailureMap")
	}
	window, ok := vals[1].([2]uint64)
	if !ok {
		return nil, [2]uint64{}, xerrors.ErrInvalidRequest.Wrapf("extra: unexpected type of startWindow")
	}

	allowMap, _ := uint256.FromBig(bigMap)
	return allowMap, window, nil
}

// EncodeExtra is the inverse of DecodeExtra's long form.
func EncodeExtra(allowFailureMap *uint256.Int, startWindow [2]uint64) (abytes.HexBytes, xerrors.XError) {
	if allowFailureMap == nil {
		allowFailureMap = uint256.NewInt(0)
	}
	bz, err := extraArgs.Pack(allowFailureMap.ToBig(), startWindow)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return bz, nil
}
