package node

import (
	"github.com/holiman/uint256"
	tmlog "github.com/tendermint/tendermint/libs/log"

	"github.com/gnosisguild/crisp-go/ctrlers/token"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// actionExecutor runs approved action batches on a devnet deployment.
// An action addressed to a registered callee is dispatched to it; an action
// with a bare value and no payload is a token transfer out of the execution
// target. Anything else fails.
type actionExecutor struct {
	token   *token.TokenCtrler
	callees map[string]ctrlertypes.ICallee
	logger  tmlog.Logger
}

func newActionExecutor(tokenCtrler *token.TokenCtrler, logger tmlog.Logger) *actionExecutor {
	return &actionExecutor{
		token:   tokenCtrler,
		callees: make(map[string]ctrlertypes.ICallee),
		logger:  logger.With("module", "crisp_ActionExecutor"),
	}
}

// RegisterCallee makes addr an action target. Registration happens during
// wiring, before any operation runs.
func (axe *actionExecutor) RegisterCallee(addr types.Address, callee ctrlertypes.ICallee) {
	axe.callees[string(addr)] = callee
}

//
// implement ctrlertypes.IExecHandler
//

// ExecBatch runs the actions in order on behalf of the execution target.
// A failed action aborts the batch unless its bit is set in allowFailureMap;
// tolerated failures are reported in the returned bitmap.
func (axe *actionExecutor) ExecBatch(
	ctx *ctrlertypes.OpContext,
	propID abytes.HexBytes,
	target ctrlertypes.TargetConfig,
	actions []ctrlertypes.Action,
	allowFailureMap *uint256.Int,
) (*uint256.Int, xerrors.XError) {

	if target.Operation != ctrlertypes.OpCall {
		return nil, xerrors.ErrNotSupported.Wrapf("operation %v is not supported on devnet", target.Operation)
	}

	allow := allowFailureMap
	if allow == nil {
		allow = uint256.NewInt(0)
	}

	failedMap := uint256.NewInt(0)
	for i, action := range actions {
		xerr := axe.execAction(ctx, target.Target, action)
		if xerr == nil {
			continue
		}

		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(i))
		if new(uint256.Int).And(allow, mask).IsZero() {
			return nil, xerrors.ErrActionReverted.Wrapf(
				"action %d of proposal %v failed: %v", i, propID, xerr.Error())
		}

		failedMap.Or(failedMap, mask)
		axe.logger.Info("proposal action failed but is allowed to",
			"proposal", propID, "index", i, "to", action.To, "error", xerr.Error())
	}

	return failedMap, nil
}

func (axe *actionExecutor) execAction(ctx *ctrlertypes.OpContext, from types.Address, action ctrlertypes.Action) xerrors.XError {
	if callee, ok := axe.callees[string(action.To)]; ok {
		_, xerr := callee.InvokeCall(ctx, from, action.Value, action.Data)
		return xerr
	}

	if len(action.Data) > 0 {
		return xerrors.ErrNotSupported.Wrapf("no handler at %v takes a payload", action.To)
	}
	return axe.token.Transfer(ctx, from, action.To, action.Value)
}

var _ ctrlertypes.IExecHandler = (*actionExecutor)(nil)
