package node

import (
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
)

// proposerSet gates proposal creation on the genesis allow list.
// An empty list means anyone may propose.
type proposerSet struct {
	allowed map[string]struct{}
}

func newProposerSet(addrs []types.Address) *proposerSet {
	ps := &proposerSet{
		allowed: make(map[string]struct{}),
	}
	for _, addr := range addrs {
		ps.allowed[string(addr)] = struct{}{}
	}
	return ps
}

func (ps *proposerSet) CanExecuteAs(addr types.Address, opName string) bool {
	if opName != ctrlertypes.OpCreateProposal {
		return true
	}
	if len(ps.allowed) == 0 {
		return true
	}
	_, ok := ps.allowed[string(addr)]
	return ok
}

var _ ctrlertypes.IPermissionHandler = (*proposerSet)(nil)
