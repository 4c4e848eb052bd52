package vote

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

type powerHandlerMock struct {
	powers map[string]*uint256.Int
	total  *uint256.Int
	token  types.Address
}

func newPowerHandlerMock() *powerHandlerMock {
	return &powerHandlerMock{
		powers: make(map[string]*uint256.Int),
		total:  uint256.NewInt(0),
		token:  types.RandAddress(),
	}
}

func (m *powerHandlerMock) setPower(addr types.Address, power uint64) {
	m.powers[string(addr)] = uint256.NewInt(power)
}

func (m *powerHandlerMock) PowerOf(addr types.Address, _ int64) (*uint256.Int, xerrors.XError) {
	if power, ok := m.powers[string(addr)]; ok {
		return new(uint256.Int).Set(power), nil
	}
	return uint256.NewInt(0), nil
}

func (m *powerHandlerMock) TotalPowerOf(_ int64) (*uint256.Int, xerrors.XError) {
	return new(uint256.Int).Set(m.total), nil
}

func (m *powerHandlerMock) TokenAddress() types.Address {
	return m.token
}

var _ ctrlertypes.IVotePowerHandler = (*powerHandlerMock)(nil)

type feeHandlerMock struct {
	collected   []*uint256.Int
	approved    map[string]*uint256.Int
	failCollect xerrors.XError
}

func newFeeHandlerMock() *feeHandlerMock {
	return &feeHandlerMock{approved: make(map[string]*uint256.Int)}
}

func (m *feeHandlerMock) CollectFrom(_ *ctrlertypes.OpContext, fee *uint256.Int) xerrors.XError {
	if m.failCollect != nil {
		return m.failCollect
	}
	m.collected = append(m.collected, new(uint256.Int).Set(fee))
	return nil
}

func (m *feeHandlerMock) ApproveTo(_ *ctrlertypes.OpContext, spender types.Address, fee *uint256.Int) xerrors.XError {
	m.approved[string(spender)] = new(uint256.Int).Set(fee)
	return nil
}

var _ ctrlertypes.IFeeHandler = (*feeHandlerMock)(nil)

type computeHandlerMock struct {
	addr        types.Address
	fee         *uint256.Int
	nextID      uint64
	requests    []*ctrlertypes.E3Request
	results     map[uint64]*ctrlertypes.E3Result
	failRequest xerrors.XError
}

func newComputeHandlerMock() *computeHandlerMock {
	return &computeHandlerMock{
		addr:    types.RandAddress(),
		fee:     uint256.NewInt(1_600),
		nextID:  1,
		results: make(map[uint64]*ctrlertypes.E3Result),
	}
}

func (m *computeHandlerMock) Address() types.Address {
	return m.addr
}

func (m *computeHandlerMock) Quote(_ *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	return new(uint256.Int).Set(m.fee), nil
}

func (m *computeHandlerMock) Request(_ *ctrlertypes.OpContext, req *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	if m.failRequest != nil {
		return nil, m.failRequest
	}
	m.requests = append(m.requests, req)
	id := m.nextID
	m.nextID++
	return uint256.NewInt(id), nil
}

// Result mirrors the provider contract: before publish the output is empty
// and the submission count is live.
func (m *computeHandlerMock) Result(e3id *uint256.Int) (*ctrlertypes.E3Result, xerrors.XError) {
	if res, ok := m.results[e3id.Uint64()]; ok {
		return res, nil
	}
	return &ctrlertypes.E3Result{Output: nil, Submissions: 0}, nil
}

func (m *computeHandlerMock) publish(e3id *uint256.Int, yes, no uint64) {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, no)
	m.results[e3id.Uint64()] = &ctrlertypes.E3Result{Output: out, Submissions: yes + no}
}

var _ ctrlertypes.IComputeHandler = (*computeHandlerMock)(nil)

type execCall struct {
	propID   abytes.HexBytes
	target   ctrlertypes.TargetConfig
	actions  []ctrlertypes.Action
	allowMap *uint256.Int
}

type execHandlerMock struct {
	calls     []execCall
	failedMap *uint256.Int
	xerr      xerrors.XError

	// runs inside ExecBatch, standing in for a callee of the batch
	hook func(*ctrlertypes.OpContext) xerrors.XError
}

func newExecHandlerMock() *execHandlerMock {
	return &execHandlerMock{failedMap: uint256.NewInt(0)}
}

func (m *execHandlerMock) ExecBatch(
	ctx *ctrlertypes.OpContext,
	propID abytes.HexBytes,
	target ctrlertypes.TargetConfig,
	actions []ctrlertypes.Action,
	allowMap *uint256.Int,
) (*uint256.Int, xerrors.XError) {
	if m.hook != nil {
		if xerr := m.hook(ctx); xerr != nil {
			return nil, xerr
		}
	}
	if m.xerr != nil {
		return nil, m.xerr
	}
	m.calls = append(m.calls, execCall{propID: propID, target: target, actions: actions, allowMap: allowMap})
	return new(uint256.Int).Set(m.failedMap), nil
}

var _ ctrlertypes.IExecHandler = (*execHandlerMock)(nil)

type permHandlerMock struct {
	denied map[string]struct{}
}

func newPermHandlerMock() *permHandlerMock {
	return &permHandlerMock{denied: make(map[string]struct{})}
}

func (m *permHandlerMock) CanExecuteAs(addr types.Address, opName string) bool {
	if opName != ctrlertypes.OpCreateProposal {
		return true
	}
	_, denied := m.denied[string(addr)]
	return !denied
}

var _ ctrlertypes.IPermissionHandler = (*permHandlerMock)(nil)
