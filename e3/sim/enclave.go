package sim

import (
	"strconv"
	"sync"

	"github.com/holiman/uint256"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/genesis"
	"github.com/gnosisguild/crisp-go/ledger"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// ModuleAddress identifies the built-in computation provider.
var ModuleAddress = crypto.ModuleAddress("crisp/e3/enclave")

const (
	// BaseFee is the flat part of every quote.
	BaseFee = uint64(1_000)
	// FeePerSecond prices the length of the input window.
	FeePerSecond = uint64(1)
)

// ITokenPuller is the slice of the voting token the enclave needs: pulling
// its fee out of the account that approved it.
type ITokenPuller interface {
	TransferFrom(ctx *ctrlertypes.OpContext, spender, owner, to types.Address, amt *uint256.Int) xerrors.XError
}

// Enclave simulates the computation provider for devnet deployments.
// It collects ballots during each computation's input window and, once the
// window has closed and the result is published, serves the program output
// over them. On an EVM deployment the same role is played by a live enclave
// contract instead.
type Enclave struct {
	e3Ledger  ledger.ILedger[*E3]
	seqLedger ledger.ILedger[*Sequence]

	token     ITokenPuller
	feeSource types.Address

	logger tmlog.Logger
	mtx    sync.RWMutex
}

func NewEnclave(config *cfg.Config, logger tmlog.Logger) (*Enclave, xerrors.XError) {
	lg := logger.With("module", "crisp_Enclave")

	newE3Ledger, xerr := ledger.NewLedger[*E3](
		"e3", config.DBDir(), 2048,
		func() *E3 { return &E3{} })
	if xerr != nil {
		return nil, xerr
	}

	newSeqLedger, xerr := ledger.NewLedger[*Sequence](
		"e3_seq", config.DBDir(), 1,
		func() *Sequence { return &Sequence{} })
	if xerr != nil {
		_ = newE3Ledger.Close()
		return nil, xerr
	}

	return &Enclave{
		e3Ledger:  newE3Ledger,
		seqLedger: newSeqLedger,
		logger:    lg,
	}, nil
}

// BindToken installs the voting token and the account the enclave pulls its
// fees from. It runs on every start, before any operation.
func (enc *Enclave) BindToken(token ITokenPuller, feeSource types.Address) xerrors.XError {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	if token == nil {
		return xerrors.ErrZeroAddress.Wrapf("enclave: the voting token is not set")
	}
	if types.IsZeroAddress(feeSource) {
		return xerrors.ErrZeroAddress.Wrapf("enclave: the fee source address is not set")
	}

	enc.token = token
	enc.feeSource = feeSource
	return nil
}

func (enc *Enclave) InitLedger(req interface{}) xerrors.XError {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	if _, ok := req.(*genesis.GenesisAppState); !ok {
		return xerrors.ErrInitChain.Wrapf("enclave: invalid genesis type %T", req)
	}
	return enc.seqLedger.Set(NewSequence())
}

func validateRequest(req *ctrlertypes.E3Request, now uint64) xerrors.XError {
	if req == nil {
		return xerrors.ErrInvalidRequest.Wrapf("enclave: empty computation request")
	}
	if req.Threshold[0] == 0 || req.Threshold[0] > req.Threshold[1] {
		return xerrors.ErrInvalidRequest.Wrapf("enclave: invalid threshold %v", req.Threshold)
	}
	if req.Duration == 0 {
		return xerrors.ErrInvalidRequest.Wrapf("enclave: the input window has no duration")
	}
	if req.StartWindow[1] < req.StartWindow[0] {
		return xerrors.ErrDateOutOfBounds.Wrapf(
			"enclave: start window out of order - earliest: %v, latest: %v", req.StartWindow[0], req.StartWindow[1])
	}
	if req.StartWindow[1] < now {
		return xerrors.ErrDateOutOfBounds.Wrapf(
			"enclave: start window out of bounds - limit: %v, actual: %v", now, req.StartWindow[1])
	}
	return nil
}

//
// implement ctrlertypes.IComputeHandler
//

func (enc *Enclave) Address() types.Address {
	return ModuleAddress
}

// Quote prices a computation request without committing to it.
func (enc *Enclave) Quote(req *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	if xerr := validateRequest(req, 0); xerr != nil {
		return nil, xerr
	}

	fee := new(uint256.Int).Mul(uint256.NewInt(req.Duration), uint256.NewInt(FeePerSecond))
	fee.Add(fee, uint256.NewInt(BaseFee))
	return fee, nil
}

// Request accepts a computation request, pulls the quoted fee from the fee
// source and opens a new ballot box under a fresh id.
func (enc *Enclave) Request(ctx *ctrlertypes.OpContext, req *ctrlertypes.E3Request) (*uint256.Int, xerrors.XError) {
	if xerr := validateRequest(req, ctx.Time); xerr != nil {
		return nil, xerr
	}

	fee, xerr := enc.Quote(req)
	if xerr != nil {
		return nil, xerr
	}

	enc.mtx.RLock()
	token, feeSource := enc.token, enc.feeSource
	enc.mtx.RUnlock()

	if !fee.IsZero() {
		if token == nil {
			return nil, xerrors.ErrZeroAddress.Wrapf("enclave: the voting token is not set")
		}
		if xerr := token.TransferFrom(ctx, ModuleAddress, feeSource, ModuleAddress, fee); xerr != nil {
			return nil, xerr
		}
	}

	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	seq, xerr := enc.seqLedger.Get((&Sequence{}).Key())
	if xerr == xerrors.ErrNotFoundResult {
		seq = NewSequence()
	} else if xerr != nil {
		return nil, xerr
	}

	e3id := uint256.NewInt(seq.take())
	if xerr := enc.seqLedger.Set(seq); xerr != nil {
		return nil, xerr
	}

	e3 := &E3{
		ID:          e3id,
		Program:     req.Program,
		Threshold:   req.Threshold,
		StartWindow: req.StartWindow,
		Duration:    req.Duration,
		Fee:         fee,
	}
	if xerr := enc.e3Ledger.Set(e3); xerr != nil {
		return nil, xerr
	}

	ctx.EmitEvent("e3.requested",
		ctrlertypes.EventAttr("e3id", []byte(e3id.Dec())),
		ctrlertypes.EventAttr("program", []byte(e3.Program.String())),
	)

	enc.logger.Info("computation requested",
		"e3id", e3id.Dec(), "program", e3.Program,
		"window", e3.StartWindow, "duration", e3.Duration, "fee", fee.Dec())

	return e3id, nil
}

// Result returns the outcome of a computation. Until the result is
// published the output is empty and the submission count is a live value.
func (enc *Enclave) Result(e3id *uint256.Int) (*ctrlertypes.E3Result, xerrors.XError) {
	enc.mtx.RLock()
	defer enc.mtx.RUnlock()

	e3, xerr := enc.findE3(e3id)
	if xerr != nil {
		return nil, xerr
	}

	if e3.Published {
		return &ctrlertypes.E3Result{Output: e3.Output, Submissions: e3.Submissions}, nil
	}
	return &ctrlertypes.E3Result{Output: nil, Submissions: uint64(len(e3.Ballots))}, nil
}

// the caller holds enc.mtx
func (enc *Enclave) findE3(e3id *uint256.Int) (*E3, xerrors.XError) {
	if e3id == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("enclave: empty e3 id")
	}

	e3, xerr := enc.e3Ledger.Get(e3id.Bytes32())
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundResult.Wrapf("enclave: unknown e3 id %v", e3id.Dec())
	} else if xerr != nil {
		return nil, xerr
	}
	return e3, nil
}

// SubmitBallot drops one encrypted ballot into the box. Inputs are only
// accepted inside the computation's window and before its result is
// published.
func (enc *Enclave) SubmitBallot(ctx *ctrlertypes.OpContext, e3id *uint256.Int, data abytes.HexBytes) xerrors.XError {
	if len(data) == 0 {
		return xerrors.ErrInvalidRequest.Wrapf("enclave: empty ballot")
	}

	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	e3, xerr := enc.findE3(e3id)
	if xerr != nil {
		return xerr
	}

	if e3.Published {
		return xerrors.ErrNotVotingPeriod.Wrapf("enclave: the result of e3 %v is already published", e3id.Dec())
	}
	if !e3.AcceptsInputAt(ctx.Time) {
		return xerrors.ErrNotVotingPeriod.Wrapf(
			"enclave: the input window of e3 %v is [%v, %v], now: %v",
			e3id.Dec(), e3.StartWindow[0], e3.InputDeadline(), ctx.Time)
	}

	e3.appendBallot(data)
	if xerr := enc.e3Ledger.Set(e3); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("e3.input",
		ctrlertypes.EventAttr("e3id", []byte(e3id.Dec())),
		ctrlertypes.EventAttr("index", []byte(strconv.FormatUint(uint64(len(e3.Ballots)-1), 10))),
	)
	return nil
}

// PublishResult seals the ballot box once its window has closed.
func (enc *Enclave) PublishResult(ctx *ctrlertypes.OpContext, e3id *uint256.Int) xerrors.XError {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	e3, xerr := enc.findE3(e3id)
	if xerr != nil {
		return xerr
	}

	if e3.Published {
		return xerrors.ErrInvalidRequest.Wrapf("enclave: the result of e3 %v is already published", e3id.Dec())
	}
	if ctx.Time <= e3.InputDeadline() {
		return xerrors.ErrNotVotingPeriod.Wrapf(
			"enclave: the input window of e3 %v is open until %v, now: %v", e3id.Dec(), e3.InputDeadline(), ctx.Time)
	}

	e3.seal()
	if xerr := enc.e3Ledger.Set(e3); xerr != nil {
		return xerr
	}

	ctx.EmitEvent("e3.published",
		ctrlertypes.EventAttr("e3id", []byte(e3id.Dec())),
		ctrlertypes.EventAttr("submissions", []byte(strconv.FormatUint(e3.Submissions, 10))),
	)

	enc.logger.Info("computation result published",
		"e3id", e3id.Dec(), "submissions", e3.Submissions, "output", e3.Output)

	return nil
}

// ReadE3 returns the committed state of one computation.
func (enc *Enclave) ReadE3(e3id *uint256.Int) (*E3, xerrors.XError) {
	enc.mtx.RLock()
	defer enc.mtx.RUnlock()

	if e3id == nil {
		return nil, xerrors.ErrInvalidRequest.Wrapf("enclave: empty e3 id")
	}

	e3, xerr := enc.e3Ledger.Read(e3id.Bytes32())
	if xerr == xerrors.ErrNotFoundResult {
		return nil, xerrors.ErrNotFoundResult.Wrapf("enclave: unknown e3 id %v", e3id.Dec())
	} else if xerr != nil {
		return nil, xerr
	}
	return e3, nil
}

//
// implement ctrlertypes.ILedgerHandler
//

func (enc *Enclave) Commit() ([]byte, int64, xerrors.XError) {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	h0, v0, xerr := enc.e3Ledger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}
	h1, v1, xerr := enc.seqLedger.Commit()
	if xerr != nil {
		return nil, -1, xerr
	}

	if v0 != v1 {
		return nil, -1, xerrors.ErrCommit.Wrapf("enclave: different versions of ledgers - e3: %v, seq: %v", v0, v1)
	}

	return crypto.DefaultHash(h0, h1), v0, nil
}

func (enc *Enclave) Revert() xerrors.XError {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	if xerr := enc.e3Ledger.Revert(); xerr != nil {
		return xerr
	}
	return enc.seqLedger.Revert()
}

func (enc *Enclave) Close() xerrors.XError {
	enc.mtx.Lock()
	defer enc.mtx.Unlock()

	if enc.e3Ledger != nil {
		if xerr := enc.e3Ledger.Close(); xerr != nil {
			enc.logger.Error("fail to close e3Ledger", "error", xerr.Error())
		}
		enc.e3Ledger = nil
	}
	if enc.seqLedger != nil {
		if xerr := enc.seqLedger.Close(); xerr != nil {
			enc.logger.Error("fail to close seqLedger", "error", xerr.Error())
		}
		enc.seqLedger = nil
	}
	return nil
}

var _ ctrlertypes.IComputeHandler = (*Enclave)(nil)
var _ ctrlertypes.ILedgerHandler = (*Enclave)(nil)
