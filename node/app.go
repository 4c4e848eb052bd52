package node

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	"github.com/gnosisguild/crisp-go/ctrlers/token"
	ctrlertypes "github.com/gnosisguild/crisp-go/ctrlers/types"
	"github.com/gnosisguild/crisp-go/ctrlers/vote"
	"github.com/gnosisguild/crisp-go/e3/sim"
	"github.com/gnosisguild/crisp-go/genesis"
	libsevm "github.com/gnosisguild/crisp-go/libs/evm"
	"github.com/gnosisguild/crisp-go/types"
	abytes "github.com/gnosisguild/crisp-go/types/bytes"
	"github.com/gnosisguild/crisp-go/types/crypto"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// App wires the voting controller to its collaborators and runs operations
// one at a time: apply, then commit every ledger, or revert them all.
type App struct {
	metaDB *MetaDB

	voteCtrler  *vote.VoteCtrler
	tokenCtrler *token.TokenCtrler // devnet mode only
	enclave     *sim.Enclave       // devnet mode only
	evmClient   *libsevm.Client    // evm mode only

	// every versioned store, committed and reverted together in fixed order
	ledgerHandlers []ctrlertypes.ILedgerHandler

	opExecutor *OpExecutor
	registry   *prometheus.Registry

	rootConfig *cfg.Config
	genDoc     *genesis.Genesis

	nowFn   func() uint64
	started int32
	logger  tmlog.Logger
	mtx     sync.Mutex
}

func NewApp(config *cfg.Config, genDoc *genesis.Genesis, logger tmlog.Logger) (*App, xerrors.XError) {
	if genDoc == nil {
		return nil, xerrors.ErrInitChain.Wrapf("node: no genesis doc")
	}
	if xerr := genDoc.Validate(); xerr != nil {
		return nil, xerr
	}

	metaDB, err := openMetaDB("crisp_app", config.DBDir())
	if err != nil {
		return nil, xerrors.From(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	voteCtrler, xerr := vote.NewVoteCtrler(config, registry, logger)
	if xerr != nil {
		_ = metaDB.Close()
		return nil, xerr
	}
	if xerr := voteCtrler.BindGenesisConfig(*genDoc.AppState.Target, *genDoc.AppState.E3); xerr != nil {
		_ = voteCtrler.Close()
		_ = metaDB.Close()
		return nil, xerr
	}

	app := &App{
		metaDB:         metaDB,
		voteCtrler:     voteCtrler,
		ledgerHandlers: []ctrlertypes.ILedgerHandler{voteCtrler},
		registry:       registry,
		rootConfig:     config,
		genDoc:         genDoc,
		nowFn:          func() uint64 { return uint64(time.Now().Unix()) },
		logger:         logger.With("module", "crisp_App"),
	}

	perm := newProposerSet(genDoc.AppState.Proposers)

	switch config.Mode {
	case cfg.ModeDevnet:
		if xerr := app.wireDevnet(config, perm, logger); xerr != nil {
			_ = app.closeAll()
			return nil, xerr
		}
	case cfg.ModeEVM:
		if xerr := app.wireEVM(config, perm, logger); xerr != nil {
			_ = app.closeAll()
			return nil, xerr
		}
	default:
		_ = app.closeAll()
		return nil, xerrors.ErrInvalidRequest.Wrapf("node: unknown mode %q", config.Mode)
	}

	app.opExecutor = NewOpExecutor(app, logger)
	return app, nil
}

// wireDevnet runs everything in process: the built-in token doubles as
// voting power and fee currency, the enclave simulator tallies ballots and
// the action executor settles batches against the token ledger.
func (app *App) wireDevnet(config *cfg.Config, perm ctrlertypes.IPermissionHandler, logger tmlog.Logger) xerrors.XError {
	tokenCtrler, xerr := token.NewTokenCtrler(config, logger)
	if xerr != nil {
		return xerr
	}
	if xerr := tokenCtrler.BindFeeCustody(vote.ModuleAddress); xerr != nil {
		_ = tokenCtrler.Close()
		return xerr
	}

	enclave, xerr := sim.NewEnclave(config, logger)
	if xerr != nil {
		_ = tokenCtrler.Close()
		return xerr
	}
	if xerr := enclave.BindToken(tokenCtrler, vote.ModuleAddress); xerr != nil {
		_ = tokenCtrler.Close()
		_ = enclave.Close()
		return xerr
	}

	axe := newActionExecutor(tokenCtrler, logger)
	axe.RegisterCallee(vote.ModuleAddress, app.voteCtrler)

	if xerr := app.voteCtrler.BindHandlers(tokenCtrler, tokenCtrler, enclave, axe, perm); xerr != nil {
		_ = tokenCtrler.Close()
		_ = enclave.Close()
		return xerr
	}

	app.tokenCtrler = tokenCtrler
	app.enclave = enclave
	app.ledgerHandlers = append(app.ledgerHandlers, tokenCtrler, enclave)
	return nil
}

// wireEVM points every collaborator at deployed contracts; only the
// proposal ledger lives locally.
func (app *App) wireEVM(config *cfg.Config, perm ctrlertypes.IPermissionHandler, logger tmlog.Logger) xerrors.XError {
	if config.EVM == nil {
		return xerrors.ErrInvalidRequest.Wrapf("node: mode is %q but the evm section is missing", cfg.ModeEVM)
	}

	client, xerr := libsevm.Dial(config.EVM, logger)
	if xerr != nil {
		return xerr
	}

	votesToken, xerr := libsevm.NewVotesToken(client, config.EVM.VotesToken)
	if xerr != nil {
		client.Close()
		return xerr
	}
	feeToken, xerr := libsevm.NewFeeToken(client, config.EVM.FeeToken)
	if xerr != nil {
		client.Close()
		return xerr
	}
	enclave, xerr := libsevm.NewEnclave(client, config.EVM.Enclave)
	if xerr != nil {
		client.Close()
		return xerr
	}
	executor, xerr := libsevm.NewExecutor(client, config.EVM.Executor)
	if xerr != nil {
		client.Close()
		return xerr
	}

	if xerr := app.voteCtrler.BindHandlers(votesToken, feeToken, enclave, executor, perm); xerr != nil {
		client.Close()
		return xerr
	}

	app.evmClient = client
	return nil
}

func (app *App) Start() xerrors.XError {
	if !atomic.CompareAndSwapInt32(&app.started, 0, 1) {
		return nil
	}

	if app.metaDB.LastOpHeight() == 0 {
		if xerr := app.initChain(); xerr != nil {
			return xerr
		}
	} else if xerr := app.checkChain(); xerr != nil {
		return xerr
	}

	app.opExecutor.Start()
	app.logger.Info("app started",
		"chain_id", app.genDoc.ChainID, "mode", app.rootConfig.Mode, "height", app.metaDB.LastOpHeight())
	return nil
}

// initChain seeds the ledgers from the genesis doc. The genesis state
// commits as version 1.
func (app *App) initChain() xerrors.XError {
	if err := app.metaDB.PutChainID(app.genDoc.ChainID); err != nil {
		return xerrors.From(err)
	}

	for _, handler := range app.ledgerHandlers {
		if xerr := handler.InitLedger(app.genDoc.AppState); xerr != nil {
			return xerr
		}
	}

	appHash, ver := app.commitAll()
	if ver != 1 {
		return xerrors.ErrInitChain.Wrapf("node: the genesis commit landed on version %v", ver)
	}

	if err := app.metaDB.PutLastOpHeight(ver); err != nil {
		return xerrors.From(err)
	}
	if err := app.metaDB.PutLastAppHash(appHash); err != nil {
		return xerrors.From(err)
	}
	if err := app.metaDB.PutGenesisDocHash(app.genDoc.AppHash); err != nil {
		return xerrors.From(err)
	}

	app.logger.Info("chain initialized", "chain_id", app.genDoc.ChainID, "app_hash", abytes.HexBytes(appHash))
	return nil
}

// checkChain guards a restart against a different chain id or genesis doc.
func (app *App) checkChain() xerrors.XError {
	if chainID := app.metaDB.ChainID(); chainID != app.genDoc.ChainID {
		return xerrors.ErrInitChain.Wrapf("node: chain_id mismatch - db:%q, genesis:%q", chainID, app.genDoc.ChainID)
	}
	if gh := app.metaDB.GenesisDocHash(); gh != nil && !app.genDoc.AppHash.Equal(gh) {
		return xerrors.ErrInitChain.Wrapf("node: genesis doc mismatch - db:%X, file:%X", gh, app.genDoc.AppHash)
	}
	return nil
}

func (app *App) Stop() xerrors.XError {
	if atomic.CompareAndSwapInt32(&app.started, 1, 0) {
		app.opExecutor.Stop()
	}
	return app.closeAll()
}

func (app *App) closeAll() xerrors.XError {
	for _, handler := range app.ledgerHandlers {
		if xerr := handler.Close(); xerr != nil {
			app.logger.Error("fail to close ledger handler", "error", xerr.Error())
		}
	}
	app.ledgerHandlers = nil

	if app.evmClient != nil {
		app.evmClient.Close()
		app.evmClient = nil
	}
	if app.metaDB != nil {
		if err := app.metaDB.Close(); err != nil {
			return xerrors.From(err)
		}
		app.metaDB = nil
	}
	return nil
}

// SetTimeSource replaces the operation clock. Deterministic devnet runs and
// tests use it to steer voting windows.
func (app *App) SetTimeSource(fn func() uint64) {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	app.nowFn = fn
}

// runOp applies one operation against the staged state and commits every
// ledger, or reverts them all. It only runs on the executor goroutine.
func (app *App) runOp(op *Op) (*OpResult, xerrors.XError) {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	height := app.metaDB.LastOpHeight() + 1
	ctx := ctrlertypes.NewOpContext(height, app.nowFn(), op.Sender)

	val, xerr := op.Apply(ctx)
	if xerr != nil {
		app.revertAll()
		app.logger.Debug("operation reverted", "op", op.Name, "sender", op.Sender, "error", xerr.Error())
		return nil, xerr
	}

	appHash, ver := app.commitAll()
	if err := app.metaDB.PutLastOpHeight(ver); err != nil {
		panic(err)
	}
	if err := app.metaDB.PutLastAppHash(appHash); err != nil {
		panic(err)
	}

	return &OpResult{
		Value:   val,
		Events:  ctx.Events(),
		Height:  ver,
		AppHash: appHash,
	}, nil
}

// commitAll saves a new version of every ledger. The versions must agree;
// a torn commit cannot be recovered from, so it stops the node.
func (app *App) commitAll() ([]byte, int64) {
	ver := int64(-1)
	var hashes [][]byte

	for _, handler := range app.ledgerHandlers {
		h, v, xerr := handler.Commit()
		if xerr != nil {
			panic(xerr)
		}
		if ver >= 0 && ver != v {
			panic(xerrors.ErrCommit.Wrapf("node: different versions of ledgers - %v vs. %v", ver, v))
		}
		ver = v
		hashes = append(hashes, h)
	}

	return crypto.DefaultHash(hashes...), ver
}

func (app *App) revertAll() {
	for _, handler := range app.ledgerHandlers {
		if xerr := handler.Revert(); xerr != nil {
			app.logger.Error("fail to revert ledger handler", "error", xerr.Error())
		}
	}
}

var _ opRunner = (*App)(nil)

//
// state-changing operations, serialized through the executor
//

func (app *App) CreateProposal(
	sender types.Address,
	metadata abytes.HexBytes, actions []ctrlertypes.Action,
	startDate, endDate uint64, extra abytes.HexBytes,
) (*OpResult, xerrors.XError) {
	return app.opExecutor.ExecuteSync(&Op{
		Name:   ctrlertypes.OpCreateProposal,
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return app.voteCtrler.CreateProposal(ctx, metadata, actions, startDate, endDate, extra)
		},
	})
}

func (app *App) ExecuteProposal(sender types.Address, id abytes.HexBytes) (*OpResult, xerrors.XError) {
	return app.opExecutor.ExecuteSync(&Op{
		Name:   ctrlertypes.OpExecute,
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return id, app.voteCtrler.Execute(ctx, id)
		},
	})
}

func (app *App) Transfer(sender, to types.Address, amt *uint256.Int) (*OpResult, xerrors.XError) {
	if app.tokenCtrler == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("token transfers are available on devnet only")
	}
	return app.opExecutor.ExecuteSync(&Op{
		Name:   ctrlertypes.OpTransfer,
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return nil, app.tokenCtrler.Transfer(ctx, sender, to, amt)
		},
	})
}

func (app *App) Approve(sender, spender types.Address, amt *uint256.Int) (*OpResult, xerrors.XError) {
	if app.tokenCtrler == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("token approvals are available on devnet only")
	}
	return app.opExecutor.ExecuteSync(&Op{
		Name:   ctrlertypes.OpApprove,
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return nil, app.tokenCtrler.Approve(ctx, sender, spender, amt)
		},
	})
}

func (app *App) SubmitBallot(sender types.Address, e3id *uint256.Int, data abytes.HexBytes) (*OpResult, xerrors.XError) {
	if app.enclave == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("ballot submission is available on devnet only")
	}
	return app.opExecutor.ExecuteSync(&Op{
		Name:   ctrlertypes.OpSubmitBallot,
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return nil, app.enclave.SubmitBallot(ctx, e3id, data)
		},
	})
}

func (app *App) PublishResult(sender types.Address, e3id *uint256.Int) (*OpResult, xerrors.XError) {
	if app.enclave == nil {
		return nil, xerrors.ErrNotSupported.Wrapf("result publishing is available on devnet only")
	}
	return app.opExecutor.ExecuteSync(&Op{
		Name:   "publish_result",
		Sender: sender,
		Apply: func(ctx *ctrlertypes.OpContext) (interface{}, xerrors.XError) {
			return nil, app.enclave.PublishResult(ctx, e3id)
		},
	})
}

//
// read-only accessors
//

func (app *App) Vote() *vote.VoteCtrler { return app.voteCtrler }

// Token returns the built-in voting token, or nil outside devnet mode.
func (app *App) Token() *token.TokenCtrler { return app.tokenCtrler }

// Enclave returns the computation simulator, or nil outside devnet mode.
func (app *App) Enclave() *sim.Enclave { return app.enclave }

func (app *App) ChainID() string { return app.genDoc.ChainID }

func (app *App) Mode() string { return app.rootConfig.Mode }

func (app *App) LastOpHeight() int64 { return app.metaDB.LastOpHeight() }

func (app *App) LastAppHash() abytes.HexBytes { return app.metaDB.LastAppHash() }

func (app *App) MetricsGatherer() prometheus.Gatherer { return app.registry }
