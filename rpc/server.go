package rpc

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	tmlog "github.com/tendermint/tendermint/libs/log"
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	"github.com/gnosisguild/crisp-go/node"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

// Server exposes the node over json-rpc (http and websocket) and serves
// the prometheus registry on /metrics.
type Server struct {
	app      *node.App
	config   *cfg.Config
	listener net.Listener
	logger   tmlog.Logger
}

func NewServer(app *node.App, config *cfg.Config, logger tmlog.Logger) *Server {
	return &Server{
		app:    app,
		config: config,
		logger: logger.With("module", "crisp_RPCServer"),
	}
}

func (srv *Server) Start() xerrors.XError {
	routes := Routes(srv.app)

	mux := http.NewServeMux()
	rpcserver.RegisterRPCFuncs(mux, routes, srv.logger)

	wm := rpcserver.NewWebsocketManager(routes)
	wm.SetLogger(srv.logger.With("protocol", "websocket"))
	mux.HandleFunc("/websocket", wm.WebsocketHandler)

	mux.Handle("/metrics", promhttp.HandlerFor(srv.app.MetricsGatherer(), promhttp.HandlerOpts{}))

	serverCfg := rpcserver.DefaultConfig()
	serverCfg.MaxOpenConnections = srv.config.MaxOpenConnections

	listener, err := rpcserver.Listen(srv.config.RPCListenAddr, serverCfg)
	if err != nil {
		return xerrors.From(err)
	}
	srv.listener = listener

	go func() {
		srv.logger.Info("serving json-rpc", "laddr", srv.config.RPCListenAddr)
		if err := rpcserver.Serve(listener, mux, srv.logger, serverCfg); err != nil {
			srv.logger.Error("json-rpc server stopped", "err", err)
		}
	}()
	return nil
}

func (srv *Server) Stop() xerrors.XError {
	if srv.listener == nil {
		return nil
	}
	if err := srv.listener.Close(); err != nil {
		return xerrors.From(err)
	}
	srv.listener = nil
	return nil
}
