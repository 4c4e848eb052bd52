package rpc

import (
	rpcserver "github.com/tendermint/tendermint/rpc/jsonrpc/server"

	"github.com/gnosisguild/crisp-go/node"
)

// Routes maps every json-rpc method onto one node instance. State-changing
// methods go through the node's serial operation executor; queries read the
// committed ledgers directly.
func Routes(app *node.App) map[string]*rpcserver.RPCFunc {
	h := &handlers{app: app}
	return map[string]*rpcserver.RPCFunc{
		"status":          rpcserver.NewRPCFunc(h.Status, ""),
		"create_proposal": rpcserver.NewRPCFunc(h.CreateProposal, "sender,metadata,actions,start_date,end_date,extra"),
		"execute":         rpcserver.NewRPCFunc(h.Execute, "sender,id"),
		"proposal":        rpcserver.NewRPCFunc(h.Proposal, "id"),
		"proposals":       rpcserver.NewRPCFunc(h.Proposals, ""),
		"tally":           rpcserver.NewRPCFunc(h.Tally, "id"),
		"can_execute":     rpcserver.NewRPCFunc(h.CanExecute, "id"),
		"params":          rpcserver.NewRPCFunc(h.Params, ""),
		"power":           rpcserver.NewRPCFunc(h.Power, "addr,height"),
		"total_power":     rpcserver.NewRPCFunc(h.TotalPower, "height"),

		// devnet only
		"account":        rpcserver.NewRPCFunc(h.Account, "addr"),
		"e3":             rpcserver.NewRPCFunc(h.E3, "e3id"),
		"transfer":       rpcserver.NewRPCFunc(h.Transfer, "sender,to,amount"),
		"approve":        rpcserver.NewRPCFunc(h.Approve, "sender,spender,amount"),
		"submit_ballot":  rpcserver.NewRPCFunc(h.SubmitBallot, "sender,e3id,data"),
		"publish_result": rpcserver.NewRPCFunc(h.PublishResult, "sender,e3id"),
	}
}
