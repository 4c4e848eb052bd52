package evm

// The node does not carry contract build artifacts; each adapter binds the
// minimal slice of its contract's interface.

// ERC20Votes: balances checkpointed per block.
const votesTokenABI = `[
	{"type":"function","name":"getPastVotes","stateMutability":"view",
		"inputs":[{"name":"account","type":"address"},{"name":"blockNumber","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getPastTotalSupply","stateMutability":"view",
		"inputs":[{"name":"blockNumber","type":"uint256"}],
		"outputs":[{"name":"","type":"uint256"}]}
]`

// Plain ERC20, used for the computation fee.
const feeTokenABI = `[
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable",
		"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
		"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
		"inputs":[{"name":"account","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
		"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
		"outputs":[{"name":"","type":"uint256"}]}
]`

// The enclave coordinator: quotes, accepts and answers computation
// requests. The fee is pulled through the fee token, not attached as value.
const enclaveABI = `[
	{"type":"function","name":"quote","stateMutability":"view",
		"inputs":[
			{"name":"program","type":"address"},
			{"name":"threshold","type":"uint32[2]"},
			{"name":"startWindow","type":"uint256[2]"},
			{"name":"duration","type":"uint256"},
			{"name":"programParams","type":"bytes"},
			{"name":"computeParams","type":"bytes"}],
		"outputs":[{"name":"fee","type":"uint256"}]},
	{"type":"function","name":"request","stateMutability":"nonpayable",
		"inputs":[
			{"name":"program","type":"address"},
			{"name":"threshold","type":"uint32[2]"},
			{"name":"startWindow","type":"uint256[2]"},
			{"name":"duration","type":"uint256"},
			{"name":"programParams","type":"bytes"},
			{"name":"computeParams","type":"bytes"}],
		"outputs":[{"name":"e3Id","type":"uint256"}]},
	{"type":"function","name":"getResult","stateMutability":"view",
		"inputs":[{"name":"e3Id","type":"uint256"}],
		"outputs":[{"name":"output","type":"bytes"},{"name":"submissions","type":"uint256"}]},
	{"type":"event","name":"E3Requested","anonymous":false,
		"inputs":[
			{"name":"e3Id","type":"uint256","indexed":true},
			{"name":"program","type":"address","indexed":true}]}
]`

// The execution target: runs an approved action batch.
const executorABI = `[
	{"type":"function","name":"execute","stateMutability":"nonpayable",
		"inputs":[
			{"name":"proposalId","type":"bytes32"},
			{"name":"actions","type":"tuple[]","components":[
				{"name":"to","type":"address"},
				{"name":"value","type":"uint256"},
				{"name":"data","type":"bytes"}]},
			{"name":"allowFailureMap","type":"uint256"}],
		"outputs":[{"name":"failureMap","type":"uint256"}]},
	{"type":"event","name":"BatchExecuted","anonymous":false,
		"inputs":[
			{"name":"proposalId","type":"bytes32","indexed":true},
			{"name":"failureMap","type":"uint256","indexed":false}]}
]`
