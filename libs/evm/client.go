package evm

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	tmlog "github.com/tendermint/tendermint/libs/log"

	cfg "github.com/gnosisguild/crisp-go/cmd/config"
	"github.com/gnosisguild/crisp-go/types"
	"github.com/gnosisguild/crisp-go/types/xerrors"
)

const (
	callTimeout = 15 * time.Second
	execTimeout = 3 * time.Minute
)

// Client wraps one JSON-RPC connection and the account the node signs
// with. Sends are serialized so the account nonce stays in order.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address

	logger tmlog.Logger
	mtx    sync.Mutex
}

func Dial(evmCfg *cfg.EVMConfig, logger tmlog.Logger) (*Client, xerrors.XError) {
	eth, err := ethclient.Dial(evmCfg.Endpoint)
	if err != nil {
		return nil, xerrors.From(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, xerrors.From(err)
	}

	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(evmCfg.PrivKey, "0x"))
	if err != nil {
		eth.Close()
		return nil, xerrors.From(err)
	}

	cli := &Client{
		eth:     eth,
		chainID: chainID,
		key:     key,
		from:    ethcrypto.PubkeyToAddress(key.PublicKey),
		logger:  logger.With("module", "crisp_EVMClient"),
	}

	cli.logger.Info("connected to evm endpoint",
		"endpoint", evmCfg.Endpoint, "chain_id", chainID.String(), "account", cli.from.Hex())
	return cli, nil
}

func (cli *Client) Close() {
	cli.eth.Close()
}

// From is the account the node acts as on chain.
func (cli *Client) From() types.Address {
	return cli.from.Bytes()
}

// HeadBlock returns the number of the latest mined block.
func (cli *Client) HeadBlock() (uint64, xerrors.XError) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	n, err := cli.eth.BlockNumber(ctx)
	if err != nil {
		return 0, xerrors.From(err)
	}
	return n, nil
}

func (cli *Client) call(to common.Address, data []byte) ([]byte, xerrors.XError) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	ret, err := cli.eth.CallContract(ctx, ethereum.CallMsg{
		From: cli.from,
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, xerrors.From(err)
	}
	return ret, nil
}

// send signs and submits one transaction and waits for it to be mined.
func (cli *Client) send(to common.Address, value *big.Int, data []byte) (*ethtypes.Receipt, xerrors.XError) {
	cli.mtx.Lock()
	defer cli.mtx.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	nonce, err := cli.eth.PendingNonceAt(ctx, cli.from)
	if err != nil {
		return nil, xerrors.From(err)
	}
	gasPrice, err := cli.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, xerrors.From(err)
	}
	gas, err := cli.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  cli.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, xerrors.From(err)
	}
	gas = gas + gas/5

	tx, err := ethtypes.SignTx(
		ethtypes.NewTx(&ethtypes.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    value,
			Gas:      gas,
			GasPrice: gasPrice,
			Data:     data,
		}),
		ethtypes.LatestSignerForChainID(cli.chainID),
		cli.key,
	)
	if err != nil {
		return nil, xerrors.From(err)
	}

	if err := cli.eth.SendTransaction(ctx, tx); err != nil {
		return nil, xerrors.From(err)
	}

	receipt, err := bind.WaitMined(ctx, cli.eth, tx)
	if err != nil {
		return nil, xerrors.From(err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, xerrors.NewOrdinary("evm: transaction reverted - txhash: " + tx.Hash().Hex())
	}

	cli.logger.Debug("transaction mined", "txhash", tx.Hash().Hex(), "gas_used", receipt.GasUsed)
	return receipt, nil
}
