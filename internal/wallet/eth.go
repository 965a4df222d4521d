package wallet

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution/signer"
)

// EVMWallet is a Provider backed by a JSON-RPC endpoint and a local
// signer. The account may be absent for read-only flows (QR rendering,
// fee estimation), in which case Address returns the zero address.
type EVMWallet struct {
	client *ethclient.Client
	signer signer.Signer
}

func Dial(ctx context.Context, rpcURL string, txSigner signer.Signer) (*EVMWallet, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	return &EVMWallet{client: client, signer: txSigner}, nil
}

func NewEVMWallet(client *ethclient.Client, txSigner signer.Signer) *EVMWallet {
	return &EVMWallet{client: client, signer: txSigner}
}

func (w *EVMWallet) Close() {
	if w != nil && w.client != nil {
		w.client.Close()
	}
}

func (w *EVMWallet) Client() *ethclient.Client { return w.client }

func (w *EVMWallet) Signer() signer.Signer { return w.signer }

func (w *EVMWallet) ActiveChainKey(ctx context.Context) (string, error) {
	chainID, err := w.client.ChainID(ctx)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return "", nil
	}
	return strconv.FormatInt(chainID.Int64(), 10), nil
}

func (w *EVMWallet) Address() common.Address {
	if w.signer == nil {
		return common.Address{}
	}
	return w.signer.Address()
}

func (w *EVMWallet) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return w.client.CallContract(ctx, msg, nil)
}

func (w *EVMWallet) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read native balance", err)
	}
	return balance, nil
}

func (w *EVMWallet) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := w.client.ChainID(ctx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	return chainID, nil
}
