package execution

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/execution/signer"
	"github.com/rs/zerolog"
)

type SendOptions struct {
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
}

func DefaultSendOptions() SendOptions {
	return SendOptions{
		PollInterval:   2 * time.Second,
		ReceiptTimeout: 2 * time.Minute,
	}
}

type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log}
}

// Send signs and broadcasts the attempt's plan, then waits a bounded
// time for the receipt. A timeout leaves the attempt unconfirmed; the
// transaction may still land, so nothing is ever rebroadcast.
func (s *Sender) Send(ctx context.Context, client *ethclient.Client, txSigner signer.Signer, store *Store, attempt *Attempt, opts SendOptions) error {
	if txSigner == nil {
		return clierr.New(clierr.CodeSigner, "missing signer")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	if chainID.Int64() != attempt.Plan.EVMChainID {
		return s.fail(store, attempt, StatusError, clierr.New(clierr.CodeUsage,
			fmt.Sprintf("connected chain %d does not match the planned chain %d", chainID.Int64(), attempt.Plan.EVMChainID)))
	}

	target := common.HexToAddress(attempt.Plan.To)
	data, err := decodeHex(attempt.Plan.Data)
	if err != nil {
		return s.fail(store, attempt, StatusError, clierr.Wrap(clierr.CodeInternal, "decode plan calldata", err))
	}
	value, ok := new(big.Int).SetString(attempt.Plan.Value, 10)
	if !ok {
		return s.fail(store, attempt, StatusError, clierr.New(clierr.CodeInternal, "plan value is not an integer"))
	}

	tipCap := suggestTipCap(ctx, client)
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "fetch latest header", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := feeCapFor(baseFee, tipCap)

	nonce, err := client.PendingNonceAt(ctx, txSigner.Address())
	if err != nil {
		return clierr.Wrap(clierr.CodeUnavailable, "fetch nonce", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       attempt.Plan.GasLimit,
		To:        &target,
		Value:     value,
		Data:      data,
	})
	signed, err := txSigner.SignTx(chainID, tx)
	if err != nil {
		return s.fail(store, attempt, StatusError, clierr.Wrap(clierr.CodeSigner, "sign transaction", err))
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return s.fail(store, attempt, StatusError, clierr.Wrap(clierr.CodeSendFailed, "broadcast transaction", err))
	}

	attempt.TxHash = signed.Hash().Hex()
	attempt.SetStatus(StatusSent)
	s.save(store, attempt)
	s.log.Info().
		Str("attempt", attempt.AttemptID).
		Str("tx", attempt.TxHash).
		Msg("transaction broadcast")

	waitCtx, cancel := context.WithTimeout(ctx, opts.ReceiptTimeout)
	defer cancel()
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(waitCtx, signed.Hash())
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				attempt.SetStatus(StatusConfirmed)
				s.save(store, attempt)
				return nil
			}
			return s.fail(store, attempt, StatusError, clierr.New(clierr.CodeSendFailed, "transaction reverted on-chain"))
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			// Transient polling failures are retried until the deadline.
			s.log.Debug().Err(err).Msg("receipt poll failed")
		}
		select {
		case <-waitCtx.Done():
			attempt.SetStatus(StatusUnconfirmed)
			s.save(store, attempt)
			return clierr.Wrap(clierr.CodeUnconfirmed,
				"transaction "+attempt.TxHash+" was broadcast but not confirmed in time; check the explorer before retrying", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Sender) fail(store *Store, attempt *Attempt, status AttemptStatus, err error) error {
	attempt.Fail(status, err.Error())
	s.save(store, attempt)
	return err
}

func (s *Sender) save(store *Store, attempt *Attempt) {
	if store == nil {
		return
	}
	if err := store.Save(*attempt); err != nil {
		s.log.Warn().Err(err).Str("attempt", attempt.AttemptID).Msg("attempt store write failed")
	}
}

func suggestTipCap(ctx context.Context, client *ethclient.Client) *big.Int {
	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return big.NewInt(2_000_000_000) // 2 gwei fallback
	}
	return tipCap
}

func feeCapFor(baseFee, tipCap *big.Int) *big.Int {
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	return feeCap.Add(feeCap, tipCap)
}

func decodeHex(v string) ([]byte, error) {
	clean := strings.TrimSpace(v)
	clean = strings.TrimPrefix(clean, "0x")
	if clean == "" {
		return []byte{}, nil
	}
	if len(clean)%2 != 0 {
		clean = "0" + clean
	}
	buf, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return buf, nil
}
