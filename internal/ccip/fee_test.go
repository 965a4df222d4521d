package ccip

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/logging"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

type fakeProvider struct {
	chainKey string
	addr     common.Address
	balance  *big.Int
	call     func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

func (f *fakeProvider) ActiveChainKey(ctx context.Context) (string, error) {
	return f.chainKey, nil
}

func (f *fakeProvider) Address() common.Address { return f.addr }

func (f *fakeProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return f.call(ctx, msg)
}

func (f *fakeProvider) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	if f.balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(43113), nil
}

func packFeeResult(t *testing.T, fee *big.Int) []byte {
	t.Helper()
	out, err := routerABI.Methods["getFee"].Outputs.Pack(fee)
	if err != nil {
		t.Fatalf("pack getFee result: %v", err)
	}
	return out
}

func testMessage(t *testing.T, source, dest registry.NetworkConfig) Message {
	t.Helper()
	msg, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1000000",
		FeeToken:        FeeTokenNative(),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestBufferFeeTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		raw  int64
		want int64
	}{
		{100, 120},
		{104, 124}, // 124.8 truncates
		{1, 1},     // 1.2 truncates
		{0, 0},
	}
	for _, tc := range cases {
		got := BufferFee(big.NewInt(tc.raw))
		if got.Int64() != tc.want {
			t.Fatalf("BufferFee(%d) = %s, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestEstimateQuotesAndBuffers(t *testing.T) {
	source, dest := testNetworks(t)
	msg := testMessage(t, source, dest)

	provider := &fakeProvider{
		call: func(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
			if call.To == nil || *call.To != common.HexToAddress(source.Router) {
				t.Fatalf("quote sent to %v, want router %s", call.To, source.Router)
			}
			return packFeeResult(t, big.NewInt(1_000_000_000)), nil
		},
	}
	est := NewEstimator(provider, logging.Nop())

	fee, err := est.Estimate(context.Background(), source, dest, msg)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if fee.UsedFallback {
		t.Fatal("quote succeeded, fallback must not be used")
	}
	if fee.RawFee != "1000000000" {
		t.Fatalf("raw fee = %s", fee.RawFee)
	}
	if fee.BufferedFee != "1200000000" {
		t.Fatalf("buffered fee = %s", fee.BufferedFee)
	}
	if fee.FeeToken != "native" {
		t.Fatalf("fee token = %s", fee.FeeToken)
	}
	if fee.DestinationKey != dest.Key {
		t.Fatalf("destination = %s", fee.DestinationKey)
	}
}

func TestEstimateFallbackOnQuoteFailure(t *testing.T) {
	source, dest := testNetworks(t)
	msg := testMessage(t, source, dest)

	provider := &fakeProvider{
		call: func(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
			return nil, errors.New("rpc unreachable")
		},
	}
	est := NewEstimator(provider, logging.Nop())

	fee, err := est.Estimate(context.Background(), source, dest, msg)
	if err != nil {
		t.Fatalf("fallback must not surface an error, got %v", err)
	}
	if !fee.UsedFallback {
		t.Fatal("expected UsedFallback")
	}
	if fee.BufferedFee != "1000000000000000" {
		t.Fatalf("same-family fallback = %s", fee.BufferedFee)
	}
	if fee.FeeToken != "native" {
		t.Fatalf("fallback fee token = %s", fee.FeeToken)
	}
	if fee.FallbackReason == "" {
		t.Fatal("expected a fallback reason")
	}
}

func TestEstimateFallbackCrossFamily(t *testing.T) {
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	source, _ := reg.Get("11155111")
	dest, _ := reg.Get("devnet")
	msg, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1000000",
		FeeToken:        FeeTokenNative(),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	provider := &fakeProvider{
		call: func(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
			return nil, errors.New("rpc unreachable")
		},
	}
	fee, err := NewEstimator(provider, logging.Nop()).Estimate(context.Background(), source, dest, msg)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if fee.BufferedFee != "3000000000000000" {
		t.Fatalf("cross-family fallback = %s", fee.BufferedFee)
	}
}

func TestEstimateFallbackKeepsTokenFeeLabel(t *testing.T) {
	source, dest := testNetworks(t)
	msg, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1000000",
		FeeToken:        FeeTokenSymbol("LINK"),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	provider := &fakeProvider{
		call: func(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
			return nil, errors.New("rpc unreachable")
		},
	}
	fee, err := NewEstimator(provider, logging.Nop()).Estimate(context.Background(), source, dest, msg)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !fee.UsedFallback {
		t.Fatal("expected UsedFallback")
	}
	// The estimate must keep describing the plan's fee token even when
	// the fallback figure itself is native wei.
	if fee.FeeToken != "LINK" {
		t.Fatalf("fallback fee token = %s", fee.FeeToken)
	}
	if !strings.Contains(fee.FallbackReason, "native coin") {
		t.Fatalf("fallback reason = %s", fee.FallbackReason)
	}
}

func TestFeeTokenLabelResolvesConfiguredSymbol(t *testing.T) {
	source, _ := testNetworks(t)
	label := feeTokenLabel(source, common.HexToAddress(source.FeeTokens["LINK"]))
	if label != "LINK" {
		t.Fatalf("label = %s", label)
	}
	unknown := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	if got := feeTokenLabel(source, unknown); got != unknown.Hex() {
		t.Fatalf("unknown token label = %s", got)
	}
}
