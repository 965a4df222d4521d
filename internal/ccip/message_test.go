package ccip

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

func testNetworks(t *testing.T) (registry.NetworkConfig, registry.NetworkConfig) {
	t.Helper()
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	source, err := reg.Get("43113")
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	dest, err := reg.Get("11155111")
	if err != nil {
		t.Fatalf("get destination: %v", err)
	}
	return source, dest
}

func TestBuildMessageReceiverIsLeftPadded(t *testing.T) {
	source, dest := testNetworks(t)
	recipient := "0x1111111111111111111111111111111111111111"
	msg, warnings, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       recipient,
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1000000",
		FeeToken:        FeeTokenNative(),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(msg.Receiver) != 32 {
		t.Fatalf("receiver must be 32 bytes, got %d", len(msg.Receiver))
	}
	want := common.LeftPadBytes(common.HexToAddress(recipient).Bytes(), 32)
	if !bytes.Equal(msg.Receiver, want) {
		t.Fatalf("receiver not left-padded: %x", msg.Receiver)
	}
}

func TestBuildMessageExtraArgsTagAndGasLimit(t *testing.T) {
	source, dest := testNetworks(t)
	msg, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1",
		FeeToken:        FeeTokenNative(),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if len(msg.ExtraArgs) != 36 {
		t.Fatalf("extraArgs must be tag + uint256, got %d bytes", len(msg.ExtraArgs))
	}
	if !bytes.Equal(msg.ExtraArgs[:4], common.FromHex("0x97a657c9")) {
		t.Fatalf("unexpected extraArgs tag: %x", msg.ExtraArgs[:4])
	}
	gas := new(big.Int).SetBytes(msg.ExtraArgs[4:])
	if gas.Uint64() != dest.DestinationGasLimit() {
		t.Fatalf("expected gas limit %d, got %s", dest.DestinationGasLimit(), gas)
	}
}

func TestBuildMessagePerNetworkGasOverride(t *testing.T) {
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	source, _ := reg.Get("11155111")
	arb, _ := reg.Get("421614")
	msg, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     arb,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1",
		FeeToken:        FeeTokenNative(),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	gas := new(big.Int).SetBytes(msg.ExtraArgs[4:])
	if gas.Uint64() != 700_000 {
		t.Fatalf("expected per-network gas override 700000, got %s", gas)
	}
}

func TestBuildMessageUnknownFeeTokenFallsBackToNative(t *testing.T) {
	source, dest := testNetworks(t)
	msg, warnings, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1",
		FeeToken:        FeeTokenSymbol("WEIRD"),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if msg.FeeToken != (common.Address{}) {
		t.Fatalf("expected native fee token, got %s", msg.FeeToken.Hex())
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "WEIRD") {
		t.Fatalf("expected fee token warning, got %v", warnings)
	}
}

func TestBuildMessageConfiguredFeeToken(t *testing.T) {
	source, dest := testNetworks(t)
	msg, warnings, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "1",
		FeeToken:        FeeTokenSymbol("link"),
	})
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if msg.FeeToken != common.HexToAddress(source.FeeTokens["LINK"]) {
		t.Fatalf("expected LINK fee token, got %s", msg.FeeToken.Hex())
	}
}

func TestBuildMessageRejectsZeroAmount(t *testing.T) {
	source, dest := testNetworks(t)
	_, _, err := BuildMessage(MessageInput{
		Source:          source,
		Destination:     dest,
		Recipient:       "0x1111111111111111111111111111111111111111",
		TokenAddress:    source.Tokens["USDC"].Address,
		AmountBaseUnits: "0",
		FeeToken:        FeeTokenNative(),
	})
	if err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
}
