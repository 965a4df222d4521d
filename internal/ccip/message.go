package ccip

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

// extraArgsV1Tag is the 4-byte type tag the router expects ahead of the
// ABI-encoded gas limit in extraArgs.
var extraArgsV1Tag = common.FromHex("0x97a657c9")

// TokenAmount is one token transfer leg of a cross-chain message.
// Field names must match the router tuple components.
type TokenAmount struct {
	Token  common.Address
	Amount *big.Int
}

// Message mirrors the router's EVM2AnyMessage tuple. FeeToken is the
// zero address when the fee is paid in the native coin.
type Message struct {
	Receiver     []byte
	Data         []byte
	TokenAmounts []TokenAmount
	FeeToken     common.Address
	ExtraArgs    []byte
}

// FeeTokenChoice is a closed choice between the native coin and a
// configured fee token symbol. The zero value means native.
type FeeTokenChoice struct {
	symbol string
}

func FeeTokenNative() FeeTokenChoice { return FeeTokenChoice{} }

func FeeTokenSymbol(symbol string) FeeTokenChoice {
	return FeeTokenChoice{symbol: strings.ToUpper(strings.TrimSpace(symbol))}
}

func (c FeeTokenChoice) IsNative() bool { return c.symbol == "" }

func (c FeeTokenChoice) Symbol() string { return c.symbol }

type MessageInput struct {
	Source          registry.NetworkConfig
	Destination     registry.NetworkConfig
	Recipient       string
	TokenAddress    string
	AmountBaseUnits string
	FeeToken        FeeTokenChoice
}

// BuildMessage assembles the wire message deterministically from the
// payment inputs. Unknown fee token symbols degrade to the native coin
// with a warning instead of failing the whole attempt.
func BuildMessage(in MessageInput) (Message, []string, error) {
	receiver, err := encodeReceiver(in.Destination, in.Recipient)
	if err != nil {
		return Message{}, nil, err
	}

	if !common.IsHexAddress(in.TokenAddress) {
		return Message{}, nil, clierr.New(clierr.CodeUsage, "payment token address is not a valid EVM address")
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(in.AmountBaseUnits), 10)
	if !ok || amount.Sign() <= 0 {
		return Message{}, nil, clierr.New(clierr.CodeUsage, "payment amount must be a positive integer in base units")
	}

	warnings := []string{}
	feeToken := common.Address{}
	if !in.FeeToken.IsNative() {
		addr, found := in.Source.FeeTokenAddress(in.FeeToken.Symbol())
		if found && common.IsHexAddress(addr) {
			feeToken = common.HexToAddress(addr)
		} else {
			warnings = append(warnings, fmt.Sprintf("fee token %s is not configured on %s; paying fee in %s", in.FeeToken.Symbol(), in.Source.Name, in.Source.NativeSymbol))
		}
	}

	extraArgs, err := EncodeExtraArgs(in.Destination.DestinationGasLimit())
	if err != nil {
		return Message{}, nil, err
	}

	return Message{
		Receiver:     receiver,
		Data:         []byte{},
		TokenAmounts: []TokenAmount{{Token: common.HexToAddress(in.TokenAddress), Amount: amount}},
		FeeToken:     feeToken,
		ExtraArgs:    extraArgs,
	}, warnings, nil
}

// EncodeExtraArgs produces the tag plus the ABI-encoded destination gas
// limit (4 + 32 bytes).
func EncodeExtraArgs(gasLimit uint64) ([]byte, error) {
	uintTy, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build extraArgs type", err)
	}
	args := abi.Arguments{{Type: uintTy}}
	encoded, err := args.Pack(new(big.Int).SetUint64(gasLimit))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "encode extraArgs gas limit", err)
	}
	return append(append([]byte{}, extraArgsV1Tag...), encoded...), nil
}

// encodeReceiver renders the recipient as the 32-byte receiver field.
// EVM recipients are left-padded addresses; non-EVM recipients must
// already be 32 bytes of hex.
func encodeReceiver(dest registry.NetworkConfig, recipient string) ([]byte, error) {
	raw := strings.TrimSpace(recipient)
	if raw == "" {
		return nil, clierr.New(clierr.CodeUsage, "recipient is required")
	}
	if dest.IsEVM() {
		if !common.IsHexAddress(raw) {
			return nil, clierr.New(clierr.CodeUsage, "recipient is not a valid EVM address")
		}
		return common.LeftPadBytes(common.HexToAddress(raw).Bytes(), 32), nil
	}
	buf := common.FromHex(raw)
	if len(buf) != 32 {
		return nil, clierr.New(clierr.CodeUsage, fmt.Sprintf("recipient on %s must be 32 bytes of hex", dest.Name))
	}
	return buf, nil
}
