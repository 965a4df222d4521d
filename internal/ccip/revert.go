package ccip

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Decoding methods recorded on simulation results so support logs show
// which layer produced the reason.
const (
	DecodeMethodABIString   = "abi-decoded-revert-string"
	DecodeMethodABIPanic    = "abi-decoded-panic-code"
	DecodeMethodCustomError = "custom-error-selector"
	DecodeMethodRPCMessage  = "rpc-error-message"
	DecodeMethodKeyword     = "keyword-match"
	DecodeMethodRaw         = "raw-error"
)

var (
	errorStringSelector = common.FromHex("0x08c379a0") // Error(string)
	panicSelector       = common.FromHex("0x4e487b71") // Panic(uint256)
)

// Known failure causes matched from decoded reasons and raw messages.
var knownCauseKeywords = []struct {
	keyword string
	cause   string
}{
	{"insufficient fee", "insufficient_fee"},
	{"fee token", "insufficient_fee"},
	{"insufficient allowance", "insufficient_allowance"},
	{"transfer amount exceeds allowance", "insufficient_allowance"},
	{"not approved", "insufficient_allowance"},
	{"insufficient balance", "insufficient_balance"},
	{"transfer amount exceeds balance", "insufficient_balance"},
	{"insufficient funds", "insufficient_balance"},
	{"unsupported destination", "unsupported_destination"},
	{"destination chain", "unsupported_destination"},
	{"unsupported chain", "unsupported_destination"},
}

// rpcDataError is the shape geth's rpc errors expose revert payloads
// through.
type rpcDataError interface {
	Error() string
	ErrorData() interface{}
}

// DecodeRevert extracts a human-readable revert reason from a failed
// call. Layers are tried in order and the winning method is recorded:
// ABI payload on the error, then the rpc message text, then keyword
// matching, then the raw message.
func DecodeRevert(err error) (reason, method, knownCause string) {
	if err == nil {
		return "", "", ""
	}

	if dataErr, ok := err.(rpcDataError); ok {
		if payload := revertPayload(dataErr.ErrorData()); len(payload) > 0 {
			reason, method = decodeRevertData(payload)
			if reason != "" {
				return reason, method, matchKnownCause(reason)
			}
		}
	}

	msg := err.Error()
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		reason = strings.TrimSpace(msg[idx+len("execution reverted:"):])
		if reason != "" {
			return reason, DecodeMethodRPCMessage, matchKnownCause(reason)
		}
	}

	if cause := matchKnownCause(msg); cause != "" {
		return msg, DecodeMethodKeyword, cause
	}

	return msg, DecodeMethodRaw, ""
}

func decodeRevertData(data []byte) (string, string) {
	if len(data) < 4 {
		return "", ""
	}
	selector := data[:4]
	payload := data[4:]

	switch {
	case bytes.Equal(selector, errorStringSelector):
		stringTy, err := abi.NewType("string", "", nil)
		if err != nil {
			return "", ""
		}
		vals, err := abi.Arguments{{Type: stringTy}}.Unpack(payload)
		if err != nil || len(vals) != 1 {
			return "", ""
		}
		reason, ok := vals[0].(string)
		if !ok {
			return "", ""
		}
		return reason, DecodeMethodABIString

	case bytes.Equal(selector, panicSelector):
		uintTy, err := abi.NewType("uint256", "", nil)
		if err != nil {
			return "", ""
		}
		vals, err := abi.Arguments{{Type: uintTy}}.Unpack(payload)
		if err != nil || len(vals) != 1 {
			return "", ""
		}
		code, ok := vals[0].(*big.Int)
		if !ok {
			return "", ""
		}
		return fmt.Sprintf("panic 0x%02x", code), DecodeMethodABIPanic

	default:
		return fmt.Sprintf("custom error 0x%s", common.Bytes2Hex(selector)), DecodeMethodCustomError
	}
}

func revertPayload(data interface{}) []byte {
	switch v := data.(type) {
	case string:
		return common.FromHex(v)
	case []byte:
		return v
	default:
		return nil
	}
}

func matchKnownCause(reason string) string {
	norm := strings.ToLower(reason)
	for _, entry := range knownCauseKeywords {
		if strings.Contains(norm, entry.keyword) {
			return entry.cause
		}
	}
	return ""
}
