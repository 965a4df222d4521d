package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Command   string      `json:"command"`
	Cache     CacheStatus `json:"cache"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

// Plan kinds emitted by payment resolution.
const (
	PlanKindSameChainTransfer = "same_chain_transfer"
	PlanKindCrossChainSend    = "cross_chain_send"
	PlanKindApproval          = "erc20_approval"
)

// TransactionPlan is a fully assembled, not yet signed transaction request.
// All integer amounts are decimal base-unit strings.
type TransactionPlan struct {
	Kind            string `json:"kind"`
	ChainKey        string `json:"chain_key"`
	EVMChainID      int64  `json:"evm_chain_id"`
	To              string `json:"to"`
	Data            string `json:"data"`
	Value           string `json:"value"`
	GasLimit        uint64 `json:"gas_limit"`
	TokenAddress    string `json:"token_address,omitempty"`
	AmountBaseUnits string `json:"amount_base_units"`
	Recipient       string `json:"recipient"`
}

type FeeEstimate struct {
	DestinationKey  string `json:"destination_key"`
	FeeToken        string `json:"fee_token"`
	RawFee          string `json:"raw_fee"`
	BufferedFee     string `json:"buffered_fee"`
	UsedFallback    bool   `json:"used_fallback"`
	FallbackReason  string `json:"fallback_reason,omitempty"`
	EstimatedAtUnix int64  `json:"estimated_at_unix"`
}

type SimulationResult struct {
	OK           bool   `json:"ok"`
	MessageID    string `json:"message_id,omitempty"`
	RevertReason string `json:"revert_reason,omitempty"`
	DecodedBy    string `json:"decoded_by,omitempty"`
	KnownCause   string `json:"known_cause,omitempty"`
}

type AllowanceCheck struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Current   string `json:"current"`
	Required  string `json:"required"`
	Approved  bool   `json:"approved"`
	CheckedAt string `json:"checked_at"`
}

type NetworkSummary struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	Family         string `json:"family"`
	EVMChainID     int64  `json:"evm_chain_id,omitempty"`
	ChainSelector  uint64 `json:"chain_selector,omitempty"`
	Router         string `json:"router,omitempty"`
	NativeSymbol   string `json:"native_symbol"`
	NativeDecimals int    `json:"native_decimals"`
}

type RouteSummary struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type PaymentRequest struct {
	URI         string `json:"uri"`
	FallbackURI string `json:"fallback_uri"`
	PNGBase64   string `json:"png_base64,omitempty"`
}
