// Package qr renders a transaction plan as an EIP-681 payment request
// so a mobile wallet can scan and execute it.
package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 512

// Build renders the plan as a scannable payment request. The primary
// URI carries the full calldata; the fallback drops it for wallets
// that only parse the short transfer form.
func Build(plan model.TransactionPlan, size int, withPNG bool) (model.PaymentRequest, error) {
	if plan.EVMChainID == 0 {
		return model.PaymentRequest{}, clierr.New(clierr.CodeUsage, "payment requests are only rendered for EVM plans")
	}
	if size <= 0 {
		size = defaultSize
	}

	uri := primaryURI(plan)
	req := model.PaymentRequest{
		URI:         uri,
		FallbackURI: fallbackURI(plan),
	}
	if withPNG {
		png, err := qrcode.Encode(uri, qrcode.High, size)
		if err != nil {
			return model.PaymentRequest{}, clierr.Wrap(clierr.CodeInternal, "encode payment QR", err)
		}
		req.PNGBase64 = base64.StdEncoding.EncodeToString(png)
	}
	return req, nil
}

func primaryURI(plan model.TransactionPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ethereum:%s@%d", plan.To, plan.EVMChainID)
	params := make([]string, 0, 2)
	if plan.Value != "" && plan.Value != "0" {
		params = append(params, "value="+plan.Value)
	}
	if data := strings.TrimPrefix(plan.Data, "0x"); data != "" {
		params = append(params, "data=0x"+data)
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String()
}

// fallbackURI is the plain token transfer form: the token contract as
// target with the recipient and amount as function parameters.
func fallbackURI(plan model.TransactionPlan) string {
	if plan.TokenAddress == "" || plan.Recipient == "" {
		return fmt.Sprintf("ethereum:%s@%d", plan.To, plan.EVMChainID)
	}
	return fmt.Sprintf("ethereum:%s@%d/transfer?address=%s&uint256=%s",
		plan.TokenAddress, plan.EVMChainID, plan.Recipient, plan.AmountBaseUnits)
}
