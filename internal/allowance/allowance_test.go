package allowance

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/logging"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

type fakeProvider struct {
	chainKey string
	addr     common.Address
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
	return big.NewInt(0), nil
}

func (f *fakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(43113), nil
}

func testManager(t *testing.T, provider *fakeProvider) *Manager {
	t.Helper()
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return NewManager(reg, provider, logging.Nop())
}

func packAllowance(t *testing.T, amount *big.Int) []byte {
	t.Helper()
	out, err := erc20ABI.Methods["allowance"].Outputs.Pack(amount)
	if err != nil {
		t.Fatalf("pack allowance: %v", err)
	}
	return out
}

func TestCheckComparesLiveAllowance(t *testing.T) {
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	var gotCall ethereum.CallMsg
	provider := &fakeProvider{
		call: func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
			gotCall = msg
			return packAllowance(t, big.NewInt(500)), nil
		},
	}
	m := testManager(t, provider)

	check, err := m.Check(context.Background(), "43113", "USDC", owner, big.NewInt(400))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !check.Approved {
		t.Fatal("500 covers 400, expected approved")
	}
	if check.Current != "500" || check.Required != "400" {
		t.Fatalf("current %s required %s", check.Current, check.Required)
	}

	source, _ := m.registry.Get("43113")
	if gotCall.To == nil || *gotCall.To != common.HexToAddress(source.Tokens["USDC"].Address) {
		t.Fatalf("allowance queried on %v", gotCall.To)
	}
	if check.Spender != common.HexToAddress(source.Router).Hex() {
		t.Fatalf("spender = %s", check.Spender)
	}

	check, err = m.Check(context.Background(), "43113", "USDC", owner, big.NewInt(501))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.Approved {
		t.Fatal("500 does not cover 501")
	}
}

func TestBuildApprovePlanEncodesExactAmount(t *testing.T) {
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	provider := &fakeProvider{chainKey: "43113", addr: owner}
	m := testManager(t, provider)

	plan, err := m.BuildApprovePlan(context.Background(), ApproveInput{
		SourceKey:   "43113",
		TokenSymbol: "USDC",
		Owner:       owner,
		Amount:      big.NewInt(750),
	})
	if err != nil {
		t.Fatalf("build approve: %v", err)
	}
	if plan.Kind != model.PlanKindApproval {
		t.Fatalf("plan kind = %s", plan.Kind)
	}
	if plan.Value != "0" {
		t.Fatalf("approve carries no value, got %s", plan.Value)
	}

	source, _ := m.registry.Get("43113")
	if plan.To != common.HexToAddress(source.Tokens["USDC"].Address).Hex() {
		t.Fatalf("approve targets %s", plan.To)
	}

	data := common.FromHex(plan.Data)
	method := erc20ABI.Methods["approve"]
	if !bytes.Equal(data[:4], method.ID) {
		t.Fatalf("calldata selector = %x", data[:4])
	}
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack approve: %v", err)
	}
	if spender := vals[0].(common.Address); spender != common.HexToAddress(source.Router) {
		t.Fatalf("encoded spender = %s", spender.Hex())
	}
	if amount := vals[1].(*big.Int); amount.String() != "750" {
		t.Fatalf("encoded amount = %s", amount)
	}
}

func TestBuildApprovePlanRejectsForeignSigner(t *testing.T) {
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	provider := &fakeProvider{
		chainKey: "43113",
		addr:     common.HexToAddress("0x5555555555555555555555555555555555555555"),
	}
	m := testManager(t, provider)

	_, err := m.BuildApprovePlan(context.Background(), ApproveInput{
		SourceKey:   "43113",
		TokenSymbol: "USDC",
		Owner:       owner,
		Amount:      big.NewInt(1),
	})
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeSigner {
		t.Fatalf("expected signer mismatch, got %v", err)
	}
}

func TestBuildApprovePlanRejectsWrongNetwork(t *testing.T) {
	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	provider := &fakeProvider{chainKey: "11155111", addr: owner}
	m := testManager(t, provider)

	_, err := m.BuildApprovePlan(context.Background(), ApproveInput{
		SourceKey:   "43113",
		TokenSymbol: "USDC",
		Owner:       owner,
		Amount:      big.NewInt(1),
	})
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeUsage {
		t.Fatalf("expected usage error for wrong network, got %v", err)
	}
}
