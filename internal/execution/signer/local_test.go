package signer

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestOverrideKeyDerivesAddress(t *testing.T) {
	s, err := NewLocalSignerFromInputs(KeySourceAuto, testKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Fatal("expected derived address")
	}
}

func TestKeyFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.hex")
	if err := os.WriteFile(path, []byte("0x"+testKeyHex+"\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv(EnvPrivateKeyFile, path)

	s, err := NewLocalSignerFromEnv(KeySourceFile)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if s.Address() == (common.Address{}) {
		t.Fatal("expected derived address")
	}
}

func TestSignTxProducesSignedTransaction(t *testing.T) {
	s, err := NewLocalSignerFromInputs(KeySourceAuto, "0x"+testKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(11155111),
		Nonce:     0,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(0),
	})
	signed, err := s.SignTx(big.NewInt(11155111), tx)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), signed)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != s.Address() {
		t.Fatalf("recovered sender %s does not match signer %s", sender.Hex(), s.Address().Hex())
	}
}

func TestNewLocalSignerRejectsUnknownSource(t *testing.T) {
	_, err := NewLocalSignerFromEnv("hardware")
	if err == nil || !strings.Contains(err.Error(), "unsupported key source") {
		t.Fatalf("expected unsupported source error, got %v", err)
	}
}
