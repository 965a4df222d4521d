package execution

import (
	"math/big"
	"testing"
)

func TestFeeCapDoublesBaseFeePlusTip(t *testing.T) {
	baseFee := big.NewInt(30_000_000_000)
	tipCap := big.NewInt(2_000_000_000)
	feeCap := feeCapFor(baseFee, tipCap)
	if feeCap.String() != "62000000000" {
		t.Fatalf("fee cap = %s", feeCap)
	}
	// Inputs must not be mutated.
	if baseFee.String() != "30000000000" || tipCap.String() != "2000000000" {
		t.Fatalf("inputs mutated: base %s tip %s", baseFee, tipCap)
	}
}

func TestDecodeHexVariants(t *testing.T) {
	buf, err := decodeHex("0x0a0b")
	if err != nil || len(buf) != 2 || buf[0] != 0x0a {
		t.Fatalf("decode 0x0a0b: %x %v", buf, err)
	}
	buf, err = decodeHex("")
	if err != nil || len(buf) != 0 {
		t.Fatalf("decode empty: %x %v", buf, err)
	}
	buf, err = decodeHex("0xf")
	if err != nil || len(buf) != 1 || buf[0] != 0x0f {
		t.Fatalf("decode odd length: %x %v", buf, err)
	}
	if _, err := decodeHex("0xzz"); err == nil {
		t.Fatal("invalid hex must fail")
	}
}
