package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

// fakeCaller returns canned call results and records the last target and
// calldata.
type fakeCaller struct {
	out      []byte
	err      error
	lastTo   string
	lastData []byte
}

func (f *fakeCaller) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	f.lastTo = to
	f.lastData = data
	return f.out, f.err
}

// word returns n as a 32-byte big-endian ABI word.
func word(n int64) []byte {
	return big.NewInt(n).FillBytes(make([]byte, 32))
}

func selector(t *testing.T, hexSig string) []byte {
	t.Helper()
	b, err := hex.DecodeString(hexSig)
	if err != nil {
		t.Fatalf("decode selector: %v", err)
	}
	return b
}

func TestERC20EncodeApprove(t *testing.T) {
	token := NewERC20(&fakeCaller{})

	data, err := token.EncodeApprove("0x00000000000000000000000000000000000000cc", big.NewInt(1000))
	if err != nil {
		t.Fatalf("EncodeApprove: %v", err)
	}

	// approve(address,uint256) selector + 2 words.
	if len(data) != 4+32+32 {
		t.Fatalf("calldata length = %d, want 68", len(data))
	}
	if !bytes.Equal(data[:4], selector(t, "095ea7b3")) {
		t.Errorf("selector = %x, want 095ea7b3", data[:4])
	}
	if !bytes.Equal(data[36:], word(1000)) {
		t.Errorf("amount word = %x, want 1000", data[36:])
	}
}

func TestERC20Allowance(t *testing.T) {
	caller := &fakeCaller{out: word(123456)}
	token := NewERC20(caller)

	got, err := token.Allowance(context.Background(),
		"0x00000000000000000000000000000000000000aa",
		"0x00000000000000000000000000000000000000ee",
		"0x00000000000000000000000000000000000000cc",
	)
	if err != nil {
		t.Fatalf("Allowance: %v", err)
	}
	if got.Cmp(big.NewInt(123456)) != 0 {
		t.Errorf("allowance = %s, want 123456", got)
	}
	if caller.lastTo != "0x00000000000000000000000000000000000000aa" {
		t.Errorf("call target = %s, want the token contract", caller.lastTo)
	}
	// allowance(address,address) selector.
	if !bytes.Equal(caller.lastData[:4], selector(t, "dd62ed3e")) {
		t.Errorf("selector = %x, want dd62ed3e", caller.lastData[:4])
	}
}

func TestERC20AllowanceCallError(t *testing.T) {
	token := NewERC20(&fakeCaller{err: errors.New("rpc down")})
	_, err := token.Allowance(context.Background(), "0xaa", "0xee", "0xcc")
	if err == nil {
		t.Fatal("expected the call error to propagate")
	}
}

func TestSaleReads(t *testing.T) {
	const saleAddr = "0x00000000000000000000000000000000000000cc"

	caller := &fakeCaller{out: word(1)}
	s := NewSale(caller, saleAddr)

	closed, err := s.IsClosed(context.Background())
	if err != nil {
		t.Fatalf("IsClosed: %v", err)
	}
	if !closed {
		t.Error("word(1) must decode as closed")
	}
	if caller.lastTo != saleAddr {
		t.Errorf("call target = %s, want %s", caller.lastTo, saleAddr)
	}

	caller.out = word(1_000_000)
	ppm, err := s.PPM(context.Background())
	if err != nil {
		t.Fatalf("PPM: %v", err)
	}
	if ppm.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("ppm = %s, want 1000000", ppm)
	}

	caller.out = word(500_000)
	rate, err := s.ExchangeRate(context.Background())
	if err != nil {
		t.Fatalf("ExchangeRate: %v", err)
	}
	if rate.Cmp(big.NewInt(500_000)) != 0 {
		t.Errorf("rate = %s, want 500000", rate)
	}
}

func TestControllerEncodeContribute(t *testing.T) {
	c := NewController("0x00000000000000000000000000000000000000dd")

	data, err := c.EncodeContribute(big.NewInt(777))
	if err != nil {
		t.Fatalf("EncodeContribute: %v", err)
	}
	if len(data) != 4+32 {
		t.Fatalf("calldata length = %d, want 36", len(data))
	}
	if !bytes.Equal(data[4:], word(777)) {
		t.Errorf("amount word = %x, want 777", data[4:])
	}
	if c.Address() != "0x00000000000000000000000000000000000000dd" {
		t.Errorf("address = %s", c.Address())
	}
}
