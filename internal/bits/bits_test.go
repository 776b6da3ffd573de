package bits

import "testing"

func TestPack16(t *testing.T) {
	if got := Make16(0x12, 0x34); got != 0x1234 {
		t.Fatalf("Make16 = %04X, want 1234", got)
	}
	if Lo(0x1234) != 0x34 || Hi(0x1234) != 0x12 {
		t.Fatal("Lo/Hi mismatch")
	}
	if got := SetLo(0x1234, 0xAB); got != 0x12AB {
		t.Fatalf("SetLo = %04X", got)
	}
	if got := SetHi(0x1234, 0xAB); got != 0xAB34 {
		t.Fatalf("SetHi = %04X", got)
	}
}

func TestPack24(t *testing.T) {
	addr := Make24(0x7E, 0x1234)
	if addr != 0x7E1234 {
		t.Fatalf("Make24 = %06X", addr)
	}
	if Bank(addr) != 0x7E || Offset(addr) != 0x1234 || Mid(addr) != 0x12 {
		t.Fatal("Bank/Offset/Mid mismatch")
	}
	if got := SetLo24(0x7E1234, 0xFF); got != 0x7E12FF {
		t.Fatalf("SetLo24 = %06X", got)
	}
	if got := SetMid24(0x7E1234, 0xFF); got != 0x7EFF34 {
		t.Fatalf("SetMid24 = %06X", got)
	}
	if got := SetHi24(0x7E1234, 0x01); got != 0x011234 {
		t.Fatalf("SetHi24 = %06X", got)
	}
}

func TestSignExtend(t *testing.T) {
	if SignExtend8(0xFF) != -1 || SignExtend8(0x7F) != 127 {
		t.Fatal("SignExtend8 mismatch")
	}
	if SignExtend13(0x1FFF) != -1 {
		t.Fatalf("SignExtend13(0x1FFF) = %d", SignExtend13(0x1FFF))
	}
	if SignExtend13(0x0FFF) != 0x0FFF {
		t.Fatalf("SignExtend13(0x0FFF) = %d", SignExtend13(0x0FFF))
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		in   int32
		want int32
	}{
		{0, 0}, {0x3FFF, 0x3FFF}, {0x4000, 0x3FFF}, {-0x4000, -0x4000}, {-0x5000, -0x4000},
	}
	for _, c := range cases {
		if got := Clamp15(c.in); got != c.want {
			t.Errorf("Clamp15(%d) = %d, want %d", c.in, got, c.want)
		}
	}
	if Clamp16(40000) != 32767 || Clamp16(-40000) != -32768 || Clamp16(123) != 123 {
		t.Fatal("Clamp16 mismatch")
	}
}
