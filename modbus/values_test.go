package modbus

import "testing"

func TestAsU16Array(t *testing.T) {
	got, err := AsU16Array([]byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("AsU16Array: %v", err)
	}
	if len(got) != 2 || got[0] != 0x0102 || got[1] != 0x0304 {
		t.Fatalf("got %v", got)
	}
}

func TestAsU16ArrayOddLength(t *testing.T) {
	if _, err := AsU16Array([]byte{0x01}); err != ErrBadLength {
		t.Fatalf("expected ErrBadLength, got %v", err)
	}
}

func TestAsU32ArrayNotMultipleOfFour(t *testing.T) {
	if _, err := AsU32Array([]byte{0x00, 0x01, 0x02}); err != ErrBadLength {
		t.Fatalf("expected ErrBadLength, got %v", err)
	}
}

func TestAsASCIITruncatesAtNUL(t *testing.T) {
	got := AsASCII([]byte{'3', '.', '2', 0, 0})
	if got != "3.2" {
		t.Fatalf("got %q", got)
	}
}

func TestAsASCIINoNUL(t *testing.T) {
	got := AsASCII([]byte{'h', 'i'})
	if got != "hi" {
		t.Fatalf("got %q", got)
	}
}

func TestAsASCIIEmpty(t *testing.T) {
	if got := AsASCII([]byte{0, 0, 0}); got != "" {
		t.Fatalf("got %q", got)
	}
}
