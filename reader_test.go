// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package car

import "testing"

func TestByteReaderIntegers(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r := newByteReader(data)

	if v, err := r.u8(); err != nil || v != 0x01 {
		t.Fatalf("u8() = (%d, %v), want (1, nil)", v, err)
	}
	r.seek(0)
	if v, err := r.u16le(); err != nil || v != 0x0201 {
		t.Fatalf("u16le() = (%#x, %v), want (0x0201, nil)", v, err)
	}
	r.seek(0)
	if v, err := r.u16be(); err != nil || v != 0x0102 {
		t.Fatalf("u16be() = (%#x, %v), want (0x0102, nil)", v, err)
	}
	r.seek(0)
	if v, err := r.u32le(); err != nil || v != 0x04030201 {
		t.Fatalf("u32le() = (%#x, %v), want (0x04030201, nil)", v, err)
	}
	r.seek(0)
	if v, err := r.u32be(); err != nil || v != 0x01020304 {
		t.Fatalf("u32be() = (%#x, %v), want (0x01020304, nil)", v, err)
	}
}

func TestByteReaderTruncated(t *testing.T) {
	r := newByteReader([]byte{0x01, 0x02})
	if _, err := r.u32le(); err == nil {
		t.Fatal("u32le() over 2 bytes succeeded, want ErrTruncated")
	}
}

func TestByteReaderFixedStringStripsNul(t *testing.T) {
	data := append([]byte("hello"), make([]byte, 11)...)
	r := newByteReader(data)
	s, err := r.fixedString(16)
	if err != nil {
		t.Fatalf("fixedString: %v", err)
	}
	if s != "hello" {
		t.Errorf("fixedString() = %q, want %q", s, "hello")
	}
}

func TestByteReaderCString(t *testing.T) {
	data := append([]byte("abc\x00def"), 0)
	r := newByteReader(data)
	s, err := r.cString()
	if err != nil {
		t.Fatalf("cString: %v", err)
	}
	if s != "abc" {
		t.Errorf("cString() = %q, want %q", s, "abc")
	}
	s2, err := r.cString()
	if err != nil {
		t.Fatalf("cString: %v", err)
	}
	if s2 != "def" {
		t.Errorf("cString() second call = %q, want %q", s2, "def")
	}
}

func TestByteReaderMagic4(t *testing.T) {
	r := newByteReader([]byte("ISTC"))
	if err := r.magic4("ISTC"); err != nil {
		t.Fatalf("magic4: %v", err)
	}
	r.seek(0)
	if err := r.magic4("RAWD"); err == nil {
		t.Fatal("magic4(RAWD) over ISTC bytes succeeded, want ErrBadMagic")
	}
}

func TestByteReaderSub(t *testing.T) {
	r := newByteReader([]byte("0123456789"))
	sub, err := r.sub(2, 4)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	b, err := sub.bytes(4)
	if err != nil || string(b) != "2345" {
		t.Fatalf("sub bytes = %q, %v, want 2345", b, err)
	}
	if _, err := r.sub(8, 4); err == nil {
		t.Fatal("sub(8,4) over 10-byte buffer succeeded, want ErrTruncated")
	}
}
