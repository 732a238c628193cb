package dns

import "testing"

func TestEncodeName(t *testing.T) {
	b, err := EncodeName("google.com")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	exp := []byte{6, 'g', 'o', 'o', 'g', 'l', 'e', 3, 'c', 'o', 'm', 0}
	if string(b) != string(exp) {
		t.Fatalf("got %v want %v", b, exp)
	}
}

func TestEncodeNameRoot(t *testing.T) {
	b, err := EncodeName(".")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(b) != string([]byte{0}) {
		t.Fatalf("got %v want root label", b)
	}
}

func TestEncodeNameLabelTooLong(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := EncodeName(string(long) + ".com"); err == nil {
		t.Fatal("expected error for label over 63 bytes")
	}
}
