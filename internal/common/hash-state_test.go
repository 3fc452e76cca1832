package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHasherDeterminism(t *testing.T) {
	h1 := MakeHasher()
	h1.String("-Wall")
	h1.Int(123456)
	h1.Buffer([]byte("body"))

	h2 := MakeHasher()
	h2.String("-Wall")
	h2.Int(123456)
	h2.Buffer([]byte("body"))

	if h1.ResultHex() != h2.ResultHex() {
		t.Errorf("identical input must produce identical digests")
	}
}

func TestHasherSensitivity(t *testing.T) {
	h1 := MakeHasher()
	h1.Int(1)
	h2 := MakeHasher()
	h2.Int(2)
	if h1.ResultHex() == h2.ResultHex() {
		t.Errorf("different ints must produce different digests")
	}
}

func TestHasherResultWidth(t *testing.T) {
	h := MakeHasher()
	h.String("x")
	sum := h.ResultHex()
	if len(sum) != 64 {
		t.Errorf("digest must be fixed-width hex, got %d chars", len(sum))
	}
	if c := sum[0]; !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
		t.Errorf("the first digest character is the shard key, got %q", c)
	}
}

func TestHasherFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(fileName, []byte("contents"), 0644); err != nil {
		t.Fatal(err)
	}

	h1 := MakeHasher()
	if err := h1.File(fileName); err != nil {
		t.Fatal(err)
	}
	h2 := MakeHasher()
	h2.Buffer([]byte("contents"))

	if h1.ResultHex() != h2.ResultHex() {
		t.Errorf("hashing a file must equal hashing its bytes")
	}

	h3 := MakeHasher()
	if err := h3.File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("want an error for a missing file")
	}
}
