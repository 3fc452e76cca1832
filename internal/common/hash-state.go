package common

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"os"
)

// Hasher accumulates the cache fingerprint of one compilation:
// argument byte strings, compiler size+mtime, preprocessed output.
// The result is a fixed-width hex digest; its first character is the shard key.
type Hasher struct {
	impl hash.Hash
}

func MakeHasher() *Hasher {
	return &Hasher{impl: sha256.New()}
}

func (h *Hasher) Buffer(b []byte) {
	_, _ = h.impl.Write(b)
}

func (h *Hasher) String(s string) {
	_, _ = io.WriteString(h.impl, s)
}

func (h *Hasher) Int(n int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	_, _ = h.impl.Write(b[:])
}

func (h *Hasher) File(fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(h.impl, f)
	return err
}

func (h *Hasher) ResultHex() string {
	return hex.EncodeToString(h.impl.Sum(nil))
}
