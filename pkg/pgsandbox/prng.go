package pgsandbox

import (
	"encoding/binary"
	"io"
	"math/rand"
)

// SeededReader is a deterministic io.Reader backed by a math/rand RNG. Hand
// it to faker.SetCryptoSource so seeded sandboxes generate reproducible rows.
type SeededReader struct {
	r *rand.Rand
}

// NewSeededReader returns a deterministic PRNG reader for the given seed.
func NewSeededReader(seed int64) io.Reader {
	return &SeededReader{r: rand.New(rand.NewSource(seed))}
}

// Read fills p with pseudorandom bytes.
func (r *SeededReader) Read(p []byte) (int, error) {
	var word [8]byte
	n := len(p)
	for i := 0; i < n; i += 8 {
		v := r.r.Int63() // 63-bit random value
		binary.LittleEndian.PutUint64(word[:], uint64(v))
		copy(p[i:], word[:])
	}
	return n, nil
}
