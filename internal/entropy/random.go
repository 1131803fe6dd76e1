package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
)

// Source is anything that yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// IntN draws one float from src and scales it to [0, n).
func IntN(src Source, n int) int {
	if n <= 0 {
		panic("entropy: IntN called with non-positive n")
	}
	i := int(src.Float() * float64(n))
	if i >= n {
		// Guards against a misbehaving source returning exactly 1.
		i = n - 1
	}
	return i
}

// Crypto draws from crypto/rand. It is the live source for production
// remainder draws, where reproducibility is not wanted.
type Crypto struct{}

// Float returns a uniform float64 in [0, 1) built from 53 random bits.
func (Crypto) Float() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		slog.Error("crypto/rand read failed", "error", err)
		return 0.5
	}
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Fixed is a Source replaying a fixed list of values, cycling when exhausted.
// Tests and replays use it to pin remainder draws.
type Fixed struct {
	Values []float64
	pos    int
}

// Float returns the next fixed value.
func (f *Fixed) Float() float64 {
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.pos%len(f.Values)]
	f.pos++
	return v
}

// Draws reports how many values have been consumed.
func (f *Fixed) Draws() int {
	return f.pos
}
