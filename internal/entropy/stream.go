// Package entropy provides the randomness used by the simulation: a small
// seedable stream for reproducible content, and a crypto-backed source for
// live production draws.
package entropy

// Fixed register constants for seeding (fractional digits of phi, pi and e).
const (
	seedA uint32 = 0x9E3779B9
	seedB uint32 = 0x243F6A88
	seedC uint32 = 0xB7E15162

	// warmup draws are discarded after seeding so adjacent seeds diverge
	// before any visible content is generated.
	warmup = 12
)

// Stream is an sfc32 generator. Same seed, same sequence, on every platform:
// mixing uses only 32-bit wraparound integer arithmetic.
//
// A Stream whose four registers are all zero is valid. It yields a
// degenerate but fully defined sequence and is not special-cased.
type Stream struct {
	a, b, c, d uint32
}

// NewStream creates a stream from a single 32-bit seed.
func NewStream(seed uint32) *Stream {
	s := &Stream{a: seedA, b: seedB, c: seedC, d: seed}
	for i := 0; i < warmup; i++ {
		s.Uint32()
	}
	return s
}

// RestoreStream rebuilds a stream from registers captured with State.
func RestoreStream(state [4]uint32) *Stream {
	return &Stream{a: state[0], b: state[1], c: state[2], d: state[3]}
}

// State returns the current registers.
func (s *Stream) State() [4]uint32 {
	return [4]uint32{s.a, s.b, s.c, s.d}
}

// Uint32 advances the stream by one draw and returns the raw output word.
func (s *Stream) Uint32() uint32 {
	t := s.a + s.b + s.d
	s.d++
	s.a = s.b ^ (s.b >> 9)
	s.b = s.c + (s.c << 3)
	s.c = (s.c<<21 | s.c>>11) + t
	return t
}

// Next returns a float in [0, 1). One draw.
func (s *Stream) Next() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// Float implements Source.
func (s *Stream) Float() float64 {
	return s.Next()
}

// IntN returns floor(Next()*n). One draw. n must be positive.
func (s *Stream) IntN(n int) int {
	return IntN(s, n)
}
