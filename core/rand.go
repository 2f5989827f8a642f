package core

// RandSource provides the random draw sequence consumed by negotiation.
// This interface enables dependency injection for deterministic testing.
type RandSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// MersenneSource is an MT19937 generator. Seeding and Float64 follow the
// reference simulator bit for bit, so a seed reproduces the same bid
// trajectory here and there.
//
// A MersenneSource must be owned by a single run; it is not safe for concurrent use.
type MersenneSource struct {
	state [mtN]uint32
	index int
}

// NewSeededSource returns a generator seeded from the 32-bit words of |seed|,
// least significant first.
func NewSeededSource(seed int64) *MersenneSource {
	s := &MersenneSource{}
	s.seedFromArray(seedKey(seed))
	return s
}

func seedKey(seed int64) []uint32 {
	n := uint64(seed)
	if seed < 0 {
		n = uint64(-seed) // MinInt64 wraps to itself, whose uint64 is still |seed|
	}
	key := []uint32{uint32(n)}
	for n >>= 32; n > 0; n >>= 32 {
		key = append(key, uint32(n))
	}
	return key
}

func (s *MersenneSource) seed(v uint32) {
	s.state[0] = v
	for i := 1; i < mtN; i++ {
		prev := s.state[i-1]
		s.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	s.index = mtN
}

func (s *MersenneSource) seedFromArray(key []uint32) {
	s.seed(19650218)
	i, j := 1, 0
	for k := max(mtN, len(key)); k > 0; k-- {
		prev := s.state[i-1]
		s.state[i] = (s.state[i] ^ ((prev ^ (prev >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= mtN {
			s.state[0] = s.state[mtN-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k := mtN - 1; k > 0; k-- {
		prev := s.state[i-1]
		s.state[i] = (s.state[i] ^ ((prev ^ (prev >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= mtN {
			s.state[0] = s.state[mtN-1]
			i = 1
		}
	}
	s.state[0] = 0x80000000
}

func (s *MersenneSource) twist() {
	for k := 0; k < mtN; k++ {
		y := (s.state[k] & mtUpperMask) | (s.state[(k+1)%mtN] & mtLowerMask)
		next := s.state[(k+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			next ^= mtMatrixA
		}
		s.state[k] = next
	}
	s.index = 0
}

// Uint32 returns the next tempered 32-bit output.
func (s *MersenneSource) Uint32() uint32 {
	if s.index >= mtN {
		s.twist()
	}
	y := s.state[s.index]
	s.index++
	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Float64 returns a 53-bit float in [0, 1) built from two 32-bit outputs.
func (s *MersenneSource) Float64() float64 {
	a := s.Uint32() >> 5
	b := s.Uint32() >> 6
	return (float64(a)*67108864.0 + float64(b)) * (1.0 / 9007199254740992.0)
}
