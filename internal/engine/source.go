package engine

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Source draws uniformly distributed integers in [0, n).
// Implementations are not required to be safe for concurrent use.
type Source interface {
	Intn(n int) int
}

// SeedSource derives one draw per nonce from a server/client seed pair, so a
// session can be replayed exactly from its seeds and starting nonce.
type SeedSource struct {
	serverSeed string
	clientSeed string
	nonce      uint64
}

// NewSeedSource creates a provably-fair style source starting at nonce.
func NewSeedSource(serverSeed, clientSeed string, nonce uint64) *SeedSource {
	return &SeedSource{serverSeed: serverSeed, clientSeed: clientSeed, nonce: nonce}
}

// Intn maps the next nonce's first float onto [0, n) with floor(f * n).
func (s *SeedSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	f := Float(s.serverSeed, s.clientSeed, s.nonce)
	s.nonce++
	v := int(math.Floor(f * float64(n)))
	if v >= n {
		v = n - 1
	}
	return v
}

// Nonce returns the nonce the next draw will use.
func (s *SeedSource) Nonce() uint64 {
	return s.nonce
}

// RandSource is a PCG-backed Source.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource seeds a PCG generator. A zero seed picks a random one.
func NewRandSource(seed uint64) *RandSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandSource{rng: rand.New(rand.NewPCG(seed, SplitSeed(seed, 1)))}
}

// Intn returns a uniform draw in [0, n).
func (s *RandSource) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}

// LockedSource serializes access to a wrapped Source.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src for use from several goroutines.
func NewLockedSource(src Source) *LockedSource {
	return &LockedSource{src: src}
}

// Intn draws from the wrapped source under the lock.
func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Intn(n)
}

// SplitSeed derives an independent child seed for stream i (splitmix64).
func SplitSeed(seed uint64, i int) uint64 {
	z := seed + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
