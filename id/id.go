// Package id issues the stable identifiers carried by loans, deposit lots and
// central-bank loans.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULID strings. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	mono io.Reader
	now  func() time.Time
}

// NewGenerator returns a generator drawing entropy from r. A nil r is seeded
// from crypto/rand; a nil now uses the wall clock.
func NewGenerator(r io.Reader, now func() time.Time) *Generator {
	if r == nil {
		var seed int64
		_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		r = rand.New(rand.NewSource(seed))
	}
	if now == nil {
		now = time.Now
	}
	// Monotonic keeps IDs minted in the same millisecond increasing.
	return &Generator{mono: ulid.Monotonic(r, 0), now: now}
}

// New returns a ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.mono)
	if err != nil {
		// Only reachable if the clock goes backwards or entropy is exhausted.
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(nil, nil)

// New returns a ULID string from the package generator.
func New() string {
	return std.New()
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
