package platform

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// NewID returns a random UUID string. Used for request correlation and
// other identifiers that never become row keys.
func NewID() string {
	return uuid.New().String()
}

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// IDGenerator hands out integer row identifiers per table.
type IDGenerator interface {
	Next(table string) int64
}

// Sequence is an in-process IDGenerator with one counter per table.
// Counters start at 1.
type Sequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewSequence() *Sequence {
	return &Sequence{counters: make(map[string]int64)}
}

func (s *Sequence) Next(table string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[table]++
	return s.counters[table]
}
