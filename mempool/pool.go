// Package mempool provides a fixed-capacity buffer pool for transfer
// payloads. Capacity is decided at construction time and never grows, so a
// node's worst-case memory use is known up front.
package mempool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted is returned by Get when every block is in use.
var ErrExhausted = errors.New("mempool: exhausted")

// Pool hands out byte slices of a fixed block size from a preallocated arena.
// It is safe for concurrent use.
type Pool struct {
	mu        sync.Mutex
	blockSize int
	free      [][]byte

	capacity int
	inUse    int
	peak     int
	failures uint64
}

// New creates a pool of count blocks of blockSize bytes each.
func New(blockSize, count int) (*Pool, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("mempool: invalid block size %d", blockSize)
	}
	if count <= 0 {
		return nil, fmt.Errorf("mempool: invalid block count %d", count)
	}
	arena := make([]byte, blockSize*count)
	p := &Pool{
		blockSize: blockSize,
		free:      make([][]byte, 0, count),
		capacity:  count,
	}
	for i := 0; i < count; i++ {
		p.free = append(p.free, arena[i*blockSize:(i+1)*blockSize:(i+1)*blockSize])
	}
	return p, nil
}

// BlockSize reports the size of each block in bytes.
func (p *Pool) BlockSize() int { return p.blockSize }

// Get returns a zero-length slice with capacity BlockSize, or ErrExhausted.
func (p *Pool) Get() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		p.failures++
		return nil, ErrExhausted
	}
	b := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.inUse++
	if p.inUse > p.peak {
		p.peak = p.inUse
	}
	return b[:0], nil
}

// Put returns a block obtained from Get. Putting a foreign slice is an error;
// the pool checks the capacity to catch obvious misuse.
func (p *Pool) Put(b []byte) error {
	if cap(b) != p.blockSize {
		return fmt.Errorf("mempool: foreign block (cap %d, want %d)", cap(b), p.blockSize)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUse == 0 {
		return errors.New("mempool: put without matching get")
	}
	p.inUse--
	p.free = append(p.free, b[:p.blockSize:p.blockSize])
	return nil
}

// Stats is a point-in-time snapshot of pool usage.
type Stats struct {
	Capacity int    // total blocks
	InUse    int    // blocks currently handed out
	Peak     int    // high-water mark of InUse
	Failures uint64 // Get calls that returned ErrExhausted
}

// Stats returns current usage counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Capacity: p.capacity,
		InUse:    p.inUse,
		Peak:     p.peak,
		Failures: p.failures,
	}
}
