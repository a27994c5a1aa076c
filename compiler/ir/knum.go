package ir

import "math"

type (
	// KNum is a pool slot holding a 64 bit FP constant.
	// Generated code embeds the slot address, so it never moves.
	KNum struct {
		U64 uint64
	}

	// Pool is the chained array of FP constants shared by all traces
	// of one compiler context. Most traces need very few of them,
	// so linear search is used.
	Pool struct {
		head *knumChunk
		tail *knumChunk

		n int
	}

	knumChunk struct {
		next *knumChunk
		n    int
		k    [KNumChunk]KNum
	}
)

const KNumChunk = 16

// Abs and neg masks for FP sign manipulation.
// They live outside of the pool and are interned by address.
var knumMask = [2]KNum{
	{U64: 0x7fffffffffffffff},
	{U64: 0x8000000000000000},
}

func NewPool() *Pool {
	return &Pool{}
}

// Find returns the slot holding exactly the bit pattern u,
// adding it if it's not there yet. +0, -0 and NaN payloads are all distinct.
func (p *Pool) Find(u uint64) *KNum {
	for c := p.head; c != nil; c = c.next {
		for i := 0; i < c.n; i++ {
			if c.k[i].U64 == u {
				return &c.k[i]
			}
		}
	}

	if p.tail == nil || p.tail.n == KNumChunk {
		c := &knumChunk{}

		if p.tail == nil {
			p.head = c
		} else {
			p.tail.next = c
		}

		p.tail = c
	}

	c := p.tail

	s := &c.k[c.n]
	s.U64 = u

	c.n++
	p.n++

	return s
}

func (p *Pool) Len() int { return p.n }

func (p *Pool) Chunks() (n int) {
	for c := p.head; c != nil; c = c.next {
		n++
	}

	return n
}

// Range calls f for every slot in insertion order.
func (p *Pool) Range(f func(k *KNum) bool) {
	for c := p.head; c != nil; c = c.next {
		for i := 0; i < c.n; i++ {
			if !f(&c.k[i]) {
				return
			}
		}
	}
}

// Free drops all chunks.
// Only valid when no trace referencing the pool is alive.
func (p *Pool) Free() {
	for c := p.head; c != nil; {
		next := c.next
		c.next = nil
		c = next
	}

	p.head, p.tail, p.n = nil, nil, 0
}

func (k *KNum) Float() float64 {
	return math.Float64frombits(k.U64)
}
