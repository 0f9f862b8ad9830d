package audioengine

import (
	"math"
	"sync/atomic"
)

// floatAtomic stores a float32 as its IEEE-754 bit pattern in a 32-bit
// atomic — the lock-free stand-in for a hardware atomic float, shared
// between the engine thread (writer) and the output callback (reader).
type floatAtomic struct {
	bits atomic.Uint32
}

func newFloatAtomic(v float32) *floatAtomic {
	fa := &floatAtomic{}
	fa.Store(v)
	return fa
}

func (fa *floatAtomic) Store(v float32) { fa.bits.Store(math.Float32bits(v)) }
func (fa *floatAtomic) Load() float32   { return math.Float32frombits(fa.bits.Load()) }
