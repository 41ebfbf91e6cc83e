package bridge

import (
	"log"
	"math/bits"
)

// addressSplitter divides an address by a fixed factor. Power-of-two
// factors use a shift and a mask.
type addressSplitter struct {
	factor uint64
	shift  uint
	mask   uint64
	pow2   bool
}

func newAddressSplitter(factor int) addressSplitter {
	if factor < 1 {
		log.Panicf("address split factor must be positive, got %d", factor)
	}

	s := addressSplitter{factor: uint64(factor)}
	if bits.OnesCount64(s.factor) == 1 {
		s.pow2 = true
		s.shift = uint(bits.TrailingZeros64(s.factor))
		s.mask = s.factor - 1
	}

	return s
}

// Split returns addr div factor and addr mod factor.
func (s addressSplitter) Split(addr uint64) (word, lane uint64) {
	if s.pow2 {
		return addr >> s.shift, addr & s.mask
	}

	return addr / s.factor, addr % s.factor
}

// Join is the inverse of Split.
func (s addressSplitter) Join(word, lane uint64) uint64 {
	if s.pow2 {
		return word<<s.shift | lane
	}

	return word*s.factor + lane
}

// Factor returns the divisor.
func (s addressSplitter) Factor() uint64 {
	return s.factor
}
