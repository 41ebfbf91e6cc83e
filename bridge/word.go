package bridge

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// A Word is the value of a data bus, one byte per symbol, least significant
// symbol first.
type Word []byte

// WordFromUint64 creates a word of n symbols holding the low bytes of v.
func WordFromUint64(v uint64, n int) Word {
	w := make(Word, n)
	for i := 0; i < n && i < 8; i++ {
		w[i] = byte(v >> (8 * i))
	}

	return w
}

// Uint64 returns the low 8 symbols of the word as an integer.
func (w Word) Uint64() uint64 {
	var v uint64
	for i := 0; i < len(w) && i < 8; i++ {
		v |= uint64(w[i]) << (8 * i)
	}

	return v
}

// Fit returns a copy of the word resized to n symbols. Extra symbols are
// dropped and missing symbols are zero.
func (w Word) Fit(n int) Word {
	out := make(Word, n)
	copy(out, w)

	return out
}

// String formats the word as a hexadecimal number.
func (w Word) String() string {
	msbFirst := make([]byte, len(w))
	for i, b := range w {
		msbFirst[len(w)-1-i] = b
	}

	return "0x" + hex.EncodeToString(msbFirst)
}

// MarshalJSON writes the word as a hexadecimal string.
func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON reads a hexadecimal string such as "0xdeadbeef". Each pair of
// digits is one symbol.
func (w *Word) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "word must be a hexadecimal string")
	}

	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}

	msbFirst, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "invalid word %q", s)
	}

	out := make(Word, len(msbFirst))
	for i, b := range msbFirst {
		out[len(msbFirst)-1-i] = b
	}

	*w = out

	return nil
}
