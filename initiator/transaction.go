package initiator

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
)

// Kind tells reads from writes.
type Kind int

// Kinds of transactions.
const (
	Read Kind = iota
	Write
)

func (k Kind) String() string {
	if k == Write {
		return "write"
	}

	return "read"
}

// MarshalText writes the kind name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "read":
		*k = Read
	case "write":
		*k = Write
	default:
		return errors.Errorf("unknown transaction kind %q", string(text))
	}

	return nil
}

// A Transaction is one request issued on the slave port.
type Transaction struct {
	Kind    Kind        `json:"kind"`
	Address uint64      `json:"address"`
	Data    bridge.Word `json:"data,omitempty"`

	// ByteEnable selects the symbols written. Nil enables every symbol; a
	// zero mask writes nothing.
	ByteEnable *uint64 `json:"byte_enable,omitempty"`

	// BurstCount is the number of beats of a read burst. It is only used
	// when the bridge accepts bursts.
	BurstCount uint `json:"burst_count,omitempty"`
}

// Mask returns a byte-enable mask for a Transaction.
func Mask(m uint64) *uint64 {
	return &m
}

// A ReadResult is one beat of read data returned to the initiator.
type ReadResult struct {
	Cycle   uint64      `json:"cycle"`
	Address uint64      `json:"address"`
	Data    bridge.Word `json:"data"`
}
