package memtarget

import "github.com/pkg/errors"

// ErrOutOfRange is the cause of every access beyond the storage capacity.
var ErrOutOfRange = errors.New("access beyond storage capacity")

// A Storage keeps the bytes of the target memory.
//
// The storage is managed in units. Units never touched by Read or Write are
// not allocated.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage with the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4096,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes the storage holds.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) checkRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return errors.Wrapf(ErrOutOfRange,
			"[0x%x, 0x%x) exceeds capacity 0x%x",
			address, address+length, s.capacity)
	}

	return nil
}

func (s *Storage) unit(address uint64, create bool) []byte {
	base, _ := s.parseAddress(address)

	unit, ok := s.data[base]
	if !ok && create {
		unit = make([]byte, s.unitSize)
		s.data[base] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (base, offset uint64) {
	offset = addr % s.unitSize
	base = addr - offset

	return base, offset
}

// Read returns length bytes starting at address. Bytes never written read
// as zero.
func (s *Storage) Read(address, length uint64) ([]byte, error) {
	if err := s.checkRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)

	for done := uint64(0); done < length; {
		curr := address + done
		base, offset := s.parseAddress(curr)
		n := min(length-done, base+s.unitSize-curr)

		if unit := s.unit(curr, false); unit != nil {
			copy(res[done:done+n], unit[offset:offset+n])
		}

		done += n
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))
	if err := s.checkRange(address, length); err != nil {
		return err
	}

	for done := uint64(0); done < length; {
		curr := address + done
		base, offset := s.parseAddress(curr)
		n := min(length-done, base+s.unitSize-curr)

		unit := s.unit(curr, true)
		copy(unit[offset:offset+n], data[done:done+n])

		done += n
	}

	return nil
}
