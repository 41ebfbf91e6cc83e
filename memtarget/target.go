// Package memtarget provides a fixed-latency memory that sits behind the
// master port of a bridge.
package memtarget

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
)

// A WaitSchedule decides in which cycles the target asserts wait-request.
type WaitSchedule interface {
	Waits(cycle uint64) bool
}

// NoWait never asserts wait-request.
type NoWait struct{}

// Waits returns false.
func (NoWait) Waits(uint64) bool {
	return false
}

// CycleSet asserts wait-request in the listed cycles.
type CycleSet map[uint64]bool

// Waits returns true if the cycle is in the set.
func (s CycleSet) Waits(cycle uint64) bool {
	return s[cycle]
}

// Periodic asserts wait-request in the first Busy cycles of every Period
// cycles.
type Periodic struct {
	Period uint64
	Busy   uint64
}

// Waits returns true in the busy part of the period.
func (p Periodic) Waits(cycle uint64) bool {
	if p.Period == 0 {
		return false
	}

	return cycle%p.Period < p.Busy
}

// A Transfer is one access performed by the target.
type Transfer struct {
	Cycle      uint64
	Kind       bridge.TransferKind
	Address    uint64
	ByteEnable uint64
	Data       bridge.Word
}

// A Target is a memory that answers the master port of a bridge. Call
// Respond once per cycle, then Tick at the clock edge.
type Target struct {
	name    string
	port    bridge.PortSpec
	symbols int
	storage *Storage
	wait    WaitSchedule

	cycle     uint64
	pipe      []bridge.Word
	last      bridge.MasterOutputs
	waiting   bool
	responded bool
	transfers []Transfer
}

// Name returns the name of the target.
func (t *Target) Name() string {
	return t.name
}

// Storage returns the backing storage.
func (t *Target) Storage() *Storage {
	return t.storage
}

// Transfers returns every access performed so far.
func (t *Target) Transfers() []Transfer {
	return t.transfers
}

// Respond returns the master inputs of this cycle.
func (t *Target) Respond(out bridge.MasterOutputs) bridge.MasterInputs {
	t.last = out
	t.waiting = t.port.HasWaitRequest && t.wait.Waits(t.cycle)
	t.responded = true

	return bridge.MasterInputs{
		WaitRequest: t.waiting,
		ReadData:    t.pipe[0],
	}
}

// Tick performs the access accepted in this cycle and moves read data one
// step closer to the bridge.
func (t *Target) Tick() error {
	var data bridge.Word

	if t.responded && !t.waiting {
		var err error

		data, err = t.access(t.last)
		if err != nil {
			return err
		}
	}

	copy(t.pipe, t.pipe[1:])
	t.pipe[len(t.pipe)-1] = data

	t.cycle++
	t.responded = false

	return nil
}

func (t *Target) access(out bridge.MasterOutputs) (bridge.Word, error) {
	switch {
	case !out.ChipSelect && t.port.HasChipSelect:
		return nil, nil
	case out.Write:
		return nil, t.write(out)
	case t.reading(out):
		return t.read(out)
	}

	return nil, nil
}

func (t *Target) reading(out bridge.MasterOutputs) bool {
	if !t.port.HasRead {
		return true
	}

	return out.Read != t.port.ReadActiveLow
}

func (t *Target) byteAddress(out bridge.MasterOutputs) uint64 {
	if t.port.SymbolAddressing {
		return out.Address / uint64(t.symbols) * uint64(t.symbols)
	}

	return out.Address * uint64(t.symbols)
}

func (t *Target) wordAddress(out bridge.MasterOutputs) uint64 {
	return t.byteAddress(out) / uint64(t.symbols)
}

func (t *Target) write(out bridge.MasterOutputs) error {
	addr := t.byteAddress(out)

	word, err := t.storage.Read(addr, uint64(t.symbols))
	if err != nil {
		return errors.WithMessagef(err, "%s: write", t.name)
	}

	be := out.ByteEnable
	if !t.port.HasByteEnable {
		be = ^uint64(0)
	}

	for i := range word {
		if be&(uint64(1)<<i) != 0 && i < len(out.WriteData) {
			word[i] = out.WriteData[i]
		}
	}

	if err := t.storage.Write(addr, word); err != nil {
		return errors.WithMessagef(err, "%s: write", t.name)
	}

	t.transfers = append(t.transfers, Transfer{
		Cycle:      t.cycle,
		Kind:       bridge.TransferWrite,
		Address:    t.wordAddress(out),
		ByteEnable: be,
		Data:       append(bridge.Word(nil), out.WriteData...),
	})

	return nil
}

func (t *Target) read(out bridge.MasterOutputs) (bridge.Word, error) {
	word, err := t.storage.Read(t.byteAddress(out), uint64(t.symbols))
	if err != nil {
		return nil, errors.WithMessagef(err, "%s: read", t.name)
	}

	t.transfers = append(t.transfers, Transfer{
		Cycle:   t.cycle,
		Kind:    bridge.TransferRead,
		Address: t.wordAddress(out),
		Data:    word,
	})

	return word, nil
}
