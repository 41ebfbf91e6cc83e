// Package bench connects an initiator, a bridge and a memory target and
// clocks them on a simulation engine.
package bench

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/initiator"
	"github.com/sarchlab/mmbridge/memtarget"
	"github.com/sarchlab/mmbridge/sim"
)

// ErrCycleLimit is returned by Run when the script does not finish in time.
var ErrCycleLimit = errors.New("cycle limit reached")

// A Bench runs one scenario. Every tick is one bus cycle: the initiator
// drives the slave port, the bridge drives the master port, the target
// responds, and all three take the clock edge together.
type Bench struct {
	*sim.TickingComponent

	engine    sim.Engine
	initiator *initiator.Initiator
	adapter   *bridge.Adapter
	target    *memtarget.Target

	cycleLimit uint64
	cycles     uint64
	err        error
}

// Engine returns the engine that clocks the bench.
func (b *Bench) Engine() sim.Engine {
	return b.engine
}

// Initiator returns the initiator on the slave port.
func (b *Bench) Initiator() *initiator.Initiator {
	return b.initiator
}

// Adapter returns the bridge.
func (b *Bench) Adapter() *bridge.Adapter {
	return b.adapter
}

// Target returns the memory on the master port.
func (b *Bench) Target() *memtarget.Target {
	return b.target
}

// Cycles returns the number of cycles run so far.
func (b *Bench) Cycles() uint64 {
	return b.cycles
}

// Finished returns true when every transaction is complete and the bridge
// has nothing in flight.
func (b *Bench) Finished() bool {
	return b.initiator.Done() && !b.adapter.Busy()
}

// Tick runs one bus cycle.
func (b *Bench) Tick() bool {
	if b.err != nil || b.Finished() {
		return false
	}

	if b.cycles >= b.cycleLimit {
		b.err = errors.Wrapf(ErrCycleLimit, "%s: %d cycles, %d of %d reads returned",
			b.Name(), b.cycles,
			len(b.initiator.Results()),
			len(b.initiator.Results())+b.initiator.Outstanding())

		return false
	}

	in := b.initiator.Drive()
	out := b.adapter.DriveMaster(in)
	s := b.adapter.RespondSlave(b.target.Respond(out))
	b.initiator.Observe(s)

	b.adapter.Tick()
	b.initiator.Tick()

	if err := b.target.Tick(); err != nil {
		b.err = errors.WithMessagef(err, "%s: cycle %d", b.Name(), b.cycles)
		return false
	}

	b.cycles++

	return true
}

// Run clocks the bench until the scenario finishes.
func (b *Bench) Run() error {
	b.TickNow()

	if err := b.engine.Run(); err != nil {
		return err
	}

	b.engine.Finished()

	return b.err
}
