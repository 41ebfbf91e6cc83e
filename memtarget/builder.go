package memtarget

import (
	"log"

	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/sim"
)

// A Builder can build targets.
type Builder struct {
	port     bridge.PortSpec
	latency  int
	capacity uint64
	wait     WaitSchedule
}

// MakeBuilder creates a builder for a 32-bit target of 4 GiB with a read
// latency of one cycle that never waits.
func MakeBuilder() Builder {
	return Builder{
		port:     bridge.DefaultPortSpec(32),
		latency:  1,
		capacity: 4 * 1024 * 1024 * 1024,
		wait:     NoWait{},
	}
}

// WithPort sets the port the target is attached to. It should be the master
// port of the bridge.
func (b Builder) WithPort(p bridge.PortSpec) Builder {
	b.port = p
	return b
}

// WithLatency sets the read latency in cycles.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// WithCapacity sets the storage size in bytes.
func (b Builder) WithCapacity(bytes uint64) Builder {
	b.capacity = bytes
	return b
}

// WithWaitSchedule sets the cycles in which the target asserts
// wait-request.
func (b Builder) WithWaitSchedule(s WaitSchedule) Builder {
	b.wait = s
	return b
}

// Build creates a target.
func (b Builder) Build(name string) *Target {
	sim.NameMustBeValid(name)

	if b.latency < 1 {
		log.Panicf("%s: read latency must be at least 1, got %d",
			name, b.latency)
	}

	return &Target{
		name:    name,
		port:    b.port,
		symbols: b.port.SymbolsPerWord(),
		storage: NewStorage(b.capacity),
		wait:    b.wait,
		pipe:    make([]bridge.Word, b.latency),
	}
}
