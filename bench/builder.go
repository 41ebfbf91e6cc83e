package bench

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/initiator"
	"github.com/sarchlab/mmbridge/memtarget"
	"github.com/sarchlab/mmbridge/sim"
)

// A Builder can build benches.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	cfg        bridge.Config
	script     []initiator.Transaction
	wait       memtarget.WaitSchedule
	capacity   uint64
	cycleLimit uint64
}

// MakeBuilder creates a builder with a 1 GHz clock, the default bridge
// configuration and a limit of one million cycles.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		cfg:        bridge.MakeBuilder().Config(),
		wait:       memtarget.NoWait{},
		capacity:   1 << 32,
		cycleLimit: 1_000_000,
	}
}

// WithEngine sets the engine. A serial engine is created if none is given.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithFreq sets the bus clock.
func (b Builder) WithFreq(f sim.Freq) Builder {
	b.freq = f
	return b
}

// WithConfig sets the bridge configuration.
func (b Builder) WithConfig(c bridge.Config) Builder {
	b.cfg = c
	return b
}

// WithScript sets the transactions the initiator issues.
func (b Builder) WithScript(script []initiator.Transaction) Builder {
	b.script = script
	return b
}

// WithWaitSchedule sets when the target asserts wait-request.
func (b Builder) WithWaitSchedule(s memtarget.WaitSchedule) Builder {
	b.wait = s
	return b
}

// WithCapacity sets the target memory size in bytes.
func (b Builder) WithCapacity(bytes uint64) Builder {
	b.capacity = bytes
	return b
}

// WithCycleLimit sets the number of cycles after which Run gives up.
func (b Builder) WithCycleLimit(n uint64) Builder {
	b.cycleLimit = n
	return b
}

// Build creates a bench. The bridge is named Bridge under the bench, the
// initiator Initiator and the target Target.
func (b Builder) Build(name string) (*Bench, error) {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	adapter, err := bridge.MakeBuilder().
		WithConfig(b.cfg).
		Build(sim.BuildName(name, "Bridge"))
	if err != nil {
		return nil, errors.WithMessage(err, "building bench")
	}

	bench := &Bench{
		engine:     engine,
		adapter:    adapter,
		cycleLimit: b.cycleLimit,
	}

	bench.initiator = initiator.MakeBuilder().
		WithPort(b.cfg.Slave).
		WithBurst(b.cfg.Burst).
		WithScript(b.script).
		Build(sim.BuildName(name, "Initiator"))

	bench.target = memtarget.MakeBuilder().
		WithPort(b.cfg.Master).
		WithLatency(b.cfg.ReadLatency).
		WithCapacity(b.capacity).
		WithWaitSchedule(b.wait).
		Build(sim.BuildName(name, "Target"))

	bench.TickingComponent = sim.NewTickingComponent(
		name, engine, b.freq, bench)

	return bench, nil
}
