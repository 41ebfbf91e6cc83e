package bridge

import (
	"log"

	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/sim"
)

// A Builder can build adapters.
type Builder struct {
	cfg Config
}

// MakeBuilder creates a builder for a 32-bit to 32-bit read-write bridge with
// every optional signal present and a master read latency of one cycle.
func MakeBuilder() Builder {
	return Builder{
		cfg: Config{
			Slave:       DefaultPortSpec(32),
			Master:      DefaultPortSpec(32),
			Direction:   ReadWrite,
			ReadLatency: 1,
		},
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.cfg = c
	return b
}

// WithSlave sets the slave port.
func (b Builder) WithSlave(p PortSpec) Builder {
	b.cfg.Slave = p
	return b
}

// WithMaster sets the master port.
func (b Builder) WithMaster(p PortSpec) Builder {
	b.cfg.Master = p
	return b
}

// WithDirection sets which transfers the bridge forwards.
func (b Builder) WithDirection(d Direction) Builder {
	b.cfg.Direction = d
	return b
}

// WithBurst enables slave read bursts of up to maxLength beats.
func (b Builder) WithBurst(maxLength int) Builder {
	b.cfg.Burst = true
	b.cfg.MaxBurstLength = maxLength

	return b
}

// WithMasterBurstPacking enables merging narrow writes into wide ones.
func (b Builder) WithMasterBurstPacking() Builder {
	b.cfg.MasterBurstPacking = true
	return b
}

// WithPipelineWrite registers the master command signals.
func (b Builder) WithPipelineWrite() Builder {
	b.cfg.PipelineWrite = true
	return b
}

// WithPipelineRead registers the slave read data.
func (b Builder) WithPipelineRead() Builder {
	b.cfg.PipelineRead = true
	return b
}

// WithReadLatency sets the fixed read latency of the master port.
func (b Builder) WithReadLatency(cycles int) Builder {
	b.cfg.ReadLatency = cycles
	return b
}

// Config returns the configuration that Build would use.
func (b Builder) Config() Config {
	return b.cfg
}

// Build validates the configuration and creates an adapter.
func (b Builder) Build(name string) (*Adapter, error) {
	sim.NameMustBeValid(name)

	if err := b.cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "building %s", name)
	}

	if b.cfg.PackingFactor() > 1 && !b.cfg.Master.HasByteEnable &&
		b.cfg.Direction.CanWrite() {
		log.Printf("%s: master has no byte-enable, "+
			"writes overwrite every lane of the master word", name)
	}

	data := newDataPath(b.cfg)
	a := &Adapter{
		name:    name,
		cfg:     b.cfg,
		signals: newSignalResolver(b.cfg),
		split:   newAddressSplitter(b.cfg.PackingFactor()),
		data:    data,
		reads:   newReadPath(b.cfg, data),
		stage:   newCommandStage(b.cfg),
	}

	if b.cfg.Burst {
		a.burst = newBurstSequencer(b.cfg)
	}

	if b.cfg.MasterBurstPacking {
		a.packer = newWriteAccumulator(b.cfg)
	}

	return a, nil
}
