package initiator

import (
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/sim"
)

// A Builder can build initiators.
type Builder struct {
	port   bridge.PortSpec
	burst  bool
	script []Transaction
}

// MakeBuilder creates a builder for a 32-bit initiator with an empty script.
func MakeBuilder() Builder {
	return Builder{
		port: bridge.DefaultPortSpec(32),
	}
}

// WithPort sets the port the initiator drives. It should be the slave port
// of the bridge.
func (b Builder) WithPort(p bridge.PortSpec) Builder {
	b.port = p
	return b
}

// WithBurst tells the initiator that the bridge accepts read bursts, so that
// a read returns BurstCount beats.
func (b Builder) WithBurst(burst bool) Builder {
	b.burst = burst
	return b
}

// WithScript sets the transactions to issue.
func (b Builder) WithScript(script []Transaction) Builder {
	b.script = script
	return b
}

// Build creates an initiator.
func (b Builder) Build(name string) *Initiator {
	sim.NameMustBeValid(name)

	return &Initiator{
		name:   name,
		port:   b.port,
		burst:  b.burst,
		script: append([]Transaction(nil), b.script...),
	}
}
