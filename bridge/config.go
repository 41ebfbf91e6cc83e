package bridge

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrInvalidConfig is the cause of every configuration error reported by
// Validate and Build.
var ErrInvalidConfig = errors.New("invalid bridge configuration")

// Direction tells which kinds of transfers the bridge forwards.
type Direction int

// Directions of a bridge.
const (
	ReadWrite Direction = iota
	ReadOnly
	WriteOnly
)

func (d Direction) String() string {
	switch d {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "unknown"
	}
}

// CanRead returns true if reads are forwarded.
func (d Direction) CanRead() bool {
	return d == ReadWrite || d == ReadOnly
}

// CanWrite returns true if writes are forwarded.
func (d Direction) CanWrite() bool {
	return d == ReadWrite || d == WriteOnly
}

// PortSpec describes the signals that physically exist on one side of the
// bridge.
type PortSpec struct {
	// DataWidth is the width of the data bus in bits.
	DataWidth int `json:"data_width"`

	// SymbolWidth is the width of the smallest addressable unit in bits.
	SymbolWidth int `json:"symbol_width"`

	// AddressWidth is the number of address bits.
	AddressWidth int `json:"address_width"`

	// SymbolAddressing means that the address counts symbols rather than
	// words.
	SymbolAddressing bool `json:"symbol_addressing"`

	HasByteEnable  bool `json:"has_byte_enable"`
	HasChipSelect  bool `json:"has_chip_select"`
	HasClockEnable bool `json:"has_clock_enable"`
	HasWaitRequest bool `json:"has_wait_request"`
	HasRead        bool `json:"has_read"`

	// ReadActiveLow inverts the polarity of the read strobe.
	ReadActiveLow bool `json:"read_active_low"`
}

// DefaultPortSpec returns a port of the given data width with byte symbols,
// 32 address bits, word addressing and every optional signal present.
func DefaultPortSpec(dataWidth int) PortSpec {
	return PortSpec{
		DataWidth:      dataWidth,
		SymbolWidth:    8,
		AddressWidth:   32,
		HasByteEnable:  true,
		HasChipSelect:  true,
		HasClockEnable: true,
		HasWaitRequest: true,
		HasRead:        true,
	}
}

// SymbolsPerWord returns the number of symbols in a data word.
func (p PortSpec) SymbolsPerWord() int {
	return p.DataWidth / p.SymbolWidth
}

// AddressMask returns the mask of the address bus.
func (p PortSpec) AddressMask() uint64 {
	if p.AddressWidth >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << p.AddressWidth) - 1
}

func (p PortSpec) byteEnableMask() uint64 {
	return laneMask(p.SymbolsPerWord())
}

func (p PortSpec) validate(side string) error {
	if p.SymbolWidth != 8 {
		return errors.Wrapf(ErrInvalidConfig,
			"%s symbol width %d: only 8-bit symbols are supported",
			side, p.SymbolWidth)
	}

	if p.DataWidth < p.SymbolWidth || p.DataWidth > 512 ||
		p.DataWidth%p.SymbolWidth != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"%s data width %d must be a multiple of %d between %d and 512",
			side, p.DataWidth, p.SymbolWidth, p.SymbolWidth)
	}

	if p.AddressWidth < 1 || p.AddressWidth > 64 {
		return errors.Wrapf(ErrInvalidConfig,
			"%s address width %d out of range [1, 64]", side, p.AddressWidth)
	}

	return nil
}

// Config is the complete, immutable configuration of one bridge.
type Config struct {
	Slave  PortSpec `json:"slave"`
	Master PortSpec `json:"master"`

	Direction Direction `json:"direction"`

	// Burst enables read bursts on the slave port. MaxBurstLength sizes the
	// slave burst-count input.
	Burst          bool `json:"burst"`
	MaxBurstLength int  `json:"max_burst_length"`

	// MasterBurstPacking merges narrow writes into wide master writes that
	// carry a burst count.
	MasterBurstPacking bool `json:"master_burst_packing"`

	// PipelineWrite registers the master-facing command signals.
	PipelineWrite bool `json:"pipeline_write"`

	// PipelineRead registers the read data returning to the slave.
	PipelineRead bool `json:"pipeline_read"`

	// ReadLatency is the fixed read latency of the master port in cycles.
	ReadLatency int `json:"read_latency"`
}

// PackingFactor returns the number of slave words in a master word. It is 1
// when the master is not wider than the slave.
func (c Config) PackingFactor() int {
	s, m := c.Slave.SymbolsPerWord(), c.Master.SymbolsPerWord()
	if m <= s {
		return 1
	}

	return m / s
}

// MasterNarrower returns true if the master data bus is narrower than the
// slave data bus.
func (c Config) MasterNarrower() bool {
	return c.Master.DataWidth < c.Slave.DataWidth
}

// Validate reports the first invalid combination in the configuration. All
// the returned errors have ErrInvalidConfig as their cause.
func (c Config) Validate() error {
	if err := c.Slave.validate("slave"); err != nil {
		return err
	}

	if err := c.Master.validate("master"); err != nil {
		return err
	}

	if err := c.validateWidths(); err != nil {
		return err
	}

	if c.Direction < ReadWrite || c.Direction > WriteOnly {
		return errors.Wrapf(ErrInvalidConfig, "unknown direction %d",
			c.Direction)
	}

	if c.ReadLatency < 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"read latency %d must be at least 1", c.ReadLatency)
	}

	if !c.Slave.HasWaitRequest && c.Master.HasWaitRequest {
		return errors.Wrap(ErrInvalidConfig,
			"a master wait-request cannot be forwarded to a slave "+
				"without wait-request")
	}

	if err := c.validateBurst(); err != nil {
		return err
	}

	return c.validatePacking()
}

func (c Config) validateWidths() error {
	s, m := c.Slave.SymbolsPerWord(), c.Master.SymbolsPerWord()
	if m >= s && m%s != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"master width %d is not a multiple of slave width %d",
			c.Master.DataWidth, c.Slave.DataWidth)
	}

	if m < s && s%m != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"slave width %d is not a multiple of master width %d",
			c.Slave.DataWidth, c.Master.DataWidth)
	}

	return nil
}

func (c Config) validateBurst() error {
	if !c.Burst {
		return nil
	}

	if c.Master.HasWaitRequest {
		return errors.Wrap(ErrInvalidConfig,
			"burst mode requires a master port without wait-request")
	}

	if !c.Slave.HasWaitRequest {
		return errors.Wrap(ErrInvalidConfig,
			"burst mode requires a slave port with wait-request")
	}

	if c.MaxBurstLength < 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"max burst length %d must be at least 1", c.MaxBurstLength)
	}

	if !c.Direction.CanRead() {
		return errors.Wrap(ErrInvalidConfig,
			"burst mode needs a bridge that can read")
	}

	return nil
}

func (c Config) validatePacking() error {
	if !c.MasterBurstPacking {
		return nil
	}

	if c.Master.SymbolsPerWord() <= c.Slave.SymbolsPerWord() {
		return errors.Wrap(ErrInvalidConfig,
			"master burst packing requires a master wider than the slave")
	}

	p := c.PackingFactor()
	if bits.OnesCount(uint(p)) != 1 {
		return errors.Wrapf(ErrInvalidConfig,
			"master burst packing requires a power-of-two packing factor, "+
				"got %d", p)
	}

	if !c.Direction.CanWrite() {
		return errors.Wrap(ErrInvalidConfig,
			"master burst packing needs a bridge that can write")
	}

	if c.Burst {
		return errors.Wrap(ErrInvalidConfig,
			"master burst packing cannot be combined with read bursts")
	}

	if !c.Slave.HasWaitRequest {
		return errors.Wrap(ErrInvalidConfig,
			"master burst packing requires a slave port with wait-request")
	}

	return nil
}

// burstCountMask returns the mask of the slave burst-count input.
func (c Config) burstCountMask() uint {
	if !c.Burst {
		return 0
	}

	return (uint(1) << bits.Len(uint(c.MaxBurstLength))) - 1
}

func laneMask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << n) - 1
}

// MarshalText writes the direction name.
func (d Direction) MarshalText() ([]byte, error) {
	if d < ReadWrite || d > WriteOnly {
		return nil, errors.Errorf("unknown direction %d", int(d))
	}

	return []byte(d.String()), nil
}

// UnmarshalText parses a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "read-write", "":
		*d = ReadWrite
	case "read-only":
		*d = ReadOnly
	case "write-only":
		*d = WriteOnly
	default:
		return errors.Errorf("unknown direction %q", string(text))
	}

	return nil
}
