package bridge

import "github.com/sarchlab/mmbridge/sim"

// BurstState is the state of the burst sequencer.
type BurstState int

// States of the burst sequencer.
const (
	BurstIdle BurstState = iota
	BurstActive
)

func (s BurstState) String() string {
	if s == BurstActive {
		return "BURSTING"
	}

	return "IDLE"
}

// burstSequencer turns one slave read burst into consecutive single-word
// reads. Only one burst is outstanding at a time.
type burstSequencer struct {
	state     *sim.Register[BurstState]
	address   *sim.Register[uint64]
	remaining *sim.Register[uint]

	lastAddress uint64
}

func newBurstSequencer(c Config) *burstSequencer {
	last := c.Slave.AddressMask()
	if c.Slave.SymbolAddressing {
		last, _ = newAddressSplitter(c.Slave.SymbolsPerWord()).Split(last)
	}

	return &burstSequencer{
		state:       sim.NewRegister(BurstIdle),
		address:     sim.NewRegister(uint64(0)),
		remaining:   sim.NewRegister(uint(0)),
		lastAddress: last,
	}
}

func (b *burstSequencer) bursting() bool {
	return b.state.Get() == BurstActive
}

// beat returns the read issued by the cursor in this cycle.
func (b *burstSequencer) beat() (address uint64, ok bool) {
	if !b.bursting() {
		return 0, false
	}

	return b.address.Get(), true
}

// advance moves the cursor past the beat issued in this cycle.
func (b *burstSequencer) advance() {
	remaining := b.remaining.Get()

	next := b.address.Get() + 1
	if b.address.Get() == b.lastAddress {
		next = 0
	}

	b.address.Set(next)
	b.remaining.Set(remaining - 1)

	if remaining <= 1 {
		b.state.Set(BurstIdle)
	}
}

// load starts a burst. A zero-length burst leaves the sequencer idle.
func (b *burstSequencer) load(address uint64, length uint) {
	if length == 0 {
		return
	}

	b.state.Set(BurstActive)
	b.address.Set(address)
	b.remaining.Set(length)
}

func (b *burstSequencer) commit() {
	b.state.Commit()
	b.address.Commit()
	b.remaining.Commit()
}

func (b *burstSequencer) reset() {
	b.state.Reset(BurstIdle)
	b.address.Reset(0)
	b.remaining.Reset(0)
}
