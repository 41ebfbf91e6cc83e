// Package initiator provides a scripted requester that drives the slave port
// of a bridge.
package initiator

import "github.com/sarchlab/mmbridge/bridge"

// An Initiator issues a script of transactions one at a time. A transaction
// is held until the bridge stops asserting wait-request.
//
// Every cycle, call Drive, pass the outputs of the bridge to Observe, and
// call Tick at the clock edge.
type Initiator struct {
	name  string
	port  bridge.PortSpec
	burst bool

	script   []Transaction
	next     int
	driving  bool
	expected []uint64
	results  []ReadResult
	spurious int
	cycle    uint64
}

// Name returns the name of the initiator.
func (i *Initiator) Name() string {
	return i.name
}

// Results returns the read data received so far, in arrival order.
func (i *Initiator) Results() []ReadResult {
	return i.results
}

// Issued returns the number of transactions accepted by the bridge.
func (i *Initiator) Issued() int {
	return i.next
}

// ScriptLength returns the number of transactions in the script.
func (i *Initiator) ScriptLength() int {
	return len(i.script)
}

// Outstanding returns the number of read beats not returned yet.
func (i *Initiator) Outstanding() int {
	return len(i.expected)
}

// Spurious returns the number of read beats that no read asked for.
func (i *Initiator) Spurious() int {
	return i.spurious
}

// Done returns true when every transaction has been accepted and every read
// beat has returned.
func (i *Initiator) Done() bool {
	return i.next >= len(i.script) && len(i.expected) == 0
}

// Drive returns the slave inputs of this cycle.
func (i *Initiator) Drive() bridge.SlaveInputs {
	in := bridge.SlaveInputs{
		ClockEnable: true,
		Read:        i.port.ReadActiveLow,
	}

	i.driving = i.next < len(i.script)
	if !i.driving {
		return in
	}

	tx := i.script[i.next]
	in.Address = tx.Address
	in.ChipSelect = true
	in.ByteEnable = ^uint64(0)

	if tx.ByteEnable != nil {
		in.ByteEnable = *tx.ByteEnable
	}

	switch tx.Kind {
	case Write:
		in.Write = true
		in.WriteData = tx.Data.Fit(i.port.SymbolsPerWord())
	case Read:
		in.Read = !i.port.ReadActiveLow
		in.BurstCount = tx.BurstCount
	}

	return in
}

// Observe takes the bridge outputs of this cycle.
func (i *Initiator) Observe(out bridge.SlaveOutputs) {
	if out.ReadDataValid {
		i.collect(out.ReadData)
	}

	if !i.driving {
		return
	}

	if i.port.HasWaitRequest && out.WaitRequest {
		return
	}

	tx := i.script[i.next]
	if tx.Kind == Read {
		i.expect(tx)
	}

	i.next++
}

// Tick moves the initiator to the next cycle.
func (i *Initiator) Tick() {
	i.driving = false
	i.cycle++
}

func (i *Initiator) expect(tx Transaction) {
	beats := uint(1)
	if i.burst {
		beats = tx.BurstCount
	}

	step := uint64(1)
	if i.port.SymbolAddressing {
		step = uint64(i.port.SymbolsPerWord())
	}

	mask := i.port.AddressMask()
	for b := uint(0); b < beats; b++ {
		i.expected = append(i.expected, (tx.Address+uint64(b)*step)&mask)
	}
}

func (i *Initiator) collect(data bridge.Word) {
	if len(i.expected) == 0 {
		i.spurious++
		return
	}

	i.results = append(i.results, ReadResult{
		Cycle:   i.cycle,
		Address: i.expected[0],
		Data:    append(bridge.Word(nil), data...),
	})
	i.expected = i.expected[1:]
}
