package bridge

import "github.com/sarchlab/mmbridge/sim"

// command is a transfer on the master side, before the optional signals are
// mapped to the physical port.
type command struct {
	read       bool
	write      bool
	address    uint64 // master word address
	lane       uint64
	byteEnable uint64
	data       Word
	burstCount uint
}

func (c command) valid() bool {
	return c.read || c.write
}

// A dataPath places slave data on the master bus and picks slave data out of
// master read data. The variant is chosen once when the bridge is built.
type dataPath interface {
	packWrite(data Word) Word
	laneEnable(byteEnable uint64, lane uint64) uint64
	unpackRead(data Word, lane uint64) Word
}

func newDataPath(c Config) dataPath {
	s, m := c.Slave.SymbolsPerWord(), c.Master.SymbolsPerWord()
	if m < s {
		return truncatingDataPath{slaveSymbols: s, masterSymbols: m}
	}

	return laneDataPath{slaveSymbols: s, lanes: m / s}
}

// laneDataPath serves masters that are at least as wide as the slave. The
// master word is split into lanes of slave width.
type laneDataPath struct {
	slaveSymbols int
	lanes        int
}

// packWrite replicates the slave word into every lane. The byte enables
// decide which lane is actually written.
func (p laneDataPath) packWrite(data Word) Word {
	slaveWord := data.Fit(p.slaveSymbols)
	out := make(Word, p.slaveSymbols*p.lanes)

	for l := 0; l < p.lanes; l++ {
		copy(out[l*p.slaveSymbols:], slaveWord)
	}

	return out
}

// laneEnable moves the slave byte enables to the addressed lane.
func (p laneDataPath) laneEnable(byteEnable uint64, lane uint64) uint64 {
	be := byteEnable & laneMask(p.slaveSymbols)

	return be << (lane * uint64(p.slaveSymbols))
}

// unpackRead selects the addressed lane. Symbols missing from the master
// data read as zero.
func (p laneDataPath) unpackRead(data Word, lane uint64) Word {
	out := make(Word, p.slaveSymbols)

	start := int(lane) * p.slaveSymbols
	if start < len(data) {
		copy(out, data[start:])
	}

	return out
}

// truncatingDataPath serves masters narrower than the slave. Writes lose the
// upper symbols and reads are zero-padded.
type truncatingDataPath struct {
	slaveSymbols  int
	masterSymbols int
}

func (p truncatingDataPath) packWrite(data Word) Word {
	return data.Fit(p.masterSymbols)
}

func (p truncatingDataPath) laneEnable(byteEnable uint64, _ uint64) uint64 {
	return byteEnable & laneMask(p.masterSymbols)
}

func (p truncatingDataPath) unpackRead(data Word, _ uint64) Word {
	return data.Fit(p.masterSymbols).Fit(p.slaveSymbols)
}

// readTag follows an accepted master read until its data returns.
type readTag struct {
	valid bool
	lane  uint64
}

// readResponse is the read data presented to the slave in one cycle.
type readResponse struct {
	valid bool
	data  Word
}

// readPath aligns the lane select with the master read latency and
// optionally registers the response.
type readPath struct {
	data      dataPath
	symbols   int
	inflight  *sim.DelayLine[readTag]
	responses *sim.DelayLine[readResponse]
}

func newReadPath(c Config, data dataPath) *readPath {
	p := &readPath{
		data:     data,
		symbols:  c.Slave.SymbolsPerWord(),
		inflight: sim.NewDelayLine[readTag](c.ReadLatency),
	}

	if c.PipelineRead {
		p.responses = sim.NewDelayLine[readResponse](1)
	}

	return p
}

// track records a read accepted by the master in this cycle.
func (p *readPath) track(lane uint64) {
	p.inflight.Push(readTag{valid: true, lane: lane})
}

// respond computes the slave read response of this cycle from the master
// read data.
func (p *readPath) respond(masterData Word) readResponse {
	rsp := readResponse{data: make(Word, p.symbols)}

	tag := p.inflight.Out()
	if tag.valid {
		rsp.valid = true
		rsp.data = p.data.unpackRead(masterData, tag.lane)
	}

	if p.responses == nil {
		return rsp
	}

	p.responses.Push(rsp)

	registered := p.responses.Out()
	if !registered.valid {
		registered.data = make(Word, p.symbols)
	}

	return registered
}

// latency returns the cycles from master acceptance to slave data.
func (p *readPath) latency() int {
	l := p.inflight.Depth()
	if p.responses != nil {
		l += p.responses.Depth()
	}

	return l
}

// busy returns true while a tracked read has not been returned.
func (p *readPath) busy() bool {
	if p.inflight.Any(func(t readTag) bool { return t.valid }) {
		return true
	}

	return p.responses != nil &&
		p.responses.Any(func(r readResponse) bool { return r.valid })
}

func (p *readPath) commit() {
	p.inflight.Commit()

	if p.responses != nil {
		p.responses.Commit()
	}
}

func (p *readPath) reset() {
	p.inflight.Reset()

	if p.responses != nil {
		p.responses.Reset()
	}
}
