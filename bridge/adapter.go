package bridge

import (
	"log"

	"github.com/sarchlab/mmbridge/sim"
)

// HookPosMasterAccept marks a transfer accepted by the master port. The item
// is a Transfer.
var HookPosMasterAccept = &sim.HookPos{Name: "MasterAccept"}

// HookPosSlaveReadData marks read data returned to the slave port. The item
// is a ReadBeat.
var HookPosSlaveReadData = &sim.HookPos{Name: "SlaveReadData"}

// TransferKind tells reads from writes.
type TransferKind int

// Kinds of transfers.
const (
	TransferRead TransferKind = iota
	TransferWrite
)

func (k TransferKind) String() string {
	if k == TransferWrite {
		return "write"
	}

	return "read"
}

// A Transfer is one transfer accepted by the master port.
type Transfer struct {
	Cycle      uint64
	Kind       TransferKind
	Address    uint64
	Lane       uint64
	ByteEnable uint64
	Data       Word
	BurstCount uint
}

// A ReadBeat is one word of read data delivered to the slave port.
type ReadBeat struct {
	Cycle uint64
	Data  Word
}

// A Responder is the target behind the master port. It answers the master
// outputs of the current cycle.
type Responder interface {
	Respond(out MasterOutputs) MasterInputs
}

// ResponderFunc adapts a function to a Responder.
type ResponderFunc func(out MasterOutputs) MasterInputs

// Respond calls f.
func (f ResponderFunc) Respond(out MasterOutputs) MasterInputs {
	return f(out)
}

// cyclePlan keeps what the combinational logic decided in the current cycle
// until the clock edge.
type cyclePlan struct {
	driven    bool
	responded bool

	req       request
	issue     command
	out       command
	beat      bool
	loadBurst bool
	pack      packPlan

	masterWait bool
	ready      bool
	slaveWait  bool
	response   readResponse
}

// An Adapter bridges a slave port to a master port of a different width.
//
// Every cycle, call DriveMaster with the slave inputs, then RespondSlave with
// the master inputs, then Tick. Evaluate performs the first two steps.
type Adapter struct {
	sim.HookableBase

	name string
	cfg  Config

	signals signalResolver
	split   addressSplitter
	data    dataPath
	reads   *readPath
	stage   commandStage
	burst   *burstSequencer
	packer  *writeAccumulator

	cycle uint64
	cur   cyclePlan
}

// Name returns the name of the adapter.
func (a *Adapter) Name() string {
	return a.name
}

// Config returns the configuration of the adapter.
func (a *Adapter) Config() Config {
	return a.cfg
}

// CurrentCycle returns the number of clock edges seen since creation.
func (a *Adapter) CurrentCycle() uint64 {
	return a.cycle
}

// BurstState returns the state of the burst sequencer.
func (a *Adapter) BurstState() BurstState {
	if a.burst == nil {
		return BurstIdle
	}

	return a.burst.state.Get()
}

// ReadLatency returns the number of cycles between the slave read being
// accepted and its data, when the master does not wait.
func (a *Adapter) ReadLatency() int {
	l := a.reads.latency()
	if a.cfg.PipelineWrite {
		l++
	}

	return l
}

// Busy returns true while a burst, a held command, a merged write or a read
// is still in flight.
func (a *Adapter) Busy() bool {
	if a.burst != nil && a.burst.bursting() {
		return true
	}

	if a.packer != nil && a.packer.busy() {
		return true
	}

	if rs, ok := a.stage.(*registerStage); ok && rs.reg.Get().valid() {
		return true
	}

	return a.reads.busy()
}

// DriveMaster computes the master outputs of this cycle.
func (a *Adapter) DriveMaster(in SlaveInputs) MasterOutputs {
	p := cyclePlan{driven: true}
	p.req = a.signals.resolveSlave(in)

	switch {
	case a.burst != nil && a.burst.bursting():
		addr, _ := a.burst.beat()
		p.beat = true
		p.issue = a.toCommand(request{read: true, address: addr,
			byteEnable: a.cfg.Slave.byteEnableMask()})
	case a.burst != nil && p.req.read:
		p.loadBurst = true
	case a.packer != nil:
		p.pack = a.packer.plan(a.toCommand(p.req))
		p.issue = p.pack.issue
	default:
		p.issue = a.toCommand(p.req)
	}

	p.out = a.stage.output(p.issue)
	a.cur = p

	return a.signals.driveMaster(p.out)
}

// RespondSlave computes the slave outputs of this cycle.
func (a *Adapter) RespondSlave(in MasterInputs) SlaveOutputs {
	if !a.cur.driven {
		log.Panic("RespondSlave called before DriveMaster")
	}

	p := &a.cur
	bursting := a.burst != nil && a.burst.bursting()

	p.masterWait = a.signals.masterWait(in)
	p.ready = a.stage.ready(p.masterWait, bursting)
	p.slaveWait = !p.ready || bursting || p.pack.blockSlave
	p.response = a.reads.respond(in.ReadData)
	p.responded = true

	return SlaveOutputs{
		WaitRequest:   p.slaveWait && a.cfg.Slave.HasWaitRequest,
		ReadData:      p.response.data,
		ReadDataValid: p.response.valid,
	}
}

// Evaluate drives the master, asks the target for its response and returns
// the slave outputs and the master outputs of this cycle.
func (a *Adapter) Evaluate(
	in SlaveInputs,
	target Responder,
) (SlaveOutputs, MasterOutputs) {
	m := a.DriveMaster(in)
	s := a.RespondSlave(target.Respond(m))

	return s, m
}

// Accepted tells if the slave request of this cycle is taken by the bridge.
// It is only meaningful after RespondSlave.
func (a *Adapter) Accepted() bool {
	return a.cur.responded && a.cur.req.valid() && !a.cur.slaveWait
}

// Tick is the clock edge. All registers take their next value at once.
func (a *Adapter) Tick() {
	p := a.cur
	if !p.responded {
		log.Panic("Tick called before RespondSlave")
	}

	if p.out.valid() && !p.masterWait {
		if p.out.read {
			a.reads.track(p.out.lane)
		}

		a.invokeTransferHook(p.out)
	}

	if p.response.valid {
		a.InvokeHook(sim.HookCtx{
			Domain: a,
			Pos:    HookPosSlaveReadData,
			Item:   ReadBeat{Cycle: a.cycle, Data: p.response.data},
		})
	}

	if p.ready {
		a.advance(p)
	}

	a.commit()
	a.cycle++
	a.cur = cyclePlan{}
}

func (a *Adapter) advance(p cyclePlan) {
	a.stage.advance(p.issue)

	if p.beat {
		a.burst.advance()
	}

	if p.loadBurst && !p.slaveWait {
		a.burst.load(p.req.address, p.req.burstCount)
	}

	if a.packer != nil {
		a.packer.apply(p.pack)
	}
}

func (a *Adapter) commit() {
	a.stage.commit()
	a.reads.commit()

	if a.burst != nil {
		a.burst.commit()
	}

	if a.packer != nil {
		a.packer.commit()
	}
}

// Reset returns the adapter to idle. Bursts, held commands, merged writes and
// reads in flight are lost.
func (a *Adapter) Reset() {
	a.stage.reset()
	a.reads.reset()

	if a.burst != nil {
		a.burst.reset()
	}

	if a.packer != nil {
		a.packer.reset()
	}

	a.cur = cyclePlan{}
}

func (a *Adapter) toCommand(req request) command {
	if !req.valid() {
		return command{}
	}

	word, lane := a.split.Split(req.address)
	cmd := command{
		read:       req.read,
		write:      req.write,
		address:    word,
		lane:       lane,
		byteEnable: a.data.laneEnable(req.byteEnable, lane),
	}

	if req.write {
		cmd.data = a.data.packWrite(req.data)
	}

	return cmd
}

func (a *Adapter) invokeTransferHook(cmd command) {
	if a.NumHooks() == 0 {
		return
	}

	out := a.signals.driveMaster(cmd)
	t := Transfer{
		Cycle:      a.cycle,
		Kind:       TransferRead,
		Address:    out.Address,
		Lane:       cmd.lane,
		ByteEnable: out.ByteEnable,
		BurstCount: out.BurstCount,
	}

	if cmd.write {
		t.Kind = TransferWrite
		t.Data = out.WriteData
	}

	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosMasterAccept,
		Item:   t,
	})
}
