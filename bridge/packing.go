package bridge

import "github.com/sarchlab/mmbridge/sim"

// writeAccumulator merges narrow writes to the same master word into one
// master write. The merged word is flushed when its last lane is written,
// when a write goes to another master word, when a read arrives, or when
// the slave is idle for a cycle.
//
// This mode follows a behavior that was never verified on hardware. Treat it
// as best effort.
type writeAccumulator struct {
	pending  *sim.Register[command]
	lastLane uint64
}

// packPlan is the decision of the accumulator for one cycle. It only takes
// effect if the command stage is ready.
type packPlan struct {
	issue      command
	next       command
	blockSlave bool
}

func newWriteAccumulator(c Config) *writeAccumulator {
	return &writeAccumulator{
		pending:  sim.NewRegister(command{}),
		lastLane: uint64(c.PackingFactor() - 1),
	}
}

func (w *writeAccumulator) busy() bool {
	return w.pending.Get().valid()
}

func (w *writeAccumulator) plan(cmd command) packPlan {
	acc := w.pending.Get()

	switch {
	case cmd.read && acc.valid():
		return packPlan{issue: acc, blockSlave: true}
	case cmd.read:
		return packPlan{issue: cmd}
	case cmd.write && acc.valid() && acc.address == cmd.address:
		return w.collect(merge(acc, cmd))
	case cmd.write && acc.valid():
		return packPlan{issue: acc, next: asPacked(cmd)}
	case cmd.write:
		return w.collect(asPacked(cmd))
	default:
		return packPlan{issue: acc}
	}
}

func (w *writeAccumulator) collect(acc command) packPlan {
	if acc.lane == w.lastLane {
		return packPlan{issue: acc}
	}

	return packPlan{next: acc}
}

func (w *writeAccumulator) apply(p packPlan) {
	w.pending.Set(p.next)
}

func (w *writeAccumulator) commit() {
	w.pending.Commit()
}

func (w *writeAccumulator) reset() {
	w.pending.Reset(command{})
}

func asPacked(cmd command) command {
	cmd.burstCount = 1
	cmd.data = append(Word(nil), cmd.data...)

	return cmd
}

// merge overlays the enabled symbols of cmd onto acc.
func merge(acc, cmd command) command {
	out := asPacked(acc)
	out.lane = cmd.lane

	for i := range out.data {
		if i < len(cmd.data) && cmd.byteEnable&(uint64(1)<<i) != 0 {
			out.data[i] = cmd.data[i]
		}
	}

	out.byteEnable |= cmd.byteEnable

	return out
}
