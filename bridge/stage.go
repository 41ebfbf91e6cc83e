package bridge

import "github.com/sarchlab/mmbridge/sim"

// A commandStage sits between the bridge logic and the master port.
type commandStage interface {
	// output returns the command presented to the master in this cycle,
	// given the command the bridge logic wants to issue.
	output(issue command) command

	// ready tells whether the stage takes a new command in this cycle.
	ready(masterWait, bursting bool) bool

	// advance stages the command to enter the stage at the next edge. It
	// must only be called when the stage is ready.
	advance(issue command)

	commit()
	reset()
}

func newCommandStage(c Config) commandStage {
	if c.PipelineWrite {
		return &registerStage{reg: sim.NewRegister(command{})}
	}

	return bypassStage{}
}

// bypassStage is a wire. The master sees the command in the same cycle.
type bypassStage struct{}

func (bypassStage) output(issue command) command {
	return issue
}

func (bypassStage) ready(masterWait, _ bool) bool {
	return !masterWait
}

func (bypassStage) advance(command) {}

func (bypassStage) commit() {}

func (bypassStage) reset() {}

// registerStage delays the command by one cycle. It advances only when the
// master does not wait, or unconditionally while bursting, so a command that
// meets a wait-request is held rather than dropped.
type registerStage struct {
	reg *sim.Register[command]
}

func (s *registerStage) output(command) command {
	return s.reg.Get()
}

func (s *registerStage) ready(masterWait, bursting bool) bool {
	return !masterWait || bursting
}

func (s *registerStage) advance(issue command) {
	s.reg.Set(issue)
}

func (s *registerStage) commit() {
	s.reg.Commit()
}

func (s *registerStage) reset() {
	s.reg.Reset(command{})
}
