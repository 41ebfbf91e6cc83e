package cmd

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bench"
	"github.com/sarchlab/mmbridge/bridge"
	"github.com/sarchlab/mmbridge/initiator"
	"github.com/sarchlab/mmbridge/memtarget"
	"github.com/sarchlab/mmbridge/sim"
)

// A Scenario describes one bench run.
type Scenario struct {
	Name       string                  `json:"name"`
	Bridge     bridge.Config           `json:"bridge"`
	FreqMHz    float64                 `json:"freq_mhz"`
	CycleLimit uint64                  `json:"cycle_limit"`
	Capacity   uint64                  `json:"capacity"`
	Wait       WaitSpec                `json:"wait"`
	Script     []initiator.Transaction `json:"script"`
}

// WaitSpec describes when the target asserts wait-request. Cycles lists
// single cycles. A non-zero Period asserts wait-request in the first Busy
// cycles of every period.
type WaitSpec struct {
	Cycles []uint64 `json:"cycles,omitempty"`
	Period uint64   `json:"period,omitempty"`
	Busy   uint64   `json:"busy,omitempty"`
}

// Waits implements memtarget.WaitSchedule.
func (s WaitSpec) Waits(cycle uint64) bool {
	if (memtarget.Periodic{Period: s.Period, Busy: s.Busy}).Waits(cycle) {
		return true
	}

	for _, c := range s.Cycles {
		if c == cycle {
			return true
		}
	}

	return false
}

func defaultScenario() Scenario {
	return Scenario{
		Name:       "scenario",
		Bridge:     bridge.MakeBuilder().Config(),
		FreqMHz:    1000,
		CycleLimit: 1_000_000,
		Capacity:   1 << 32,
	}
}

// LoadScenario reads a scenario file. Fields missing from the file keep
// their defaults: a 32-bit to 32-bit bridge with every signal, a 1 GHz clock
// and a target that never waits.
func LoadScenario(filename string) (Scenario, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Scenario{}, errors.Wrap(err, "opening scenario")
	}
	defer f.Close()

	s := defaultScenario()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&s); err != nil {
		return Scenario{}, errors.Wrapf(err, "parsing %s", filename)
	}

	return s, nil
}

// Validate checks the scenario without running it.
func (s Scenario) Validate() error {
	if err := s.Bridge.Validate(); err != nil {
		return errors.WithMessagef(err, "scenario %s", s.Name)
	}

	if s.FreqMHz <= 0 {
		return errors.Errorf("scenario %s: frequency must be positive",
			s.Name)
	}

	if s.Wait.Period != 0 && s.Wait.Busy >= s.Wait.Period {
		return errors.Errorf("scenario %s: the target would always wait",
			s.Name)
	}

	words := s.Capacity / uint64(s.Bridge.Master.SymbolsPerWord())
	for i, tx := range s.Script {
		if tx.Kind == initiator.Write && len(tx.Data) == 0 {
			return errors.Errorf("scenario %s: transaction %d has no data",
				s.Name, i)
		}

		if s.isBurst(tx) && tx.BurstCount > uint(s.Bridge.MaxBurstLength) {
			return errors.Errorf(
				"scenario %s: transaction %d bursts %d beats, more than %d",
				s.Name, i, tx.BurstCount, s.Bridge.MaxBurstLength)
		}

		if s.masterWord(tx.Address) >= words ||
			s.masterWord(s.lastAddress(tx)) >= words {
			return errors.Errorf(
				"scenario %s: transaction %d address 0x%x is beyond "+
					"the target", s.Name, i, tx.Address)
		}
	}

	return nil
}

func (s Scenario) isBurst(tx initiator.Transaction) bool {
	return s.Bridge.Burst && tx.Kind == initiator.Read
}

// lastAddress returns the slave address of the last beat of a transaction.
// A burst that wraps passes through the top of the address space.
func (s Scenario) lastAddress(tx initiator.Transaction) uint64 {
	if !s.isBurst(tx) || tx.BurstCount <= 1 {
		return tx.Address
	}

	step := uint64(1)
	if s.Bridge.Slave.SymbolAddressing {
		step = uint64(s.Bridge.Slave.SymbolsPerWord())
	}

	mask := s.Bridge.Slave.AddressMask()
	span := uint64(tx.BurstCount-1) * step

	if tx.Address > mask || span > mask-tx.Address {
		return mask
	}

	return tx.Address + span
}

func (s Scenario) masterWord(addr uint64) uint64 {
	if s.Bridge.Slave.SymbolAddressing {
		addr /= uint64(s.Bridge.Slave.SymbolsPerWord())
	}

	return addr / uint64(s.Bridge.PackingFactor())
}

// Bench builds the bench that runs the scenario.
func (s Scenario) Bench(engine sim.Engine) (*bench.Bench, error) {
	return bench.MakeBuilder().
		WithEngine(engine).
		WithFreq(sim.Freq(s.FreqMHz) * sim.MHz).
		WithConfig(s.Bridge).
		WithScript(s.Script).
		WithWaitSchedule(s.Wait).
		WithCapacity(s.Capacity).
		WithCycleLimit(s.CycleLimit).
		Build("Bench")
}
