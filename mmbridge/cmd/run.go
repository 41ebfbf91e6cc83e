package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sarchlab/mmbridge/bench"
	"github.com/sarchlab/mmbridge/initiator"
	"github.com/sarchlab/mmbridge/monitoring"
	"github.com/sarchlab/mmbridge/sim"
	"github.com/sarchlab/mmbridge/tracing"
	"github.com/spf13/cobra"
)

type runOptions struct {
	trace       bool
	traceDB     string
	clickhouse  tracing.ClickHouseOptions
	monitor     bool
	monitorPort int
	openBrowser bool
	jsonOutput  bool
	logEvents   bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <scenario.json>",
	Short: "Run a scenario and print the read results.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := LoadScenario(args[0])
		if err != nil {
			return err
		}

		if err := s.Validate(); err != nil {
			return err
		}

		opts := runOpts
		if err := opts.applyEnv(cmd); err != nil {
			return err
		}

		return runScenario(s, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.BoolVar(&runOpts.trace, "trace", false,
		"Record every transfer of the bridge into a SQLite database")
	f.StringVar(&runOpts.traceDB, "trace-db", "",
		"Trace database name, without the .sqlite3 extension "+
			"(default $"+EnvTraceDB+" or a generated name)")
	f.StringVar(&runOpts.clickhouse.Addr, "clickhouse", "",
		"Trace into the ClickHouse server at host:port instead of SQLite "+
			"(default $"+EnvClickHouseAddr+")")
	f.StringVar(&runOpts.clickhouse.Database, "clickhouse-db", "default",
		"ClickHouse database to trace into")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"Serve the monitoring API while the scenario runs")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"Monitoring port (default $"+EnvMonitorPort+" or a random port)")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"Open the monitoring API in a browser")
	f.BoolVar(&runOpts.jsonOutput, "json", false,
		"Print the read results as JSON")
	f.BoolVar(&runOpts.logEvents, "log-events", false,
		"Log every simulation event to stderr")
}

func (o *runOptions) applyEnv(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("trace-db") {
		o.traceDB = os.Getenv(EnvTraceDB)
	}

	if !cmd.Flags().Changed("clickhouse") {
		o.clickhouse.Addr = os.Getenv(EnvClickHouseAddr)
	}

	o.clickhouse.Username = os.Getenv(EnvClickHouseUser)
	o.clickhouse.Password = os.Getenv(EnvClickHousePassword)

	if v := os.Getenv(EnvMonitorPort); v != "" &&
		!cmd.Flags().Changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvMonitorPort)
		}

		o.monitorPort = port
	}

	return nil
}

func runScenario(s Scenario, opts runOptions, out io.Writer) error {
	engine := sim.NewSerialEngine()

	b, err := s.Bench(engine)
	if err != nil {
		return err
	}

	if opts.logEvents {
		engine.AcceptHook(sim.NewEventLogger(log.New(os.Stderr, "", 0)))
	}

	var tracer *tracing.TransferTracer
	if opts.trace {
		tracer, err = attachTracer(b, opts)
		if err != nil {
			return err
		}
	}

	if opts.monitor {
		m, err := startMonitor(b, opts)
		if err != nil {
			return err
		}
		defer stopMonitor(m)
	}

	if err := b.Run(); err != nil {
		return err
	}

	if tracer != nil {
		if err := tracer.Flush(); err != nil {
			return err
		}
	}

	return report(out, s, b, opts.jsonOutput)
}

func attachTracer(
	b *bench.Bench,
	opts runOptions,
) (*tracing.TransferTracer, error) {
	recorder, err := newRecorder(opts)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.NewTransferTracer(recorder)
	if err != nil {
		return nil, err
	}

	tracer.CollectTrace(b.Adapter())

	return tracer, nil
}

func newRecorder(opts runOptions) (tracing.Recorder, error) {
	if opts.clickhouse.Addr != "" {
		return tracing.NewClickHouseRecorder(opts.clickhouse)
	}

	return tracing.NewRecorder(opts.traceDB)
}

func startMonitor(
	b *bench.Bench,
	opts runOptions,
) (*monitoring.Monitor, error) {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	if opts.openBrowser {
		m.WithBrowser()
	}

	m.RegisterEngine(b.Engine())
	m.RegisterComponent(b)
	m.RegisterComponent(b.Adapter())
	m.RegisterComponent(b.Initiator())
	m.RegisterComponent(b.Target())

	bar := m.CreateProgressBar("Transactions",
		uint64(b.Initiator().ScriptLength()))
	b.Engine().AcceptHook(&progressHook{bar: bar, initiator: b.Initiator()})

	if _, err := m.StartServer(); err != nil {
		return nil, errors.Wrap(err, "starting monitor")
	}

	return m, nil
}

func stopMonitor(m *monitoring.Monitor) {
	if err := m.StopServer(); err != nil {
		log.Printf("stopping monitor: %v", err)
	}
}

// progressHook moves the progress bar as the initiator issues transactions.
type progressHook struct {
	bar       *monitoring.ProgressBar
	initiator *initiator.Initiator
	issued    int
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	issued := h.initiator.Issued()
	if issued > h.issued {
		h.bar.IncrementFinished(uint64(issued - h.issued))
		h.issued = issued
	}
}

type runReport struct {
	Scenario  string                 `json:"scenario"`
	Cycles    uint64                 `json:"cycles"`
	Transfers int                    `json:"transfers"`
	Reads     []initiator.ReadResult `json:"reads"`
}

func report(out io.Writer, s Scenario, b *bench.Bench, asJSON bool) error {
	r := runReport{
		Scenario:  s.Name,
		Cycles:    b.Cycles(),
		Transfers: len(b.Target().Transfers()),
		Reads:     b.Initiator().Results(),
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		return enc.Encode(r)
	}

	fmt.Fprintf(out, "%s: %d cycles, %d master transfers, %d reads\n",
		r.Scenario, r.Cycles, r.Transfers, len(r.Reads))

	for _, rd := range r.Reads {
		fmt.Fprintf(out, "  cycle %6d  read 0x%x = %s\n",
			rd.Cycle, rd.Address, rd.Data)
	}

	return nil
}
