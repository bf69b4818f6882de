package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/routesim/sim"
	"github.com/inference-sim/routesim/sim/session"
	"github.com/inference-sim/routesim/sim/trace"
)

var (
	// CLI flags for the run command
	seed         int64         // Seed for latency jitter and adaptive winner selection
	ticks        int64         // Number of ticks to simulate (0 = until interrupted, requires --interval)
	interval     time.Duration // Wall-clock pause between ticks (0 = as fast as possible)
	logLevel     string        // Log verbosity level
	outputFormat string        // Report format: text or json
	traceLevel   string        // Decision trace level: none or decisions
	scenarioPath string        // Optional scenario YAML
	envFile      string        // Optional .env file with ROUTESIM_* defaults
	failFlags    []string      // id@tick entries marking nodes failed
	restoreFlags []string      // id@tick entries restoring nodes
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "routesim",
	Short: "Discrete-time simulator comparing round-robin and adaptive winner-take-all routing",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the routing simulation",
	Run: func(cmd *cobra.Command, args []string) {
		explicit := changedFlags(cmd.Flags())
		applied, err := applyEnvFile(envFile, cmd.Flags(), explicit)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		if len(applied) > 0 {
			logrus.Debugf("Applied env defaults from %s: %v", envFile, applied)
		}

		sc, err := resolveScenario(explicit)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if ticks == 0 && interval == 0 {
			logrus.Fatalf("--ticks must be positive unless --interval paces an open-ended run")
		}
		if outputFormat != "text" && outputFormat != "json" {
			logrus.Fatalf("Invalid output format %q (want text or json)", outputFormat)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q (want none or decisions)", traceLevel)
		}

		logrus.Infof("Starting simulation seed=%d ticks=%d interval=%v nodes=%d chaos_events=%d",
			seed, ticks, interval, len(sc.BuildRoster()), len(sc.Chaos))

		startTime := time.Now()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report := runSimulation(ctx, sc, seed, ticks, interval, trace.TraceLevel(traceLevel))

		logrus.Infof("Simulation complete: %d ticks in %v", report.State.ElapsedTime, time.Since(startTime))
		if err := writeReport(os.Stdout, report, outputFormat); err != nil {
			logrus.Fatalf("Failed to write report: %v", err)
		}
	},
}

// rosterCmd prints the roster a run would start from
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Print the node roster as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		sc := &Scenario{}
		if scenarioPath != "" {
			loaded, err := LoadScenario(scenarioPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := loaded.Validate(); err != nil {
				logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
			}
			sc = loaded
		}
		if err := writeRoster(os.Stdout, sc.BuildRoster()); err != nil {
			logrus.Fatalf("Failed to write roster: %v", err)
		}
	},
}

// resolveScenario loads the scenario file (if any), lets it supply values
// for flags the user did not set, and appends --fail/--restore events.
func resolveScenario(explicit map[string]bool) (*Scenario, error) {
	sc := &Scenario{}
	if scenarioPath != "" {
		loaded, err := LoadScenario(scenarioPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
		if sc.Seed != nil && !explicit["seed"] {
			seed = *sc.Seed
		}
		if sc.Ticks != nil && !explicit["ticks"] {
			ticks = *sc.Ticks
		}
		if sc.Interval > 0 && !explicit["interval"] {
			interval = sc.Interval
		}
	}
	for _, f := range failFlags {
		ev, err := ParseChaosFlag(f, true)
		if err != nil {
			return nil, err
		}
		sc.Chaos = append(sc.Chaos, ev)
	}
	for _, f := range restoreFlags {
		ev, err := ParseChaosFlag(f, false)
		if err != nil {
			return nil, err
		}
		sc.Chaos = append(sc.Chaos, ev)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}

// runSimulation drives a fresh session through the scenario and returns
// the final report. Chaos events are applied just before their tick.
func runSimulation(ctx context.Context, sc *Scenario, seed, maxTicks int64, interval time.Duration, level trace.TraceLevel) *Report {
	engine := sim.NewEngine(sim.NewSimulationKey(seed))
	var st *trace.SimulationTrace
	if level == trace.TraceLevelDecisions {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
		engine.SetTrace(st)
	}

	sess := session.New(engine, sc.BuildRoster())
	schedule := NewChaosSchedule(sc.Chaos)
	if len(schedule) > 0 {
		logrus.Infof("Chaos scheduled at ticks %v", schedule.Ticks())
	}
	sess.Start()

	driver := &session.Driver{
		Session:  sess,
		Interval: interval,
		BeforeTick: func(next int64) {
			for id, failed := range schedule[next] {
				sess.SetFailed(id, failed)
			}
		},
		OnTick: func(s sim.SimulationState) {
			if interval > 0 {
				logrus.Infof("[%s] trad=%.0fms/%.1f%% neuro=%.0fms/%.1f%%",
					sim.FormatElapsed(s.ElapsedTime),
					s.Traditional.Stats.AvgLatency, s.Traditional.Stats.SuccessRate,
					s.Adaptive.Stats.AvgLatency, s.Adaptive.Stats.SuccessRate)
			}
		},
	}
	driver.Run(ctx, maxTicks)
	sess.Pause()

	return NewReport(seed, sess.Snapshot(), st)
}

func writeReport(w io.Writer, r *Report, format string) error {
	if format == "json" {
		return r.WriteJSON(w)
	}
	return r.WriteText(w)
}

func writeRoster(w io.Writer, nodes []sim.ServiceNode) error {
	specs := make([]NodeSpec, len(nodes))
	for i, n := range nodes {
		latency := n.Latency
		specs[i] = NodeSpec{ID: n.ID, Name: n.Name, Kind: string(n.Kind), Load: n.Load, Latency: &latency}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(struct {
		Roster []NodeSpec `yaml:"roster"`
	}{specs})
}

func changedFlags(flags *pflag.FlagSet) map[string]bool {
	changed := make(map[string]bool)
	flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for latency jitter and adaptive winner selection")
	runCmd.Flags().Int64Var(&ticks, "ticks", 120, "Number of ticks to simulate (0 runs until interrupted; requires --interval)")
	runCmd.Flags().DurationVar(&interval, "interval", 0, "Wall-clock pause between ticks (e.g. 1s); 0 runs as fast as possible")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&outputFormat, "output", "text", "Report format (text, json)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")
	runCmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional .env file providing ROUTESIM_* defaults")
	runCmd.Flags().StringArrayVar(&failFlags, "fail", nil, "Mark a node failed from a tick on, as id@tick; a bare id means id@0 (repeatable)")
	runCmd.Flags().StringArrayVar(&restoreFlags, "restore", nil, "Restore a node from a tick on, as id@tick; a bare id means id@0 (repeatable)")

	rosterCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")

	// Attach subcommands to root
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rosterCmd)
}
