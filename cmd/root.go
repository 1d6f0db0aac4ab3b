package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/conveyor-sim/conveyor-sim/sim"
	"github.com/conveyor-sim/conveyor-sim/sim/publish"
	"github.com/conveyor-sim/conveyor-sim/sim/report"
	"github.com/conveyor-sim/conveyor-sim/sim/scenario"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

var (
	// Plant and scenario selection
	plantName    string // Built-in plant preset
	configPath   string // YAML overlay on the plant preset
	scenarioName string // Built-in scenario preset
	scenarioPath string // YAML scenario file, wins over scenarioName
	tripScope    string // "global" or "segment"

	// Run parameters, applied only when set on the command line
	duration     float64 // Simulated seconds
	dt           float64 // Fixed step in seconds
	samplePeriod float64 // Seconds between samples
	speedFactor  float64 // Simulated seconds per wall second
	startDelay   float64 // Wall seconds before the first tick
	seed         int64   // Seed for package spawning and sensor noise
	logLevel     string  // Log verbosity level

	// Outputs
	quiet    bool   // Suppress the status table
	plotPath string // PNG of speeds and frequencies
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "conveyor-sim",
	Short: "Fixed-step simulator for a VFD-driven conveyor line",
}

// runCmd runs a plant through a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the conveyor simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := resolvePlant(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec, err := resolveScenario(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		sinks, srv, err := buildSinks(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() {
			if err := sinks.Close(); err != nil {
				logrus.Warnf("closing sinks: %v", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startTime := time.Now()
		s, err := runSimulation(ctx, cfg, spec, sinks)
		if err != nil {
			logrus.Errorf("simulation stopped: %v", err)
		}
		if s == nil {
			os.Exit(1)
		}

		report.PrintEventLog(os.Stdout, s.EventLog.Entries())
		report.PrintSummary(os.Stdout, trace.Summarize(s.Trace), summaryChannels(s))
		if err := recordEventLog(ctx, s, sinks); err != nil {
			logrus.Warnf("recording event log: %v", err)
		}
		if plotPath != "" {
			if err := report.PlotPNG(s.Trace, cfg.Name+" motor speed", speedChannels(s), plotPath); err != nil {
				logrus.Warnf("plot: %v", err)
			} else {
				logrus.Infof("plot written to %s", plotPath)
			}
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
		serveUntilDone(ctx, srv, os.Stdout)
	},
}

// checkCmd validates a plant and scenario without running them
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the plant configuration and scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		cfg, err := resolvePlant(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec, err := resolveScenario(cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("plant %q: %d segment(s) over %.1f m, %.0fs at dt=%gs\n",
			cfg.Name, cfg.Conveyor.Segments, cfg.Conveyor.LengthM, cfg.Run.Duration, cfg.Run.Dt)
		fmt.Printf("scenario %q: %d event(s)\n", spec.Name, len(spec.Events))
	},
}

// presetsCmd lists the built-in plants and scenarios
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in plant and scenario presets",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("plants:")
		for _, name := range sim.PlantPresetNames() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("scenarios:")
		for _, name := range scenario.PresetNames() {
			spec, _ := scenario.Preset(name)
			fmt.Printf("  %-16s %s\n", name, spec.Description)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation builds the simulator and runs it to completion or cancellation.
// The simulator is returned whenever it was built so partial results can be reported.
func runSimulation(ctx context.Context, cfg sim.PlantConfig, spec *scenario.Spec, reporter sim.Reporter) (*sim.Simulator, error) {
	s, err := sim.NewSimulator(cfg, spec.Build())
	if err != nil {
		return nil, err
	}
	s.RunID = uuid.NewString()
	s.Reporter = reporter
	logrus.Infof("run %s: plant %q, scenario %q", s.RunID, cfg.Name, spec.Name)
	return s, s.Run(ctx)
}

// eventLogTimeout bounds writing the event log once the run is over.
const eventLogTimeout = 5 * time.Second

// recordEventLog hands the event log to the sinks that keep one. An interrupt
// has already cancelled ctx by now, so only its values are inherited.
func recordEventLog(ctx context.Context, s *sim.Simulator, rec publish.EventRecorder) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventLogTimeout)
	defer cancel()
	return rec.RecordEvents(ctx, s.RunID, s.EventLog.Entries())
}

// serveUntilDone keeps the HTTP sink up after the run, so the last sample and
// the event log stay reachable, until ctx is cancelled. srv may be nil.
func serveUntilDone(ctx context.Context, srv *publish.Server, w io.Writer) {
	if srv == nil || ctx.Err() != nil {
		return
	}
	fmt.Fprintf(w, "\nServing on http://%s until interrupted (Ctrl-C).\n", srv.Addr())
	<-ctx.Done()
}

func speedChannels(s *sim.Simulator) []string {
	names := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		names = append(names, sim.SegmentPrefix(seg.Index)+".Motor.State.SpeedRpm")
	}
	return names
}

func summaryChannels(s *sim.Simulator) []string {
	names := []string{"Supply.Outputs.LineLineVoltage"}
	for _, seg := range s.Segments {
		p := sim.SegmentPrefix(seg.Index)
		names = append(names,
			p+".Vfd.Outputs.OutputFrequency",
			p+".Motor.State.SpeedRpm",
			p+".Motor.Outputs.PhaseCurrent",
			p+".Vfd.State.HeatsinkTemp",
		)
	}
	return append(names, "Packages.Count")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addPlantFlags registers the plant, scenario and run flags shared by run and check.
func addPlantFlags(c *cobra.Command) {
	c.Flags().StringVar(&plantName, "plant", "conveyor", fmt.Sprintf("Plant preset %v", sim.PlantPresetNames()))
	c.Flags().StringVar(&configPath, "config", "", "YAML file overlaid on the plant preset")
	c.Flags().StringVar(&scenarioName, "scenario", "", fmt.Sprintf("Scenario preset %v (default depends on --plant)", scenario.PresetNames()))
	c.Flags().StringVar(&scenarioPath, "scenario-file", "", "YAML scenario file (overrides --scenario)")
	c.Flags().StringVar(&tripScope, "trip-scope", "", "Trip ledger scope: global or segment")
	c.Flags().Float64Var(&duration, "duration", 0, "Simulated seconds")
	c.Flags().Float64Var(&dt, "dt", 0, "Fixed time step in seconds")
	c.Flags().Float64Var(&samplePeriod, "sample-period", 0, "Seconds between samples (0 = every tick)")
	c.Flags().Float64Var(&speedFactor, "speed", 0, "Simulated seconds per wall second (0 = as fast as possible)")
	c.Flags().Float64Var(&startDelay, "start-delay", 0, "Wall seconds to wait before the first tick")
	c.Flags().Int64Var(&seed, "seed", 0, "Seed for package spawning and sensor noise")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// addOutputFlags registers the flags that only run uses.
func addOutputFlags(c *cobra.Command) {
	c.Flags().BoolVar(&quiet, "quiet", false, "Do not print the status table")
	c.Flags().StringVar(&plotPath, "plot", "", "Write a PNG of motor speeds to this path")
	addSinkFlags(c)
}

// init sets up CLI flags and subcommands
func init() {
	addPlantFlags(runCmd)
	addPlantFlags(checkCmd)
	addOutputFlags(runCmd)

	rootCmd.AddCommand(runCmd, checkCmd, presetsCmd)
}
