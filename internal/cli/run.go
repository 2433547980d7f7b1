package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/rgraph/internal/metrics"
	"github.com/roach88/rgraph/internal/scenario"
	"github.com/roach88/rgraph/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the output of the run command.
type RunResult struct {
	Name    string                            `json:"name"`
	Pass    bool                              `json:"pass"`
	Errors  []string                          `json:"errors,omitempty"`
	Trace   []scenario.TraceEvent             `json:"trace"`
	Final   map[string]scenario.InstanceState `json:"final"`
	Metrics map[string]float64                `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Build the graph a scenario declares, apply its steps and print every
behaviour and property event they cause, followed by the final state.

With --db (or store.path in the config) behaviour and property events are
also recorded to a SQLite event log, which must be new or empty. With
metrics.enabled the behaviour lifecycle counters are printed too.

Exit codes:
  0 - Scenario passed
  1 - A step or expectation failed
  2 - Command error (unreadable scenario, database, etc.)

Examples:
  rgraph run ./scenarios/add_gate.yaml
  rgraph run ./scenarios/add_gate.yaml --db ./trace.db
  rgraph run ./scenarios/add_gate.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite event log (default store.path)")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	s, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := scenarioOptions(opts.RootOptions)

	cfg := opts.config()
	db := opts.Database
	if db == "" {
		db = cfg.Store.Path
	}
	if db != "" {
		st, err := store.Open(db)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				opts.logger().Error("error closing database", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, scenario.WithStore(st))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		m, err := metrics.New(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		runOpts = append(runOpts, scenario.WithBehaviourListener(m))
	}

	opts.logger().Debug("running scenario", "name", s.Name, "path", path, "db", db)
	result, err := scenario.Run(s, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := RunResult{
		Name:   s.Name,
		Pass:   result.Pass,
		Errors: result.Errors,
		Trace:  result.Trace,
		Final:  result.Final,
	}
	if reg != nil {
		out.Metrics, err = gatherMetrics(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}

	var failure *CLIError
	if !result.Pass {
		failure = &CLIError{Code: "E_SCENARIO_FAILED", Message: fmt.Sprintf("scenario %s failed", s.Name)}
	}
	if opts.Format == "json" {
		if err := writeResult(cmd.OutOrStdout(), out, failure); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, out)
	}

	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

// scenarioOptions maps global options onto scenario.Run options.
func scenarioOptions(opts *RootOptions) []scenario.Option {
	return []scenario.Option{
		scenario.WithLogger(opts.logger()),
		scenario.WithDefaultMaxDepth(opts.config().Propagation.MaxDepth),
	}
}

// gatherMetrics flattens the registry into "name{label=\"v\"}" keys.
func gatherMetrics(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				parts := make([]string, len(labels))
				for i, l := range labels {
					parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
				}
				key += "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

func outputRunText(cmd *cobra.Command, out RunResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Scenario: %s\n", out.Name)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Trace ===")
	if len(out.Trace) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range out.Trace {
		formatTraceEvent(w, ev)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Final ===")
	if len(out.Final) == 0 {
		fmt.Fprintln(w, "  (no instances)")
	}
	formatFinal(w, out.Final)

	if len(out.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Metrics ===")
		keys := make([]string, 0, len(out.Metrics))
		for k := range out.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s %g\n", k, out.Metrics[k])
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s\n", passMark(out.Pass), out.Name)
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
