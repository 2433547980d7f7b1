package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rgraph/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Instance string // optional - filter to one instance id
}

// TraceEvent is one recorded event in the trace timeline.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"` // "behaviour" or "property"
	Instance  string `json:"instance"`
	Behaviour string `json:"behaviour,omitempty"`
	Event     string `json:"event,omitempty"`
	State     string `json:"state,omitempty"`
	Error     string `json:"error,omitempty"`
	Property  string `json:"property,omitempty"`
	Value     any    `json:"value,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents     int   `json:"total_events"`
	BehaviourEvents int   `json:"behaviour_events"`
	PropertyEvents  int   `json:"property_events"`
	Instances       int   `json:"instances"`
	LastSeq         int64 `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded event log",
		Long: `Show the behaviour and property events recorded in an event log,
merged in seq order.

Examples:
  rgraph trace --db ./trace.db
  rgraph trace --db ./trace.db --instance 6f1c...
  rgraph trace --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite event log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "filter to one instance id")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database, store.ReadOnly())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadTrace(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := buildTraceResult(entries, opts.Instance)
	if opts.Format == "json" {
		return writeResult(cmd.OutOrStdout(), result, nil)
	}
	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// buildTraceResult converts store entries to timeline events, keeping only
// the given instance when filter is set.
func buildTraceResult(entries []store.TraceEntry, filter string) TraceResult {
	result := TraceResult{Timeline: []TraceEvent{}}
	instances := make(map[string]bool)

	for _, e := range entries {
		var ev TraceEvent
		switch {
		case e.Behaviour != nil:
			b := e.Behaviour
			ev = TraceEvent{
				Seq:       e.Seq,
				Type:      "behaviour",
				Instance:  b.InstanceID,
				Behaviour: b.BehaviourType,
				Event:     b.Event,
				State:     b.State,
				Error:     b.Error,
			}
		case e.Property != nil:
			p := e.Property
			ev = TraceEvent{
				Seq:      e.Seq,
				Type:     "property",
				Instance: p.InstanceID,
				Property: p.Property,
				Value:    p.Value,
			}
		default:
			continue
		}
		if filter != "" && ev.Instance != filter {
			continue
		}

		result.Timeline = append(result.Timeline, ev)
		instances[ev.Instance] = true
		if ev.Type == "behaviour" {
			result.Stats.BehaviourEvents++
		} else {
			result.Stats.PropertyEvents++
		}
		result.Stats.LastSeq = ev.Seq
	}

	result.Stats.TotalEvents = len(result.Timeline)
	result.Stats.Instances = len(instances)
	return result
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		id := truncateID(ev.Instance)
		if verbose {
			id = ev.Instance
		}
		switch ev.Type {
		case "behaviour":
			fmt.Fprintf(w, "  [%d] BEH  %s %s %s -> %s", ev.Seq, id, ev.Behaviour, ev.Event, ev.State)
			if ev.Error != "" {
				fmt.Fprintf(w, "\n       Error: %s", ev.Error)
			}
		case "property":
			fmt.Fprintf(w, "  [%d] PROP %s.%s = %s", ev.Seq, id, ev.Property, formatValue(ev.Value))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events:     %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Behaviour Events: %d\n", result.Stats.BehaviourEvents)
	fmt.Fprintf(w, "  Property Events:  %d\n", result.Stats.PropertyEvents)
	fmt.Fprintf(w, "  Instances:        %d\n", result.Stats.Instances)
}
