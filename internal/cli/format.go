package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/rgraph/internal/scenario"
)

// formatTraceEvent writes one scenario trace event as a timeline line.
func formatTraceEvent(w io.Writer, ev scenario.TraceEvent) {
	switch ev.Type {
	case scenario.EventStep:
		fmt.Fprintf(w, "  [%d] STEP %s %s", ev.Seq, ev.Op, ev.Instance)
		switch {
		case ev.Property != "" && ev.HasValue:
			fmt.Fprintf(w, ".%s = %s", ev.Property, formatValue(ev.Value))
		case ev.Property != "":
			fmt.Fprintf(w, ".%s", ev.Property)
		case ev.Behaviour != "":
			fmt.Fprintf(w, " %s", ev.Behaviour)
		case ev.Component != "":
			fmt.Fprintf(w, " %s", ev.Component)
		}
	case scenario.EventBehaviour:
		fmt.Fprintf(w, "  [%d] BEH  %s %s %s -> %s", ev.Seq, ev.Instance, ev.Behaviour, ev.Event, ev.State)
	case scenario.EventProperty:
		fmt.Fprintf(w, "  [%d] PROP %s.%s = %s", ev.Seq, ev.Instance, ev.Property, formatValue(ev.Value))
	}
	if ev.Error != "" {
		fmt.Fprintf(w, " (%s)", ev.Error)
	}
	fmt.Fprintln(w)
}

// formatFinal writes the final instance states sorted by local name.
func formatFinal(w io.Writer, final map[string]scenario.InstanceState) {
	names := make([]string, 0, len(final))
	for name := range final {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := final[name]
		fmt.Fprintf(w, "  %s (%s)\n", name, st.Type)
		if len(st.Behaviours) > 0 {
			fmt.Fprintf(w, "       Behaviours: %s\n", strings.Join(st.Behaviours, ", "))
		}
		fmt.Fprintf(w, "       Properties: %s\n", formatArgs(st.Properties))
	}
}

// formatArgs formats a map with sorted keys so output is deterministic.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value, handling nested structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID shortens a long instance id for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// passMark returns the status glyph for a pass/fail outcome.
func passMark(pass bool) string {
	if pass {
		return "✓"
	}
	return "✗"
}
