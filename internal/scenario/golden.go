package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rgraph/internal/model"
)

// TraceSnapshot captures the trace and final state of a scenario run.
type TraceSnapshot struct {
	ScenarioName string                   `json:"scenario_name"`
	Trace        []TraceEvent             `json:"trace"`
	Final        map[string]InstanceState `json:"final"`
}

// toCanonicalMap converts the snapshot into the value shapes
// model.MarshalCanonical accepts.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type":     event.Type,
			"seq":      event.Seq,
			"instance": event.Instance,
		}
		optional := map[string]string{
			"op":        event.Op,
			"property":  event.Property,
			"behaviour": event.Behaviour,
			"component": event.Component,
			"event":     event.Event,
			"state":     event.State,
			"error":     event.Error,
		}
		for k, v := range optional {
			if v != "" {
				eventMap[k] = v
			}
		}
		if event.HasValue {
			eventMap["value"] = event.Value
		}
		traceList[i] = eventMap
	}

	final := make(map[string]any, len(s.Final))
	for name, st := range s.Final {
		behaviours := make([]any, len(st.Behaviours))
		for i, b := range st.Behaviours {
			behaviours[i] = b
		}
		props := st.Properties
		if props == nil {
			props = map[string]any{}
		}
		final[name] = map[string]any{
			"type":       st.Type,
			"behaviours": behaviours,
			"properties": props,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"final":         final,
	}
}

// Snapshot renders a result as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Final:        result.Final,
	}
	return model.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, s *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(s, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, s.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
