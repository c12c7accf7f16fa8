package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eidetic/internal/payload"
)

// SnapshotTrace renders a trace as indented canonical JSON.
// Object keys keep a fixed order so the output is byte-stable.
func SnapshotTrace(scenarioName string, result *Result) ([]byte, error) {
	events := make(payload.Array, len(result.Trace))
	for i, e := range result.Trace {
		members := []payload.Member{
			payload.M("step", payload.Int(e.Step)),
			payload.M("op", payload.String(e.Op)),
			payload.M("attribute", payload.String(e.Attribute)),
			payload.M("ordinal", payload.Int(e.Ordinal)),
		}
		if e.Digest != "" {
			members = append(members, payload.M("digest", payload.String(e.Digest)))
		}
		if e.PreviousDigest != "" {
			members = append(members, payload.M("previous_digest", payload.String(e.PreviousDigest)))
		}
		if e.Field != "" {
			members = append(members, payload.M("field", payload.String(e.Field)))
		}
		if e.Op == OpTamper {
			detected := payload.Value(payload.Null{})
			if e.Detected != "" {
				detected = payload.String(e.Detected)
			}
			members = append(members, payload.M("detected", detected))
		}
		events[i] = payload.NewObject(members...)
	}

	snapshot := payload.NewObject(
		payload.M("scenario_name", payload.String(scenarioName)),
		payload.M("trace", events),
	)
	data, err := payload.MarshalCanonical(snapshot)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check expectations.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := SnapshotTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
