package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eidetic/internal/chain"
	"github.com/roach88/eidetic/internal/loader"
	"github.com/roach88/eidetic/internal/model"
	"github.com/roach88/eidetic/internal/payload"
	"github.com/roach88/eidetic/internal/store"
)

// Harness runs one scenario against a fresh model.
type Harness struct {
	model  *model.Model
	clock  chain.Clock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a model with the scenario's fixed clock
// 2. Execute steps in order, recording the trace
// 3. Save the model to a fresh in-memory store and load it back
// 4. Return result with pass/fail, trace, and errors
//
// Failed expectations are collected in the result. Malformed steps
// (bad values, tampering a missing version) return an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with step logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	clock := chain.FixedClock(scenario.Clock)
	if scenario.Clock == 0 {
		clock = chain.FixedClock(DefaultClock)
	}

	h := &Harness{
		model:  model.New(model.WithClock(clock)),
		clock:  clock,
		logger: logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(i, &step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	if err := h.roundTrip(context.Background(), scenario.Name, result); err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}

	return result, nil
}

func (h *Harness) executeStep(i int, step *Step, result *Result) error {
	switch {
	case step.Set != "":
		return h.executeSet(i, step, result)
	case step.Unset != "":
		h.executeUnset(i, step.Unset, result)
		return nil
	case step.Expect != nil:
		return h.executeExpect(i, step.Expect, result)
	case step.Tamper != nil:
		return h.executeTamper(i, step.Tamper, result)
	}
	return fmt.Errorf("empty step")
}

func (h *Harness) executeSet(i int, step *Step, result *Result) error {
	v, err := loader.FromYAMLNode(step.Value)
	if err != nil {
		return fmt.Errorf("set %s: %w", step.Set, err)
	}

	_, exists := h.model.Chain(step.Set)
	version := h.model.Set(step.Set, v)

	if !exists {
		c, _ := h.model.Chain(step.Set)
		genesis, _ := c.At(0)
		result.addVersionTrace(i, OpGenesis, step.Set, 0, genesis.Digest(), genesis.PreviousDigest())
	}
	result.addVersionTrace(i, OpSet, step.Set, version.Ordinal(), version.Digest(), version.PreviousDigest())

	h.logger.Info("set step completed",
		"step", i,
		"attribute", step.Set,
		"ordinal", version.Ordinal(),
		"digest", version.Digest(),
	)
	return nil
}

func (h *Harness) executeUnset(i int, name string, result *Result) {
	if _, exists := h.model.Chain(name); !exists {
		h.logger.Info("unset step skipped, attribute missing", "step", i, "attribute", name)
		return
	}

	h.model.Unset(name)
	c, _ := h.model.Chain(name)
	version := c.Latest()
	result.addVersionTrace(i, OpUnset, name, version.Ordinal(), version.Digest(), version.PreviousDigest())

	h.logger.Info("unset step completed",
		"step", i,
		"attribute", name,
		"ordinal", version.Ordinal(),
	)
}

// executeTamper edits the serialized model and reloads it.
// The live model is not changed.
func (h *Harness) executeTamper(i int, t *Tamper, result *Result) error {
	data, err := h.model.MarshalJSON()
	if err != nil {
		return fmt.Errorf("tamper: serialize model: %w", err)
	}

	edited, err := applyTamper(data, t)
	if err != nil {
		return fmt.Errorf("tamper: %w", err)
	}

	detected := ""
	if _, err := model.Load(edited, model.WithClock(h.clock)); err != nil {
		var ie *chain.IntegrityError
		if !errors.As(err, &ie) {
			return fmt.Errorf("tamper: reload: %w", err)
		}
		detected = string(ie.Code)
		if ie.Attribute != t.Attribute {
			result.AddError(fmt.Sprintf("step %d: tamper of %s reported on attribute %q", i, t.Attribute, ie.Attribute))
		}
	}

	result.addTamperTrace(i, t, detected)
	if detected != t.Detect {
		result.AddError(fmt.Sprintf("step %d: tamper %s.%s at ordinal %d: expected detection %q, got %q",
			i, t.Attribute, t.Field, t.Ordinal, t.Detect, detected))
	}

	h.logger.Info("tamper step completed",
		"step", i,
		"attribute", t.Attribute,
		"field", t.Field,
		"detected", detected,
	)
	return nil
}

// savedDocument mirrors the serialized model layout.
type savedDocument struct {
	Attributes []struct {
		Name     string         `json:"name"`
		Versions []chain.Record `json:"versions"`
	} `json:"attributes"`
}

// applyTamper returns data with one version record edited.
func applyTamper(data []byte, t *Tamper) ([]byte, error) {
	var doc savedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	for a := range doc.Attributes {
		attr := &doc.Attributes[a]
		if attr.Name != t.Attribute {
			continue
		}
		if t.Ordinal >= len(attr.Versions) {
			return nil, fmt.Errorf("%s has no ordinal %d", t.Attribute, t.Ordinal)
		}
		if t.Field == FieldDelete {
			attr.Versions = append(attr.Versions[:t.Ordinal], attr.Versions[t.Ordinal+1:]...)
			return json.Marshal(doc)
		}
		if err := editRecord(&attr.Versions[t.Ordinal], t.Field, t.Value); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown attribute %q", t.Attribute)
}

func editRecord(r *chain.Record, field string, value *yaml.Node) error {
	switch field {
	case FieldValue:
		v, err := loader.FromYAMLNode(value)
		if err != nil {
			return err
		}
		r.Value = payload.MustMarshalCanonical(v)
	case FieldRewrite:
		v, err := loader.FromYAMLNode(value)
		if err != nil {
			return err
		}
		r.Value = payload.MustMarshalCanonical(v)
		r.Digest = chain.Digest(v, r.Ordinal, r.PreviousDigest)
	case FieldPreviousDigest:
		r.PreviousDigest = value.Value
	case FieldDigest:
		r.Digest = value.Value
	case FieldTimestamp, FieldOrdinal:
		n, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", field, err)
		}
		if field == FieldTimestamp {
			r.Timestamp = n
		} else {
			r.Ordinal = int(n)
		}
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// roundTrip saves the model to an in-memory store and loads it back.
// Any digest that does not survive is reported as a failure.
func (h *Harness) roundTrip(ctx context.Context, name string, result *Result) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if _, err := st.Save(ctx, name, h.model); err != nil {
		return err
	}
	loaded, err := st.Load(ctx, name)
	if err != nil {
		result.AddError(fmt.Sprintf("reload from store: %v", err))
		return nil
	}

	for _, a := range h.model.Snapshot() {
		lc, ok := loaded.Chain(a.Name)
		if !ok || lc.Len() != a.Chain.Len() || lc.Latest().Digest() != a.Chain.Latest().Digest() {
			result.AddError(fmt.Sprintf("reload from store: attribute %q changed", a.Name))
		}
	}
	return nil
}
