package harness

// Trace operations.
const (
	OpGenesis = "genesis"
	OpSet     = "set"
	OpUnset   = "unset"
	OpTamper  = "tamper"
)

// TraceEvent records one appended version or one tamper outcome.
type TraceEvent struct {
	Step           int    `json:"step"`
	Op             string `json:"op"`
	Attribute      string `json:"attribute"`
	Ordinal        int    `json:"ordinal"`
	Digest         string `json:"digest,omitempty"`
	PreviousDigest string `json:"previous_digest,omitempty"`
	Field          string `json:"field,omitempty"`    // tamper only
	Detected       string `json:"detected,omitempty"` // tamper only, integrity code reported on reload
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Trace contains appended versions and tamper outcomes in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addVersionTrace records an appended version.
func (r *Result) addVersionTrace(step int, op, attribute string, ordinal int, digest, previousDigest string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:           step,
		Op:             op,
		Attribute:      attribute,
		Ordinal:        ordinal,
		Digest:         digest,
		PreviousDigest: previousDigest,
	})
}

// addTamperTrace records what a reload reported after an edit.
func (r *Result) addTamperTrace(step int, t *Tamper, detected string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:      step,
		Op:        OpTamper,
		Attribute: t.Attribute,
		Ordinal:   t.Ordinal,
		Field:     t.Field,
		Detected:  detected,
	})
}
