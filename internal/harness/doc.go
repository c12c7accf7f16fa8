// Package harness runs scripted attribute histories and checks their traces.
//
// # Scenario Format
//
// Scenarios are YAML files. Unknown fields are rejected.
//
//	name: profile-edits
//	description: "What this scenario validates"
//	clock: 1700000000          # optional fixed timestamp for every version
//	steps:
//	  - set: name
//	    value: Ada
//	  - unset: name
//	  - expect:
//	      attribute: name
//	      ordinal: 1           # optional, defaults to the current value
//	      value: Ada
//	      length: 3            # optional chain length, genesis included
//	  - expect:
//	      object: {email: ada@example.com}   # projection of current values
//	  - tamper:
//	      attribute: name
//	      ordinal: 1
//	      field: value         # value | rewrite | previous_digest | digest | timestamp | ordinal | delete
//	      value: Grace
//	      detect: INVALID_DIGEST   # integrity code expected on reload, "" if none
//
// # Steps
//
//   - set: appends a value to the named attribute, creating its chain
//   - unset: appends null to an existing attribute
//   - expect: compares a value, a chain length or the projection
//   - tamper: edits the serialized model and reloads it, checking that the
//     expected integrity code (or none) is reported; the live model is
//     left untouched
//
// After the last step the model is saved to an in-memory store, loaded
// back and compared digest by digest.
//
// # Golden Traces
//
// Every appended version and every tamper outcome is recorded in the trace.
// Timestamps are not part of the trace, so traces are stable across runs.
// RunWithGolden compares the trace against testdata/golden/{name}.golden:
//
//	go test ./internal/harness -update
package harness
