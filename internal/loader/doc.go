// Package loader reads attribute bags from files into ordered payload objects.
//
// Supported formats, chosen by file extension:
//   - .json: decoded directly, member order preserved
//   - .yaml, .yml: decoded through yaml.Node, mapping order preserved
//   - .cue: evaluated with the CUE SDK and exported as concrete JSON
//
// Every format must produce an object at the top level. Floats are rejected
// in all formats since payloads are integer-only.
package loader
