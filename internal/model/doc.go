// Package model provides an attribute store whose every attribute keeps its
// full, tamper-evident history.
//
// A Model owns one chain.Chain per attribute name. Reads and writes are
// forwarded to the chain; nothing is ever overwritten. Custom behavior per
// attribute is declared up front with WithAccessor:
//
//	m := model.New(
//		model.WithAccessor("email", model.Accessor{
//			Set: func(v payload.Value) payload.Value { return lower(v) },
//		}),
//		model.WithAccessor("display_name", model.Accessor{
//			Compute: func(m *model.Model) payload.Value { ... },
//		}),
//	)
//
// Loading a saved model (UnmarshalJSON, Load) verifies every chain and fails
// with a *chain.IntegrityError naming the first tampered attribute.
package model
