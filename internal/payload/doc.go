// Package payload provides the structured values stored in version chains.
//
// Values form a sealed set: Null, String, Int, Bool, Array and Object. Every
// Value is canonically encodable, which is what lets chain construction and
// append never fail. Conversion from arbitrary Go or JSON data happens at the
// boundary (FromAny, Unmarshal) and is where unsupported data is rejected.
//
// Canonical encoding rules:
//   - No insignificant whitespace
//   - Object members in insertion order (order is part of the value)
//   - Strings NFC normalized, no HTML escaping, U+2028/U+2029 literal
//   - Integers only (no floats), base-10
//   - nil encodes as null
//
// Changing any of these rules invalidates every stored digest.
package payload
