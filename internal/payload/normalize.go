package payload

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidUTF8 is returned when a string or object key is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("payload strings must be valid UTF-8")

// NewString validates s and returns it in NFC form.
func NewString(s string) (String, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUTF8, s)
	}
	return String(norm.NFC.String(s)), nil
}

// Normalize returns v with every string and key in NFC form. Invalid UTF-8
// anywhere in v fails with ErrInvalidUTF8. Keys that become equal after
// normalization are a duplicate key error.
func Normalize(v Value) (Value, error) {
	out, _, err := normalize(v, true)
	return out, err
}

// Canonicalize is Normalize for values that must not be rejected: invalid
// byte sequences become U+FFFD and a key that collides after normalization
// replaces the earlier member's value. Decoding the canonical form of the
// result yields the result again.
func Canonicalize(v Value) Value {
	out, _, _ := normalize(v, false)
	return out
}

// normalize returns v itself when nothing needed rewriting.
func normalize(v Value, strict bool) (Value, bool, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, true, nil
	case String:
		s, err := normalizeString(string(val), strict)
		if err != nil {
			return nil, false, err
		}
		if s == string(val) {
			return val, false, nil
		}
		return String(s), true, nil
	case Array:
		var out Array
		for i, elem := range val {
			n, changed, err := normalize(elem, strict)
			if err != nil {
				return nil, false, fmt.Errorf("array[%d]: %w", i, err)
			}
			if changed && out == nil {
				out = make(Array, len(val))
				copy(out, val)
			}
			if out != nil {
				out[i] = n
			}
		}
		if out == nil {
			return val, false, nil
		}
		return out, true, nil
	case Object:
		var out Object
		changed := false
		for _, m := range val.members {
			key, err := normalizeString(m.Key, strict)
			if err != nil {
				return nil, false, fmt.Errorf("key %q: %w", m.Key, err)
			}
			n, c, err := normalize(m.Value, strict)
			if err != nil {
				return nil, false, fmt.Errorf("object[%q]: %w", m.Key, err)
			}
			if _, dup := out.Get(key); dup {
				if strict {
					return nil, false, fmt.Errorf("duplicate object key %q after normalization", key)
				}
				c = true
			}
			changed = changed || c || key != m.Key
			out = out.Set(key, n)
		}
		if !changed {
			return val, false, nil
		}
		return out, true, nil
	}
	return v, false, nil
}

func normalizeString(s string, strict bool) (string, error) {
	if !utf8.ValidString(s) {
		if strict {
			return "", fmt.Errorf("%w: %q", ErrInvalidUTF8, s)
		}
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	if norm.NFC.IsNormalString(s) {
		return s, nil
	}
	return norm.NFC.String(s), nil
}
