package payload

import "strings"

// Value is a sealed interface representing the payload types.
// Only Null, String, Int, Bool, Array, and Object implement this.
// There is no float type: floats have no stable canonical form here.
type Value interface {
	payloadValue()
}

// Null represents a JSON null.
type Null struct{}

func (Null) payloadValue() {}

// String represents a string value.
type String string

func (String) payloadValue() {}

// Int represents an integer value.
type Int int64

func (Int) payloadValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) payloadValue() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) payloadValue() {}

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered mapping with unique keys.
// Member order is insertion order and is significant for equality and digests.
type Object struct {
	members []Member
}

func (Object) payloadValue() {}

// M is a shorthand for Member for ergonomic construction.
// Example: NewObject(M("name", String("cart")), M("count", Int(5)))
func M(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// NewObject creates an Object from members.
// A repeated key replaces the earlier value but keeps its original position.
func NewObject(members ...Member) Object {
	var obj Object
	for _, m := range members {
		obj = obj.Set(m.Key, m.Value)
	}
	return obj
}

// Len returns the number of members.
func (o Object) Len() int {
	return len(o.members)
}

// Keys returns member keys in insertion order.
func (o Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the members in insertion order.
func (o Object) Members() []Member {
	out := make([]Member, len(o.members))
	copy(out, o.members)
	return out
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Set returns a copy of o with key bound to v. Existing keys keep their
// position; new keys are appended. The receiver is not modified.
func (o Object) Set(key string, v Value) Object {
	out := make([]Member, len(o.members), len(o.members)+1)
	copy(out, o.members)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = v
			return Object{members: out}
		}
	}
	return Object{members: append(out, Member{Key: key, Value: v})}
}

// IsNull reports whether v is null. A nil Value counts as null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsEmpty reports whether v is null or an empty array/object.
func IsEmpty(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return true
	case Array:
		return len(val) == 0
	case Object:
		return val.Len() == 0
	default:
		return false
	}
}

// Prune returns v with null members and empty containers removed recursively
// and object keys trimmed of surrounding whitespace. The second result is
// false when nothing is left.
func Prune(v Value) (Value, bool) {
	switch val := v.(type) {
	case nil, Null:
		return nil, false
	case Array:
		out := make(Array, 0, len(val))
		for _, elem := range val {
			if pruned, ok := Prune(elem); ok {
				out = append(out, pruned)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case Object:
		var out Object
		for _, m := range val.members {
			if pruned, ok := Prune(m.Value); ok {
				out = out.Set(strings.TrimSpace(m.Key), pruned)
			}
		}
		if out.Len() == 0 {
			return nil, false
		}
		return out, true
	default:
		return v, true
	}
}
