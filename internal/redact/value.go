// Package redact implements the key-sanitization and anonymization engine
// for social-media JSON exports. Exports are schema-less and deeply nested,
// so the engine works over a generic JSON tree: it normalizes raw object
// keys into canonical form, enumerates the canonical keys present in a
// document, and produces a structurally identical copy with selected values
// replaced by a redaction marker.
package redact

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Member is a single key/value entry of an Object. Object member order is
// preserved end to end so redacted output keeps the input's key order.
type Member struct {
	Key   string
	Value *Value
}

// Value is one node of a parsed JSON document. Exactly one payload field is
// meaningful, selected by Kind. Numbers keep their original literal text so
// encoding never reformats (or loses precision on) values we didn't touch.
type Value struct {
	Kind Kind
	Str  string    // String payload
	Num  string    // Number literal, verbatim from the input
	Bool bool      // Bool payload
	Arr  []*Value  // Array elements
	Obj  []Member  // Object members, in input order
}

// Field returns the value of the first member with the given key, or nil if
// v is not an object or has no such member.
func (v *Value) Field(key string) *Value {
	if v == nil || v.Kind != Object {
		return nil
	}
	for _, m := range v.Obj {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// AsString returns the string payload and whether v is a String.
func (v *Value) AsString() (string, bool) {
	if v == nil || v.Kind != String {
		return "", false
	}
	return v.Str, true
}

// Elements returns the array elements, or nil if v is not an Array.
func (v *Value) Elements() []*Value {
	if v == nil || v.Kind != Array {
		return nil
	}
	return v.Arr
}

// Equal reports whether two trees are deeply equal: same kinds, same scalar
// payloads, same member keys in the same order.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Null:
		return true
	case Bool:
		return a.Bool == b.Bool
	case Number:
		return a.Num == b.Num
	case String:
		return a.Str == b.Str
	case Array:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.Obj) != len(b.Obj) {
			return false
		}
		for i := range a.Obj {
			if a.Obj[i].Key != b.Obj[i].Key || !Equal(a.Obj[i].Value, b.Obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
