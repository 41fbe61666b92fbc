package redact

import (
	"bytes"
	"encoding/json"
)

const indentStep = "  "

// Encode renders the tree as pretty-printed JSON with two-space indentation.
// Object member order is written exactly as stored, and number literals are
// emitted verbatim, so Parse(Encode(v)) yields a tree equal to v.
func Encode(v *Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v, "")
	buf.WriteByte('\n')
	return buf.Bytes()
}

func writeValue(buf *bytes.Buffer, v *Value, indent string) {
	if v == nil {
		buf.WriteString("null")
		return
	}
	switch v.Kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if v.Num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(v.Num)
		}
	case String:
		writeString(buf, v.Str)
	case Array:
		if len(v.Arr) == 0 {
			buf.WriteString("[]")
			return
		}
		inner := indent + indentStep
		buf.WriteString("[\n")
		for i, el := range v.Arr {
			buf.WriteString(inner)
			writeValue(buf, el, inner)
			if i < len(v.Arr)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte(']')
	case Object:
		if len(v.Obj) == 0 {
			buf.WriteString("{}")
			return
		}
		inner := indent + indentStep
		buf.WriteString("{\n")
		for i, m := range v.Obj {
			buf.WriteString(inner)
			writeString(buf, m.Key)
			buf.WriteString(": ")
			writeValue(buf, m.Value, inner)
			if i < len(v.Obj)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte('}')
	}
}

// writeString emits a JSON string literal with standard escaping.
func writeString(buf *bytes.Buffer, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail once input is valid UTF-8, which
		// Parse guarantees.
		buf.WriteString(`""`)
		return
	}
	buf.Write(b)
}
