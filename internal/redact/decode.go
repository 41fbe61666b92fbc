package redact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxDepth bounds container nesting during parsing. Uploads are untrusted,
// so a pathologically nested document must not exhaust the stack.
const MaxDepth = 512

var (
	// ErrMalformed is returned when the input is neither a single JSON
	// document nor newline-delimited JSON.
	ErrMalformed = errors.New("input is neither valid JSON nor newline-delimited JSON")

	// ErrTooDeep is returned when container nesting exceeds MaxDepth.
	ErrTooDeep = errors.New("document nesting exceeds depth limit")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes an export into a Value tree. A UTF-8 byte-order mark is
// stripped and invalid UTF-8 sequences are replaced, never rejected. If the
// text is not a single JSON document, it is retried as newline-delimited
// JSON and the lines become the elements of an implicit top-level array.
func Parse(data []byte) (*Value, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "�")

	v, err := parseOne(text)
	if err == nil {
		return v, nil
	}

	// Some platforms ship one JSON object per line.
	var elems []*Value
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lv, lerr := parseOne(line)
		if lerr != nil {
			if errors.Is(lerr, ErrTooDeep) {
				return nil, lerr
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		elems = append(elems, lv)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &Value{Kind: Array, Arr: elems}, nil
}

// parseOne decodes exactly one JSON document, rejecting trailing content.
func parseOne(text string) (*Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	v, err := build(dec, tok, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing content after JSON document")
	}
	return v, nil
}

// build assembles the value starting at tok. Recursion depth equals nesting
// depth, which MaxDepth caps.
func build(dec *json.Decoder, tok json.Token, depth int) (*Value, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &Value{Kind: Object}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				child, err := build(dec, valTok, depth+1)
				if err != nil {
					return nil, err
				}
				obj.Obj = append(obj.Obj, Member{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &Value{Kind: Array}
			for dec.More() {
				elTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				child, err := build(dec, elTok, depth+1)
				if err != nil {
					return nil, err
				}
				arr.Arr = append(arr.Arr, child)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return &Value{Kind: String, Str: t}, nil
	case json.Number:
		return &Value{Kind: Number, Num: string(t)}, nil
	case bool:
		return &Value{Kind: Bool, Bool: t}, nil
	case nil:
		return &Value{Kind: Null}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
