package redact

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSingleDocument(t *testing.T) {
	v := mustParse(t, `{"a":1,"b":[true,null,"x"],"c":{"d":2.5}}`)
	if v.Kind != Object || len(v.Obj) != 3 {
		t.Fatalf("unexpected shape: %+v", v)
	}
	if got := v.Field("c").Field("d"); got == nil || got.Num != "2.5" {
		t.Errorf("number literal not preserved: %+v", got)
	}
}

func TestParseTopLevelArray(t *testing.T) {
	v := mustParse(t, `[{"a":1},{"a":2}]`)
	if v.Kind != Array || len(v.Arr) != 2 {
		t.Fatalf("unexpected shape: %+v", v)
	}
}

func TestParseNDJSON(t *testing.T) {
	input := "{\"a\":1}\n{\"a\":2}\n\n{\"a\":3}\n"
	v := mustParse(t, input)
	if v.Kind != Array {
		t.Fatalf("NDJSON should parse to an implicit array, got kind %v", v.Kind)
	}
	if len(v.Arr) != 3 {
		t.Fatalf("len = %d, want 3 (blank lines skipped)", len(v.Arr))
	}
	if v.Arr[2].Field("a").Num != "3" {
		t.Errorf("line order lost: %+v", v.Arr[2])
	}
}

func TestParseBOM(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":1}`)...)
	v, err := Parse(withBOM)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v.Field("a") == nil {
		t.Error("BOM-prefixed document not parsed")
	}
}

func TestParseInvalidUTF8Replaced(t *testing.T) {
	// A lone 0xFF inside a string value must be replaced, not rejected.
	raw := []byte(`{"a":"b`)
	raw = append(raw, 0xFF)
	raw = append(raw, []byte(`c"}`)...)

	v, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, _ := v.Field("a").AsString()
	if !strings.Contains(got, "\uFFFD") {
		t.Errorf("invalid byte not replaced: %q", got)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"", "not json at all", "{\"a\":}", "{\"a\":1}\ngarbage\n"} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformed", input, err)
		}
	}
}

func TestParseDepthLimit(t *testing.T) {
	deep := strings.Repeat("[", MaxDepth+2) + strings.Repeat("]", MaxDepth+2)
	if _, err := Parse([]byte(deep)); !errors.Is(err, ErrTooDeep) {
		t.Errorf("Parse(deep) error = %v, want ErrTooDeep", err)
	}

	ok := strings.Repeat("[", 10) + "1" + strings.Repeat("]", 10)
	if _, err := Parse([]byte(ok)); err != nil {
		t.Errorf("Parse(shallow) error = %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []string{
		`{"username":"REDACTED","bio":"hi","posts":[{"text":"hello","likes":5}]}`,
		`{"empty_obj":{},"empty_arr":[],"nums":[0,-1,2.5,1e10],"esc":"line\nbreak \"quoted\""}`,
		`[]`,
		`{}`,
		`null`,
		`{"unicode":"héllo wörld 你好"}`,
	}
	for _, doc := range tests {
		v := mustParse(t, doc)
		encoded := Encode(v)
		back, err := Parse(encoded)
		if err != nil {
			t.Fatalf("re-parse of encoded output failed: %v\n%s", err, encoded)
		}
		if !Equal(back, v) {
			t.Errorf("round trip changed tree for %s:\n%s", doc, encoded)
		}
	}
}

func TestEncodeStableKeyOrder(t *testing.T) {
	v := mustParse(t, `{"z":1,"a":{"y":1,"b":2},"m":3}`)
	got := string(Encode(v))

	zi := strings.Index(got, `"z"`)
	ai := strings.Index(got, `"a"`)
	mi := strings.Index(got, `"m"`)
	if !(zi < ai && ai < mi) {
		t.Errorf("key order not preserved:\n%s", got)
	}
	if !strings.Contains(got, "  \"a\"") {
		t.Errorf("output not indented:\n%s", got)
	}
}
