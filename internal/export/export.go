package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultFileName is the name the exported result is saved under.
const DefaultFileName = "merged_data.txt"

// ErrNoResult is returned when there is nothing to export yet.
var ErrNoResult = errors.New("no result to download")

// Sink is a place the rendered result can be saved to.
type Sink interface {
	// Save stores data under name and returns where it ended up.
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Render pretty-prints the result with a two-space indent, producing the
// same text a browser's JSON.stringify(result, null, 2) does: numbers in
// shortest form, strings with only mandatory escapes, and object keys in
// insertion order except that array-index keys come first, ascending.
func Render(result json.RawMessage) ([]byte, error) {
	raw := bytes.TrimSpace(result)
	if len(raw) == 0 {
		return nil, ErrNoResult
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to format result: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to format result: trailing data after value")
	}

	var buf bytes.Buffer
	root.write(&buf, "")
	return buf.Bytes(), nil
}

type valueKind int

const (
	kindScalar valueKind = iota
	kindObject
	kindArray
)

// value is a decoded JSON value. Scalars are kept already rendered.
type value struct {
	kind    valueKind
	scalar  string
	keys    []string
	members map[string]*value
	items   []*value
}

func decodeValue(dec *json.Decoder) (*value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected %q", t)
	case string:
		return &value{scalar: quote(t)}, nil
	case json.Number:
		return &value{scalar: formatNumber(t)}, nil
	case bool:
		return &value{scalar: strconv.FormatBool(t)}, nil
	case nil:
		return &value{scalar: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (*value, error) {
	obj := &value{kind: kindObject, members: make(map[string]*value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}
		member, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		// A repeated key keeps its first position and takes the last value.
		if _, seen := obj.members[name]; !seen {
			obj.keys = append(obj.keys, name)
		}
		obj.members[name] = member
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	obj.keys = orderKeys(obj.keys)
	return obj, nil
}

func decodeArray(dec *json.Decoder) (*value, error) {
	arr := &value{kind: kindArray}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr.items = append(arr.items, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func (v *value) write(buf *bytes.Buffer, indent string) {
	inner := indent + "  "
	switch v.kind {
	case kindObject:
		if len(v.keys) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteString(",\n")
			}
			buf.WriteString(inner)
			buf.WriteString(quote(k))
			buf.WriteString(": ")
			v.members[k].write(buf, inner)
		}
		buf.WriteString("\n" + indent + "}")
	case kindArray:
		if len(v.items) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, item := range v.items {
			if i > 0 {
				buf.WriteString(",\n")
			}
			buf.WriteString(inner)
			item.write(buf, inner)
		}
		buf.WriteString("\n" + indent + "]")
	default:
		buf.WriteString(v.scalar)
	}
}

// orderKeys moves array-index keys to the front in ascending numeric order.
// Other keys keep their insertion order.
func orderKeys(keys []string) []string {
	var indexes []uint32
	var names []string
	for _, k := range keys {
		if n, ok := arrayIndex(k); ok {
			indexes = append(indexes, n)
		} else {
			names = append(names, k)
		}
	}
	if len(indexes) == 0 {
		return keys
	}

	// Insertion sort; results carry a handful of keys.
	for i := 1; i < len(indexes); i++ {
		for j := i; j > 0 && indexes[j] < indexes[j-1]; j-- {
			indexes[j], indexes[j-1] = indexes[j-1], indexes[j]
		}
	}

	ordered := make([]string, 0, len(keys))
	for _, n := range indexes {
		ordered = append(ordered, strconv.FormatUint(uint64(n), 10))
	}
	return append(ordered, names...)
}

// arrayIndex reports whether k is the canonical spelling of an integer in
// [0, 2^32-2].
func arrayIndex(k string) (uint32, bool) {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(k, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// formatNumber spells n the way JavaScript's Number#toString does.
// Out-of-range values parse to infinity, which stringifies as null.
func formatNumber(n json.Number) string {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return string(n)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + string(sign) + exp
}

// quote writes s as a JSON string, escaping only quote, backslash and
// control characters.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
