// Package envelope implements the canonical JSON encoding and checksum
// discipline that every other package in this module routes through: every
// checksum of a structured value is computed by calling Canonicalize first.
// The analyzer's input hash, a plain string, is hashed with ChecksumBytes.
package envelope

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonicalize encodes v as canonical JSON: object keys sorted lexicographically,
// no insignificant whitespace, UTC timestamps in ISO-8601 with a "+00:00" offset
// (never "Z"), and a fixed default->str rule for any scalar that is neither a
// JSON primitive, a time.Time, nor a struct/map/slice.
func Canonicalize(v interface{}) ([]byte, error) {
	var b strings.Builder
	if err := encodeValue(&b, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeValue(b *strings.Builder, v reflect.Value) error {
	if !v.IsValid() {
		b.WriteString("null")
		return nil
	}

	// Unwrap interfaces and pointers.
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		return encodeTime(b, t)
	}

	switch v.Kind() {
	case reflect.Map:
		return encodeMap(b, v)
	case reflect.Struct:
		return encodeStruct(b, v)
	case reflect.Slice, reflect.Array:
		return encodeSlice(b, v)
	case reflect.String:
		encodeString(b, v.String())
		return nil
	case reflect.Bool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		b.WriteString(formatFloat(v.Float()))
		return nil
	default:
		// Fixed default->str rule for anything else (e.g. a Stringer-only type).
		if s, ok := v.Interface().(fmt.Stringer); ok {
			encodeString(b, s.String())
			return nil
		}
		encodeString(b, fmt.Sprintf("%v", v.Interface()))
		return nil
	}
}

// encodeTime renders UTC ISO-8601 with a "+00:00" offset instead of "Z".
func encodeTime(b *strings.Builder, t time.Time) error {
	s := t.UTC().Format("2006-01-02T15:04:05.000")
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteString("+00:00")
	b.WriteByte('"')
	return nil
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func encodeMap(b *strings.Builder, v reflect.Value) error {
	keys := v.MapKeys()
	type kv struct {
		key string
		val reflect.Value
	}
	pairs := make([]kv, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, kv{key: fmt.Sprintf("%v", k.Interface()), val: v.MapIndex(k)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, p.key)
		b.WriteByte(':')
		if err := encodeValue(b, p.val); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func encodeStruct(b *strings.Builder, v reflect.Value) error {
	type field struct {
		name string
		val  reflect.Value
	}
	var fields []field
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" {
			name = sf.Name
		}
		fv := v.Field(i)
		if opts.omitempty && isEmptyValue(fv) {
			continue
		}
		fields = append(fields, field{name: name, val: fv})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })

	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, f.name)
		b.WriteByte(':')
		if err := encodeValue(b, f.val); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func encodeSlice(b *strings.Builder, v reflect.Value) error {
	if v.Kind() == reflect.Slice && v.IsNil() {
		b.WriteString("null")
		return nil
	}
	b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeValue(b, v.Index(i)); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

type tagOpts struct{ omitempty bool }

func parseTag(tag string) (string, tagOpts) {
	parts := strings.Split(tag, ",")
	name := parts[0]
	var opts tagOpts
	for _, p := range parts[1:] {
		if p == "omitempty" {
			opts.omitempty = true
		}
	}
	return name, opts
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
