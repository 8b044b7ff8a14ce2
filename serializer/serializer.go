package serializer

// This file contains the encoder that walks a model value and writes the
// schema JSON for it. Object keys are written in field declaration order
// and map keys are sorted, so the output for a given value is always
// byte-identical.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/perfgo/ocptv/formatter"
	"github.com/perfgo/ocptv/model"
)

// maxDepth bounds the nesting of free-form values such as run parameters.
const maxDepth = 64

var (
	ErrMissingKey       = errors.New("field has no schema key")
	ErrMissingTag       = errors.New("artifact has no schema tag")
	ErrMissingPayload   = errors.New("wrapper has no payload")
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Marshal serializes one root artifact: sequenceNumber, timestamp and the
// tag of root.Impl as siblings of a single JSON object.
func Marshal(root model.Root) ([]byte, error) {
	e := &encoder{}
	if err := e.object("", root, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// MarshalArtifact serializes a tagged artifact on its own as {tag: body}.
func MarshalArtifact(a model.Artifact) ([]byte, error) {
	e := &encoder{}
	e.buf.WriteByte('{')
	if err := e.tagged("", a, 0); err != nil {
		return nil, err
	}
	e.buf.WriteByte('}')
	return e.buf.Bytes(), nil
}

// MarshalValue serializes any value the model can hold: primitives, enums,
// slices, string-keyed maps and records.
func MarshalValue(v any) ([]byte, error) {
	e := &encoder{}
	if err := e.value("", v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
}

// object writes a record's field map, followed by the tagged payload if
// the record is a wrapper.
func (e *encoder) object(path string, r model.Record, depth int) error {
	e.buf.WriteByte('{')
	n, err := e.fields(path, r.SpecFields(), depth)
	if err != nil {
		return err
	}
	if w, ok := r.(payloader); ok {
		payload := w.Payload()
		if IsNil(payload) {
			return fmt.Errorf("%s: %w", pathOrRoot(path), ErrMissingPayload)
		}
		if n > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.tagged(path, payload, depth); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

// tagged writes "tag": body for an artifact.
func (e *encoder) tagged(path string, a model.Artifact, depth int) error {
	res, err := Resolve(a)
	if err != nil {
		return fmt.Errorf("%s: %w", pathOrRoot(path), err)
	}
	if err := e.key(res.Tag); err != nil {
		return err
	}
	return e.object(join(path, res.Tag), a, depth+1)
}

func (e *encoder) fields(path string, fields []model.Field, depth int) (int, error) {
	n := 0
	for i, f := range fields {
		if f.Key == "" {
			return 0, fmt.Errorf("%s: field %d: %w", pathOrRoot(path), i, ErrMissingKey)
		}
		v := f.Value
		if f.Optional {
			if IsNil(v) {
				continue
			}
			v = deref(v)
		}
		fieldPath := join(path, f.Key)
		if f.Format != nil {
			formatted, err := f.Format(v)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", fieldPath, err)
			}
			v = formatted
		}

		if n > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.key(f.Key); err != nil {
			return 0, err
		}
		if err := e.value(fieldPath, v, depth+1); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (e *encoder) value(path string, v any, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%s: %w: nesting deeper than %d", pathOrRoot(path), ErrUnsupportedValue, maxDepth)
	}

	// Typed nil pointers satisfy Record and EnumValue through value
	// receivers but cannot be called.
	if v == nil || nilPointer(v) {
		e.buf.WriteString("null")
		return nil
	}

	switch x := v.(type) {
	case model.Record:
		return e.object(path, x, depth)
	case formatter.EnumValue:
		token, err := formatter.FormatEnum(x)
		if err != nil {
			return fmt.Errorf("%s: %w", pathOrRoot(path), err)
		}
		return e.literal(path, token)
	case time.Time:
		ts, err := formatter.FormatTimestamp(formatter.Seconds(x))
		if err != nil {
			return fmt.Errorf("%s: %w", pathOrRoot(path), err)
		}
		return e.literal(path, ts)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return e.literal(path, v)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.value(path, rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		e.buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface(), depth+1); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
		return nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%s: %w: map key type %s", pathOrRoot(path), ErrUnsupportedValue, rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		e.buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.key(k.String()); err != nil {
				return err
			}
			if err := e.value(join(path, k.String()), rv.MapIndex(k).Interface(), depth+1); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("%s: %w: %T", pathOrRoot(path), ErrUnsupportedValue, v)
	}
}

func (e *encoder) key(k string) error {
	if err := e.literal(k, k); err != nil {
		return err
	}
	e.buf.WriteByte(':')
	return nil
}

// literal writes a JSON scalar without HTML escaping.
func (e *encoder) literal(path string, v any) error {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%s: %w: %w", pathOrRoot(path), ErrUnsupportedValue, err)
	}
	e.buf.Write(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
	return nil
}

// IsNil reports whether v is nil or a nil pointer, interface, map or slice.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func nilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return rv.Elem().Interface()
	}
	return v
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
