package value

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// MaxDepth is the deepest nesting PartialEncoder accepts.
const MaxDepth = 512

var (
	// ErrUnsupported is returned when the value itself has no JSON form.
	ErrUnsupported = errors.New("value has no JSON representation")

	// ErrCycle is returned when the value references itself.
	ErrCycle = errors.New("value contains a reference cycle")

	// ErrDepth is returned when the value nests deeper than MaxDepth.
	ErrDepth = errors.New("maximum nesting depth exceeded")
)

// An Encoder converts a runtime value into JSON text.
//
// Implementations should produce partial output on error: members that
// cannot be represented are replaced rather than failing the whole value.
// A returned error, or empty text, means no usable output was produced.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// PartialEncoder is the default Encoder. Nested members that cannot be
// represented (functions, channels, complex numbers, resources) are encoded
// as null, and NaN or infinite floats are encoded as 0. A top-level value
// that cannot be represented, a reference cycle, or nesting deeper than
// MaxDepth yields an error.
//
// Objects are emitted with their members in key order.
type PartialEncoder struct {
	api sonic.API
}

// NewPartialEncoder creates a PartialEncoder.
func NewPartialEncoder() *PartialEncoder {
	return &PartialEncoder{api: sonic.ConfigStd}
}

// Encode returns the JSON text of v.
func (e *PartialEncoder) Encode(v any) ([]byte, error) {
	w := &walker{seen: make(map[seenKey]struct{})}

	tree, err := w.convert(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}

	return e.api.Marshal(tree)
}

type seenKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type walker struct {
	seen map[seenKey]struct{}
}

var (
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func (w *walker) convert(v reflect.Value, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, ErrDepth
	}

	if !v.IsValid() {
		return nil, nil
	}

	if _, ok := resourceFromValue(v); ok {
		return nil, ErrUnsupported
	}

	if out, ok, err := w.convertMarshaler(v); ok {
		return out, err
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, nil
		}

		return f, nil
	case reflect.String:
		return v.String(), nil
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}

		return w.convert(v.Elem(), depth)
	case reflect.Pointer:
		return w.convertPointer(v, depth)
	case reflect.Slice:
		return w.convertSlice(v, depth)
	case reflect.Array:
		return w.convertList(v, depth)
	case reflect.Map:
		return w.convertMap(v, depth)
	case reflect.Struct:
		return w.convertStruct(v, depth)
	default:
		return nil, ErrUnsupported
	}
}

func (w *walker) convertMarshaler(v reflect.Value) (any, bool, error) {
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}

	if !v.CanInterface() {
		return nil, false, nil
	}

	if v.Type().Implements(marshalerType) {
		text, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil || !json.Valid(text) {
			return nil, true, ErrUnsupported
		}

		return json.RawMessage(text), true, nil
	}

	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, true, ErrUnsupported
		}

		return string(text), true, nil
	}

	return nil, false, nil
}

// member converts a child value. Children that cannot be represented become
// null; cycles and depth overflows abort the whole value.
func (w *walker) member(v reflect.Value, depth int) (any, error) {
	out, err := w.convert(v, depth)
	if errors.Is(err, ErrUnsupported) {
		return nil, nil
	}

	return out, err
}

func (w *walker) enter(key seenKey) error {
	if _, ok := w.seen[key]; ok {
		return ErrCycle
	}

	w.seen[key] = struct{}{}

	return nil
}

func (w *walker) leave(key seenKey) {
	delete(w.seen, key)
}

func (w *walker) convertPointer(v reflect.Value, depth int) (any, error) {
	if v.IsNil() {
		return nil, nil
	}

	key := seenKey{ptr: v.Pointer(), typ: v.Type()}
	if err := w.enter(key); err != nil {
		return nil, err
	}
	defer w.leave(key)

	return w.convert(v.Elem(), depth+1)
}

func (w *walker) convertSlice(v reflect.Value, depth int) (any, error) {
	if v.IsNil() {
		return nil, nil
	}

	if v.Type().Elem().Kind() == reflect.Uint8 {
		return string(v.Bytes()), nil
	}

	key := seenKey{ptr: v.Pointer(), len: v.Len(), typ: v.Type()}
	if err := w.enter(key); err != nil {
		return nil, err
	}
	defer w.leave(key)

	return w.convertList(v, depth)
}

func (w *walker) convertList(v reflect.Value, depth int) (any, error) {
	list := make([]any, v.Len())
	for i := range list {
		item, err := w.member(v.Index(i), depth+1)
		if err != nil {
			return nil, err
		}

		list[i] = item
	}

	return list, nil
}

func (w *walker) convertMap(v reflect.Value, depth int) (any, error) {
	if v.IsNil() {
		return nil, nil
	}

	key := seenKey{ptr: v.Pointer(), typ: v.Type()}
	if err := w.enter(key); err != nil {
		return nil, err
	}
	defer w.leave(key)

	obj := make(map[string]any, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		name, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}

		item, err := w.member(iter.Value(), depth+1)
		if err != nil {
			return nil, err
		}

		obj[name] = item
	}

	return obj, nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", ErrUnsupported
		}

		k = k.Elem()
	}

	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	}

	if k.CanInterface() && k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", ErrUnsupported
		}

		return string(text), nil
	}

	return "", fmt.Errorf("map key of type %s: %w", k.Type(), ErrUnsupported)
}

func (w *walker) convertStruct(v reflect.Value, depth int) (any, error) {
	obj := make(map[string]any, v.NumField())
	if err := w.fillStruct(obj, v, depth); err != nil {
		return nil, err
	}

	return obj, nil
}

func (w *walker) fillStruct(obj map[string]any, v reflect.Value, depth int) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := fieldName(field)
		if skip {
			continue
		}

		fv := v.Field(i)

		if field.Anonymous && name == "" {
			embedded := fv
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}

				embedded = embedded.Elem()
			}

			if embedded.Kind() == reflect.Struct {
				if err := w.fillStruct(obj, embedded, depth); err != nil {
					return err
				}

				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if name == "" {
			name = field.Name
		}

		if omitEmpty && fv.IsZero() {
			continue
		}

		item, err := w.member(fv, depth+1)
		if err != nil {
			return err
		}

		obj[name] = item
	}

	return nil
}

func fieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name, options, _ := strings.Cut(tag, ",")
	for _, option := range strings.Split(options, ",") {
		if option == "omitempty" {
			omitEmpty = true
		}
	}

	return name, omitEmpty, false
}
