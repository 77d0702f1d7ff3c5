package value

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// A Renderer describes runtime values to humans.
type Renderer interface {
	// Preview returns a one-line rendering of the value.
	Preview(v any) string

	// Synopsis returns a short description of the value's type.
	Synopsis(v any) string
}

// TextRenderer renders values on a single line. Containers deeper than
// MaxDepth are elided, as are children past MaxChildren and string bytes past
// MaxString.
type TextRenderer struct {
	MaxDepth    int
	MaxChildren int
	MaxString   int
}

// NewTextRenderer creates a TextRenderer with default limits.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		MaxDepth:    3,
		MaxChildren: 32,
		MaxString:   512,
	}
}

// Preview returns a one-line rendering of the value.
func (r *TextRenderer) Preview(v any) string {
	var b strings.Builder
	r.preview(&b, reflect.ValueOf(v), 0)

	return b.String()
}

func (r *TextRenderer) preview(b *strings.Builder, v reflect.Value, depth int) {
	if !v.IsValid() {
		b.WriteString("NULL")
		return
	}

	if res, ok := resourceFromValue(v); ok {
		b.WriteString(res.String())
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'G', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		b.WriteString(strconv.FormatComplex(v.Complex(), 'G', -1, 128))
	case reflect.String:
		r.quote(b, v.String())
	case reflect.Interface:
		if v.IsNil() {
			b.WriteString("NULL")
			return
		}

		r.preview(b, v.Elem(), depth)
	case reflect.Pointer:
		if v.IsNil() {
			b.WriteString("NULL")
			return
		}

		if depth > r.MaxDepth {
			b.WriteString("...")
			return
		}

		r.preview(b, v.Elem(), depth+1)
	case reflect.Slice:
		if v.IsNil() {
			b.WriteString("NULL")
			return
		}

		if v.Type().Elem().Kind() == reflect.Uint8 {
			r.quote(b, string(v.Bytes()))
			return
		}

		r.previewList(b, v, depth)
	case reflect.Array:
		r.previewList(b, v, depth)
	case reflect.Map:
		if v.IsNil() {
			b.WriteString("NULL")
			return
		}

		r.previewMap(b, v, depth)
	case reflect.Struct:
		r.previewStruct(b, v, depth)
	default:
		b.WriteString(v.Type().String())
	}
}

func (r *TextRenderer) quote(b *strings.Builder, s string) {
	truncated := false
	if r.MaxString > 0 && len(s) > r.MaxString {
		s = s[:r.MaxString]
		truncated = true
	}

	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", `\'`))
	b.WriteByte('\'')

	if truncated {
		b.WriteString("...")
	}
}

func (r *TextRenderer) previewList(b *strings.Builder, v reflect.Value, depth int) {
	if depth >= r.MaxDepth {
		b.WriteString("[...]")
		return
	}

	b.WriteByte('[')

	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}

		if r.MaxChildren > 0 && i >= r.MaxChildren {
			b.WriteString("...")
			break
		}

		b.WriteString(strconv.Itoa(i))
		b.WriteString(" => ")
		r.preview(b, v.Index(i), depth+1)
	}

	b.WriteByte(']')
}

func (r *TextRenderer) previewMap(b *strings.Builder, v reflect.Value, depth int) {
	if depth >= r.MaxDepth {
		b.WriteString("[...]")
		return
	}

	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})

	b.WriteByte('[')

	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}

		if r.MaxChildren > 0 && i >= r.MaxChildren {
			b.WriteString("...")
			break
		}

		r.preview(b, k, depth+1)
		b.WriteString(" => ")
		r.preview(b, v.MapIndex(k), depth+1)
	}

	b.WriteByte(']')
}

func (r *TextRenderer) previewStruct(b *strings.Builder, v reflect.Value, depth int) {
	b.WriteString("class ")
	b.WriteString(v.Type().String())

	if depth >= r.MaxDepth {
		b.WriteString(" { ... }")
		return
	}

	b.WriteString(" { ")

	t := v.Type()
	shown := 0

	for i := 0; i < t.NumField(); i++ {
		if shown > 0 {
			b.WriteString("; ")
		}

		if r.MaxChildren > 0 && shown >= r.MaxChildren {
			b.WriteString("...")
			break
		}

		b.WriteString(t.Field(i).Name)
		b.WriteString(" = ")
		r.preview(b, v.Field(i), depth+1)
		shown++
	}

	b.WriteString(" }")
}

// Synopsis returns a short description of the value's type, such as "int",
// "string(5)", "array(3)", or "class main.User".
func (r *TextRenderer) Synopsis(v any) string {
	return synopsis(reflect.ValueOf(v), 0)
}

// maxIndirections bounds pointer chasing so self-referencing pointers
// terminate.
const maxIndirections = 32

func synopsis(v reflect.Value, indirections int) string {
	if !v.IsValid() {
		return "null"
	}

	if res, ok := resourceFromValue(v); ok {
		return res.String()
	}

	switch v.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.String:
		return fmt.Sprintf("string(%d)", v.Len())
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return "null"
		}

		if indirections >= maxIndirections {
			return v.Type().String()
		}

		return synopsis(v.Elem(), indirections+1)
	case reflect.Slice:
		if v.IsNil() {
			return "null"
		}

		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("string(%d)", v.Len())
		}

		return fmt.Sprintf("array(%d)", v.Len())
	case reflect.Array, reflect.Map:
		return fmt.Sprintf("array(%d)", v.Len())
	case reflect.Struct:
		return "class " + v.Type().String()
	default:
		return v.Type().String()
	}
}
