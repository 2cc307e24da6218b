package format

import (
	"fmt"
	"io/fs"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// MaxItems is the number of collection items rendered before truncation.
const MaxItems = 32

var spewConfig = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	DisableMethods:          true,
	MaxDepth:                10,
}

var (
	timeType  = reflect.TypeFor[time.Time]()
	errorType = reflect.TypeFor[error]()
)

// Value renders v on a single line.
func Value(v any) string {
	if v == nil {
		return "<nil>"
	}
	return Reflect(reflect.ValueOf(v))
}

// Reflect renders an already reflected value. An invalid value renders as <nil>.
func Reflect(v reflect.Value) string {
	return render(v, 0)
}

func render(v reflect.Value, depth int) string {
	if !v.IsValid() {
		return "<nil>"
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			return "<" + x.Format(time.RFC3339Nano) + ">"
		case time.Duration:
			return x.String()
		}
		if v.Type().Implements(errorType) && !isNilValue(v) && v.Kind() != reflect.Struct {
			return fmt.Sprintf("%s(%q)", typeName(v.Type()), v.Interface().(error).Error())
		}
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return "<nil>"
		}
		return render(v.Elem(), depth)
	case reflect.Pointer:
		if v.IsNil() {
			return "<nil>"
		}
		if v.Elem().Kind() == reflect.Struct && v.Elem().Type() != timeType {
			return "&" + renderStruct(v.Elem())
		}
		return render(v.Elem(), depth)
	case reflect.String:
		return strconv.Quote(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if IsEnum(v.Type()) {
			return EnumName(v)
		}
		return fmt.Sprint(v.Interface())
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Slice:
		if v.IsNil() {
			return "<nil>"
		}
		return renderItems(v, depth)
	case reflect.Array:
		return renderItems(v, depth)
	case reflect.Map:
		if v.IsNil() {
			return "<nil>"
		}
		return renderMap(v, depth)
	case reflect.Struct:
		return renderStruct(v)
	case reflect.Func:
		if v.IsNil() {
			return "<nil>"
		}
		return typeName(v.Type())
	case reflect.Chan:
		if v.IsNil() {
			return "<nil>"
		}
		return fmt.Sprintf("%s(len=%d)", typeName(v.Type()), v.Len())
	}

	if v.CanInterface() {
		return fmt.Sprint(v.Interface())
	}
	return typeName(v.Type())
}

func renderItems(v reflect.Value, depth int) string {
	if depth >= spewConfig.MaxDepth {
		return "{...}"
	}
	n := v.Len()
	byteItems := v.Type().Elem().Kind() == reflect.Uint8
	parts := make([]string, 0, min(n, MaxItems)+1)
	for i := 0; i < n && i < MaxItems; i++ {
		if byteItems {
			parts = append(parts, fmt.Sprintf("0x%02X", v.Index(i).Uint()))
			continue
		}
		parts = append(parts, render(v.Index(i), depth+1))
	}
	if n > MaxItems {
		parts = append(parts, fmt.Sprintf("…%d more", n-MaxItems))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func renderMap(v reflect.Value, depth int) string {
	if depth >= spewConfig.MaxDepth {
		return "{...}"
	}
	keys := SortedKeys(v)
	parts := make([]string, 0, min(len(keys), MaxItems)+1)
	for i, k := range keys {
		if i == MaxItems {
			parts = append(parts, fmt.Sprintf("…%d more", len(keys)-MaxItems))
			break
		}
		parts = append(parts, render(k, depth+1)+": "+render(v.MapIndex(k), depth+1))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func renderStruct(v reflect.Value) string {
	if !v.CanInterface() {
		return typeName(v.Type())
	}
	return typeName(v.Type()) + spewConfig.Sprintf("%+v", v.Interface())
}

// SortedKeys returns the keys of map value m in a deterministic order.
func SortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return lessValue(keys[i], keys[j])
	})
	return keys
}

func lessValue(a, b reflect.Value) bool {
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if a.IsValid() && b.IsValid() && a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		}
	}
	return render(a, 0) < render(b, 0)
}

// quantities are defined integer types that measure something rather than
// enumerate names.
var quantities = map[reflect.Type]bool{
	reflect.TypeFor[time.Duration](): true,
	reflect.TypeFor[fs.FileMode]():   true,
}

// IsEnum reports whether t is a defined integer type, the Go rendition of an
// enumeration. Quantities such as time.Duration are not enums.
func IsEnum(t reflect.Type) bool {
	if t == nil || t.PkgPath() == "" || t.Name() == "" || quantities[t] {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// EnumName renders an enum as Type.Name(value), or Type(value) when the
// type has no name for the value.
func EnumName(v reflect.Value) string {
	number := fmt.Sprint(v.Convert(integerType(v.Type())).Interface())
	if name, ok := StringerName(v); ok && name != number {
		return fmt.Sprintf("%s.%s(%s)", v.Type().Name(), name, number)
	}
	return fmt.Sprintf("%s(%s)", v.Type().Name(), number)
}

// StringerName returns the String() result of v when its type implements fmt.Stringer.
func StringerName(v reflect.Value) (name string, ok bool) {
	if !v.IsValid() || !v.CanInterface() {
		return "", false
	}
	s, isStringer := v.Interface().(fmt.Stringer)
	if !isStringer {
		return "", false
	}
	defer func() {
		if recover() != nil {
			name, ok = "", false
		}
	}()
	return s.String(), true
}

func integerType(t reflect.Type) reflect.Type {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.TypeFor[uint64]()
	}
	return reflect.TypeFor[int64]()
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// TypeName renders the name of t the way failure messages refer to types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
