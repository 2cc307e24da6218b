package equivalency

import (
	"fmt"
	"reflect"
)

// maxSelectorDepth bounds how deep PathOf allocates nested pointers.
const maxSelectorDepth = 8

// Selector is a member path resolved from a typed selector function.
type Selector struct {
	path string
	err  error
}

// Path returns the dotted member path.
func (s Selector) Path() string { return s.path }

// Err returns the misuse error if the selector could not be resolved.
func (s Selector) Err() error { return s.err }

func (s Selector) String() string { return s.path }

// PathOf resolves a selector such as
//
//	func(o *Order) any { return &o.Customer.Name }
//
// to the member path "Customer.Name". The function must return the
// address of a member reachable through exported fields of T.
func PathOf[T any](selector func(*T) any) Selector {
	if selector == nil {
		return Selector{err: argumentNil("selector")}
	}
	root := reflect.New(reflect.TypeFor[T]())
	allocate(root.Elem(), 0)

	result, err := callSelector(selector, root.Interface().(*T))
	if err != nil {
		return Selector{err: err}
	}
	target := reflect.ValueOf(result)
	if !target.IsValid() || target.Kind() != reflect.Pointer || target.IsNil() {
		return Selector{err: invalidSelectorf(nil, "selector must return the address of a member, got %T", result)}
	}

	path, ok := findPath(root.Elem(), target, "", 0)
	if !ok || path == "" {
		return Selector{err: invalidSelectorf(nil, "selector does not return the address of a member of %s", reflect.TypeFor[T]())}
	}
	return Selector{path: path}
}

func callSelector[T any](selector func(*T) any, root *T) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = invalidSelectorf(fmt.Errorf("%v", r), "selector panicked: %v", r)
		}
	}()
	return selector(root), nil
}

// allocate fills nil pointers to structs so a selector can walk through them.
func allocate(v reflect.Value, depth int) {
	if depth > maxSelectorDepth || v.Kind() != reflect.Struct {
		return
	}
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || len(f.Index) > 1 {
			continue
		}
		field := v.FieldByIndex(f.Index)
		if field.Kind() == reflect.Pointer && field.IsNil() && field.Type().Elem().Kind() == reflect.Struct && field.CanSet() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		if field.Kind() == reflect.Pointer && !field.IsNil() {
			allocate(field.Elem(), depth+1)
		} else {
			allocate(field, depth+1)
		}
	}
}

func findPath(v reflect.Value, target reflect.Value, prefix string, depth int) (string, bool) {
	if depth > maxSelectorDepth || v.Kind() != reflect.Struct {
		return "", false
	}
	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() {
			continue
		}
		field, err := v.FieldByIndexErr(f.Index)
		if err != nil || !field.CanAddr() {
			continue
		}
		path := joinPath(prefix, f.Name)
		if field.Addr().Pointer() == target.Pointer() && field.Addr().Type() == target.Type() {
			return path, true
		}
		if f.Anonymous {
			// Promoted fields are reached through VisibleFields directly.
			continue
		}
		next := field
		if next.Kind() == reflect.Pointer && !next.IsNil() {
			next = next.Elem()
		}
		if found, ok := findPath(next, target, path, depth+1); ok {
			return found, true
		}
	}
	return "", false
}
