package equivalency

import (
	"reflect"
	"regexp"
	"strings"
)

// Context describes the node currently being compared. A Context is never
// modified after construction; descending into a child creates a new one.
type Context struct {
	// Path is the member path from the root, for example "Orders[2].Lines".
	// The root has an empty path.
	Path string
	// Depth is the number of members between the root and this node.
	Depth int
	// CompileTimeType is the declared type of the slot holding the
	// expectation, for example the field type of the parent struct.
	CompileTimeType reflect.Type

	subject     reflect.Value
	expectation reflect.Value
}

func newRootContext(subject, expectation any, declared reflect.Type) *Context {
	e := reflect.ValueOf(expectation)
	if declared == nil && e.IsValid() {
		declared = e.Type()
	}
	return &Context{
		CompileTimeType: declared,
		subject:         unwrap(reflect.ValueOf(subject)),
		expectation:     unwrap(e),
	}
}

// Subject returns the subject value of the node, or nil.
func (c *Context) Subject() any {
	return interfaceOf(c.subject)
}

// Expectation returns the expectation value of the node, or nil.
func (c *Context) Expectation() any {
	return interfaceOf(c.expectation)
}

// SubjectType returns the runtime type of the subject, or nil.
func (c *Context) SubjectType() reflect.Type {
	if !c.subject.IsValid() {
		return nil
	}
	return c.subject.Type()
}

// ExpectationType returns the runtime type of the expectation, or nil.
func (c *Context) ExpectationType() reflect.Type {
	if !c.expectation.IsValid() {
		return nil
	}
	return c.expectation.Type()
}

// MemberPath returns the path with collection indices and map keys removed,
// the form selection patterns are matched against.
func (c *Context) MemberPath() string {
	return memberPath(c.Path)
}

// Describe names the node in failure messages.
func (c *Context) Describe() string {
	return describe(c.Path)
}

func (c *Context) member(name string, subject, expectation reflect.Value, declared reflect.Type) *Context {
	return &Context{
		Path:            joinPath(c.Path, name),
		Depth:           c.Depth + 1,
		CompileTimeType: declared,
		subject:         unwrap(subject),
		expectation:     unwrap(expectation),
	}
}

func (c *Context) item(index string, subject, expectation reflect.Value, declared reflect.Type) *Context {
	return &Context{
		Path:            c.Path + "[" + index + "]",
		Depth:           c.Depth + 1,
		CompileTimeType: declared,
		subject:         unwrap(subject),
		expectation:     unwrap(expectation),
	}
}

// with returns a copy of the context at the same path holding other values.
func (c *Context) with(subject, expectation reflect.Value, declared reflect.Type) *Context {
	clone := *c
	clone.subject = unwrap(subject)
	clone.expectation = unwrap(expectation)
	if declared != nil {
		clone.CompileTimeType = declared
	}
	return &clone
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

var indexPattern = regexp.MustCompile(`\[[^\]]*\]`)

func memberPath(path string) string {
	return strings.TrimPrefix(indexPattern.ReplaceAllString(path, ""), ".")
}

func describe(path string) string {
	switch {
	case path == "":
		return "subject"
	case strings.HasPrefix(path, "["):
		return "subject" + path
	default:
		return "member " + path
	}
}

// unwrap replaces interface values with their dynamic value so that every
// step sees runtime types.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
