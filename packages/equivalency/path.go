package equivalency

import (
	"fmt"
	"reflect"
)

// objectKey identifies a subject object by reference.
type objectKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// PathTracker guards recursion: it detects subjects that refer back to an
// object already being compared on the current branch and enforces the
// depth limit. A tracker belongs to a single comparison.
type PathTracker struct {
	opts    *Options
	visited map[objectKey]string
}

func newPathTracker(opts *Options) *PathTracker {
	return &PathTracker{opts: opts, visited: make(map[objectKey]string)}
}

// Enter registers the node and reports whether it should be compared.
// A node that should not be compared may come with a failure describing why.
func (p *PathTracker) Enter(ctx *Context) (bool, *Failure) {
	if !p.opts.infinite && ctx.Depth > p.opts.maxDepth {
		return false, nil
	}
	key, ok := p.keyOf(ctx.subject)
	if !ok {
		return true, nil
	}
	if first, seen := p.visited[key]; seen {
		if p.opts.cyclic == IgnoreCyclicReference {
			return false, nil
		}
		return false, &Failure{
			Path: ctx.Path,
			Message: fmt.Sprintf("Expected %s to be %s, but it contains a cyclic reference because it refers back to %s.",
				ctx.Describe(), describeValue(ctx.expectation), describe(first)),
		}
	}
	p.visited[key] = ctx.Path
	return true, nil
}

// Exit unregisters the node once its subtree has been compared.
func (p *PathTracker) Exit(ctx *Context) {
	key, ok := p.keyOf(ctx.subject)
	if !ok {
		return
	}
	if p.visited[key] == ctx.Path {
		delete(p.visited, key)
	}
}

// keyOf returns the reference identity of v. Values without identity and
// value objects are never tracked.
func (p *PathTracker) keyOf(v reflect.Value) (objectKey, bool) {
	if !v.IsValid() || p.opts.IsValueType(v.Type()) {
		return objectKey{}, false
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return objectKey{}, false
		}
		return objectKey{ptr: v.Pointer(), typ: v.Type()}, true
	case reflect.Map:
		if v.IsNil() {
			return objectKey{}, false
		}
		return objectKey{ptr: v.Pointer(), typ: v.Type()}, true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 || v.Type().Elem().Size() == 0 {
			return objectKey{}, false
		}
		return objectKey{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}, true
	}
	return objectKey{}, false
}
