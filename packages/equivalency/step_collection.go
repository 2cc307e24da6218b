package equivalency

import (
	"reflect"
	"strconv"
	"strings"
)

// collectionStep compares slices and arrays, in order or by closest match.
type collectionStep struct{}

func (collectionStep) Name() string { return "collection" }

func (collectionStep) CanHandle(ctx *Context, _ *Options) bool {
	k := ctx.expectation.Kind()
	return k == reflect.Slice || k == reflect.Array
}

func (collectionStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	s, e := ctx.subject, ctx.expectation
	if s.Kind() != reflect.Slice && s.Kind() != reflect.Array {
		return handled(failuref(ctx, "Expected %s to be a collection with %d item(s), but found %s.",
			ctx.Describe(), e.Len(), describeValue(s)))
	}

	if rank(e.Type()) > 1 {
		return compareMultiDimensional(ctx, v)
	}

	if s.Len() != e.Len() {
		difference, moreOrLess := s.Len()-e.Len(), "more"
		if difference < 0 {
			difference, moreOrLess = -difference, "less"
		}
		return handled(failuref(ctx, "Expected %s to be a collection with %d item(s), but %s contains %d item(s) %s than %s.",
			ctx.Describe(), e.Len(), describeValue(s), difference, moreOrLess, describeValue(e)))
	}

	strict := e.Type().Elem().Kind() == reflect.Uint8 || v.opts.IsStrictOrdering(ctx.Path)
	if strict {
		failures, err := compareInOrder(ctx, v)
		return Outcome{Handled: true, Failures: failures}, err
	}
	failures, err := compareByClosestMatch(ctx, v)
	return Outcome{Handled: true, Failures: failures}, err
}

func compareInOrder(ctx *Context, v *Validator) ([]Failure, error) {
	s, e := ctx.subject, ctx.expectation
	elem := e.Type().Elem()
	var failures []Failure
	for i := range e.Len() {
		child := ctx.item(strconv.Itoa(i), s.Index(i), e.Index(i), elem)
		f, err := v.Recurse(child)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f...)
	}
	return failures, nil
}

// compareByClosestMatch pairs every expectation item with an equivalent
// subject item. Items left without an exact match are paired with the
// remaining subject item that has the fewest differences, ties going to the
// first one, and those differences are reported.
func compareByClosestMatch(ctx *Context, v *Validator) ([]Failure, error) {
	s, e := ctx.subject, ctx.expectation
	elem := e.Type().Elem()
	n := e.Len()

	matched := make([]bool, s.Len())
	pending := make([]int, 0)

	trial := func(si, ei int) ([]Failure, error) {
		return v.Recurse(ctx.item(strconv.Itoa(ei), s.Index(si), e.Index(ei), elem))
	}

	for ei := range n {
		found := false
		// Try the same position first; equal ordering is the common case.
		if ei < len(matched) && !matched[ei] {
			f, err := trial(ei, ei)
			if err != nil {
				return nil, err
			}
			if len(f) == 0 {
				matched[ei], found = true, true
			}
		}
		for si := 0; !found && si < len(matched); si++ {
			if matched[si] || si == ei {
				continue
			}
			f, err := trial(si, ei)
			if err != nil {
				return nil, err
			}
			if len(f) == 0 {
				matched[si], found = true, true
			}
		}
		if !found {
			pending = append(pending, ei)
		}
	}

	var failures []Failure
	for _, ei := range pending {
		best, bestFailures := -1, []Failure(nil)
		for si := range matched {
			if matched[si] {
				continue
			}
			f, err := trial(si, ei)
			if err != nil {
				return nil, err
			}
			if best < 0 || len(f) < len(bestFailures) {
				best, bestFailures = si, f
			}
		}
		if best < 0 {
			break
		}
		v.trace("Closest match for %s[%d] is subject item %d with %d difference(s)", ctx.Describe(), ei, best, len(bestFailures))
		matched[best] = true
		failures = append(failures, bestFailures...)
	}
	return failures, nil
}

// rank returns the number of directly nested array dimensions of t.
func rank(t reflect.Type) int {
	if t.Kind() != reflect.Array {
		return 1
	}
	r := 0
	for t.Kind() == reflect.Array {
		r++
		t = t.Elem()
	}
	return r
}

func dimensions(v reflect.Value) []int {
	var dims []int
	for v.Kind() == reflect.Array {
		dims = append(dims, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}
	return dims
}

func compareMultiDimensional(ctx *Context, v *Validator) (Outcome, error) {
	s, e := ctx.subject, ctx.expectation
	if rank(s.Type()) != rank(e.Type()) {
		return handled(failuref(ctx, "Expected %s to be an array with rank %d, but found an array with rank %d.",
			ctx.Describe(), rank(e.Type()), rank(s.Type())))
	}
	sd, ed := dimensions(s), dimensions(e)
	for d := range ed {
		if d >= len(sd) || sd[d] != ed[d] {
			got := 0
			if d < len(sd) {
				got = sd[d]
			}
			return handled(failuref(ctx, "Expected dimension %d of %s to contain %d item(s), but found %d.",
				d, ctx.Describe(), ed[d], got))
		}
	}

	elem := e.Type()
	for elem.Kind() == reflect.Array {
		elem = elem.Elem()
	}

	var failures []Failure
	var walk func(sv, ev reflect.Value, indices []int) error
	walk = func(sv, ev reflect.Value, indices []int) error {
		if len(indices) == len(ed) {
			parts := make([]string, len(indices))
			for i, idx := range indices {
				parts[i] = strconv.Itoa(idx)
			}
			f, err := v.Recurse(ctx.item(strings.Join(parts, ","), sv, ev, elem))
			if err != nil {
				return err
			}
			failures = append(failures, f...)
			return nil
		}
		for i := range ev.Len() {
			if err := walk(sv.Index(i), ev.Index(i), append(indices, i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s, e, nil); err != nil {
		return Outcome{}, err
	}
	return handled(failures...)
}
