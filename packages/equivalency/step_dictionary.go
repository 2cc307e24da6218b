package equivalency

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/abdul-hamid-achik/equivspec/packages/format"
)

// dictionaryStep compares maps key by key.
type dictionaryStep struct{}

func (dictionaryStep) Name() string { return "dictionary" }

func (dictionaryStep) CanHandle(ctx *Context, _ *Options) bool {
	return ctx.expectation.Kind() == reflect.Map
}

func (dictionaryStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	s, e := ctx.subject, ctx.expectation
	if s.Kind() != reflect.Map {
		return handled(failuref(ctx, "Expected %s to be a dictionary with %d item(s), but found %s.",
			ctx.Describe(), e.Len(), describeValue(s)))
	}

	subjectKey, expectationKey := s.Type().Key(), e.Type().Key()
	if !keysCompatible(subjectKey, expectationKey) {
		return handled(failuref(ctx, "Expected %s to be a dictionary with keys of type %s, but found keys of type %s.",
			ctx.Describe(), expectationKey, subjectKey))
	}

	// String keys are addressed like members and follow the selection rules.
	byName := expectationKey.Kind() == reflect.String
	selected := func(m, key reflect.Value) bool {
		return !byName || selectsEntry(v.opts, ctx, keyText(key), m.Type())
	}

	var expected, missing, common []reflect.Value
	for _, key := range format.SortedKeys(e) {
		if !selected(e, key) {
			continue
		}
		expected = append(expected, key)
		if lookup(s, key).IsValid() {
			common = append(common, key)
		} else {
			missing = append(missing, key)
		}
	}
	var additional []reflect.Value
	for _, key := range format.SortedKeys(s) {
		if selected(s, key) && !lookup(e, key).IsValid() {
			additional = append(additional, key)
		}
	}

	var failures []Failure
	if len(missing) > 0 || len(additional) > 0 {
		prefix := fmt.Sprintf("Expected %s to be a dictionary with %d item(s), but", ctx.Describe(), len(expected))
		var message string
		switch {
		case len(missing) > 0 && len(additional) > 0:
			message = fmt.Sprintf("%s it misses key(s) %s and has additional key(s) %s.", prefix, keyList(missing), keyList(additional))
		case len(missing) > 0:
			message = fmt.Sprintf("%s it misses key(s) %s.", prefix, keyList(missing))
		default:
			message = fmt.Sprintf("%s has additional key(s) %s.", prefix, keyList(additional))
		}
		failures = append(failures, Failure{Path: ctx.Path, Message: message})
	}

	declared := e.Type().Elem()
	for _, key := range common {
		var child *Context
		if byName {
			child = ctx.member(keyText(key), lookup(s, key), e.MapIndex(key), declared)
		} else {
			child = ctx.item(keyText(key), lookup(s, key), e.MapIndex(key), declared)
		}
		f, err := v.Recurse(child)
		if err != nil {
			return Outcome{}, err
		}
		failures = append(failures, f...)
	}
	return handled(failures...)
}

func keysCompatible(a, b reflect.Type) bool {
	if a.AssignableTo(b) || b.AssignableTo(a) {
		return true
	}
	// Defined types over the same kind, such as type ID string and string.
	return a.Kind() == b.Kind() && a.ConvertibleTo(b) && b.ConvertibleTo(a) && a.Kind() != reflect.Interface
}

// lookup finds key in m, converting between key types of the same kind.
func lookup(m, key reflect.Value) reflect.Value {
	kt := m.Type().Key()
	if key.Type().AssignableTo(kt) {
		return m.MapIndex(key)
	}
	k := unwrap(key)
	switch {
	case !k.IsValid():
		return reflect.Value{}
	case k.Type().AssignableTo(kt):
		return m.MapIndex(k)
	case k.Kind() == kt.Kind() && k.Type().ConvertibleTo(kt):
		return m.MapIndex(k.Convert(kt))
	}
	return reflect.Value{}
}

func keyList(keys []reflect.Value) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = format.Reflect(k)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func keyText(key reflect.Value) string {
	key = unwrap(key)
	if key.Kind() == reflect.String {
		return key.String()
	}
	return format.Reflect(key)
}
