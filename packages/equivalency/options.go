package equivalency

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// DefaultMaxRecursionDepth is the depth at which a branch stops being compared.
const DefaultMaxRecursionDepth = 10

// CyclicReferenceHandling decides what happens when a subject refers back to
// an object that is already being compared on the current branch.
type CyclicReferenceHandling int

const (
	// FailOnCyclicReference reports a Failure for the cycle.
	FailOnCyclicReference CyclicReferenceHandling = iota
	// IgnoreCyclicReference silently stops the branch.
	IgnoreCyclicReference
)

// EnumHandling decides how enumeration values are compared.
type EnumHandling int

const (
	EnumByValue EnumHandling = iota
	EnumByName
)

func (h EnumHandling) String() string {
	if h == EnumByName {
		return "by name"
	}
	return "by value"
}

// Options is an immutable set of comparison settings produced by a Configurator.
type Options struct {
	runtimeTypes    bool
	fields          bool
	getters         bool
	gettersExplicit bool

	selection []selectionRule
	matching  []MatchingRule

	byValue   map[reflect.Type]bool
	byMembers map[reflect.Type]bool

	strictOrdering bool
	ordering       []pathRule

	enums EnumHandling

	conversion      bool
	conversionRules []pathRule

	cyclic         CyclicReferenceHandling
	maxDepth       int
	infinite       bool
	excludeMissing bool

	steps     []Step
	comparers []*Registration

	strings stringOptions
	tracer  Tracer
}

type stringOptions struct {
	ignoreCase   bool
	leading      bool
	trailing     bool
	newlineStyle bool
}

// pathRule turns a setting on or off for member paths matching a pattern.
type pathRule struct {
	patterns []string
	enabled  bool
}

// DefaultOptions returns the built-in defaults, ignoring anything set through SetDefaults.
func DefaultOptions() *Options {
	return &Options{
		runtimeTypes:   true,
		fields:         true,
		byValue:        map[reflect.Type]bool{},
		byMembers:      map[reflect.Type]bool{},
		strictOrdering: false,
		enums:          EnumByValue,
		cyclic:         FailOnCyclicReference,
		maxDepth:       DefaultMaxRecursionDepth,
	}
}

var (
	defaultsMu sync.RWMutex
	defaults   = DefaultOptions()
)

// Defaults returns the options every new Configurator starts from.
func Defaults() *Options {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// SetDefaults replaces the process-wide defaults with the result of
// applying configure to the built-in defaults.
func SetDefaults(configure Configure) error {
	if configure == nil {
		return argumentNil("configure")
	}
	c := &Configurator{opts: DefaultOptions().clone()}
	if configured := configure(c); configured != nil {
		c = configured
	}
	opts, err := c.Build()
	if err != nil {
		return err
	}
	defaultsMu.Lock()
	defaults = opts
	defaultsMu.Unlock()
	return nil
}

// ResetDefaults restores the built-in defaults.
func ResetDefaults() {
	defaultsMu.Lock()
	defaults = DefaultOptions()
	defaultsMu.Unlock()
}

func (o *Options) clone() *Options {
	c := *o
	c.selection = slices.Clone(o.selection)
	c.matching = slices.Clone(o.matching)
	c.byValue = maps.Clone(o.byValue)
	c.byMembers = maps.Clone(o.byMembers)
	c.ordering = slices.Clone(o.ordering)
	c.conversionRules = slices.Clone(o.conversionRules)
	c.steps = slices.Clone(o.steps)
	c.comparers = slices.Clone(o.comparers)
	if c.byValue == nil {
		c.byValue = map[reflect.Type]bool{}
	}
	if c.byMembers == nil {
		c.byMembers = map[reflect.Type]bool{}
	}
	return &c
}

// UseRuntimeTypes reports whether members are discovered on runtime types.
func (o *Options) UseRuntimeTypes() bool { return o.runtimeTypes }

// EnumHandling reports how enums are compared.
func (o *Options) EnumHandling() EnumHandling { return o.enums }

// CyclicReferenceHandling reports how cycles are treated.
func (o *Options) CyclicReferenceHandling() CyclicReferenceHandling { return o.cyclic }

// MaxRecursionDepth returns the depth limit, or 0 when recursion is unbounded.
func (o *Options) MaxRecursionDepth() int {
	if o.infinite {
		return 0
	}
	return o.maxDepth
}

// Tracer returns the configured tracer, or nil.
func (o *Options) Tracer() Tracer { return o.tracer }

// IsStrictOrdering reports whether the collection at path must match index by index.
// The last matching rule wins over the default.
func (o *Options) IsStrictOrdering(path string) bool {
	return resolvePathRules(o.strictOrdering, o.ordering, memberPath(path))
}

// IsConversionEnabled reports whether the expectation at path is converted
// to the subject type before comparing.
func (o *Options) IsConversionEnabled(path string) bool {
	return resolvePathRules(o.conversion, o.conversionRules, memberPath(path))
}

func resolvePathRules(def bool, rules []pathRule, path string) bool {
	result := def
	for _, rule := range rules {
		for _, pattern := range rule.patterns {
			if matchMemberPath(pattern, path) {
				result = rule.enabled
				break
			}
		}
	}
	return result
}

// IsValueType reports whether t is compared as a whole rather than member by member.
func (o *Options) IsValueType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if o.byMembers[t] {
		return false
	}
	if o.byValue[t] {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Struct:
		if t.NumField() == 0 {
			return true
		}
	}
	return hasEqualMethod(t) || (t.Kind() != reflect.Struct && t.Implements(errorType))
}

// String renders the options for inclusion in failure reports.
func (o *Options) String() string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, "- "+fmt.Sprintf(format, args...))
	}

	if o.runtimeTypes {
		add("Use runtime types to discover members")
	} else {
		add("Use declared types to discover members")
	}
	switch {
	case o.fields && o.getters:
		add("Include fields and getters")
	case o.getters:
		add("Include getters")
	case o.fields:
		add("Include fields")
	default:
		add("Include no members")
	}
	for _, rule := range o.selection {
		add("%v", rule)
	}
	for _, rule := range o.matching {
		add("Match members %v", rule)
	}
	if o.excludeMissing {
		add("Ignore members missing on the subject")
	}
	for _, t := range sortedTypes(o.byValue) {
		add("Compare %s by value", t)
	}
	for _, t := range sortedTypes(o.byMembers) {
		add("Compare %s by its members", t)
	}
	if o.strictOrdering {
		add("Require strict ordering of collections")
	} else {
		add("Ignore the order of collections")
	}
	for _, rule := range o.ordering {
		if rule.enabled {
			add("Require strict ordering for %s", strings.Join(rule.patterns, ", "))
		} else {
			add("Ignore ordering for %s", strings.Join(rule.patterns, ", "))
		}
	}
	add("Compare enums %s", o.enums)
	if o.conversion {
		add("Convert the expectation to the subject type")
	}
	for _, rule := range o.conversionRules {
		if rule.enabled {
			add("Convert the expectation for %s", strings.Join(rule.patterns, ", "))
		} else {
			add("Do not convert the expectation for %s", strings.Join(rule.patterns, ", "))
		}
	}
	if o.cyclic == IgnoreCyclicReference {
		add("Ignore cyclic references")
	} else {
		add("Fail on cyclic references")
	}
	if o.infinite {
		add("Allow infinite recursion")
	} else {
		add("Stop at a recursion depth of %d", o.maxDepth)
	}
	if o.strings.ignoreCase {
		add("Ignore case of strings")
	}
	if o.strings.leading {
		add("Ignore leading whitespace of strings")
	}
	if o.strings.trailing {
		add("Ignore trailing whitespace of strings")
	}
	if o.strings.newlineStyle {
		add("Ignore newline style of strings")
	}
	for _, r := range o.comparers {
		add("Use %s", r)
	}
	for _, s := range o.steps {
		add("Use step %T", s)
	}
	return strings.Join(lines, "\n")
}

func sortedTypes(set map[reflect.Type]bool) []string {
	names := make([]string, 0, len(set))
	for t, ok := range set {
		if ok {
			names = append(names, t.String())
		}
	}
	slices.Sort(names)
	return names
}

// Configure adjusts a Configurator and returns it.
type Configure func(*Configurator) *Configurator

// Configurator builds Options. Misuse is recorded and reported by Build,
// so calls can be chained freely.
type Configurator struct {
	opts *Options
	errs []error
}

// NewConfigurator returns a Configurator starting from the current defaults.
func NewConfigurator() *Configurator {
	return &Configurator{opts: Defaults().clone()}
}

// Configured builds options by applying configure to the defaults.
func Configured(configure ...Configure) (*Options, error) {
	c := NewConfigurator()
	for _, fn := range configure {
		if fn == nil {
			c.fail(argumentNil("configure"))
			continue
		}
		if configured := fn(c); configured != nil {
			c = configured
		}
	}
	return c.Build()
}

// Build returns the configured options, or every recorded misuse joined together.
func (c *Configurator) Build() (*Options, error) {
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	return c.opts.clone(), nil
}

func (c *Configurator) fail(err error) *Configurator {
	c.errs = append(c.errs, err)
	return c
}

// RespectingRuntimeTypes discovers members on the runtime type of each value.
func (c *Configurator) RespectingRuntimeTypes() *Configurator {
	c.opts.runtimeTypes = true
	return c
}

// RespectingDeclaredTypes discovers expectation members on the declared
// type of the slot holding them. Slots declared as any fall back to the
// runtime type.
func (c *Configurator) RespectingDeclaredTypes() *Configurator {
	c.opts.runtimeTypes = false
	return c
}

func (c *Configurator) IncludingFields() *Configurator {
	c.opts.fields = true
	return c
}

func (c *Configurator) ExcludingFields() *Configurator {
	c.opts.fields = false
	return c
}

// IncludingGetters also compares exported methods that take no arguments
// and return a single value.
func (c *Configurator) IncludingGetters() *Configurator {
	c.opts.getters = true
	c.opts.gettersExplicit = true
	return c
}

// ExcludingGetters never compares getters, even on types without exported fields.
func (c *Configurator) ExcludingGetters() *Configurator {
	c.opts.getters = false
	c.opts.gettersExplicit = true
	return c
}

// Including limits the comparison to members matching the patterns.
// Patterns are dotted member paths from the root; collection indices are
// left out and * or ** act as wildcards.
func (c *Configurator) Including(patterns ...string) *Configurator {
	if err := validatePatterns(patterns); err != nil {
		return c.fail(err)
	}
	c.opts.selection = append(c.opts.selection, selectionRule{kind: selectInclude, patterns: patterns})
	return c
}

// IncludingWhere limits the comparison to members satisfying pred.
func (c *Configurator) IncludingWhere(pred func(MemberInfo) bool) *Configurator {
	if pred == nil {
		return c.fail(argumentNil("predicate"))
	}
	c.opts.selection = append(c.opts.selection, selectionRule{kind: selectIncludeWhere, pred: pred})
	return c
}

// Excluding leaves out members matching the patterns.
func (c *Configurator) Excluding(patterns ...string) *Configurator {
	if err := validatePatterns(patterns); err != nil {
		return c.fail(err)
	}
	c.opts.selection = append(c.opts.selection, selectionRule{kind: selectExclude, patterns: patterns})
	return c
}

// IncludingMember limits the comparison to the member a selector made with PathOf resolves to.
func (c *Configurator) IncludingMember(selector Selector) *Configurator {
	if selector.err != nil {
		return c.fail(selector.err)
	}
	return c.Including(selector.path)
}

// ExcludingMember leaves out the member a selector made with PathOf resolves to.
func (c *Configurator) ExcludingMember(selector Selector) *Configurator {
	if selector.err != nil {
		return c.fail(selector.err)
	}
	return c.Excluding(selector.path)
}

// ExcludingWhere leaves out members satisfying pred.
func (c *Configurator) ExcludingWhere(pred func(MemberInfo) bool) *Configurator {
	if pred == nil {
		return c.fail(argumentNil("predicate"))
	}
	c.opts.selection = append(c.opts.selection, selectionRule{kind: selectExcludeWhere, pred: pred})
	return c
}

// WithSelectionRule adds a custom selection rule after the built-in ones.
func (c *Configurator) WithSelectionRule(rule SelectionRule) *Configurator {
	if rule == nil {
		return c.fail(argumentNil("rule"))
	}
	c.opts.selection = append(c.opts.selection, selectionRule{kind: selectCustom, custom: rule})
	return c
}

// ExcludingMissingMembers ignores expectation members the subject does not have.
func (c *Configurator) ExcludingMissingMembers() *Configurator {
	c.opts.excludeMissing = true
	return c
}

// WithMapping matches the expectation member at expectationPath with the
// subject member named subjectName. The path may use wildcards.
func (c *Configurator) WithMapping(expectationPath, subjectName string) *Configurator {
	if expectationPath == "" {
		return c.fail(argumentNil("expectationPath"))
	}
	if subjectName == "" {
		return c.fail(argumentNil("subjectName"))
	}
	if strings.Contains(subjectName, ".") {
		return c.fail(invalidOperationf("subject member %q must be a member name, not a path", subjectName))
	}
	if err := validatePatterns([]string{expectationPath}); err != nil {
		return c.fail(err)
	}
	c.opts.matching = append(c.opts.matching, mappingRule{path: expectationPath, subject: subjectName})
	return c
}

// WithMatchingRule adds a rule consulted before matching members by name.
func (c *Configurator) WithMatchingRule(rule MatchingRule) *Configurator {
	if rule == nil {
		return c.fail(argumentNil("rule"))
	}
	c.opts.matching = append(c.opts.matching, rule)
	return c
}

// ComparingByValue compares the given types as a whole with == or their Equal method.
func (c *Configurator) ComparingByValue(types ...reflect.Type) *Configurator {
	for _, t := range types {
		if t == nil {
			return c.fail(argumentNil("type"))
		}
		if c.opts.byMembers[t] {
			return c.fail(invalidOperationf("type %s is already compared by members", t))
		}
		c.opts.byValue[t] = true
	}
	return c
}

// ComparingByMembers compares the given types member by member even when
// they define an Equal method.
func (c *Configurator) ComparingByMembers(types ...reflect.Type) *Configurator {
	for _, t := range types {
		if t == nil {
			return c.fail(argumentNil("type"))
		}
		if c.opts.byValue[t] {
			return c.fail(invalidOperationf("type %s is already compared by value", t))
		}
		base := t
		for base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		switch base.Kind() {
		case reflect.Struct, reflect.Interface:
		default:
			return c.fail(invalidOperationf("type %s has no members to compare", t))
		}
		c.opts.byMembers[t] = true
	}
	return c
}

// WithStrictOrdering requires every collection to match index by index.
func (c *Configurator) WithStrictOrdering() *Configurator {
	c.opts.strictOrdering = true
	c.opts.ordering = nil
	return c
}

// WithoutStrictOrdering lets collections match in any order.
func (c *Configurator) WithoutStrictOrdering() *Configurator {
	c.opts.strictOrdering = false
	c.opts.ordering = nil
	return c
}

// WithStrictOrderingFor requires collections at the matching paths to match index by index.
func (c *Configurator) WithStrictOrderingFor(patterns ...string) *Configurator {
	return c.addPathRule(&c.opts.ordering, patterns, true)
}

// WithoutStrictOrderingFor lets collections at the matching paths match in any order.
func (c *Configurator) WithoutStrictOrderingFor(patterns ...string) *Configurator {
	return c.addPathRule(&c.opts.ordering, patterns, false)
}

// WithAutoConversion converts expectations to the subject type before comparing.
func (c *Configurator) WithAutoConversion() *Configurator {
	c.opts.conversion = true
	c.opts.conversionRules = nil
	return c
}

// WithoutAutoConversion compares without converting. This is the default.
func (c *Configurator) WithoutAutoConversion() *Configurator {
	c.opts.conversion = false
	c.opts.conversionRules = nil
	return c
}

// WithAutoConversionFor converts expectations at the matching paths.
func (c *Configurator) WithAutoConversionFor(patterns ...string) *Configurator {
	return c.addPathRule(&c.opts.conversionRules, patterns, true)
}

// WithoutAutoConversionFor stops converting expectations at the matching paths.
func (c *Configurator) WithoutAutoConversionFor(patterns ...string) *Configurator {
	return c.addPathRule(&c.opts.conversionRules, patterns, false)
}

func (c *Configurator) addPathRule(rules *[]pathRule, patterns []string, enabled bool) *Configurator {
	if len(patterns) == 0 {
		return c.fail(argumentNil("patterns"))
	}
	if err := validatePatterns(patterns); err != nil {
		return c.fail(err)
	}
	*rules = append(*rules, pathRule{patterns: patterns, enabled: enabled})
	return c
}

func (c *Configurator) ComparingEnumsByName() *Configurator {
	c.opts.enums = EnumByName
	return c
}

func (c *Configurator) ComparingEnumsByValue() *Configurator {
	c.opts.enums = EnumByValue
	return c
}

// IgnoringCyclicReferences silently stops at objects already being compared.
func (c *Configurator) IgnoringCyclicReferences() *Configurator {
	c.opts.cyclic = IgnoreCyclicReference
	return c
}

// ThrowingOnCyclicReferences reports cycles as failures. This is the default.
func (c *Configurator) ThrowingOnCyclicReferences() *Configurator {
	c.opts.cyclic = FailOnCyclicReference
	return c
}

// AllowingInfiniteRecursion removes the depth limit.
func (c *Configurator) AllowingInfiniteRecursion() *Configurator {
	c.opts.infinite = true
	return c
}

// WithMaxRecursionDepth changes the depth limit.
func (c *Configurator) WithMaxRecursionDepth(depth int) *Configurator {
	if depth <= 0 {
		return c.fail(invalidOperationf("max recursion depth must be positive, got %d", depth))
	}
	c.opts.maxDepth = depth
	c.opts.infinite = false
	return c
}

func (c *Configurator) IgnoringCase() *Configurator {
	c.opts.strings.ignoreCase = true
	return c
}

func (c *Configurator) IgnoringLeadingWhitespace() *Configurator {
	c.opts.strings.leading = true
	return c
}

func (c *Configurator) IgnoringTrailingWhitespace() *Configurator {
	c.opts.strings.trailing = true
	return c
}

// IgnoringNewlineStyle treats \r\n and \r as \n.
func (c *Configurator) IgnoringNewlineStyle() *Configurator {
	c.opts.strings.newlineStyle = true
	return c
}

// Using registers a custom comparison. Later registrations take precedence
// over earlier ones.
func (c *Configurator) Using(r *Registration) *Configurator {
	if r == nil {
		return c.fail(argumentNil("registration"))
	}
	if r.err != nil {
		return c.fail(r.err)
	}
	c.opts.comparers = append(c.opts.comparers, r)
	c.opts.steps = append(c.opts.steps, r)
	return c
}

// UsingEqualityComparer registers an equality comparer made with EqualityComparer.
func (c *Configurator) UsingEqualityComparer(r *Registration) *Configurator {
	if r != nil && r.err == nil && !r.equality {
		return c.fail(invalidOperationf("%s is not an equality comparer", r))
	}
	return c.Using(r)
}

// UsingStep registers a custom step evaluated before the built-in steps.
func (c *Configurator) UsingStep(step Step) *Configurator {
	if step == nil {
		return c.fail(argumentNil("step"))
	}
	c.opts.steps = append(c.opts.steps, step)
	return c
}

// WithTracing records every decision of the comparison in tracer. A nil
// tracer records into a new StringTracer.
func (c *Configurator) WithTracing(tracer Tracer) *Configurator {
	if tracer == nil {
		tracer = &StringTracer{}
	}
	c.opts.tracer = tracer
	return c
}
