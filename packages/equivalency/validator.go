package equivalency

import (
	"fmt"
	"reflect"
	"slices"
)

type phase int

const (
	phaseStart phase = iota
	phaseRecursing
	phaseDone
	phaseAborted
)

// Validator drives one comparison at a time through the step chain.
// It is not safe for concurrent use; create one per goroutine.
type Validator struct {
	opts    *Options
	steps   []Step
	catalog *MemberCatalog
	tracker *PathTracker
	phase   phase
}

// New returns a Validator for opts. A nil opts uses the current defaults.
func New(opts *Options) *Validator {
	if opts == nil {
		opts = Defaults()
	}
	user := slices.Clone(opts.steps)
	slices.Reverse(user)

	steps := append(user,
		nilStep{},
		referenceStep{},
		pointerStep{},
		conversionStep{},
		stringStep{},
		enumStep{},
		valueStep{},
		collectionStep{},
		dictionaryStep{},
		tupleStep{},
		structStep{},
	)
	return &Validator{
		opts:    opts,
		steps:   steps,
		catalog: newMemberCatalog(opts),
	}
}

// Options returns the options the validator compares with.
func (v *Validator) Options() *Options {
	return v.opts
}

// Validate compares subject with expectation. declared is the type the
// expectation is known as; nil means its runtime type.
func (v *Validator) Validate(subject, expectation any, declared reflect.Type) ([]Failure, error) {
	if v.phase == phaseRecursing {
		return nil, invalidOperationf("a validator cannot start a comparison while another one is running; use Recurse from a step")
	}
	v.phase = phaseStart
	v.tracker = newPathTracker(v.opts)

	root := newRootContext(subject, expectation, declared)
	if err := v.checkComparers(root); err != nil {
		v.phase = phaseAborted
		return nil, err
	}

	v.phase = phaseRecursing
	failures, err := v.Recurse(root)
	if err != nil {
		v.phase = phaseAborted
		return nil, err
	}
	v.phase = phaseDone
	return failures, nil
}

// Recurse compares a node, guarding against cycles and excessive depth.
func (v *Validator) Recurse(ctx *Context) ([]Failure, error) {
	if v.tracker == nil {
		v.tracker = newPathTracker(v.opts)
	}
	ok, failure := v.tracker.Enter(ctx)
	if !ok {
		if failure != nil {
			v.trace("Cyclic reference at %s", ctx.Describe())
			return []Failure{*failure}, nil
		}
		v.trace("Stopped at %s", ctx.Describe())
		return nil, nil
	}
	defer v.tracker.Exit(ctx)
	return v.Dispatch(ctx)
}

// Dispatch runs the step chain on a node without registering it with the
// cycle tracker. Steps use it to restart the chain on converted values.
func (v *Validator) Dispatch(ctx *Context) ([]Failure, error) {
	for _, step := range v.steps {
		if !step.CanHandle(ctx, v.opts) {
			continue
		}
		end := v.block("%s: %s", ctx.Describe(), stepName(step))
		outcome, err := step.Handle(ctx, v)
		end()
		if err != nil {
			return nil, err
		}
		if outcome.Handled {
			return outcome.Failures, nil
		}
	}
	return nil, invalidOperationf("no comparison strategy applies to %s (expectation type %s, subject type %s)",
		ctx.Describe(), ctx.ExpectationType(), ctx.SubjectType())
}

// expectationType is the type members of the expectation are discovered on.
func (v *Validator) expectationType(ctx *Context) reflect.Type {
	runtime := ctx.expectation.Type()
	declared := ctx.CompileTimeType
	if v.opts.runtimeTypes || declared == nil {
		return runtime
	}
	if declared.Kind() == reflect.Interface && len(interfaceGetters(declared)) == 0 {
		return runtime
	}
	return declared
}

// checkComparers rejects equality comparers that cannot apply anywhere in
// the expectation graph.
func (v *Validator) checkComparers(root *Context) error {
	if root.CompileTimeType == nil {
		return nil
	}
	for _, r := range v.opts.comparers {
		if !r.equality || r.when != nil {
			continue
		}
		if !reachable(root.CompileTimeType, r.typ, v.opts) {
			return invalidOperationf("%s can never apply to an expectation of type %s", r, root.CompileTimeType)
		}
	}
	return nil
}

func (v *Validator) trace(format string, args ...any) {
	if v.opts.tracer != nil {
		v.opts.tracer.WriteLine(fmt.Sprintf(format, args...))
	}
}

func (v *Validator) block(format string, args ...any) func() {
	if v.opts.tracer == nil {
		return func() {}
	}
	return v.opts.tracer.Block(fmt.Sprintf(format, args...))
}

// AreEquivalent compares subject with expectation structurally. An empty
// result means the two are equivalent. The error reports misuse only.
func AreEquivalent(subject, expectation any, configure ...Configure) ([]Failure, error) {
	return compare(subject, expectation, nil, configure)
}

// Expect is AreEquivalent with the expectation known as T, which matters
// when members are discovered on declared types.
func Expect[T any](subject any, expectation T, configure ...Configure) ([]Failure, error) {
	return compare(subject, expectation, reflect.TypeFor[T](), configure)
}

func compare(subject, expectation any, declared reflect.Type, configure []Configure) ([]Failure, error) {
	opts, err := Configured(configure...)
	if err != nil {
		return nil, err
	}
	return New(opts).Validate(subject, expectation, declared)
}
