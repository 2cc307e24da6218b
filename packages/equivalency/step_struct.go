package equivalency

import (
	"reflect"
)

// structStep compares two objects member by member.
type structStep struct{}

func (structStep) Name() string { return "members" }

func (structStep) CanHandle(ctx *Context, _ *Options) bool {
	e := ctx.expectation
	return e.Kind() == reflect.Struct || len(typeGetters(e.Type())) > 0
}

func (structStep) Handle(ctx *Context, v *Validator) (Outcome, error) {
	expectationType := v.expectationType(ctx)
	candidates := v.catalog.Members(expectationType, ExpectationSide)
	if len(candidates) == 0 {
		return Outcome{}, invalidOperationf(
			"no members were found for comparison of %s (type %s); include some members or compare the type by value with ComparingByValue",
			ctx.Describe(), expectationType)
	}

	selected := selectMembers(v.opts, ctx, candidates)
	if len(selected) == 0 {
		v.trace("No members selected at %s", ctx.Describe())
		return handled()
	}

	if !hasMembers(ctx.subject) {
		return handled(mismatch(ctx, ""))
	}

	var subjectMembers []Member
	if ctx.subject.Kind() == reflect.Map {
		subjectMembers = entryMembers(ctx.subject)
	} else {
		subjectMembers = v.catalog.Members(ctx.subject.Type(), SubjectSide)
	}

	var failures []Failure
	for _, member := range selected {
		match, failure := matchMember(v.opts, member, subjectMembers, ctx)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		if match.Name == "" {
			continue
		}

		expectationValue, err := member.Get(ctx.expectation)
		if err != nil {
			failures = append(failures, failuref(ctx, "Could not read %s of the expectation: %v.", member.Name, err))
			continue
		}
		subjectValue, err := match.Get(ctx.subject)
		if err != nil {
			failures = append(failures, failuref(ctx, "Could not read %s of the subject: %v.", match.Name, err))
			continue
		}

		child := ctx.member(member.Name, subjectValue, expectationValue, member.Type)
		f, err := v.Recurse(child)
		if err != nil {
			return Outcome{}, err
		}
		failures = append(failures, f...)
	}
	return handled(failures...)
}
