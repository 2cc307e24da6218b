package equivalency

import (
	"fmt"
)

// MatchingRule finds the subject member to compare an expectation member
// with. Rules are consulted in registration order before members are
// matched by name; the first rule reporting a match wins.
type MatchingRule interface {
	Match(expectation MemberInfo, subject []Member, ctx *Context) (Member, bool)
}

type mappingRule struct {
	path    string
	subject string
}

func (r mappingRule) Match(expectation MemberInfo, subject []Member, _ *Context) (Member, bool) {
	if !matchMemberPath(r.path, expectation.Path) {
		return Member{}, false
	}
	return memberNamed(subject, r.subject)
}

func (r mappingRule) String() string {
	return fmt.Sprintf("%s to %s", r.path, r.subject)
}

func memberNamed(members []Member, name string) (Member, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// matchMember runs the matching rules and falls back to matching by name.
// A miss yields a failure unless missing members are excluded.
func matchMember(opts *Options, expectation Member, subject []Member, ctx *Context) (Member, *Failure) {
	for _, rule := range opts.matching {
		if m, ok := rule.Match(expectation.MemberInfo, subject, ctx); ok {
			return m, nil
		}
	}
	if m, ok := memberNamed(subject, expectation.Name); ok {
		return m, nil
	}
	if opts.excludeMissing {
		return Member{}, nil
	}
	return Member{}, &Failure{
		Path:    joinPath(ctx.Path, expectation.Name),
		Message: fmt.Sprintf("Expectation has member %s that the other object does not have.", joinPath(ctx.Path, expectation.Name)),
	}
}
