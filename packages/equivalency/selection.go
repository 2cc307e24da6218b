package equivalency

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SelectionRule adjusts the members compared for a node. Rules run in
// registration order after the built-in include and exclude rules.
type SelectionRule interface {
	// Select returns the members to compare out of members.
	Select(members []MemberInfo, ctx *Context) []MemberInfo
	// OverridesStandardIncludeRules makes Select receive every candidate
	// member and replace the selection instead of narrowing it.
	OverridesStandardIncludeRules() bool
}

type selectionKind int

const (
	selectInclude selectionKind = iota
	selectIncludeWhere
	selectExclude
	selectExcludeWhere
	selectCustom
)

type selectionRule struct {
	kind     selectionKind
	patterns []string
	pred     func(MemberInfo) bool
	custom   SelectionRule
}

func (r selectionRule) String() string {
	switch r.kind {
	case selectInclude:
		return "Include " + strings.Join(r.patterns, ", ")
	case selectIncludeWhere:
		return "Include members matching a predicate"
	case selectExclude:
		return "Exclude " + strings.Join(r.patterns, ", ")
	case selectExcludeWhere:
		return "Exclude members matching a predicate"
	default:
		if s, ok := r.custom.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("Select members using %T", r.custom)
	}
}

func (r selectionRule) includes(m MemberInfo) bool {
	switch r.kind {
	case selectInclude:
		for _, pattern := range r.patterns {
			if includesPath(pattern, m.Path) {
				return true
			}
		}
		return false
	case selectIncludeWhere:
		return r.pred(m)
	}
	return false
}

func (r selectionRule) excludes(m MemberInfo) bool {
	switch r.kind {
	case selectExclude:
		for _, pattern := range r.patterns {
			if matchMemberPath(pattern, m.Path) {
				return true
			}
		}
		return false
	case selectExcludeWhere:
		return r.pred(m)
	}
	return false
}

// selectMembers applies the selection rules of opts to the candidate
// members of the node described by ctx.
func selectMembers(opts *Options, ctx *Context, candidates []Member) []Member {
	prefix := ctx.MemberPath()
	infos := make([]MemberInfo, len(candidates))
	byName := make(map[string]Member, len(candidates))
	for i, m := range candidates {
		m.Path = joinPath(prefix, m.Name)
		infos[i] = m.MemberInfo
		byName[m.Name] = m
	}

	includes := includeRules(opts)
	selected := make([]MemberInfo, 0, len(infos))
	for _, info := range infos {
		if standardSelects(opts, includes, info) {
			selected = append(selected, info)
		}
	}

	for _, rule := range opts.selection {
		if rule.kind != selectCustom {
			continue
		}
		if rule.custom.OverridesStandardIncludeRules() {
			selected = rule.custom.Select(infos, ctx)
		} else {
			selected = rule.custom.Select(selected, ctx)
		}
	}

	members := make([]Member, 0, len(selected))
	for _, info := range selected {
		m, ok := byName[info.Name]
		if !ok {
			continue
		}
		m.MemberInfo = info
		members = append(members, m)
	}
	return members
}

func includeRules(opts *Options) []selectionRule {
	var includes []selectionRule
	for _, rule := range opts.selection {
		if rule.kind == selectInclude || rule.kind == selectIncludeWhere {
			includes = append(includes, rule)
		}
	}
	return includes
}

// standardSelects applies the include and exclude rules to one member.
func standardSelects(opts *Options, includes []selectionRule, info MemberInfo) bool {
	if len(includes) > 0 && !anyIncludes(includes, info) {
		return false
	}
	for _, rule := range opts.selection {
		if rule.excludes(info) {
			return false
		}
	}
	return true
}

// selectsEntry reports whether the entry key of a string-keyed dictionary
// survives the include and exclude rules. Such entries are addressed like
// members, so "Audit.*" also excludes the keys of an Audit map.
func selectsEntry(opts *Options, ctx *Context, key string, mapType reflect.Type) bool {
	if len(opts.selection) == 0 {
		return true
	}
	info := MemberInfo{
		Name:          key,
		Path:          joinPath(ctx.MemberPath(), key),
		Kind:          EntryMember,
		Type:          mapType.Elem(),
		DeclaringType: mapType,
	}
	return standardSelects(opts, includeRules(opts), info)
}

func anyIncludes(rules []selectionRule, m MemberInfo) bool {
	for _, rule := range rules {
		if rule.includes(m) {
			return true
		}
	}
	return false
}

// includesPath reports whether an include pattern keeps the member at path:
// the pattern matches it, names one of its descendants, or names one of
// its ancestors.
func includesPath(pattern, path string) bool {
	if matchMemberPath(pattern, path) {
		return true
	}
	patternSegments := splitPath(pattern)
	pathSegments := splitPath(path)

	if len(pathSegments) < len(patternSegments) {
		// path may be an ancestor of members the pattern names
		head := patternSegments[:len(pathSegments)]
		for _, segment := range head {
			if segment == "**" {
				return true
			}
		}
		ok, _ := doublestar.Match(strings.Join(head, "/"), strings.Join(pathSegments, "/"))
		return ok
	}

	// path may be a descendant of a member the pattern names
	for i := len(patternSegments); i < len(pathSegments); i++ {
		ok, _ := doublestar.Match(strings.Join(patternSegments, "/"), strings.Join(pathSegments[:i], "/"))
		if ok {
			return true
		}
	}
	return false
}

// matchMemberPath matches an index-free member path against a dotted
// pattern where * matches one member and ** any number of members.
func matchMemberPath(pattern, path string) bool {
	ok, err := doublestar.Match(toSlashes(memberPath(pattern)), toSlashes(path))
	return err == nil && ok
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return invalidSelectorf(nil, "member pattern cannot be empty")
		}
		if !doublestar.ValidatePattern(toSlashes(memberPath(pattern))) {
			return invalidSelectorf(doublestar.ErrBadPattern, "member pattern %q is malformed", pattern)
		}
	}
	return nil
}

func toSlashes(path string) string {
	return strings.ReplaceAll(path, ".", "/")
}

func splitPath(path string) []string {
	path = memberPath(path)
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
