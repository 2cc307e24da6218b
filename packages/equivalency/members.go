package equivalency

import (
	"fmt"
	"reflect"
)

// MemberKind distinguishes how a member is read.
type MemberKind int

const (
	// FieldMember is an exported struct field, promoted fields included.
	FieldMember MemberKind = iota
	// GetterMember is an exported method without parameters returning one non-error value.
	GetterMember
	// EntryMember is an entry of a map with string keys standing in for a struct.
	EntryMember
)

func (k MemberKind) String() string {
	switch k {
	case GetterMember:
		return "getter"
	case EntryMember:
		return "entry"
	default:
		return "field"
	}
}

// MemberInfo describes a member for selection predicates and matching rules.
type MemberInfo struct {
	Name string
	// Path is the index-free path from the root, for example "Orders.Lines".
	Path string
	Kind MemberKind
	// Type is the declared type of the member.
	Type reflect.Type
	// DeclaringType is the type the member was discovered on.
	DeclaringType reflect.Type
}

// Member is a readable member of a type.
type Member struct {
	MemberInfo

	index []int
	key   reflect.Value
}

// Get reads the member from owner. A nil embedded pointer on the way to a
// promoted field yields an invalid value, which compares as nil.
func (m Member) Get(owner reflect.Value) (value reflect.Value, err error) {
	owner = unwrap(owner)
	switch m.Kind {
	case EntryMember:
		for owner.Kind() == reflect.Pointer && !owner.IsNil() {
			owner = owner.Elem()
		}
		if owner.Kind() != reflect.Map || owner.IsNil() {
			return reflect.Value{}, nil
		}
		return owner.MapIndex(m.key), nil
	case GetterMember:
		method := methodOf(owner, m.Name)
		if !method.IsValid() {
			return reflect.Value{}, fmt.Errorf("type %s has no method %s", owner.Type(), m.Name)
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("calling %s panicked: %v", m.Name, r)
			}
		}()
		return method.Call(nil)[0], nil
	default:
		for owner.Kind() == reflect.Pointer {
			if owner.IsNil() {
				return reflect.Value{}, nil
			}
			owner = owner.Elem()
		}
		if owner.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("type %s has no field %s", owner.Type(), m.Name)
		}
		field, err := owner.FieldByIndexErr(m.index)
		if err != nil {
			return reflect.Value{}, nil
		}
		return field, nil
	}
}

func methodOf(owner reflect.Value, name string) reflect.Value {
	if !owner.IsValid() {
		return reflect.Value{}
	}
	if m := owner.MethodByName(name); m.IsValid() {
		return m
	}
	if owner.Kind() == reflect.Pointer {
		return reflect.Value{}
	}
	if owner.CanAddr() {
		return owner.Addr().MethodByName(name)
	}
	ptr := reflect.New(owner.Type())
	ptr.Elem().Set(owner)
	return ptr.MethodByName(name)
}

// Side says which graph a member list is discovered on.
type Side int

const (
	ExpectationSide Side = iota
	SubjectSide
)

// MemberCatalog enumerates the members of types according to the options.
// It caches per type and is not safe for concurrent use.
type MemberCatalog struct {
	opts  *Options
	cache map[catalogKey][]Member
}

type catalogKey struct {
	t    reflect.Type
	side Side
}

func newMemberCatalog(opts *Options) *MemberCatalog {
	return &MemberCatalog{opts: opts, cache: make(map[catalogKey][]Member)}
}

// Members returns the members visible on t. Pointer types are dereferenced.
// Interface types expose their methods as getters.
func (c *MemberCatalog) Members(t reflect.Type, side Side) []Member {
	if t == nil {
		return nil
	}
	key := catalogKey{t: t, side: side}
	if members, ok := c.cache[key]; ok {
		return members
	}
	members := c.discover(t, side)
	c.cache[key] = members
	return members
}

func (c *MemberCatalog) discover(t reflect.Type, side Side) []Member {
	if t.Kind() == reflect.Interface {
		return interfaceGetters(t)
	}

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	var fields []Member
	if base.Kind() == reflect.Struct {
		fields = exportedFields(base)
	}

	includeFields := c.opts.fields
	includeGetters := c.opts.getters || (len(fields) == 0 && !c.opts.gettersExplicit)
	if side == SubjectSide {
		// The subject offers every member the expectation may ask for.
		includeFields, includeGetters = true, true
	}

	var members []Member
	if includeFields {
		members = append(members, fields...)
	}
	if includeGetters {
		seen := make(map[string]bool, len(members))
		for _, m := range members {
			seen[m.Name] = true
		}
		for _, g := range typeGetters(base) {
			if !seen[g.Name] {
				members = append(members, g)
			}
		}
	}
	return members
}

func exportedFields(t reflect.Type) []Member {
	var members []Member
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		ft := f.Type
		if f.Anonymous {
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !hasEqualMethod(ft) {
				// Promoted fields of the embedded struct are listed separately.
				continue
			}
		}
		members = append(members, Member{
			MemberInfo: MemberInfo{
				Name:          f.Name,
				Kind:          FieldMember,
				Type:          f.Type,
				DeclaringType: t,
			},
			index: f.Index,
		})
	}
	return members
}

// Methods that render text or take a lock rather than expose state.
var excludedGetters = map[string]bool{
	"String":   true,
	"GoString": true,
	"Error":    true,
	"TryLock":  true,
	"TryRLock": true,
}

var errorType = reflect.TypeFor[error]()

func typeGetters(t reflect.Type) []Member {
	// Methods of synchronization primitives change their state.
	if t.PkgPath() == "sync" || t.PkgPath() == "sync/atomic" {
		return nil
	}
	ptr := reflect.PointerTo(t)
	var members []Member
	for i := range ptr.NumMethod() {
		m := ptr.Method(i)
		if !m.IsExported() || excludedGetters[m.Name] {
			continue
		}
		// In(0) is the receiver.
		if m.Type.NumIn() != 1 || !isGetterResult(m.Type) {
			continue
		}
		members = append(members, Member{
			MemberInfo: MemberInfo{
				Name:          m.Name,
				Kind:          GetterMember,
				Type:          m.Type.Out(0),
				DeclaringType: t,
			},
		})
	}
	return members
}

func interfaceGetters(t reflect.Type) []Member {
	var members []Member
	for i := range t.NumMethod() {
		m := t.Method(i)
		if !m.IsExported() || excludedGetters[m.Name] {
			continue
		}
		if m.Type.NumIn() != 0 || !isGetterResult(m.Type) {
			continue
		}
		members = append(members, Member{
			MemberInfo: MemberInfo{
				Name:          m.Name,
				Kind:          GetterMember,
				Type:          m.Type.Out(0),
				DeclaringType: t,
			},
		})
	}
	return members
}

func isGetterResult(ft reflect.Type) bool {
	return !ft.IsVariadic() && ft.NumOut() == 1 && ft.Out(0) != errorType
}

// entryMembers exposes the entries of a map with string keys as members.
func entryMembers(m reflect.Value) []Member {
	if m.Kind() != reflect.Map || m.IsNil() || m.Type().Key().Kind() != reflect.String {
		return nil
	}
	keys := m.MapKeys()
	members := make([]Member, 0, len(keys))
	for _, k := range keys {
		members = append(members, Member{
			MemberInfo: MemberInfo{
				Name:          k.String(),
				Kind:          EntryMember,
				Type:          m.Type().Elem(),
				DeclaringType: m.Type(),
			},
			key: k,
		})
	}
	return members
}

func hasMembers(v reflect.Value) bool {
	v = unwrap(v)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return false
	}
	if v.Kind() == reflect.Struct {
		return true
	}
	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		return true
	}
	return len(typeGetters(v.Type())) > 0
}
