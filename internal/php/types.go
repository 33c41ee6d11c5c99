// Package php extracts class-like and function-like records from PHP source
// and resolves PHP names against a file's use-map and namespace.
package php

import (
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// ClassKind distinguishes the four class-like declaration forms.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	}
	return "class"
}

// MemberKind distinguishes the member forms.
type MemberKind int

const (
	MemberMethod MemberKind = iota
	MemberProperty
	MemberConstant
	MemberEnumCase
)

// Space returns the PHP name-space a member kind lives in. Methods,
// properties and constants each have their own; enum cases share the
// constant space.
func (k MemberKind) Space() MemberSpace {
	switch k {
	case MemberMethod:
		return SpaceMethod
	case MemberProperty:
		return SpaceProperty
	}
	return SpaceConstant
}

// MemberSpace is the per-kind name space used for member-map keys.
type MemberSpace int

const (
	SpaceMethod MemberSpace = iota
	SpaceProperty
	SpaceConstant
)

// MemberKey identifies a member inside a ClassLike. Instance and static
// members share a name space in PHP; methods, properties and constants do
// not.
type MemberKey struct {
	Name  string
	Space MemberSpace
}

// Visibility of a member.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
	// VisibilityNone marks "unchanged" in trait adaptations.
	VisibilityNone Visibility = -1
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// Param is one declared parameter of a method or function.
type Param struct {
	Name       string
	Type       *phpdoc.Type // native hint
	DocType    *phpdoc.Type // @param override
	HasDefault bool
	Nullable   bool
	Variadic   bool
	ByRef      bool
	Promoted   bool
	PromotedVisibility Visibility
	PromotedReadonly   bool
}

// EffectiveType returns the docblock type when present, else the native hint.
func (p Param) EffectiveType() *phpdoc.Type {
	if p.DocType != nil {
		return p.DocType
	}
	return p.Type
}

// TemplateVariance of a template parameter.
type TemplateVariance int

const (
	Invariant TemplateVariance = iota
	Covariant
	Contravariant
)

// TemplateParam is a docblock-declared generic parameter.
type TemplateParam struct {
	Name     string
	Bound    *phpdoc.Type
	Variance TemplateVariance
}

// Member is a method, property, constant or enum case.
type Member struct {
	Name       string
	Kind       MemberKind
	Visibility Visibility
	Static     bool
	Readonly   bool
	Abstract   bool
	Native     *phpdoc.Type
	Doc        *phpdoc.Type // docblock type; wins over Native when present
	Params     []Param
	Templates  []TemplateParam
	// AssertTags are the @phpstan-assert* annotations, kept for narrowing.
	AssertTags []phpdoc.Tag
	Throws     []string
	Deprecated bool
	Owner      string // owning-class FQN, assigned during merge
	URI        string
	Offset     uint32
	End        uint32 // end byte of the declaration, body included
	DocSummary string
	Virtual    bool // declared via @property/@method
}

// EffectiveType returns the member's docblock type when present, else the
// native hint.
func (m *Member) EffectiveType() *phpdoc.Type {
	if m == nil {
		return nil
	}
	if m.Doc != nil {
		return m.Doc
	}
	return m.Native
}

// ReturnConditional returns the parsed conditional return type, when the
// effective type is one.
func (m *Member) ReturnConditional() *phpdoc.Conditional {
	t := m.EffectiveType()
	if t != nil && t.Kind == phpdoc.KindConditional {
		return t.Cond
	}
	return nil
}

// Key returns the member-map key for this member.
func (m *Member) Key() MemberKey {
	return MemberKey{Name: m.Name, Space: m.Kind.Space()}
}

// Clone returns a shallow copy with independent param and template slices.
// Type trees are shared until substituted.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	out := *m
	out.Params = append([]Param(nil), m.Params...)
	out.Templates = append([]TemplateParam(nil), m.Templates...)
	out.AssertTags = append([]phpdoc.Tag(nil), m.AssertTags...)
	out.Throws = append([]string(nil), m.Throws...)
	return &out
}

// AdaptationKind distinguishes trait-use adaptations.
type AdaptationKind int

const (
	// AdaptExclude is "A::m insteadof B, C".
	AdaptExclude AdaptationKind = iota
	// AdaptAlias is "A::m as [visibility] alias".
	AdaptAlias
)

// Adaptation is one entry of a trait-use adaptation block.
type Adaptation struct {
	Kind       AdaptationKind
	Method     string
	Source     string   // originating trait FQN; empty when unqualified
	Excluded   []string // AdaptExclude: traits losing the method
	Alias      string   // AdaptAlias: new name; empty for visibility-only
	Visibility Visibility
}

// TraitUse is one "use TraitName" entry inside a class body.
type TraitUse struct {
	Name        string // FQN
	Args        []*phpdoc.Type
	Adaptations []Adaptation
}

// AliasImport is an @import-type entry.
type AliasImport struct {
	Alias string
	From  string // originating class FQN
	As    string // renamed-to; empty keeps Alias
}

// ClassLike is the central extracted record for a class, interface, trait or
// enum declaration. Cross-references to other class-likes are FQN strings,
// resolved just-in-time through symbol lookup; records never hold live
// pointers to each other.
type ClassLike struct {
	FQN        string
	Name       string // short name, last FQN segment
	Kind       ClassKind
	Abstract   bool
	Final      bool
	Readonly   bool
	URI        string
	Offset     uint32 // byte offset of the declaration keyword
	End        uint32 // end byte of the declaration body
	Parent     string // at most one; empty for interfaces/traits/enums
	Interfaces []string
	Traits     []TraitUse
	Members    map[MemberKey]*Member
	Virtual    []*Member // @property / @property-read / @method
	Mixins     []string
	Templates  []TemplateParam
	// ParentArgs are the @extends type arguments, substituted into the
	// parent's templates at merge time.
	ParentArgs []*phpdoc.Type
	// InterfaceArgs maps interface FQN to its @implements type arguments.
	InterfaceArgs map[string][]*phpdoc.Type
	TypeAliases   map[string]*phpdoc.Type
	Imports       []AliasImport
	DocSummary    string
	Deprecated    bool
	// BackingType is the enum backing primitive ("int"/"string"); empty for
	// unit enums and non-enums.
	BackingType string
	Anonymous   bool
}

// Member returns the member with the given name in the given space.
func (c *ClassLike) Member(name string, space MemberSpace) (*Member, bool) {
	m, ok := c.Members[MemberKey{Name: name, Space: space}]
	return m, ok
}

// AddMember inserts the member, keeping the first declaration on duplicate
// names within a space.
func (c *ClassLike) AddMember(m *Member) {
	if c.Members == nil {
		c.Members = make(map[MemberKey]*Member)
	}
	key := m.Key()
	if _, ok := c.Members[key]; ok {
		return
	}
	c.Members[key] = m
}

// Concrete reports whether the class-like can be instantiated.
func (c *ClassLike) Concrete() bool {
	return c.Kind == KindClass && !c.Abstract
}

// Function is a standalone function-like record.
type Function struct {
	FQN string
	Member
}

// Constant is a define()/const record at file scope.
type Constant struct {
	FQN    string
	Name   string
	Value  string // literal text when literal enough for a hint; else empty
	URI    string
	Offset uint32
}

// FileRecords is everything extracted from one source file.
type FileRecords struct {
	URI       string
	Namespace string
	// Uses maps lowercased alias to FQN for class imports; FunctionUses and
	// ConstantUses carry "use function" / "use const".
	Uses         map[string]string
	FunctionUses map[string]string
	ConstantUses map[string]string
	Classes      []*ClassLike
	Functions    []*Function
	Constants    []*Constant
}

// ShortName returns the last backslash-separated segment.
func ShortName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '\\'); i >= 0 && i+1 < len(qualified) {
		return qualified[i+1:]
	}
	return qualified
}

// NormalizeFQN collapses doubled separators and strips leading "\" and "?".
func NormalizeFQN(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\\\", "\\"))
	name = strings.TrimLeft(name, "?\\")
	return name
}
