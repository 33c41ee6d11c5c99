package workspace

import (
	"context"
	"sort"
	"strings"

	"github.com/AJenbo/phpantom-lsp/internal/php"
	"github.com/AJenbo/phpantom-lsp/internal/phpdoc"
)

// MergedView is everything an IDE user sees on a class: its own members plus
// the contributions of traits, parents, interfaces and mixins, with
// precedence and template substitution applied.
type MergedView struct {
	Class   *php.ClassLike
	Members map[php.MemberKey]*php.Member
}

// Member looks up a merged member by name and space.
func (v *MergedView) Member(name string, space php.MemberSpace) (*php.Member, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.Members[php.MemberKey{Name: name, Space: space}]
	return m, ok
}

// All returns the merged members sorted by name, methods first.
func (v *MergedView) All() []*php.Member {
	if v == nil {
		return nil
	}
	out := make([]*php.Member, 0, len(v.Members))
	for _, m := range v.Members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Merge returns the fully-merged member view for a class-like. Precedence,
// highest first: own members, traits, the parent chain (classes plus their
// traits), interfaces, mixins. Cycles through parents, interfaces or type
// aliases are broken by a visited set.
func (ws *Workspace) Merge(ctx context.Context, cls *php.ClassLike) *MergedView {
	visited := make(map[string]struct{})
	view := &MergedView{Class: cls, Members: make(map[php.MemberKey]*php.Member)}
	ws.mergeInto(ctx, view, cls, nil, visited, mergeOpts{includePrivate: true, includeMixins: true})
	return view
}

type mergeOpts struct {
	// includePrivate admits private members: true for the subject class
	// itself and for traits (PHP copies trait privates through a use).
	includePrivate bool
	// publicOnly restricts to public members, for mixin layers.
	publicOnly bool
	// includeMixins is true only for the outermost class; mixin classes do
	// not chain their own mixins into the subject.
	includeMixins bool
}

func (ws *Workspace) mergeInto(ctx context.Context, view *MergedView, cls *php.ClassLike, subst map[string]*phpdoc.Type, visited map[string]struct{}, opts mergeOpts) {
	if cls == nil || ctx.Err() != nil {
		return
	}
	key := strings.ToLower(cls.FQN)
	if _, seen := visited[key]; seen {
		return
	}
	visited[key] = struct{}{}

	admit := func(m *php.Member) bool {
		if m.Visibility == php.Private && !opts.includePrivate {
			return false
		}
		if opts.publicOnly && m.Visibility != php.Public {
			return false
		}
		return true
	}

	add := func(m *php.Member, owner string) {
		if !admit(m) {
			return
		}
		k := m.Key()
		if _, exists := view.Members[k]; exists {
			return
		}
		view.Members[k] = substituteMember(m, subst, owner)
	}

	// own members, then docblock-declared virtual ones
	for _, m := range sortedMembers(cls.Members) {
		add(m, cls.FQN)
	}
	for _, m := range cls.Virtual {
		add(m, cls.FQN)
	}

	ws.mergeTraits(ctx, view, cls, subst, visited, opts)

	if cls.Parent != "" {
		if parent, ok := ws.FindClass(ctx, cls.Parent); ok {
			bindings := bindTemplates(parent.Templates, cls.ParentArgs, subst)
			ws.mergeInto(ctx, view, parent, bindings, visited, mergeOpts{publicOnly: opts.publicOnly})
		}
	}

	for _, ifaceFQN := range cls.Interfaces {
		if iface, ok := ws.FindClass(ctx, ifaceFQN); ok {
			bindings := bindTemplates(iface.Templates, cls.InterfaceArgs[ifaceFQN], subst)
			ws.mergeInto(ctx, view, iface, bindings, visited, mergeOpts{publicOnly: opts.publicOnly})
		}
	}

	if opts.includeMixins {
		for _, mixinFQN := range cls.Mixins {
			if mixin, ok := ws.FindClass(ctx, mixinFQN); ok {
				ws.mergeInto(ctx, view, mixin, nil, visited, mergeOpts{publicOnly: true})
			}
		}
	}
}

// mergeTraits folds every used trait into the view, honouring insteadof
// exclusions, then applies "as" aliases and visibility changes.
func (ws *Workspace) mergeTraits(ctx context.Context, view *MergedView, cls *php.ClassLike, subst map[string]*phpdoc.Type, visited map[string]struct{}, opts mergeOpts) {
	var adaptations []php.Adaptation
	for _, tu := range cls.Traits {
		adaptations = append(adaptations, tu.Adaptations...)
	}

	// excluded[traitFQN][method] per insteadof
	excluded := make(map[string]map[string]struct{})
	for _, a := range adaptations {
		if a.Kind != php.AdaptExclude {
			continue
		}
		for _, loser := range a.Excluded {
			k := strings.ToLower(loser)
			if excluded[k] == nil {
				excluded[k] = make(map[string]struct{})
			}
			excluded[k][strings.ToLower(a.Method)] = struct{}{}
		}
	}

	traitViews := make(map[string]*MergedView)
	for _, tu := range cls.Traits {
		trait, ok := ws.FindClass(ctx, tu.Name)
		if !ok {
			continue
		}
		bindings := bindTemplates(trait.Templates, tu.Args, subst)
		tv := &MergedView{Class: trait, Members: make(map[php.MemberKey]*php.Member)}
		ws.mergeInto(ctx, tv, trait, bindings, cloneVisited(visited), mergeOpts{includePrivate: true})
		traitViews[strings.ToLower(tu.Name)] = tv

		skip := excluded[strings.ToLower(tu.Name)]
		for k, m := range tv.Members {
			if skip != nil {
				if _, drop := skip[strings.ToLower(m.Name)]; drop && m.Kind == php.MemberMethod {
					continue
				}
			}
			if m.Visibility == php.Private && !opts.includePrivate {
				continue
			}
			if opts.publicOnly && m.Visibility != php.Public {
				continue
			}
			if _, exists := view.Members[k]; exists {
				continue
			}
			view.Members[k] = substituteMember(m, subst, trait.FQN)
		}
	}

	for _, a := range adaptations {
		if a.Kind != php.AdaptAlias {
			continue
		}
		source := ws.adaptationSource(a, traitViews)
		if source == nil {
			continue
		}
		if a.Alias != "" {
			aliased := source.Clone()
			aliased.Name = a.Alias
			aliased.Owner = cls.FQN
			if a.Visibility != php.VisibilityNone {
				aliased.Visibility = a.Visibility
			}
			k := aliased.Key()
			if _, exists := view.Members[k]; !exists {
				view.Members[k] = substituteMember(aliased, subst, cls.FQN)
			}
			continue
		}
		// visibility-only change on the merged member, no rename
		k := php.MemberKey{Name: a.Method, Space: php.SpaceMethod}
		if current, exists := view.Members[k]; exists && a.Visibility != php.VisibilityNone {
			changed := current.Clone()
			changed.Visibility = a.Visibility
			view.Members[k] = changed
		}
	}
}

func (ws *Workspace) adaptationSource(a php.Adaptation, traitViews map[string]*MergedView) *php.Member {
	lookup := func(tv *MergedView) *php.Member {
		if tv == nil {
			return nil
		}
		if m, ok := tv.Member(a.Method, php.SpaceMethod); ok {
			return m
		}
		return nil
	}
	if a.Source != "" {
		return lookup(traitViews[strings.ToLower(a.Source)])
	}
	for _, tv := range traitViews {
		if m := lookup(tv); m != nil {
			return m
		}
	}
	return nil
}

// bindTemplates maps a layer's template parameters to the arguments given by
// the referring class, rewriting the arguments through the outer
// substitution first. Missing arguments fall back to the declared bound.
func bindTemplates(templates []php.TemplateParam, args []*phpdoc.Type, outer map[string]*phpdoc.Type) map[string]*phpdoc.Type {
	if len(templates) == 0 {
		return nil
	}
	out := make(map[string]*phpdoc.Type, len(templates))
	for i, tp := range templates {
		switch {
		case i < len(args) && args[i] != nil:
			out[tp.Name] = args[i].Substitute(outer)
		case tp.Bound != nil:
			out[tp.Name] = tp.Bound
		default:
			out[tp.Name] = phpdoc.NewName("mixed")
		}
	}
	return out
}

func substituteMember(m *php.Member, subst map[string]*phpdoc.Type, owner string) *php.Member {
	out := m.Clone()
	if out.Owner == "" {
		out.Owner = owner
	}
	if len(subst) > 0 {
		out.Native = out.Native.Substitute(subst)
		out.Doc = out.Doc.Substitute(subst)
		for i := range out.Params {
			out.Params[i].Type = out.Params[i].Type.Substitute(subst)
			out.Params[i].DocType = out.Params[i].DocType.Substitute(subst)
		}
	}
	return out
}

func sortedMembers(members map[php.MemberKey]*php.Member) []*php.Member {
	out := make([]*php.Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func cloneVisited(visited map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(visited))
	for k := range visited {
		out[k] = struct{}{}
	}
	return out
}
