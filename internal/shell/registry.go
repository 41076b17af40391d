// Package shell owns the console frame around the sections: which section is
// active, whether the sidebar is collapsed, global search and the
// notification badge.
package shell

import (
	"context"
	"errors"
	"strings"
)

// DefaultSection is shown when the session has no preference yet.
const DefaultSection = "dashboard"

// FallbackTitle is the header title outside any known section.
const FallbackTitle = "Sistema"

// ErrUnknownSection is returned when a section name is not registered.
var ErrUnknownSection = errors.New("unknown section")

// Section is one entry of the sidebar.
type Section struct {
	Name  string
	Title string
	Path  string
	Icon  string
	// Init prepares the section when it becomes active. Optional.
	Init func(ctx context.Context)
	// Search returns where a global search for term lands. Nil when the
	// section has no list to search.
	Search func(term string) string
}

// Searchable reports whether global search applies to the section.
func (s Section) Searchable() bool { return s.Search != nil }

// Registry holds the sections in sidebar order.
type Registry struct {
	order  []string
	byName map[string]Section
}

// NewRegistry builds a registry; later duplicates replace earlier ones in place.
func NewRegistry(sections ...Section) *Registry {
	reg := &Registry{byName: make(map[string]Section, len(sections))}
	for _, s := range sections {
		reg.Register(s)
	}
	return reg
}

// Register adds or replaces a section.
func (r *Registry) Register(s Section) {
	if _, exists := r.byName[s.Name]; !exists {
		r.order = append(r.order, s.Name)
	}
	r.byName[s.Name] = s
}

// Lookup returns the section called name.
func (r *Registry) Lookup(name string) (Section, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Sections returns every section in sidebar order.
func (r *Registry) Sections() []Section {
	out := make([]Section, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Title returns the header title of name, FallbackTitle when unknown.
func (r *Registry) Title(name string) string {
	if s, ok := r.byName[name]; ok && s.Title != "" {
		return s.Title
	}
	return FallbackTitle
}

// ForPath returns the section whose path is a prefix of urlPath.
func (r *Registry) ForPath(urlPath string) (Section, bool) {
	var (
		best  Section
		found bool
	)
	for _, name := range r.order {
		s := r.byName[name]
		if s.Path == "" {
			continue
		}
		if urlPath == s.Path || strings.HasPrefix(urlPath, s.Path+"/") {
			if !found || len(s.Path) > len(best.Path) {
				best, found = s, true
			}
		}
	}
	return best, found
}
