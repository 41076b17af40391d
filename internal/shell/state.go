package shell

import (
	"context"

	"github.com/equip-manager/equip-console/internal/shared"
)

const (
	sessionSection = "section"
	sessionSidebar = "sidebar_collapsed"
)

// ShowSection makes name the active section of sess and runs its Init.
func (r *Registry) ShowSection(ctx context.Context, sess *shared.Session, name string) (Section, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return Section{}, ErrUnknownSection
	}
	if sess != nil {
		sess.Set(sessionSection, s.Name)
	}
	if s.Init != nil {
		s.Init(ctx)
	}
	return s, nil
}

// CurrentSection returns the persisted active section, DefaultSection when
// nothing valid is stored.
func (r *Registry) CurrentSection(sess *shared.Session) Section {
	if sess != nil {
		if s, ok := r.Lookup(sess.Get(sessionSection)); ok {
			return s
		}
	}
	if s, ok := r.Lookup(DefaultSection); ok {
		return s
	}
	if len(r.order) > 0 {
		return r.byName[r.order[0]]
	}
	return Section{Name: DefaultSection, Title: FallbackTitle, Path: "/"}
}

// ToggleSidebar flips the collapsed flag and returns the new value.
func ToggleSidebar(sess *shared.Session) bool {
	if sess == nil {
		return false
	}
	collapsed := !sess.Bool(sessionSidebar)
	sess.SetBool(sessionSidebar, collapsed)
	return collapsed
}

// SidebarCollapsed reports the persisted sidebar flag.
func SidebarCollapsed(sess *shared.Session) bool {
	return sess != nil && sess.Bool(sessionSidebar)
}
