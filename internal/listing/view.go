package listing

import (
	"io"
	"net/url"
	"strconv"

	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
)

// View is what a list template needs from a controller.
type View[T any] struct {
	Path       string
	Items      []T
	Filters    []Filter
	Search     string
	Page       PageState
	Pagination shared.Pagination
	State      State
	Query      url.Values
	Snapshot   *refdata.Snapshot
}

// URL is the canonical location of the list.
func (v View[T]) URL() string {
	if q := v.Query.Encode(); q != "" {
		return v.Path + "?" + q
	}
	return v.Path
}

// PageURL is the location of page n with the current filters.
func (v View[T]) PageURL(n int) string {
	q := url.Values{}
	for k, vals := range v.Query {
		q[k] = append([]string(nil), vals...)
	}
	q.Del("page")
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if enc := q.Encode(); enc != "" {
		return v.Path + "?" + enc
	}
	return v.Path
}

// Failed reports whether the last load failed.
func (v View[T]) Failed() bool { return v.State == StateError }

// View snapshots the controller for rendering under path.
func (c *Controller[T, I]) View(path string) View[T] {
	return View[T]{
		Path:       path,
		Items:      c.items,
		Filters:    c.Filters(),
		Search:     c.filters.Get(SearchKey),
		Page:       c.page,
		Pagination: c.Pagination(),
		State:      c.state,
		Query:      c.Query(),
		Snapshot:   c.snapshot,
	}
}

// Renderer executes a named template fragment.
type Renderer interface {
	Fragment(out io.Writer, name string, data any) error
}

// Screen binds a controller to the path it lives under and the fragment that
// draws its table and pagination, for callers that re-render without a page load.
type Screen[T, I any] struct {
	*Controller[T, I]
	path     string
	fragment string
	renderer Renderer
}

// NewScreen constructs a Screen.
func NewScreen[T, I any](c *Controller[T, I], path, fragment string, renderer Renderer) *Screen[T, I] {
	return &Screen[T, I]{Controller: c, path: path, fragment: fragment, renderer: renderer}
}

// Render writes the list fragment.
func (s *Screen[T, I]) Render(out io.Writer) error {
	return s.renderer.Fragment(out, s.fragment, s.View(s.path))
}

// URL is the canonical location of the current state.
func (s *Screen[T, I]) URL() string {
	return s.Location(s.path)
}
