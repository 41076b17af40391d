// Package listing holds the state machine behind every paginated, filterable
// list screen: filter and page state, URL sync, debounced search and the
// create/update/delete round trips.
package listing

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
)

// DefaultPerPage is the fixed page size of list screens.
const DefaultPerPage = 20

// DefaultDebounce is the quiescence window of the search input.
const DefaultDebounce = 300 * time.Millisecond

// State is the lifecycle of a controller.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Resource is the backend surface a list screen needs.
type Resource[T, I any] interface {
	List(ctx context.Context, params backend.Params) (*backend.Page[T], error)
	Create(ctx context.Context, input I) (*backend.MutationResult, error)
	Update(ctx context.Context, id string, input I) (*backend.MutationResult, error)
	Delete(ctx context.Context, id string) (*backend.MutationResult, error)
}

// Messages are the success notifications of the mutations.
type Messages struct {
	Created string
	Updated string
	Deleted string
}

// Config describes one list screen.
type Config[I any] struct {
	Filters  []FilterSpec
	PerPage  int
	Debounce time.Duration
	Messages Messages
	// Validate runs before Create and Update; a failure blocks the request.
	Validate func(I) error
	Clock    shared.Clock
	Logger   *slog.Logger
	Notifier backend.Notifier
}

// PageState is the pagination half of the controller state.
type PageState struct {
	CurrentPage int
	PerPage     int
	TotalPages  int
	Total       int
}

// Controller owns the filter, page and data state of one list. It is not safe
// for concurrent use; callers serialize access (one request, or one live connection).
type Controller[T, I any] struct {
	resource  Resource[T, I]
	refdata   *refdata.Cache
	cfg       Config[I]
	logger    *slog.Logger
	notifier  backend.Notifier
	debouncer *shared.Debouncer

	state    State
	filters  Filters
	page     PageState
	items    []T
	snapshot *refdata.Snapshot
	lastErr  error
}

// New constructs a Controller in StateUninitialized.
func New[T, I any](resource Resource[T, I], cache *refdata.Cache, cfg Config[I]) *Controller[T, I] {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = backend.SessionNotifier{}
	}
	return &Controller[T, I]{
		resource:  resource,
		refdata:   cache,
		cfg:       cfg,
		logger:    logger,
		notifier:  notifier,
		debouncer: shared.NewDebouncer(cfg.Debounce, cfg.Clock),
		filters:   newFilters(cfg.Filters),
		page:      PageState{CurrentPage: 1, PerPage: cfg.PerPage, TotalPages: 1},
		items:     []T{},
	}
}

// Init loads the reference data for the dropdowns, seeds filter and page
// state from query and performs the first load.
func (c *Controller[T, I]) Init(ctx context.Context, query url.Values) {
	if c.refdata != nil {
		c.snapshot = c.refdata.Get(ctx, false)
	} else {
		c.snapshot = refdata.EmptySnapshot()
	}
	c.filters.seed(query)
	c.page.CurrentPage = ParsePage(query.Get("page"))
	c.LoadData(ctx)
}

// LoadData fetches the current page. The server's page count and current page
// are taken as returned. Failures leave an empty list and are not returned.
func (c *Controller[T, I]) LoadData(ctx context.Context) {
	c.state = StateLoading
	page, err := c.resource.List(ctx, c.params())
	if err == nil && page.Pages > 0 && page.CurrentPage > page.Pages {
		// the filter shrank the result below the requested page
		c.page.CurrentPage = page.Pages
		page, err = c.resource.List(ctx, c.params())
	}
	if err != nil {
		c.logger.Warn("list load failed",
			slog.Int("page", c.page.CurrentPage),
			slog.Any("error", err))
		c.items = []T{}
		c.page.TotalPages = 1
		c.page.Total = 0
		c.lastErr = err
		c.state = StateError
		return
	}

	c.items = page.Items
	if c.items == nil {
		c.items = []T{}
	}
	c.page.TotalPages = max(page.Pages, 1)
	if page.CurrentPage > 0 {
		c.page.CurrentPage = page.CurrentPage
	}
	c.page.CurrentPage = min(c.page.CurrentPage, c.page.TotalPages)
	c.page.Total = page.Total
	c.lastErr = nil
	c.state = StateReady
}

// ApplyFilters goes back to page 1, reloads and returns the canonical query.
func (c *Controller[T, I]) ApplyFilters(ctx context.Context) url.Values {
	c.page.CurrentPage = 1
	c.LoadData(ctx)
	return c.Query()
}

// SetFilter changes one filter and applies. Unknown names leave state untouched.
func (c *Controller[T, I]) SetFilter(ctx context.Context, name, value string) url.Values {
	if !c.filters.set(name, value) {
		return c.Query()
	}
	return c.ApplyFilters(ctx)
}

// Search sets the free-text filter and applies.
func (c *Controller[T, I]) Search(ctx context.Context, term string) url.Values {
	return c.SetFilter(ctx, SearchKey, term)
}

// Type records a keystroke in the search input. deliver is called with the
// final term once the input has been quiet for the debounce window; the caller
// is expected to pass it on to Search from its own goroutine.
func (c *Controller[T, I]) Type(term string, deliver func(term string)) {
	c.debouncer.Call(func() { deliver(term) })
}

// GoToPage loads page n with the filters unchanged.
func (c *Controller[T, I]) GoToPage(ctx context.Context, n int) url.Values {
	if n < 1 {
		n = 1
	}
	c.page.CurrentPage = n
	c.LoadData(ctx)
	return c.Query()
}

// Create submits a new record.
func (c *Controller[T, I]) Create(ctx context.Context, input I) (*backend.MutationResult, error) {
	return c.mutate(ctx, input, c.cfg.Messages.Created, func() (*backend.MutationResult, error) {
		return c.resource.Create(ctx, input)
	})
}

// Update submits changes to the record id.
func (c *Controller[T, I]) Update(ctx context.Context, id string, input I) (*backend.MutationResult, error) {
	return c.mutate(ctx, input, c.cfg.Messages.Updated, func() (*backend.MutationResult, error) {
		return c.resource.Update(ctx, id, input)
	})
}

// Delete removes the record id. Nothing is sent unless confirmed is true.
func (c *Controller[T, I]) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return shared.ErrNotConfirmed
	}
	if _, err := c.resource.Delete(ctx, id); err != nil {
		return err
	}
	c.notifySuccess(ctx, c.cfg.Messages.Deleted)
	c.reload(ctx)
	return nil
}

func (c *Controller[T, I]) mutate(ctx context.Context, input I, message string, call func() (*backend.MutationResult, error)) (*backend.MutationResult, error) {
	if c.cfg.Validate != nil {
		if err := c.cfg.Validate(input); err != nil {
			return nil, err
		}
	}
	res, err := call()
	if err != nil {
		return nil, err
	}
	c.notifySuccess(ctx, message)
	c.reload(ctx)
	return res, nil
}

// reload refreshes a list that is on screen. A controller that was never
// initialized has nothing rendered, so the caller's redirect does the load.
func (c *Controller[T, I]) reload(ctx context.Context) {
	if c.state != StateUninitialized {
		c.LoadData(ctx)
	}
}

func (c *Controller[T, I]) notifySuccess(ctx context.Context, message string) {
	if message == "" {
		return
	}
	backend.Notify(ctx, c.notifier, backend.Notification{Kind: backend.KindSuccess, Message: message})
}

// Close cancels a pending debounced search.
func (c *Controller[T, I]) Close() {
	c.debouncer.Stop()
}

// Query is the canonical URL query: non-empty filters plus page when above 1.
func (c *Controller[T, I]) Query() url.Values {
	q := url.Values{}
	c.filters.encode(q, func(s FilterSpec) string { return s.Name })
	if c.page.CurrentPage > 1 {
		q.Set("page", strconv.Itoa(c.page.CurrentPage))
	}
	return q
}

// Location joins path with the canonical query.
func (c *Controller[T, I]) Location(path string) string {
	if q := c.Query().Encode(); q != "" {
		return path + "?" + q
	}
	return path
}

func (c *Controller[T, I]) params() backend.Params {
	q := url.Values{}
	c.filters.encode(q, FilterSpec.param)
	params := backend.Params{
		"page":     strconv.Itoa(c.page.CurrentPage),
		"per_page": strconv.Itoa(c.page.PerPage),
	}
	for key := range q {
		params[key] = q.Get(key)
	}
	return params
}

// State returns the lifecycle state.
func (c *Controller[T, I]) State() State { return c.state }

// Err is the error of the last failed load, if the controller is in StateError.
func (c *Controller[T, I]) Err() error { return c.lastErr }

// Items returns the records of the current page.
func (c *Controller[T, I]) Items() []T { return c.items }

// Page returns the pagination state.
func (c *Controller[T, I]) Page() PageState { return c.page }

// Filter returns the value of one filter.
func (c *Controller[T, I]) Filter(name string) string { return c.filters.Get(name) }

// Filters returns every filter with its value and dropdown options.
func (c *Controller[T, I]) Filters() []Filter { return c.filters.render(c.snapshot) }

// Snapshot is the reference data loaded by Init.
func (c *Controller[T, I]) Snapshot() *refdata.Snapshot { return c.snapshot }

// Pagination builds the page control for the current state.
func (c *Controller[T, I]) Pagination() shared.Pagination {
	return shared.NewPagination(c.page.CurrentPage, c.page.TotalPages)
}

// Settings are the deployment-wide list parameters shared by every section.
type Settings struct {
	PerPage  int
	Debounce time.Duration
	Logger   *slog.Logger
}
