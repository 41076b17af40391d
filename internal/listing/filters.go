package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/equip-manager/equip-console/internal/refdata"
)

// SearchKey is the URL key of the free-text filter.
const SearchKey = "search"

// Choice is one entry of a filter dropdown.
type Choice struct {
	Value string
	Label string
}

// FilterSpec declares one filter of a list screen.
type FilterSpec struct {
	// Name is the key used in the console URL.
	Name string
	// Param is the key sent to the backend; defaults to Name.
	Param string
	// Category fills the dropdown from reference data.
	Category string
	// Choices is a fixed dropdown used when Category is empty.
	Choices []Choice
	Label   string
}

func (f FilterSpec) param() string {
	if f.Param == "" {
		return f.Name
	}
	return f.Param
}

// Filter is a FilterSpec with its current value and options, ready to render.
type Filter struct {
	FilterSpec
	Value   string
	Options []Choice
}

// Selected reports whether value is the filter's current value.
func (f Filter) Selected(value string) bool { return f.Value == value }

// Filters holds the value of every declared filter, in declaration order.
type Filters struct {
	specs  []FilterSpec
	values map[string]string
}

func newFilters(specs []FilterSpec) Filters {
	return Filters{specs: specs, values: make(map[string]string, len(specs))}
}

// Get returns the value of the filter called name.
func (f Filters) Get(name string) string { return f.values[name] }

func (f Filters) known(name string) bool {
	for _, spec := range f.specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}

func (f Filters) set(name, value string) bool {
	if !f.known(name) {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(f.values, name)
		return true
	}
	f.values[name] = value
	return true
}

func (f Filters) seed(query url.Values) {
	for _, spec := range f.specs {
		f.set(spec.Name, query.Get(spec.Name))
	}
}

// encode writes the non-empty filters using key to pick URL or backend names.
func (f Filters) encode(into url.Values, key func(FilterSpec) string) {
	for _, spec := range f.specs {
		if v := f.values[spec.Name]; v != "" {
			into.Set(key(spec), v)
		}
	}
}

func (f Filters) render(snap *refdata.Snapshot) []Filter {
	out := make([]Filter, 0, len(f.specs))
	for _, spec := range f.specs {
		item := Filter{FilterSpec: spec, Value: f.values[spec.Name], Options: spec.Choices}
		if spec.Category != "" {
			opts := snap.Options(spec.Category)
			item.Options = make([]Choice, 0, len(opts))
			for _, opt := range opts {
				item.Options = append(item.Options, Choice{Value: strconv.Itoa(opt.ID), Label: opt.Nome})
			}
		}
		out = append(out, item)
	}
	return out
}

// ParsePage reads a 1-based page number; anything else is page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
